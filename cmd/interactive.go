package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/adk"
	"github.com/user/hecvat-adk/pkg/wrappers"
)

var interactiveFlags runFlags

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Ask questions about an assessment in a chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		providerName := cfg.Assistant.Provider
		apiKey := cfg.GetAPIKey(providerName)
		if apiKey == "" {
			return fmt.Errorf("API key not found, run 'hecvat-adk config setup' to configure your keys")
		}

		ws, closeWS, err := interactiveFlags.workspace(cmd)
		if err != nil {
			return err
		}
		defer closeWS()

		fmt.Printf("Connecting to %s (Model: %s)...\n", providerName, cfg.Assistant.Model)
		provider, err := adk.NewProvider(ctx, providerName, apiKey, cfg.Assistant.Model)
		if err != nil {
			return fmt.Errorf("creating AI provider: %w", err)
		}
		if closer, ok := provider.(interface{ Close() }); ok {
			defer closer.Close()
		}

		agent := adk.NewAgent(provider, log.Named("agent"))
		for _, t := range wrappers.All(ws) {
			agent.RegisterTool(t)
		}
		agent.SetSystemPrompt(adk.DefaultSystemPrompt)

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("\n---------------------------------------------------------")
		fmt.Printf("HECVAT-ADK assistant ready. Assessment %s loaded.\n", ws.Assessment.Current.ID)
		fmt.Println("Example: 'What would the score be after the checklist?'")
		fmt.Println("Example: 'Which remediation tasks come first for access control?'")
		fmt.Println("Type 'quit' or 'exit' to stop.")
		fmt.Println("---------------------------------------------------------")

		for {
			fmt.Print("\n> ")
			if !scanner.Scan() {
				break
			}
			input := scanner.Text()
			if input == "quit" || input == "exit" {
				break
			}
			if input == "" {
				continue
			}

			fmt.Print("Agent thinking... ")
			resp, err := agent.Chat(ctx, input, func(msg string) {
				fmt.Printf("\r\033[K[Progress]: %s\nAgent thinking... ", msg)
			})
			fmt.Print("\r\033[K")

			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Printf("\n[Agent]: %s\n", resp)
			}
		}
		return nil
	},
}

// workspace loads the assessment the tools answer from, with the snapshot
// archive attached. The returned func closes the archive.
func (f *runFlags) workspace(cmd *cobra.Command) (*wrappers.Workspace, func(), error) {
	e, err := f.loadEngine()
	if err != nil {
		return nil, nil, err
	}
	a, err := f.load(cmd.Context(), e)
	if err != nil {
		return nil, nil, err
	}
	archive, err := openArchive()
	if err != nil {
		return nil, nil, err
	}
	return &wrappers.Workspace{Engine: e, Assessment: a, Store: archive}, func() { archive.Close() }, nil
}

func registerSessionFlags(cmd *cobra.Command, f *runFlags) {
	f.register(cmd)
	cmd.Flags().StringVar(&f.snapshot, "snapshot", "", "Current snapshot to load when no findings are given (default <output_dir>/current.json)")
}

func init() {
	registerSessionFlags(interactiveCmd, &interactiveFlags)
	rootCmd.AddCommand(interactiveCmd)
}
