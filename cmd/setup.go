package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/adk"
	"github.com/user/hecvat-adk/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for the assessment assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("Welcome to HECVAT-ADK Setup Wizard")
		fmt.Println("----------------------------------")

		provider := "gemini"
		fmt.Printf("Step 1: Enter API Key for %s\n", provider)
		fmt.Print("> ")
		scanner.Scan()
		apiKey := strings.TrimSpace(scanner.Text())
		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		fmt.Println("\nStep 2: Validating key and fetching available models...")
		ctx := context.Background()
		tempProvider, err := adk.NewProvider(ctx, provider, apiKey, "")
		if err != nil {
			return fmt.Errorf("initializing provider: %w", err)
		}
		if closer, ok := tempProvider.(interface{ Close() }); ok {
			defer closer.Close()
		}

		models, err := tempProvider.ListModels(ctx)
		var selectedModel string
		if err != nil || len(models) == 0 {
			fmt.Printf("Warning: Could not fetch models from API: %v\n", err)
			fmt.Printf("Enter model name (blank for %s):\n> ", config.Default().Assistant.Model)
			scanner.Scan()
			selectedModel = strings.TrimSpace(scanner.Text())
			if selectedModel == "" {
				selectedModel = config.Default().Assistant.Model
			}
		} else {
			fmt.Printf("Successfully retrieved %d models.\n", len(models))
			for i, m := range models {
				fmt.Printf("%d. %s\n", i+1, m)
			}
			fmt.Print("Select Model (number) > ")
			scanner.Scan()
			selIdx, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
			if err != nil || selIdx < 1 || selIdx > len(models) {
				fmt.Println("Invalid selection. Using first available model.")
				selectedModel = models[0]
			} else {
				selectedModel = models[selIdx-1]
			}
		}

		fmt.Println("\nStep 3: Saving Configuration...")
		cfg.Assistant.Provider = provider
		cfg.Assistant.Model = selectedModel
		cfg.SetAPIKey(provider, apiKey)
		if err := config.SaveConfig(cfg, ConfigPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Println("----------------------------------")
		fmt.Println("Setup Complete!")
		fmt.Printf("Provider: %s\n", provider)
		fmt.Printf("Model:    %s\n", selectedModel)
		fmt.Println("You can now run 'hecvat-adk interactive'")
		return nil
	},
}

func init() {
	configCmd.AddCommand(setupCmd)
}
