package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/config"
	"github.com/user/hecvat-adk/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "hecvat-adk",
	Short: "HECVAT assessment scoring and remediation planning",
	Long: `hecvat-adk turns per-question findings about a repository into a scored
HECVAT assessment, projects the score after the generated patch and the
documentation checklist, plans deduplicated remediation work, and tracks
progress between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(); err != nil {
			return err
		}
		c, err := config.LoadConfig(ConfigPath)
		if err != nil {
			return err
		}
		cfg = c
		log = logger.NewLogger(cfg, "hecvat-adk")
		if DebugMode {
			log.SetLevel(hclog.Debug)
		}
		return nil
	},
}

var (
	DebugMode  bool
	ConfigPath string

	cfg *config.Config
	log hclog.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "Config file (default ~/.hecvat-adk/config.yaml)")
}
