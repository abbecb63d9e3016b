package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	validateInputs inputFlags
	validateStrict bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog, weights and rule tables for gaps",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := validateInputs.loadEngine()
		if err != nil {
			return err
		}
		diags := e.Validate()

		w := cmd.OutOrStdout()
		for _, d := range diags {
			if d.QuestionID != "" {
				fmt.Fprintf(w, "[%s] %s: %s\n", d.Level, d.QuestionID, d.Message)
			} else {
				fmt.Fprintf(w, "[%s] %s\n", d.Level, d.Message)
			}
		}
		fmt.Fprintf(w, "%d questions, %d categories, %d fix rules, %d clusters: %d warning(s)\n",
			e.Catalog.Len(), len(e.Catalog.Categories()), len(e.Rules.FixRules), len(e.Rules.Clusters), len(diags))
		if validateStrict && len(diags) > 0 {
			return fmt.Errorf("validation reported %d warning(s)", len(diags))
		}
		return nil
	},
}

func init() {
	validateInputs.register(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Fail when any warning is reported")
	rootCmd.AddCommand(validateCmd)
}
