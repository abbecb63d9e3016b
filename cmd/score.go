package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/engine"
)

var (
	scoreInputs inputFlags
	scoreJSON   bool
)

var scoreCmd = &cobra.Command{
	Use:   "score <snapshot.json>",
	Short: "Score an existing snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := scoreInputs.loadEngine()
		if err != nil {
			return err
		}
		s, err := engine.LoadSnapshotFile(args[0])
		if err != nil {
			return err
		}
		sc := engine.Score(e.Catalog, e.Weights, s)

		w := cmd.OutOrStdout()
		if scoreJSON {
			data, err := json.MarshalIndent(sc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		}

		fmt.Fprintf(w, "Snapshot %s (%s)\n", s.ID, s.Tier)
		fmt.Fprintf(w, "  Raw:                 %d/%d (%.1f%%)\n", sc.Compliant, sc.Assessed, 100*sc.RawScore)
		fmt.Fprintf(w, "  Weighted:            %.1f / 100\n", sc.WeightedScore)
		fmt.Fprintf(w, "  Confidence-adjusted: %.1f%%\n", 100*sc.ConfidenceAdjustedScore)
		fmt.Fprintf(w, "  Org attestation:     %d questions\n\n", sc.AttestationRequired)
		for _, cs := range sc.Categories {
			if cs.AssessableCount == 0 {
				continue
			}
			fmt.Fprintf(w, "  %-5s %-32s %3d/%-3d %5.1f%%  wt %g\n", cs.Category, cs.Name,
				cs.CompliantCount, cs.AssessableCount, cs.Percent(), cs.Weight)
		}
		return nil
	},
}

func init() {
	scoreInputs.register(scoreCmd)
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print scores as JSON")
	rootCmd.AddCommand(scoreCmd)
}
