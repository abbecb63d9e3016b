package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/engine"
)

var (
	deltaInputs inputFlags
	deltaJSON   bool
)

var deltaCmd = &cobra.Command{
	Use:   "delta [old.json] <new.json>",
	Short: "Compare two snapshots, or one snapshot against the newest archived run",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := deltaInputs.loadEngine()
		if err != nil {
			return err
		}

		cur, err := engine.LoadSnapshotFile(args[len(args)-1])
		if err != nil {
			return err
		}

		var d *engine.Delta
		if len(args) == 2 {
			prev, err := engine.LoadSnapshotFile(args[0])
			if err != nil {
				return err
			}
			d = engine.Compare(e.Catalog, e.Weights, prev, cur)
		} else {
			archive, err := openArchive()
			if err != nil {
				return err
			}
			defer archive.Close()
			if d, err = engine.CompareWithLatest(cmd.Context(), archive, e.Catalog, e.Weights, cur); err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("no archived snapshot to compare against")
			}
		}

		w := cmd.OutOrStdout()
		if deltaJSON {
			data, err := json.MarshalIndent(d, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(data))
			return nil
		}
		fmt.Fprint(w, engine.DeltaReport(d))
		return nil
	},
}

func init() {
	deltaInputs.register(deltaCmd)
	deltaCmd.Flags().BoolVar(&deltaJSON, "json", false, "Print the delta as JSON")
	rootCmd.AddCommand(deltaCmd)
}
