package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/engine"
	"github.com/user/hecvat-adk/pkg/metrics"
	"github.com/user/hecvat-adk/pkg/store"
)

var (
	assessFlags  runFlags
	assessOut    string
	assessSave   bool
	assessNoDiff bool
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score findings, project tiers, plan remediation and compare with the last run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if assessFlags.findings == "" {
			return fmt.Errorf("--findings is required")
		}

		out := orDefault(assessOut, cfg.OutputDir)
		if err := store.CheckLayout(out, cfg.Archive.Path); err != nil {
			return err
		}

		e, err := assessFlags.loadEngine()
		if err != nil {
			return err
		}
		a, err := assessFlags.assess(ctx, e)
		if err != nil {
			return err
		}

		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		if !assessNoDiff {
			if err := e.CompareWithLatest(ctx, archive, a); err != nil {
				return err
			}
		}

		files, err := store.AssessmentBundle(a)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := store.WriteBundle(out, files); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		log.Info("wrote assessment bundle", "dir", out, "files", len(files))

		if assessSave {
			if err := archive.Save(ctx, a.Current); err != nil {
				return fmt.Errorf("archiving snapshot: %w", err)
			}
			log.Info("archived current snapshot", "id", a.Current.ID)
		}

		if cfg.Metrics.Textfile != "" {
			c := metrics.NewCollector()
			c.Observe(a)
			if err := c.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				log.Warn("metrics textfile not written", "error", err)
			}
		}

		printRunSummary(cmd, a, out)
		if a.PlanErr != nil {
			return fmt.Errorf("task plan: %w", a.PlanErr)
		}
		return nil
	},
}

func printRunSummary(cmd *cobra.Command, a *engine.Assessment, out string) {
	w := cmd.OutOrStdout()
	for _, t := range engine.Tiers {
		sc := a.Scores[t]
		fmt.Fprintf(w, "%-15s weighted %5.1f  raw %5.1f%%  confidence-adjusted %5.1f%%\n",
			t, sc.WeightedScore, 100*sc.RawScore, 100*sc.ConfidenceAdjustedScore)
	}
	if a.Plan != nil {
		fmt.Fprintf(w, "%d remediation tasks in %d work streams\n", a.Plan.Metadata.TotalTasks, len(a.Plan.WorkStreams))
	}
	if d := a.Delta; d != nil {
		fmt.Fprintf(w, "since %s: %d improved, %d regressed (%+.1f weighted)\n",
			d.OldID, len(d.Improved), len(d.Regressed), d.WeightedScoreDelta)
	}
	fmt.Fprintf(w, "output written to %s\n", out)
}

func init() {
	assessFlags.register(assessCmd)
	assessCmd.Flags().StringVarP(&assessOut, "out", "o", "", "Output directory (default from config)")
	assessCmd.Flags().BoolVar(&assessSave, "save", true, "Archive the current snapshot as the next baseline")
	assessCmd.Flags().BoolVar(&assessNoDiff, "no-compare", false, "Skip the comparison with the last archived run")
	rootCmd.AddCommand(assessCmd)
}
