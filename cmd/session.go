package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/hecvat-adk/pkg/engine"
	"github.com/user/hecvat-adk/pkg/repo"
	"github.com/user/hecvat-adk/pkg/store"
)

// inputFlags are the rule data locations shared by every command.
type inputFlags struct {
	catalog string
	weights string
	rules   string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "Question catalog file or directory (default from config)")
	cmd.Flags().StringVar(&f.weights, "weights", "", "Category weights file (default from config)")
	cmd.Flags().StringVar(&f.rules, "rules", "", "Rule table file or directory (default from config)")
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// loadEngine reads the catalog, weights and rule tables and builds an engine.
func (f *inputFlags) loadEngine() (*engine.Engine, error) {
	catalogPath := orDefault(f.catalog, cfg.Inputs.Catalog)
	weightsPath := orDefault(f.weights, cfg.Inputs.Weights)
	rulesPath := orDefault(f.rules, cfg.Inputs.Rules)

	c, err := engine.LoadCatalog(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	w, err := engine.LoadWeights(weightsPath)
	if err != nil {
		return nil, fmt.Errorf("loading weights: %w", err)
	}
	rules, err := engine.LoadRules(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	log.Debug("loaded rule data", "questions", c.Len(), "categories", len(w), "fix_rules", len(rules.FixRules),
		"clusters", len(rules.Clusters))
	return engine.NewEngine(c, w, rules, log.Named("engine")), nil
}

// runFlags describe where a run's findings come from.
type runFlags struct {
	inputFlags
	findings string
	patches  string
	repoDir  string
	snapshot string
}

func (f *runFlags) register(cmd *cobra.Command) {
	f.inputFlags.register(cmd)
	cmd.Flags().StringVarP(&f.findings, "findings", "f", "", "Findings JSON file")
	cmd.Flags().StringVar(&f.patches, "patches", "", "JSON list of question ids the generated patch covers")
	cmd.Flags().StringVar(&f.repoDir, "repo", ".", "Assessed repository (branch and commit are recorded)")
}

// assess resolves the findings into a fresh assessment.
func (f *runFlags) assess(ctx context.Context, e *engine.Engine) (*engine.Assessment, error) {
	findings, err := engine.LoadFindings(f.findings)
	if err != nil {
		return nil, fmt.Errorf("loading findings: %w", err)
	}
	var patched map[string]bool
	if f.patches != "" {
		if patched, err = engine.LoadPatchManifest(f.patches); err != nil {
			return nil, fmt.Errorf("loading patch manifest: %w", err)
		}
	}

	info, err := repo.Inspect(f.repoDir)
	if err != nil {
		log.Warn("repository metadata unavailable", "path", f.repoDir, "error", err)
	}
	return e.Assess(ctx, engine.Input{Findings: findings, Patched: patched, Repo: info})
}

// load returns an assessment from findings when given, otherwise from the
// current snapshot of the last written bundle.
func (f *runFlags) load(ctx context.Context, e *engine.Engine) (*engine.Assessment, error) {
	if f.findings != "" {
		return f.assess(ctx, e)
	}
	path := orDefault(f.snapshot, filepath.Join(cfg.OutputDir, store.SnapshotFile(engine.TierCurrent)))
	current, err := engine.LoadSnapshotFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot (run 'hecvat-adk assess' or pass --findings): %w", err)
	}
	log.Info("loaded current snapshot", "path", path, "id", current.ID)
	return e.Evaluate(ctx, current)
}

func openArchive() (store.Archive, error) {
	a, err := store.Open(cfg.Archive)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot archive: %w", err)
	}
	return a, nil
}
