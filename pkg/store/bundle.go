package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/user/hecvat-adk/pkg/engine"
)

// Bundle file names.
const (
	ScoresFile      = "scores.json"
	PlanFile        = "task_plan.json"
	DeltaFile       = "delta.json"
	DiagnosticsFile = "diagnostics.json"
	SummaryFile     = "summary.md"
	DeltaReportFile = "delta_report.md"

	// MarkerFile tags a directory as written by WriteBundle.
	MarkerFile = ".hecvat-bundle"
)

// ErrNotBundle is returned when the output directory holds files that
// WriteBundle did not write.
var ErrNotBundle = errors.New("output directory is not empty and holds no previous bundle")

// SnapshotFile returns the bundle file name of a tier's snapshot.
func SnapshotFile(t engine.Tier) string {
	return string(t) + ".json"
}

// AssessmentBundle renders every output of a run into named files.
func AssessmentBundle(a *engine.Assessment) (map[string][]byte, error) {
	files := make(map[string][]byte)
	for _, t := range engine.Tiers {
		data, err := a.Snapshot(t).Marshal()
		if err != nil {
			return nil, fmt.Errorf("marshal %s snapshot: %w", t, err)
		}
		files[SnapshotFile(t)] = data
	}

	add := func(name string, v any) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		files[name] = data
		return nil
	}
	if err := add(ScoresFile, a.Scores); err != nil {
		return nil, err
	}
	if a.Plan != nil {
		if err := add(PlanFile, a.Plan); err != nil {
			return nil, err
		}
	}
	if len(a.Diagnostics) > 0 {
		if err := add(DiagnosticsFile, a.Diagnostics); err != nil {
			return nil, err
		}
	}
	if a.Delta != nil {
		if err := add(DeltaFile, a.Delta); err != nil {
			return nil, err
		}
		files[DeltaReportFile] = []byte(engine.DeltaReport(a.Delta))
	}
	files[SummaryFile] = []byte(engine.SummaryReport(a, a.Delta))
	return files, nil
}

// WriteBundle writes files into dir all-or-nothing. The bundle is staged
// in a sibling temporary directory and renamed into place. An existing dir
// is replaced only if it is empty or holds a previous bundle, and only
// after staging succeeded.
func WriteBundle(dir string, files map[string][]byte) error {
	if err := checkReplaceable(dir); err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating output parent: %w", err)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-staging-")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !filepath.IsLocal(name) {
			return fmt.Errorf("bundle file %q escapes the output directory", name)
		}
		p := filepath.Join(staging, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(p, files[name], 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := os.WriteFile(filepath.Join(staging, MarkerFile), nil, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", MarkerFile, err)
	}
	if err := os.Chmod(staging, 0o755); err != nil {
		return err
	}

	var old string
	if _, err := os.Stat(dir); err == nil {
		old = staging + "-old"
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("moving previous output aside: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.Rename(staging, dir); err != nil {
		if old != "" {
			_ = os.Rename(old, dir)
		}
		return fmt.Errorf("committing output: %w", err)
	}
	if old != "" {
		return os.RemoveAll(old)
	}
	return nil
}

func checkReplaceable(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading output directory: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, MarkerFile)); err != nil {
		return fmt.Errorf("%s: %w", dir, ErrNotBundle)
	}
	return nil
}

// CheckLayout rejects an archive located inside the output directory, or
// an output directory inside the archive. Every bundle write replaces the
// output directory as a whole.
func CheckLayout(outputDir, archivePath string) error {
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return err
	}
	arc, err := filepath.Abs(archivePath)
	if err != nil {
		return err
	}
	if within(out, arc) || within(arc, out) {
		return fmt.Errorf("archive %s and output directory %s overlap", archivePath, outputDir)
	}
	return nil
}

// within reports whether p is root or below it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && filepath.IsLocal(rel)
}
