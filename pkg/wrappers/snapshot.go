package wrappers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/user/hecvat-adk/pkg/engine"
)

// SaveSnapshotWrapper archives the current snapshot as the next baseline
type SaveSnapshotWrapper struct {
	WS *Workspace
}

func (s *SaveSnapshotWrapper) Name() string {
	return "SaveSnapshot"
}

func (s *SaveSnapshotWrapper) Description() string {
	return "Archives the current assessment snapshot so future runs can be compared against it."
}

func (s *SaveSnapshotWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (s *SaveSnapshotWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if !s.WS.ready() {
		return notInitialized, nil
	}
	if s.WS.Store == nil {
		return "Error: no snapshot archive configured.", nil
	}

	cur := s.WS.Assessment.Current
	err := s.WS.Store.Save(ctx, cur)
	if errors.Is(err, engine.ErrSnapshotExists) {
		return fmt.Sprintf("Snapshot %s is already archived.", cur.ID), nil
	}
	if err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}
	return fmt.Sprintf("Archived snapshot %s (%d answers, %s).", cur.ID, len(cur.Answers),
		cur.AssessmentDate.Format("2006-01-02 15:04")), nil
}

// DiffSnapshotWrapper compares the current snapshot with the newest
// archived one
type DiffSnapshotWrapper struct {
	WS *Workspace
}

func (d *DiffSnapshotWrapper) Name() string {
	return "CompareWithBaseline"
}

func (d *DiffSnapshotWrapper) Description() string {
	return "Compares the current assessment against the most recently archived snapshot to identify improved, regressed and newly assessed questions."
}

func (d *DiffSnapshotWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (d *DiffSnapshotWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if !d.WS.ready() {
		return notInitialized, nil
	}
	if d.WS.Store == nil {
		return "Error: no snapshot archive configured.", nil
	}

	if progress != nil {
		progress("loading baseline snapshot")
	}
	delta, err := engine.CompareWithLatest(ctx, d.WS.Store, d.WS.Engine.Catalog, d.WS.Engine.Weights, d.WS.Assessment.Current)
	if err != nil {
		return "", err
	}
	if delta == nil {
		return "No archived snapshot yet. Save one with SaveSnapshot first.", nil
	}
	if delta.OldID == delta.NewID {
		return "The newest archived snapshot is the current one; nothing to compare.", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Comparison vs %s (%s):\n", delta.OldID, delta.OldDate.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("Weighted score %.1f -> %.1f (%+.1f)\n\n", delta.OldWeightedScore, delta.NewWeightedScore, delta.WeightedScoreDelta))
	writeTransitions(&sb, "IMPROVED", "+", delta.Improved)
	writeTransitions(&sb, "REGRESSED", "-", delta.Regressed)
	writeTransitions(&sb, "NEWLY ASSESSED", "*", delta.NewlyAssessed)
	writeTransitions(&sb, "NEWLY UNASSESSED", "?", delta.NewlyUnassessed)
	sb.WriteString(fmt.Sprintf("UNCHANGED: %d (%d Yes, %d No)\n", delta.Unchanged(), delta.UnchangedYes, delta.UnchangedNo))
	return sb.String(), nil
}

func writeTransitions(sb *strings.Builder, title, mark string, rows []engine.QuestionDelta) {
	sb.WriteString(fmt.Sprintf("%s: %d\n", title, len(rows)))
	for i, r := range rows {
		if i == 10 {
			sb.WriteString(fmt.Sprintf("  ... and %d more.\n", len(rows)-10))
			break
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s: %s -> %s\n", mark, r.QuestionID, display(r.Old), display(r.New)))
	}
	sb.WriteString("\n")
}

func display(v engine.AnswerValue) string {
	if v == engine.Unanswered {
		return "(blank)"
	}
	return string(v)
}
