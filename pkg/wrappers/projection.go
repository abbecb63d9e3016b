package wrappers

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/hecvat-adk/pkg/engine"
)

// ProjectionWrapper shows which answers flip in the projected tiers.
type ProjectionWrapper struct {
	WS *Workspace
}

func (p *ProjectionWrapper) Name() string {
	return "ShowProjection"
}

func (p *ProjectionWrapper) Description() string {
	return "Lists the questions projected to flip to Yes after the generated patch and after the documentation checklist, and patchable gaps that had no patch."
}

func (p *ProjectionWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"tier": map[string]interface{}{
				"type":        "string",
				"description": "post-patch or post-checklist. If omitted, shows both.",
			},
		},
	}
}

func (p *ProjectionWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if !p.WS.ready() {
		return notInitialized, nil
	}
	a := p.WS.Assessment

	tiers := []engine.Tier{engine.TierPostPatch, engine.TierPostChecklist}
	if arg := stringArg(args, "tier"); arg != "" {
		t, ok := parseTier(arg)
		if !ok || t == engine.TierCurrent {
			return fmt.Sprintf("Unknown projected tier '%s'. Use post-patch or post-checklist.", arg), nil
		}
		tiers = []engine.Tier{t}
	}

	base := a.Scores[engine.TierCurrent].WeightedScore
	var sb strings.Builder
	for _, t := range tiers {
		snap := a.Snapshot(t)
		sc := a.Scores[t]
		sb.WriteString(fmt.Sprintf("%s: weighted %.1f (%+.1f vs current), %d question(s) flipped\n",
			t, sc.WeightedScore, sc.WeightedScore-base, len(snap.FlippedQuestions)))
		for _, f := range snap.FlippedQuestions {
			sb.WriteString(fmt.Sprintf("  [+] %s (%s) %s\n", f.QuestionID, f.FixType, f.Reason))
		}
		if t == engine.TierPostPatch && len(snap.PatchDowngrades) > 0 {
			sb.WriteString(fmt.Sprintf("  No patch generated for: %s\n", strings.Join(snap.PatchDowngrades, ", ")))
		}
	}
	return sb.String(), nil
}
