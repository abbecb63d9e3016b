package wrappers

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/hecvat-adk/pkg/engine"
)

// ScoresWrapper implements the Tool interface for reading assessment scores
type ScoresWrapper struct {
	WS *Workspace
}

func (s *ScoresWrapper) Name() string {
	return "ShowScores"
}

func (s *ScoresWrapper) Description() string {
	return "Shows raw, weighted and confidence-adjusted HECVAT scores for each tier, or the per-category breakdown of one tier."
}

func (s *ScoresWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"tier": map[string]interface{}{
				"type":        "string",
				"description": "Tier to break down by category: current, post-patch or post-checklist. If omitted, shows the summary of all tiers.",
			},
		},
	}
}

func (s *ScoresWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if !s.WS.ready() {
		return notInitialized, nil
	}
	a := s.WS.Assessment

	tierArg := stringArg(args, "tier")
	if tierArg == "" {
		var sb strings.Builder
		sb.WriteString("Tier            Raw      Weighted  Conf-adjusted\n")
		for _, t := range engine.Tiers {
			sc := a.Scores[t]
			sb.WriteString(fmt.Sprintf("%-15s %5.1f%%   %6.1f    %5.1f%%\n", t, 100*sc.RawScore, sc.WeightedScore, 100*sc.ConfidenceAdjustedScore))
		}
		cur := a.Scores[engine.TierCurrent]
		sb.WriteString(fmt.Sprintf("\n%d of %d assessed questions compliant, %d N/A, %d need organizational attestation.\n",
			cur.Compliant, cur.Assessed, cur.NotApplicable, cur.AttestationRequired))
		if top := cur.TopPriorities(3); len(top) > 0 {
			sb.WriteString("Top priorities:")
			for _, p := range top {
				sb.WriteString(fmt.Sprintf(" %s (%d gaps, impact %.2f);", p.Category, p.Gaps, p.Impact))
			}
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}

	tier, ok := parseTier(tierArg)
	if !ok {
		return fmt.Sprintf("Unknown tier '%s'. Use current, post-patch or post-checklist.", tierArg), nil
	}
	sc := a.Scores[tier]
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Category breakdown (%s), weighted score %.1f:\n", tier, sc.WeightedScore))
	for _, cs := range sc.Categories {
		if cs.AssessableCount == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-5s %-30s wt %-4g %d/%d (%.1f%%)", cs.Category, cs.Name, cs.Weight,
			cs.CompliantCount, cs.AssessableCount, cs.Percent()))
		if len(cs.Gaps) > 0 {
			sb.WriteString(" gaps: " + strings.Join(cs.Gaps, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
