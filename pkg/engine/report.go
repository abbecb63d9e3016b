package engine

import (
	"fmt"
	"strings"
)

var fixTypeDescriptions = map[FixType]string{
	FixCode:           "Code change covered by the generated patch",
	FixConfig:         "Configuration change covered by the generated patch",
	FixNewFile:        "New file covered by the generated patch",
	FixDocumentation:  "Documentation to add or update in the repository",
	FixPolicy:         "Organizational policy or process needed",
	FixOrganizational: "Requires business or legal attestation",
}

// SummaryReport renders the markdown assessment summary. d may be nil.
func SummaryReport(a *Assessment, d *Delta) string {
	cur := a.Current
	sc := a.Scores[TierCurrent]

	var sb strings.Builder
	sb.WriteString("# HECVAT Assessment Summary\n\n")
	sb.WriteString(fmt.Sprintf("**Repository**: %s\n", orUnknown(cur.Repository)))
	sb.WriteString(fmt.Sprintf("**Date**: %s | **Branch**: %s | **Commit**: %s\n\n",
		cur.AssessmentDate.Format("2006-01-02"), orUnknown(cur.Branch), orUnknown(shortHash(cur.Commit))))

	sb.WriteString("## Overall Scores\n\n")
	sb.WriteString("| Metric | Score |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Raw compliance | %d/%d (%.1f%%) |\n", sc.Compliant, sc.Assessed, 100*sc.RawScore))
	sb.WriteString(fmt.Sprintf("| Weighted score | %.1f / 100 |\n", sc.WeightedScore))
	sb.WriteString(fmt.Sprintf("| Confidence-adjusted score | %.1f / 100 |\n", 100*sc.ConfidenceAdjustedScore))
	sb.WriteString(fmt.Sprintf("| Org attestation (not code-assessable) | %d questions |\n\n", sc.AttestationRequired))

	sb.WriteString("## Projection\n\n")
	sb.WriteString("| Tier | Raw | Weighted | Flipped |\n|------|-----|----------|---------|\n")
	for _, t := range Tiers {
		ts := a.Scores[t]
		sb.WriteString(fmt.Sprintf("| %s | %.1f%% | %.1f | %d |\n", t, 100*ts.RawScore, ts.WeightedScore,
			len(a.Snapshot(t).FlippedQuestions)))
	}
	sb.WriteString("\n")
	if n := len(a.PostPatch.PatchDowngrades); n > 0 {
		sb.WriteString(fmt.Sprintf("%d patchable gap(s) had no generated patch and were not projected: %s\n\n",
			n, strings.Join(a.PostPatch.PatchDowngrades, ", ")))
	}

	if d != nil {
		sb.WriteString("### Comparison\n\n")
		sb.WriteString("| Metric | Before | After | Delta |\n|--------|--------|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Weighted | %.1f | %.1f | %+.1f |\n", d.OldWeightedScore, d.NewWeightedScore, d.WeightedScoreDelta))
		sb.WriteString(fmt.Sprintf("| Improved | | | %d |\n| Regressed | | | %d |\n\n", len(d.Improved), len(d.Regressed)))
	}

	sb.WriteString("## Category Breakdown\n\n")
	sb.WriteString("| Category | Name | Wt | Yes | No | N/A | Score | Wtd | Top Gaps |\n")
	sb.WriteString("|----------|------|----|-----|----|-----|-------|-----|----------|\n")
	for _, cs := range sc.Categories {
		if cs.Weight == 0 || cs.AssessableCount == 0 {
			continue
		}
		gaps := cs.Gaps
		preview := strings.Join(head(gaps, 3), ", ")
		if len(gaps) > 3 {
			preview += fmt.Sprintf(" (+%d more)", len(gaps)-3)
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %g | %d | %d | %d | %.1f%% | %.2f | %s |\n",
			cs.Category, cs.Name, cs.Weight, cs.CompliantCount, cs.AssessableCount-cs.CompliantCount,
			cs.NotApplicableCount, cs.Percent(), cs.WeightedValue, preview))
	}
	sb.WriteString("\n")

	if len(sc.GapsByFixType) > 0 {
		sb.WriteString("## Gaps by Fix Type\n\n")
		sb.WriteString("| Type | Count | Description |\n|------|-------|-------------|\n")
		for _, ft := range AllFixTypes {
			if n := sc.GapsByFixType[ft]; n > 0 {
				sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n", ft, n, fixTypeDescriptions[ft]))
			}
		}
		sb.WriteString(fmt.Sprintf("| **Total patchable** | **%d** | |\n\n", sc.PatchableGaps))
	}

	sb.WriteString("## Top Remediation Priorities\n\n")
	for i, p := range sc.TopPriorities(10) {
		sb.WriteString(fmt.Sprintf("%d. **%s** (%s): %d gaps / %d assessed, impact %.2f\n",
			i+1, p.Category, p.Name, p.Gaps, p.Assessable, p.Impact))
	}
	sb.WriteString("\n")

	sb.WriteString("## Remediation Plan\n\n")
	switch {
	case a.PlanErr != nil:
		sb.WriteString(fmt.Sprintf("Plan not generated: %v\n", a.PlanErr))
	case a.Plan != nil:
		m := a.Plan.Metadata
		sb.WriteString(fmt.Sprintf("%d tasks resolve %d questions (deduplication ratio %.2f) across %d work streams. ",
			m.TotalTasks, m.TotalQuestionsResolved, m.DeduplicationRatio, len(a.Plan.WorkStreams)))
		sb.WriteString(fmt.Sprintf("%d questions need organizational attestation.\n", a.Plan.OrgAttestationGaps.Total))
	}
	return sb.String()
}

// DeltaReport renders the markdown comparison of two runs.
func DeltaReport(d *Delta) string {
	var sb strings.Builder
	sb.WriteString("# HECVAT Assessment Delta Report\n\n")
	sb.WriteString(fmt.Sprintf("**Before**: %s (%s)\n", d.OldDate.Format("2006-01-02 15:04"), d.OldID))
	sb.WriteString(fmt.Sprintf("**After**: %s (%s)\n\n", d.NewDate.Format("2006-01-02 15:04"), d.NewID))

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- Improvements: **%d**\n", len(d.Improved)))
	sb.WriteString(fmt.Sprintf("- Regressions: **%d**\n", len(d.Regressed)))
	sb.WriteString(fmt.Sprintf("- Newly assessed: **%d**\n", len(d.NewlyAssessed)))
	sb.WriteString(fmt.Sprintf("- Newly unassessed: **%d**\n", len(d.NewlyUnassessed)))
	sb.WriteString(fmt.Sprintf("- Unchanged Yes: %d\n- Unchanged No: %d\n", d.UnchangedYes, d.UnchangedNo))
	sb.WriteString(fmt.Sprintf("- Weighted score: %.1f -> %.1f (%+.1f)\n\n", d.OldWeightedScore, d.NewWeightedScore, d.WeightedScoreDelta))

	writeDeltaTable(&sb, "Improvements", d.Improved)
	writeDeltaTable(&sb, "Regressions", d.Regressed)
	writeDeltaTable(&sb, "Newly Assessed", d.NewlyAssessed)
	writeDeltaTable(&sb, "Newly Unassessed", d.NewlyUnassessed)

	if len(d.Orphaned) > 0 || len(d.Added) > 0 {
		sb.WriteString("## Catalog Changes\n\n")
		if len(d.Orphaned) > 0 {
			sb.WriteString(fmt.Sprintf("- Orphaned: %s\n", strings.Join(d.Orphaned, ", ")))
		}
		if len(d.Added) > 0 {
			sb.WriteString(fmt.Sprintf("- Added: %s\n", strings.Join(d.Added, ", ")))
		}
		sb.WriteString("\n")
	}

	var changed []CategoryDelta
	for _, cd := range d.Categories() {
		if cd.Delta != 0 {
			changed = append(changed, cd)
		}
	}
	if len(changed) > 0 {
		sb.WriteString("## Category Score Deltas\n\n")
		sb.WriteString("| Category | Before | After | Delta |\n|----------|--------|-------|-------|\n")
		for _, cd := range changed {
			sb.WriteString(fmt.Sprintf("| %s | %.1f%% | %.1f%% | %+.1f%% |\n", cd.Category, cd.OldPercent, cd.NewPercent, cd.Delta))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeDeltaTable(sb *strings.Builder, title string, rows []QuestionDelta) {
	if len(rows) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString("| Question | Category | Before | After |\n|----------|----------|--------|-------|\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", r.QuestionID, r.Category, display(r.Old), display(r.New)))
	}
	sb.WriteString("\n")
}

func display(v AnswerValue) string {
	if v == Unanswered {
		return "(blank)"
	}
	return string(v)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
