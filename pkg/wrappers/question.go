package wrappers

import (
	"context"
	"fmt"
	"strings"
)

// LookupQuestionWrapper explains the answer to one catalog question.
type LookupQuestionWrapper struct {
	WS *Workspace
}

func (l *LookupQuestionWrapper) Name() string {
	return "LookupQuestion"
}

func (l *LookupQuestionWrapper) Description() string {
	return "Looks up a HECVAT question: its text, current answer, evidence, fix classification, projected answers and the task that resolves it."
}

func (l *LookupQuestionWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"question_id": map[string]interface{}{
				"type":        "string",
				"description": "The question id (e.g. 'AAAI-01'). If omitted, lists the catalog categories.",
			},
		},
	}
}

func (l *LookupQuestionWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if !l.WS.ready() {
		return notInitialized, nil
	}
	c := l.WS.Engine.Catalog
	a := l.WS.Assessment

	id := strings.ToUpper(stringArg(args, "question_id"))
	if id == "" {
		return fmt.Sprintf("Catalog categories: %s (%d questions)", strings.Join(c.Categories(), ", "), c.Len()), nil
	}

	q, ok := c.Question(id)
	if !ok {
		return fmt.Sprintf("Question '%s' not found in the catalog.", id), nil
	}
	ans, _ := a.Current.Answer(id)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s [%s]: %s\n", q.ID, q.Category, q.Text))
	if !q.Assessable {
		sb.WriteString("  Not assessable from code; requires organizational attestation.\n")
		return sb.String(), nil
	}

	sb.WriteString(fmt.Sprintf("  Answer:     %s (confidence %s, evidence %s)\n", display(ans.Value), ans.Confidence, ans.EvidenceQuality))
	if ans.Evidence != "" {
		sb.WriteString(fmt.Sprintf("  Evidence:   %s\n", ans.Evidence))
	}
	if ans.AdditionalInfo != "" {
		sb.WriteString(fmt.Sprintf("  Notes:      %s\n", ans.AdditionalInfo))
	}
	if ans.FixType != "" {
		sb.WriteString(fmt.Sprintf("  Fix:        %s (%s), patchable %t\n", ans.FixType, ans.FixComplexity, ans.Patchable))
	}
	pp, _ := a.PostPatch.Answer(id)
	pc, _ := a.PostChecklist.Answer(id)
	sb.WriteString(fmt.Sprintf("  Projected:  post-patch %s, post-checklist %s\n", display(pp.Value), display(pc.Value)))
	if a.Plan != nil {
		if task, ok := a.Plan.TaskFor(id); ok {
			sb.WriteString(fmt.Sprintf("  Task:       %s (%s)\n", task.ID, task.Title))
		}
	}
	return sb.String(), nil
}
