package wrappers

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/hecvat-adk/pkg/engine"
)

// RemediationWrapper implements the Tool interface for reading the task plan
type RemediationWrapper struct {
	WS *Workspace
}

func (r *RemediationWrapper) Name() string {
	return "ShowRemediationPlan"
}

func (r *RemediationWrapper) Description() string {
	return "Shows the deduplicated remediation task plan grouped into ordered work streams. Can show one stream or one task in detail."
}

func (r *RemediationWrapper) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"stream": map[string]interface{}{
				"type":        "string",
				"description": "Work stream key or name to list (e.g. 'AAAI'). If omitted, lists every stream.",
			},
			"task_id": map[string]interface{}{
				"type":        "string",
				"description": "Task id to show in detail (e.g. 'sso' or 'appl-01').",
			},
		},
	}
}

func (r *RemediationWrapper) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	if !r.WS.ready() {
		return notInitialized, nil
	}
	a := r.WS.Assessment
	if a.PlanErr != nil {
		return fmt.Sprintf("The remediation plan could not be built: %v", a.PlanErr), nil
	}
	plan := a.Plan

	if id := stringArg(args, "task_id"); id != "" {
		task, stream, ok := plan.Task(id)
		if !ok {
			task, stream, ok = plan.Task(strings.ToLower(id))
		}
		if !ok {
			return fmt.Sprintf("Task '%s' not found in the plan.", id), nil
		}
		return describeTask(task, stream), nil
	}

	streamArg := stringArg(args, "stream")
	var sb strings.Builder
	m := plan.Metadata
	sb.WriteString(fmt.Sprintf("%d tasks resolve %d questions (deduplication ratio %.2f). %d gaps need organizational attestation.\n",
		m.TotalTasks, m.TotalQuestionsResolved, m.DeduplicationRatio, plan.OrgAttestationGaps.Total))

	found := streamArg == ""
	for _, ws := range plan.WorkStreams {
		if streamArg != "" && !strings.EqualFold(ws.Key, streamArg) && !strings.EqualFold(ws.Name, streamArg) {
			continue
		}
		found = true
		sb.WriteString(fmt.Sprintf("\n%s (%s):\n", ws.Name, ws.Key))
		for i, t := range ws.Tasks {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s (%s, %s, resolves %d)", i+1, t.Priority, t.ID, t.Title,
				t.FixType, t.FixComplexity, t.ResolvesCount))
			if len(t.DependsOn) > 0 {
				sb.WriteString(" after " + strings.Join(t.DependsOn, ", "))
			}
			sb.WriteString("\n")
		}
	}
	if !found {
		return fmt.Sprintf("Work stream '%s' not found.", streamArg), nil
	}
	return sb.String(), nil
}

func describeTask(t engine.Task, stream string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Task %s: %s\n", t.ID, t.Title))
	sb.WriteString(fmt.Sprintf("  Stream:     %s\n", stream))
	sb.WriteString(fmt.Sprintf("  Priority:   %s\n", t.Priority))
	sb.WriteString(fmt.Sprintf("  Fix:        %s (%s)\n", t.FixType, t.FixComplexity))
	sb.WriteString(fmt.Sprintf("  Patchable:  %t\n", t.Patchable))
	sb.WriteString(fmt.Sprintf("  Questions:  %s\n", strings.Join(t.Questions, ", ")))
	if len(t.DependsOn) > 0 {
		sb.WriteString(fmt.Sprintf("  Depends on: %s\n", strings.Join(t.DependsOn, ", ")))
	}
	return sb.String()
}
