package wrappers

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/hecvat-adk/pkg/engine"
	"github.com/user/hecvat-adk/pkg/store"
)

func newWorkspace(t *testing.T, findings []engine.Finding) *Workspace {
	t.Helper()
	c, err := engine.NewCatalog([]engine.Question{
		{ID: "AAAI-01", Text: "Does the product support SSO?", Assessable: true},
		{ID: "AAAI-02", Text: "Is SAML supported?", Assessable: true},
		{ID: "APPL-01", Text: "Is input validated?", Assessable: true},
		{ID: "DOCU-01", Text: "Is there a security.md?", Assessable: true},
		{ID: "GNRL-01", Text: "Company name"},
	})
	require.NoError(t, err)
	w := engine.Weights{
		"AAAI": {Name: "Identity", Weight: 10},
		"APPL": {Name: "Application Security", Weight: 9},
		"DOCU": {Name: "Documentation", Weight: 4},
		"GNRL": {Name: "General"},
	}
	rules := &engine.RuleSet{
		FixRules: []engine.FixRule{
			{Category: "AAAI", FixType: engine.FixCode, Complexity: engine.MediumSize},
			{Category: "APPL", FixType: engine.FixCode, Complexity: engine.Small},
			{Category: "DOCU", FixType: engine.FixDocumentation, Complexity: engine.Small},
		},
		Clusters: []engine.ClusterRule{{ID: "sso", Title: "Implement SSO", Questions: []string{"AAAI-01", "AAAI-02"}}},
	}
	e := engine.NewEngine(c, w, rules, nil)
	a, err := e.Assess(context.Background(), engine.Input{Findings: findings, Patched: map[string]bool{"APPL-01": true}})
	require.NoError(t, err)

	fs, err := store.NewFileStore(filepath.Join(t.TempDir(), "snapshots"), false)
	require.NoError(t, err)
	return &Workspace{Engine: e, Assessment: a, Store: fs}
}

func run(t *testing.T, tool interface {
	Execute(context.Context, map[string]interface{}, func(string)) (string, error)
}, args map[string]interface{}) string {
	t.Helper()
	out, err := tool.Execute(context.Background(), args, nil)
	require.NoError(t, err)
	return out
}

func TestAllToolsHaveUniqueNamesAndSchemas(t *testing.T) {
	seen := map[string]bool{}
	for _, tool := range All(&Workspace{}) {
		assert.False(t, seen[tool.Name()], tool.Name())
		seen[tool.Name()] = true
		assert.Equal(t, "object", tool.Schema()["type"])
		assert.NotEmpty(t, tool.Description())

		out, err := tool.Execute(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, notInitialized, out)
	}
	assert.Len(t, seen, 6)
}

func TestShowScores(t *testing.T) {
	ws := newWorkspace(t, []engine.Finding{{QuestionID: "AAAI-01", CandidateAnswer: "Yes", Confidence: "High", Files: []engine.EvidenceRef{{Path: "sso.go"}}}})
	tool := &ScoresWrapper{WS: ws}

	out := run(t, tool, nil)
	assert.Contains(t, out, "post-checklist")
	assert.Contains(t, out, "1 of 4 assessed questions compliant")

	out = run(t, tool, map[string]interface{}{"tier": "current"})
	assert.Contains(t, out, "AAAI")
	assert.Contains(t, out, "gaps: AAAI-02")

	out = run(t, tool, map[string]interface{}{"tier": "someday"})
	assert.Contains(t, out, "Unknown tier")
}

func TestShowProjection(t *testing.T) {
	ws := newWorkspace(t, nil)
	out := run(t, &ProjectionWrapper{WS: ws}, map[string]interface{}{"tier": "post_patch"})
	assert.Contains(t, out, "[+] APPL-01")
	assert.Contains(t, out, "No patch generated for: AAAI-01, AAAI-02")
	assert.NotContains(t, out, "DOCU-01")

	out = run(t, &ProjectionWrapper{WS: ws}, nil)
	assert.Contains(t, out, "[+] DOCU-01")
}

func TestShowRemediationPlan(t *testing.T) {
	ws := newWorkspace(t, nil)
	tool := &RemediationWrapper{WS: ws}

	out := run(t, tool, nil)
	assert.Contains(t, out, "3 tasks resolve 4 questions")
	assert.Contains(t, out, "sso: Implement SSO")

	out = run(t, tool, map[string]interface{}{"task_id": "APPL-01"})
	assert.Contains(t, out, "Task appl-01")
	assert.Contains(t, out, "Patchable:  true")

	out = run(t, tool, map[string]interface{}{"stream": "nope"})
	assert.Contains(t, out, "not found")

	ws.Assessment.PlanErr = &engine.CycleError{Stream: "APPL", Tasks: []string{"a", "b", "a"}}
	out = run(t, tool, nil)
	assert.Contains(t, out, "could not be built")
}

func TestLookupQuestion(t *testing.T) {
	ws := newWorkspace(t, []engine.Finding{{
		QuestionID: "APPL-01", CandidateAnswer: "No", Confidence: "High",
		Files: []engine.EvidenceRef{{Path: "handlers.go", Snippet: "r.FormValue"}}, FindingText: "Raw form input is used.",
	}})
	tool := &LookupQuestionWrapper{WS: ws}

	out := run(t, tool, map[string]interface{}{"question_id": "appl-01"})
	assert.Contains(t, out, "APPL-01 [APPL]: Is input validated?")
	assert.Contains(t, out, "Answer:     No (confidence High, evidence Moderate)")
	assert.Contains(t, out, "Evidence:   handlers.go: r.FormValue")
	assert.Contains(t, out, "post-patch Yes")
	assert.Contains(t, out, "Task:       appl-01")

	out = run(t, tool, map[string]interface{}{"question_id": "GNRL-01"})
	assert.Contains(t, out, "organizational attestation")

	out = run(t, tool, nil)
	assert.Contains(t, out, "AAAI, APPL, DOCU, GNRL")

	out = run(t, tool, map[string]interface{}{"question_id": "ZZZZ-99"})
	assert.Contains(t, out, "not found")
}

func TestSaveAndCompareWithBaseline(t *testing.T) {
	ws := newWorkspace(t, nil)
	ws.Assessment.Current.AssessmentDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	diff := &DiffSnapshotWrapper{WS: ws}

	out := run(t, diff, nil)
	assert.Contains(t, out, "No archived snapshot yet")

	out = run(t, &SaveSnapshotWrapper{WS: ws}, nil)
	assert.Contains(t, out, "Archived snapshot")
	out = run(t, &SaveSnapshotWrapper{WS: ws}, nil)
	assert.Contains(t, out, "already archived")

	next := newWorkspace(t, []engine.Finding{{QuestionID: "AAAI-01", CandidateAnswer: "Yes", Confidence: "High"}})
	next.Store = ws.Store
	out = run(t, &DiffSnapshotWrapper{WS: next}, nil)
	assert.Contains(t, out, "IMPROVED: 1")
	assert.Contains(t, out, "[+] AAAI-01: No -> Yes")
	assert.Contains(t, out, "REGRESSED: 0")
}

func TestSnapshotToolsWithoutStore(t *testing.T) {
	ws := newWorkspace(t, nil)
	ws.Store = nil
	assert.Contains(t, run(t, &SaveSnapshotWrapper{WS: ws}, nil), "no snapshot archive")
	assert.Contains(t, run(t, &DiffSnapshotWrapper{WS: ws}, nil), "no snapshot archive")
}
