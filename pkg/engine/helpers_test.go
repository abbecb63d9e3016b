package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func freezeTime(t *testing.T, ts time.Time) {
	t.Helper()
	prevNow, prevID := timeNow, newID
	n := 0
	timeNow = func() time.Time { return ts }
	newID = func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
	t.Cleanup(func() {
		timeNow, newID = prevNow, prevID
	})
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog([]Question{
		{ID: "AAAI-01", Text: "Does the product support SSO?", Assessable: true},
		{ID: "AAAI-02", Text: "Is SAML supported?", Assessable: true},
		{ID: "AAAI-03", Text: "Is OIDC supported?", Assessable: true},
		{ID: "AAAI-04", Text: "Are sessions bound to the IdP session?", Assessable: true},
		{ID: "APPL-01", Text: "Is input validated?", Assessable: true},
		{ID: "APPL-02", Text: "Are security headers set?", Assessable: true},
		{ID: "CHNG-01", Text: "Is CI required before merge?", Assessable: true},
		{ID: "CHNG-02", Text: "Is there a change advisory board?", Assessable: true},
		{ID: "DOCU-01", Text: "Is there a security.md?", Assessable: true},
		{ID: "DOCU-02", Text: "Is there an accessibility statement?", Assessable: true, DefaultAnswer: NotApplicable},
		{ID: "GNRL-01", Text: "Company name", Assessable: false},
		{ID: "GNRL-02", Text: "Vendor contact", Assessable: false},
	})
	require.NoError(t, err)
	return c
}

func testWeights() Weights {
	return Weights{
		"AAAI": {Name: "Identity", Weight: 10},
		"APPL": {Name: "Application Security", Weight: 9},
		"CHNG": {Name: "Change Management", Weight: 7},
		"DOCU": {Name: "Documentation", Weight: 4},
		"GNRL": {Name: "General", Weight: 0},
	}
}

func testRules() *RuleSet {
	return &RuleSet{
		FixRules: []FixRule{
			{Pattern: "AAAI-*", FixType: FixCode, Complexity: MediumSize},
			{Question: "AAAI-04", FixType: FixConfig, Complexity: Small},
			{Category: "APPL", FixType: FixCode, Complexity: Small},
			{Question: "CHNG-01", FixType: FixConfig, Complexity: Small, Title: "Require CI status checks"},
			{Question: "CHNG-02", FixType: FixPolicy, Complexity: Large},
			{Category: "DOCU", FixType: FixDocumentation, Complexity: Small},
		},
		Clusters: []ClusterRule{
			{ID: "sso", Title: "Implement federated single sign-on", Questions: []string{"AAAI-0[1-4]"}},
		},
		Streams: map[string]string{"AAAI": "Identity and Access"},
	}
}

// snapshotOf builds a current snapshot from answer values, classifying
// gaps with the test rules.
func snapshotOf(t *testing.T, c *Catalog, values map[string]AnswerValue, quality EvidenceQuality) *Snapshot {
	t.Helper()
	rules := testRules()
	s := &Snapshot{ID: "snap", Tier: TierCurrent, AssessmentDate: fixedNow, Answers: make(map[string]Answer)}
	for _, q := range c.Questions() {
		v, ok := values[q.ID]
		if !ok {
			continue
		}
		a := Answer{QuestionID: q.ID, Value: v}
		if v.Assessed() {
			a.Confidence = High
			a.EvidenceQuality = quality
		}
		if v == No {
			applyFix(&a, q, rules, true)
		}
		s.Answers[q.ID] = a
	}
	return s
}

func allYes(c *Catalog) map[string]AnswerValue {
	values := make(map[string]AnswerValue)
	for _, q := range c.Questions() {
		if q.Assessable {
			values[q.ID] = Yes
		} else {
			values[q.ID] = Unanswered
		}
	}
	return values
}
