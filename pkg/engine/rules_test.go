package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fixes.yaml", `
fix_rules:
  - pattern: "AAAI-*"
    fix_type: code
    fix_complexity: medium
  - question: AAAI-04
    fix_type: config
    fix_complexity: small
streams:
  AAAI: Identity and Access
`)
	writeFile(t, dir, "plan.yaml", `
clusters:
  - id: sso
    title: Implement federated single sign-on
    questions: ["AAAI-01", "AAAI-02"]
dependencies:
  - task: sso
    depends_on: [appl-01]
`)

	rs, err := LoadRules(dir)
	require.NoError(t, err)
	assert.Len(t, rs.FixRules, 2)
	assert.Len(t, rs.Clusters, 1)
	assert.Len(t, rs.Dependencies, 1)
	assert.Equal(t, "Identity and Access", rs.StreamName("AAAI"))
	assert.Equal(t, "APPL", rs.StreamName("APPL"))
}

func TestLoadRulesRejectsInvalidTables(t *testing.T) {
	cases := map[string]string{
		"no selector":    "fix_rules:\n  - fix_type: code\n    fix_complexity: small\n",
		"bad fix type":   "fix_rules:\n  - category: AAAI\n    fix_type: magic\n    fix_complexity: small\n",
		"bad complexity": "fix_rules:\n  - category: AAAI\n    fix_type: code\n    fix_complexity: huge\n",
		"bad pattern":    "fix_rules:\n  - pattern: \"AAAI-[\"\n    fix_type: code\n    fix_complexity: small\n",
		"duplicate id":   "clusters:\n  - id: a\n    questions: [X-1]\n  - id: a\n    questions: [X-2]\n",
		"empty cluster":  "clusters:\n  - id: a\n",
		"empty depends":  "dependencies:\n  - task: a\n",
		"org cluster":    "clusters:\n  - id: a\n    questions: [X-1]\n    fix_type: organizational\n",
		"policy cluster": "clusters:\n  - id: a\n    questions: [X-1]\n    fix_type: policy\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, t.TempDir(), "rules.yaml", doc)
			_, err := LoadRules(p)
			assert.Error(t, err)
		})
	}
}

func TestFixForPrecedence(t *testing.T) {
	c := testCatalog(t)
	rs := testRules()

	q, _ := c.Question("AAAI-04")
	rule, ok := rs.FixFor(q)
	require.True(t, ok)
	assert.Equal(t, FixConfig, rule.FixType, "exact id beats pattern")

	q, _ = c.Question("AAAI-02")
	rule, _ = rs.FixFor(q)
	assert.Equal(t, FixCode, rule.FixType)
	assert.Equal(t, MediumSize, rule.Complexity)

	q, _ = c.Question("GNRL-01")
	rule, ok = rs.FixFor(q)
	assert.False(t, ok)
	assert.Equal(t, FixOrganizational, rule.FixType)
	assert.Equal(t, Large, rule.Complexity)
}

func TestFixForCategoryLosesToPattern(t *testing.T) {
	rs := &RuleSet{FixRules: []FixRule{
		{Category: "APPL", FixType: FixPolicy, Complexity: Large},
		{Pattern: "APPL-0?", FixType: FixCode, Complexity: Small},
	}}
	rule, ok := rs.FixFor(Question{ID: "APPL-01", Category: "APPL"})
	require.True(t, ok)
	assert.Equal(t, FixCode, rule.FixType)
}

func TestRuleSetValidate(t *testing.T) {
	c := testCatalog(t)
	rs := testRules()
	rs.Clusters = append(rs.Clusters, ClusterRule{ID: "ghost", Questions: []string{"ZZZZ-01"}})
	rs.Dependencies = []DependencyRule{
		{Task: "sso", DependsOn: []string{"appl-01"}},
		{Task: "sso", DependsOn: []string{"missing-task"}},
	}

	var messages []string
	for _, d := range rs.Validate(c) {
		messages = append(messages, d.Message)
	}
	assert.Contains(t, messages, `cluster ghost entry "ZZZZ-01" matches no catalog question`)
	assert.Contains(t, messages, `dependency rule references unknown task "missing-task"`)
	for _, m := range messages {
		assert.NotContains(t, m, `"appl-01"`)
	}
}
