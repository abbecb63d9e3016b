package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "catalog.yaml", `
version: "4.1.4"
questions:
  - id: AAAI-01
    text: Does the product support SSO?
    assessable: true
    compliant_answer: SSO via SAML or OIDC
  - id: DRPV-03
    category: DRPV
    text: Is there a privacy notice?
    assessable: true
    default_answer: NA
  - id: GNRL-01
    text: Company name
`)

	c, err := LoadCatalog(p)
	require.NoError(t, err)
	assert.Equal(t, "4.1.4", c.Version)
	assert.Equal(t, 3, c.Len())

	q, ok := c.Question("AAAI-01")
	require.True(t, ok)
	assert.Equal(t, "AAAI", q.Category)
	assert.True(t, q.Assessable)

	q, _ = c.Question("DRPV-03")
	assert.Equal(t, NotApplicable, q.DefaultAnswer)

	q, _ = c.Question("GNRL-01")
	assert.False(t, q.Assessable)

	assert.Equal(t, []string{"AAAI", "DRPV", "GNRL"}, c.Categories())
}

func TestLoadCatalogListAndDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `[{"id": "APPL-01", "text": "Input validation", "assessable": true}]`)
	writeFile(t, dir, "b.yml", "- id: APPL-02\n  text: Headers\n  assessable: true\n")
	writeFile(t, dir, "notes.txt", "ignored")

	c, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "APPL-01", c.Questions()[0].ID)
}

func TestNewCatalogRejectsBadIDs(t *testing.T) {
	_, err := NewCatalog([]Question{{ID: "AAAI-01"}, {ID: "AAAI-01"}})
	assert.ErrorContains(t, err, "duplicate")

	_, err = NewCatalog([]Question{{ID: "not an id"}})
	assert.ErrorContains(t, err, "invalid question id")

	_, err = NewCatalog([]Question{{ID: "AAAI-01", DefaultAnswer: Yes}})
	assert.ErrorContains(t, err, "default_answer")
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, "AAAI", CategoryOf("AAAI-01"))
	assert.Equal(t, "HFIH", CategoryOf("HFIH-12"))
	assert.Equal(t, "PLAIN", CategoryOf("PLAIN"))
}

func TestLoadWeights(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "weights.yaml", `
category_weights:
  AAAI:
    name: Authentication, Authorization, and Accounting
    weight: 10
  ITAC:
    name: IT Accessibility
    weight: 3
`)
	w, err := LoadWeights(p)
	require.NoError(t, err)
	assert.Equal(t, 10.0, w.Weight("AAAI"))
	assert.Equal(t, 0.0, w.Weight("NOPE"))
	assert.Equal(t, "IT Accessibility", w.Name("ITAC"))
	assert.Equal(t, "NOPE", w.Name("NOPE"))

	_, err = LoadWeights(writeFile(t, dir, "empty.yaml", "other: 1\n"))
	assert.Error(t, err)
}

func TestWeightsValidateReportsMissingCategories(t *testing.T) {
	c := testCatalog(t)
	w := testWeights()
	delete(w, "DOCU")

	diags := w.Validate(c)
	require.Len(t, diags, 1)
	assert.Equal(t, LevelWarn, diags[0].Level)
	assert.Contains(t, diags[0].Message, "DOCU")
}
