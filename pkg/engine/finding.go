package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
)

// EvidenceKind says what a piece of evidence demonstrates.
type EvidenceKind string

const (
	// KindImplementation is code or config that implements the control.
	KindImplementation EvidenceKind = "implementation"
	// KindVerification is a test or CI check exercising the control.
	KindVerification EvidenceKind = "verification"
	// KindReference is a declaration with no live use (disabled code, unused config).
	KindReference EvidenceKind = "reference"
	// KindFrameworkDefault is a known default behavior with no direct evidence.
	KindFrameworkDefault EvidenceKind = "framework_default"
)

// EvidenceRef is one (locator, snippet) pair cited by a finding.
type EvidenceRef struct {
	Path    string       `json:"path"`
	Snippet string       `json:"snippet,omitempty"`
	Kind    EvidenceKind `json:"kind,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare "path:line" string.
func (e *EvidenceRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = EvidenceRef{Path: s}
		return nil
	}
	type plain EvidenceRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = EvidenceRef(p)
	return nil
}

// EffectiveKind returns the declared kind, or one inferred from the locator.
func (e EvidenceRef) EffectiveKind() EvidenceKind {
	if e.Kind != "" {
		return e.Kind
	}
	if isVerificationPath(e.Path) {
		return KindVerification
	}
	return KindImplementation
}

func (e EvidenceRef) String() string {
	if e.Snippet == "" {
		return e.Path
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Snippet)
}

func isVerificationPath(locator string) bool {
	p := strings.ToLower(locator)
	if i := strings.LastIndex(p, ":"); i > 0 && !strings.Contains(p[i:], "/") {
		p = p[:i]
	}
	base := path.Base(p)
	switch {
	case strings.HasPrefix(p, ".github/workflows/"), strings.Contains(p, "/.github/workflows/"):
		return true
	case strings.HasPrefix(p, "test/"), strings.HasPrefix(p, "tests/"),
		strings.Contains(p, "/test/"), strings.Contains(p, "/tests/"), strings.Contains(p, "/__tests__/"):
		return true
	case strings.HasSuffix(strings.TrimSuffix(base, path.Ext(base)), "_test"),
		strings.HasPrefix(base, "test_"),
		strings.Contains(base, ".test."), strings.Contains(base, ".spec."):
		return true
	}
	return false
}

// Finding is one piece of evidence about one question, produced by an
// upstream evidence source.
type Finding struct {
	QuestionID      string        `json:"question_id"`
	CandidateAnswer string        `json:"candidate_answer"`
	Confidence      string        `json:"confidence"`
	Files           []EvidenceRef `json:"files"`
	FindingText     string        `json:"finding_text"`
}

// LoadFindings reads a JSON list of findings.
func LoadFindings(file string) ([]Finding, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var findings []Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path.Base(file), err)
	}
	return findings, nil
}

// LoadPatchManifest reads the JSON list of question ids an automated patch
// was generated for.
func LoadPatchManifest(file string) (map[string]bool, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path.Base(file), err)
	}
	patched := make(map[string]bool, len(ids))
	for _, id := range ids {
		patched[strings.TrimSpace(id)] = true
	}
	return patched, nil
}
