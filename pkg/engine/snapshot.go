package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Answer is the graded response to one question within one snapshot.
// Fix fields are set only when Value is No.
type Answer struct {
	QuestionID      string          `json:"question_id"`
	Value           AnswerValue     `json:"answer"`
	AdditionalInfo  string          `json:"additional_info,omitempty"`
	Evidence        string          `json:"evidence,omitempty"`
	Confidence      Confidence      `json:"confidence,omitempty"`
	EvidenceQuality EvidenceQuality `json:"evidence_quality,omitempty"`
	FixType         FixType         `json:"fix_type,omitempty"`
	FixComplexity   FixComplexity   `json:"fix_complexity,omitempty"`
	Patchable       bool            `json:"patchable,omitempty"`
	Provenance      string          `json:"provenance,omitempty"`
}

// Flip records an answer a projection turned from No to Yes.
type Flip struct {
	QuestionID string  `json:"question_id"`
	FixType    FixType `json:"fix_type"`
	Tier       Tier    `json:"tier"`
	Reason     string  `json:"reason"`
}

// Snapshot is the full set of answers for one tier of one run.
type Snapshot struct {
	ID                   string            `json:"id"`
	Tier                 Tier              `json:"tier"`
	AssessmentDate       time.Time         `json:"assessment_date"`
	Repository           string            `json:"repository,omitempty"`
	Branch               string            `json:"branch,omitempty"`
	Commit               string            `json:"commit,omitempty"`
	Answers              map[string]Answer `json:"answers"`
	ProjectedMethodology string            `json:"projected_methodology,omitempty"`
	FlippedQuestions     []Flip            `json:"flipped_questions,omitempty"`
	PatchDowngrades      []string          `json:"patch_downgrades,omitempty"`
}

// Answer returns the answer recorded for a question.
func (s *Snapshot) Answer(id string) (Answer, bool) {
	a, ok := s.Answers[id]
	return a, ok
}

// IDs returns the question ids in the snapshot, sorted.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.Answers))
	for id := range s.Answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Answers = make(map[string]Answer, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.FlippedQuestions = append([]Flip(nil), s.FlippedQuestions...)
	c.PatchDowngrades = append([]string(nil), s.PatchDowngrades...)
	return &c
}

// Flipped returns the ids of flipped questions.
func (s *Snapshot) Flipped() []string {
	ids := make([]string, len(s.FlippedQuestions))
	for i, f := range s.FlippedQuestions {
		ids[i] = f.QuestionID
	}
	return ids
}

// Marshal encodes the snapshot as indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalSnapshot decodes a snapshot and restores the answer keys.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s.Answers == nil {
		s.Answers = make(map[string]Answer)
	}
	for id, a := range s.Answers {
		a.QuestionID = id
		a.Value, _ = ParseAnswerValue(string(a.Value))
		s.Answers[id] = a
	}
	if s.Tier == "" {
		s.Tier = TierCurrent
	}
	return &s, nil
}

// LoadSnapshotFile reads a snapshot written by Marshal.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return s, nil
}
