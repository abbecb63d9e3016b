package engine

import "strings"

// AnswerValue is the normalized response to a questionnaire item.
type AnswerValue string

const (
	Yes           AnswerValue = "Yes"
	No            AnswerValue = "No"
	NotApplicable AnswerValue = "N/A"
	// Unanswered marks an attestation-only question or one that has not
	// been assessed.
	Unanswered AnswerValue = ""
)

// ParseAnswerValue normalizes free-form answer text. Anything that is not
// Yes, No or N/A (including "NA") comes back as Unanswered with ok=false.
func ParseAnswerValue(s string) (AnswerValue, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES":
		return Yes, true
	case "NO":
		return No, true
	case "N/A", "NA":
		return NotApplicable, true
	default:
		return Unanswered, false
	}
}

// Assessed reports whether the value counts toward raw scoring.
func (v AnswerValue) Assessed() bool {
	return v == Yes || v == No
}

// Confidence is the raw confidence attached to a finding.
type Confidence string

const (
	High   Confidence = "High"
	Medium Confidence = "Medium"
	Low    Confidence = "Low"
)

// Rank orders confidences; unknown values rank 0.
func (c Confidence) Rank() int {
	switch c {
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// ParseConfidence accepts any casing; unknown text maps to Low.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High
	case "medium":
		return Medium
	default:
		return Low
	}
}

// EvidenceQuality grades how well an answer is supported.
type EvidenceQuality string

const (
	Strong   EvidenceQuality = "Strong"
	Moderate EvidenceQuality = "Moderate"
	Weak     EvidenceQuality = "Weak"
	Inferred EvidenceQuality = "Inferred"
)

// Weight returns the credit a Yes answer of this quality earns in the
// confidence-adjusted score. An empty quality earns full credit.
func (q EvidenceQuality) Weight() float64 {
	switch q {
	case Strong:
		return 1.0
	case Moderate:
		return 0.75
	case Weak:
		return 0.5
	case Inferred:
		return 0.25
	default:
		return 1.0
	}
}

// FixType classifies what kind of change closes a gap.
type FixType string

const (
	FixCode           FixType = "code"
	FixConfig         FixType = "config"
	FixNewFile        FixType = "new_file"
	FixDocumentation  FixType = "documentation"
	FixPolicy         FixType = "policy"
	FixOrganizational FixType = "organizational"
)

// AllFixTypes lists fix types from most to least automatable.
var AllFixTypes = []FixType{FixCode, FixConfig, FixNewFile, FixDocumentation, FixPolicy, FixOrganizational}

// Patchable reports whether an automated patch can address the fix type.
func (f FixType) Patchable() bool {
	return f == FixCode || f == FixConfig || f == FixNewFile
}

// clusterOverride reports whether a cluster may declare f as its task fix
// type. Policy and organizational work never becomes a code task.
func (f FixType) clusterOverride() bool {
	return f != FixPolicy && f != FixOrganizational
}

// Valid reports whether f is a known fix type.
func (f FixType) Valid() bool {
	return f.rank() >= 0
}

func (f FixType) rank() int {
	for i, ft := range AllFixTypes {
		if ft == f {
			return i
		}
	}
	return -1
}

// FixComplexity is the effort estimate for a fix.
type FixComplexity string

const (
	Small      FixComplexity = "small"
	MediumSize FixComplexity = "medium"
	Large      FixComplexity = "large"
)

// Rank orders complexities; unknown values rank 0.
func (c FixComplexity) Rank() int {
	switch c {
	case Small:
		return 1
	case MediumSize:
		return 2
	case Large:
		return 3
	default:
		return 0
	}
}

// Tier identifies a snapshot's place in the projection sequence.
type Tier string

const (
	TierCurrent       Tier = "current"
	TierPostPatch     Tier = "post-patch"
	TierPostChecklist Tier = "post-checklist"
)

// Tiers lists every tier in projection order.
var Tiers = []Tier{TierCurrent, TierPostPatch, TierPostChecklist}

// Priority is the urgency assigned to a remediation task.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Rank orders priorities; higher is more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// priorityForWeight maps a category weight onto a task priority.
func priorityForWeight(w float64) Priority {
	switch {
	case w >= 9:
		return PriorityCritical
	case w >= 7:
		return PriorityHigh
	case w >= 4:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
