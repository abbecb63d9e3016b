package engine

import (
	"fmt"
	"strings"
)

// Resolve turns findings into one answer per catalog question. patched
// holds the question ids an automated patch was generated for. The
// returned snapshot carries answers only; callers stamp identity and time.
func Resolve(c *Catalog, rules *RuleSet, findings []Finding, patched map[string]bool) (*Snapshot, []Diagnostic) {
	var diags []Diagnostic
	byQuestion := make(map[string][]Finding)
	for _, f := range findings {
		id := strings.TrimSpace(f.QuestionID)
		if _, ok := c.Question(id); !ok {
			diags = append(diags, Diagnostic{Level: LevelWarn, QuestionID: id, Message: "finding for unknown question dropped"})
			continue
		}
		byQuestion[id] = append(byQuestion[id], f)
	}

	snap := &Snapshot{Tier: TierCurrent, Answers: make(map[string]Answer, c.Len())}
	for _, q := range c.Questions() {
		a, d := resolveQuestion(q, rules, byQuestion[q.ID], patched[q.ID])
		diags = append(diags, d...)
		snap.Answers[q.ID] = a
	}
	return snap, diags
}

func resolveQuestion(q Question, rules *RuleSet, findings []Finding, patched bool) (Answer, []Diagnostic) {
	var diags []Diagnostic
	if !q.Assessable {
		if len(findings) > 0 {
			diags = append(diags, Diagnostic{
				Level:      LevelInfo,
				QuestionID: q.ID,
				Message:    fmt.Sprintf("%d finding(s) ignored for attestation-only question", len(findings)),
			})
		}
		return Answer{QuestionID: q.ID, Value: Unanswered}, diags
	}

	var valid []Finding
	for _, f := range findings {
		if _, ok := ParseAnswerValue(f.CandidateAnswer); !ok {
			diags = append(diags, Diagnostic{
				Level:      LevelWarn,
				QuestionID: q.ID,
				Message:    fmt.Sprintf("finding with candidate answer %q discarded", f.CandidateAnswer),
			})
			continue
		}
		valid = append(valid, f)
	}

	if len(valid) == 0 {
		if q.DefaultAnswer == NotApplicable {
			return Answer{
				QuestionID:      q.ID,
				Value:           NotApplicable,
				Confidence:      Low,
				EvidenceQuality: Inferred,
				AdditionalInfo:  "Not applicable by default; no evidence found.",
			}, diags
		}
		a := Answer{
			QuestionID:      q.ID,
			Value:           No,
			Confidence:      Low,
			EvidenceQuality: Inferred,
			AdditionalInfo:  "No evidence found in repository.",
		}
		applyFix(&a, q, rules, patched)
		return a, diags
	}

	value := vote(valid)
	var contributing []Finding
	var conf Confidence
	for _, f := range valid {
		v, _ := ParseAnswerValue(f.CandidateAnswer)
		if v != value {
			continue
		}
		contributing = append(contributing, f)
		if c := ParseConfidence(f.Confidence); c.Rank() > conf.Rank() {
			conf = c
		}
	}

	a := Answer{
		QuestionID:      q.ID,
		Value:           value,
		Confidence:      conf,
		EvidenceQuality: ClassifyEvidence(contributing),
		Evidence:        citation(contributing),
		AdditionalInfo:  summary(contributing),
	}
	if value == No {
		applyFix(&a, q, rules, patched)
	}
	return a, diags
}

// vote picks the answer with the greatest confidence-weighted support.
// Ties resolve to the more conservative value: No, then N/A, then Yes.
func vote(findings []Finding) AnswerValue {
	tally := make(map[AnswerValue]int)
	for _, f := range findings {
		v, _ := ParseAnswerValue(f.CandidateAnswer)
		w := ParseConfidence(f.Confidence).Rank()
		tally[v] += w
	}
	best := Unanswered
	bestScore := -1
	for _, v := range []AnswerValue{No, NotApplicable, Yes} {
		if s, ok := tally[v]; ok && s > bestScore {
			best, bestScore = v, s
		}
	}
	return best
}

func applyFix(a *Answer, q Question, rules *RuleSet, patched bool) {
	rule, _ := rules.FixFor(q)
	a.FixType = rule.FixType
	a.FixComplexity = rule.Complexity
	a.Patchable = rule.FixType.Patchable() && patched
}

func citation(findings []Finding) string {
	seen := make(map[string]bool)
	var refs []string
	for _, f := range findings {
		for _, e := range f.Files {
			s := e.String()
			if !seen[s] {
				seen[s] = true
				refs = append(refs, s)
			}
		}
	}
	return strings.Join(refs, "; ")
}

func summary(findings []Finding) string {
	seen := make(map[string]bool)
	var texts []string
	for _, f := range findings {
		t := strings.TrimSpace(f.FindingText)
		if t != "" && !seen[t] {
			seen[t] = true
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}
