package engine

import "sort"

// CategoryScore is the compliance tally for one category.
type CategoryScore struct {
	Category           string   `json:"category"`
	Name               string   `json:"name"`
	Weight             float64  `json:"weight"`
	CompliantCount     int      `json:"compliant_count"`
	AssessableCount    int      `json:"assessable_count"`
	NotApplicableCount int      `json:"not_applicable_count"`
	AttestationCount   int      `json:"attestation_count"`
	WeightedValue      float64  `json:"weighted_value"`
	Gaps               []string `json:"gaps,omitempty"`
}

// Percent is the category's compliance percentage, 0 when nothing was assessed.
func (cs CategoryScore) Percent() float64 {
	if cs.AssessableCount == 0 {
		return 0
	}
	return 100 * float64(cs.CompliantCount) / float64(cs.AssessableCount)
}

// RemediationPriority ranks a category by how much closing its gaps moves
// the weighted score.
type RemediationPriority struct {
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Weight     float64 `json:"weight"`
	Gaps       int     `json:"gaps"`
	Assessable int     `json:"assessable"`
	Impact     float64 `json:"impact"`
}

// Scores is the full scoring of one snapshot.
type Scores struct {
	Tier                    Tier            `json:"tier"`
	Compliant               int             `json:"compliant"`
	Assessed                int             `json:"assessed"`
	RawScore                float64         `json:"raw_score"`
	WeightedScore           float64         `json:"weighted_score"`
	ConfidenceAdjustedScore float64         `json:"confidence_adjusted_score"`
	NotApplicable           int             `json:"not_applicable"`
	AttestationRequired     int             `json:"attestation_required"`
	Categories              []CategoryScore `json:"categories"`
	GapsByFixType           map[FixType]int `json:"gaps_by_fix_type"`
	PatchableGaps           int             `json:"patchable_gaps"`
}

// Score computes raw, weighted and confidence-adjusted scores for a
// snapshot. Only catalog questions are counted. RawScore and
// ConfidenceAdjustedScore are fractions in [0,1]; WeightedScore is a
// percentage.
func Score(c *Catalog, w Weights, s *Snapshot) *Scores {
	sc := &Scores{Tier: s.Tier, GapsByFixType: make(map[FixType]int)}
	cats := make(map[string]*CategoryScore)
	var order []string
	var credit float64

	for _, q := range c.Questions() {
		cs, ok := cats[q.Category]
		if !ok {
			cs = &CategoryScore{Category: q.Category, Name: w.Name(q.Category), Weight: w.Weight(q.Category)}
			cats[q.Category] = cs
			order = append(order, q.Category)
		}

		a, ok := s.Answers[q.ID]
		if !ok {
			continue
		}
		switch {
		case a.Value == Unanswered:
			cs.AttestationCount++
			sc.AttestationRequired++
			continue
		case a.Value == NotApplicable:
			cs.NotApplicableCount++
			sc.NotApplicable++
			continue
		case !q.Assessable:
			continue
		}

		cs.AssessableCount++
		sc.Assessed++
		if a.Value == Yes {
			cs.CompliantCount++
			sc.Compliant++
			credit += a.EvidenceQuality.Weight()
		} else {
			cs.Gaps = append(cs.Gaps, q.ID)
			ft := a.FixType
			if ft == "" {
				ft = FixOrganizational
			}
			sc.GapsByFixType[ft]++
			if a.FixType.Patchable() {
				sc.PatchableGaps++
			}
		}
	}

	var num, den float64
	for _, cat := range order {
		cs := cats[cat]
		if cs.AssessableCount > 0 {
			cs.WeightedValue = cs.Weight * float64(cs.CompliantCount) / float64(cs.AssessableCount)
			num += cs.WeightedValue
			den += cs.Weight
		}
		sc.Categories = append(sc.Categories, *cs)
	}
	sort.SliceStable(sc.Categories, func(i, j int) bool {
		if sc.Categories[i].Weight != sc.Categories[j].Weight {
			return sc.Categories[i].Weight > sc.Categories[j].Weight
		}
		return sc.Categories[i].Category < sc.Categories[j].Category
	})

	if sc.Assessed > 0 {
		sc.RawScore = float64(sc.Compliant) / float64(sc.Assessed)
		sc.ConfidenceAdjustedScore = credit / float64(sc.Assessed)
	}
	if den > 0 {
		sc.WeightedScore = 100 * num / den
	}
	return sc
}

// Category returns the score for one category code.
func (s *Scores) Category(code string) (CategoryScore, bool) {
	for _, cs := range s.Categories {
		if cs.Category == code {
			return cs, true
		}
	}
	return CategoryScore{}, false
}

// TopPriorities returns up to n categories with gaps, ordered by
// weight * gaps / assessed.
func (s *Scores) TopPriorities(n int) []RemediationPriority {
	var out []RemediationPriority
	for _, cs := range s.Categories {
		gaps := cs.AssessableCount - cs.CompliantCount
		if gaps == 0 || cs.Weight == 0 {
			continue
		}
		out = append(out, RemediationPriority{
			Category:   cs.Category,
			Name:       cs.Name,
			Weight:     cs.Weight,
			Gaps:       gaps,
			Assessable: cs.AssessableCount,
			Impact:     cs.Weight * float64(gaps) / float64(cs.AssessableCount),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Impact != out[j].Impact {
			return out[i].Impact > out[j].Impact
		}
		return out[i].Category < out[j].Category
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
