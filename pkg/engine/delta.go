package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Transition classifies how one question's answer moved between runs.
type Transition string

const (
	Unchanged       Transition = "unchanged"
	Improved        Transition = "improved"
	Regressed       Transition = "regressed"
	NewlyAssessed   Transition = "newly_assessed"
	NewlyUnassessed Transition = "newly_unassessed"
)

// Classify returns the transition from one run to the next.
func Classify(from, to AnswerValue) Transition {
	switch {
	case from == to:
		return Unchanged
	case to == Yes && (from == No || from == Unanswered):
		return Improved
	case from == Yes && (to == No || to == Unanswered):
		return Regressed
	case from == Unanswered:
		return NewlyAssessed
	case to == Unanswered:
		return NewlyUnassessed
	case !from.Assessed() && to.Assessed():
		return NewlyAssessed
	default:
		return NewlyUnassessed
	}
}

// QuestionDelta is the change for one question.
type QuestionDelta struct {
	QuestionID string      `json:"question_id"`
	Category   string      `json:"category"`
	Old        AnswerValue `json:"old"`
	New        AnswerValue `json:"new"`
	Transition Transition  `json:"transition"`
}

// CategoryDelta is the per-category change between two runs.
type CategoryDelta struct {
	Category    string             `json:"category"`
	Name        string             `json:"name"`
	OldPercent  float64            `json:"old_score"`
	NewPercent  float64            `json:"new_score"`
	Delta       float64            `json:"delta"`
	Transitions map[Transition]int `json:"transitions"`
}

// Delta compares two snapshots of the same tier.
type Delta struct {
	OldID              string                   `json:"old_id"`
	NewID              string                   `json:"new_id"`
	OldDate            time.Time                `json:"old_date"`
	NewDate            time.Time                `json:"new_date"`
	Improved           []QuestionDelta          `json:"improved"`
	Regressed          []QuestionDelta          `json:"regressed"`
	NewlyAssessed      []QuestionDelta          `json:"newly_assessed"`
	NewlyUnassessed    []QuestionDelta          `json:"newly_unassessed"`
	UnchangedYes       int                      `json:"unchanged_yes"`
	UnchangedNo        int                      `json:"unchanged_no"`
	UnchangedOther     int                      `json:"unchanged_other"`
	Orphaned           []string                 `json:"orphaned"`
	Added              []string                 `json:"added"`
	CategoryDeltas     map[string]CategoryDelta `json:"category_deltas"`
	OldWeightedScore   float64                  `json:"old_weighted_score"`
	NewWeightedScore   float64                  `json:"new_weighted_score"`
	WeightedScoreDelta float64                  `json:"weighted_score_delta"`
}

// Unchanged returns the number of questions whose answer did not move.
func (d *Delta) Unchanged() int {
	return d.UnchangedYes + d.UnchangedNo + d.UnchangedOther
}

// Compare diffs two snapshots question by question. Ids present in only
// one snapshot are reported as orphaned (old only) or added (new only)
// and take no part in the transitions.
func Compare(c *Catalog, w Weights, prev, cur *Snapshot) *Delta {
	d := &Delta{
		OldID:           prev.ID,
		NewID:           cur.ID,
		OldDate:         prev.AssessmentDate,
		NewDate:         cur.AssessmentDate,
		Improved:        []QuestionDelta{},
		Regressed:       []QuestionDelta{},
		NewlyAssessed:   []QuestionDelta{},
		NewlyUnassessed: []QuestionDelta{},
		Orphaned:        []string{},
		Added:           []string{},
		CategoryDeltas:  make(map[string]CategoryDelta),
	}

	transitions := make(map[string]map[Transition]int)
	for _, id := range prev.IDs() {
		oa := prev.Answers[id]
		na, ok := cur.Answers[id]
		if !ok {
			d.Orphaned = append(d.Orphaned, id)
			continue
		}

		cat := CategoryOf(id)
		q, known := c.Question(id)
		if known {
			cat = q.Category
		}

		tr := Classify(oa.Value, na.Value)
		// Category tallies follow the scores, which count catalog
		// questions only.
		if known {
			if transitions[cat] == nil {
				transitions[cat] = make(map[Transition]int)
			}
			transitions[cat][tr]++
		}
		qd := QuestionDelta{QuestionID: id, Category: cat, Old: oa.Value, New: na.Value, Transition: tr}
		switch tr {
		case Unchanged:
			switch oa.Value {
			case Yes:
				d.UnchangedYes++
			case No:
				d.UnchangedNo++
			default:
				d.UnchangedOther++
			}
		case Improved:
			d.Improved = append(d.Improved, qd)
		case Regressed:
			d.Regressed = append(d.Regressed, qd)
		case NewlyAssessed:
			d.NewlyAssessed = append(d.NewlyAssessed, qd)
		case NewlyUnassessed:
			d.NewlyUnassessed = append(d.NewlyUnassessed, qd)
		}
	}
	for _, id := range cur.IDs() {
		if _, ok := prev.Answers[id]; !ok {
			d.Added = append(d.Added, id)
		}
	}

	oldScores := Score(c, w, prev)
	newScores := Score(c, w, cur)
	d.OldWeightedScore = oldScores.WeightedScore
	d.NewWeightedScore = newScores.WeightedScore
	d.WeightedScoreDelta = newScores.WeightedScore - oldScores.WeightedScore

	for _, sc := range [][]CategoryScore{newScores.Categories, oldScores.Categories} {
		for _, cs := range sc {
			if _, done := d.CategoryDeltas[cs.Category]; done {
				continue
			}
			ocs, _ := oldScores.Category(cs.Category)
			ncs, _ := newScores.Category(cs.Category)
			tr := transitions[cs.Category]
			if tr == nil {
				tr = make(map[Transition]int)
			}
			d.CategoryDeltas[cs.Category] = CategoryDelta{
				Category:    cs.Category,
				Name:        cs.Name,
				OldPercent:  ocs.Percent(),
				NewPercent:  ncs.Percent(),
				Delta:       ncs.Percent() - ocs.Percent(),
				Transitions: tr,
			}
		}
	}
	return d
}

// Category returns the delta for one category code.
func (d *Delta) Category(code string) (CategoryDelta, bool) {
	cd, ok := d.CategoryDeltas[code]
	return cd, ok
}

// Categories returns the category deltas ordered by category code.
func (d *Delta) Categories() []CategoryDelta {
	out := make([]CategoryDelta, 0, len(d.CategoryDeltas))
	for _, cd := range d.CategoryDeltas {
		out = append(out, cd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// SnapshotStore archives current-tier snapshots between runs.
type SnapshotStore interface {
	// Latest returns the most recent archived current-tier snapshot, or
	// ErrNoSnapshot.
	Latest(ctx context.Context) (*Snapshot, error)
	// Save archives a snapshot under a new key. It never overwrites.
	Save(ctx context.Context, s *Snapshot) error
}

// CompareWithLatest diffs a snapshot against the newest archived one. It
// returns nil without error when the archive is empty.
func CompareWithLatest(ctx context.Context, store SnapshotStore, c *Catalog, w Weights, current *Snapshot) (*Delta, error) {
	prev, err := store.Latest(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load baseline snapshot: %w", err)
	}
	return Compare(c, w, prev, current), nil
}
