package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	snaps []*Snapshot
	err   error
}

func (m *memoryStore) Latest(ctx context.Context) (*Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.snaps) == 0 {
		return nil, ErrNoSnapshot
	}
	return m.snaps[len(m.snaps)-1], nil
}

func (m *memoryStore) Save(ctx context.Context, s *Snapshot) error {
	m.snaps = append(m.snaps, s)
	return nil
}

func TestClassify(t *testing.T) {
	cases := []struct {
		from, to AnswerValue
		want     Transition
	}{
		{Yes, Yes, Unchanged},
		{Unanswered, Unanswered, Unchanged},
		{No, Yes, Improved},
		{Unanswered, Yes, Improved},
		{Yes, No, Regressed},
		{Yes, Unanswered, Regressed},
		{Unanswered, No, NewlyAssessed},
		{Unanswered, NotApplicable, NewlyAssessed},
		{NotApplicable, Yes, NewlyAssessed},
		{NotApplicable, No, NewlyAssessed},
		{No, Unanswered, NewlyUnassessed},
		{No, NotApplicable, NewlyUnassessed},
		{Yes, NotApplicable, NewlyUnassessed},
		{NotApplicable, Unanswered, NewlyUnassessed},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.from, tc.to), "%q -> %q", tc.from, tc.to)
	}
}

func TestCompareSingleImprovement(t *testing.T) {
	c := testCatalog(t)
	old := snapshotOf(t, c, map[string]AnswerValue{
		"AAAI-01": No, "AAAI-02": Yes, "AAAI-03": Yes, "AAAI-04": Yes, "APPL-01": Yes,
	}, Strong)
	old.ID = "before"
	cur := snapshotOf(t, c, map[string]AnswerValue{
		"AAAI-01": Yes, "AAAI-02": Yes, "AAAI-03": Yes, "AAAI-04": Yes, "APPL-01": Yes,
	}, Strong)
	cur.ID = "after"

	d := Compare(c, testWeights(), old, cur)
	require.Len(t, d.Improved, 1)
	assert.Equal(t, QuestionDelta{QuestionID: "AAAI-01", Category: "AAAI", Old: No, New: Yes, Transition: Improved}, d.Improved[0])
	assert.Empty(t, d.Regressed)
	assert.Equal(t, 4, d.UnchangedYes)
	assert.Equal(t, 4, d.Unchanged())

	aaai, ok := d.Category("AAAI")
	require.True(t, ok)
	assert.InDelta(t, 75.0, aaai.OldPercent, 1e-9)
	assert.InDelta(t, 100.0, aaai.NewPercent, 1e-9)
	assert.InDelta(t, 25.0, aaai.Delta, 1e-9)
	assert.Equal(t, 1, aaai.Transitions[Improved])
	assert.Equal(t, 3, aaai.Transitions[Unchanged])

	appl, _ := d.Category("APPL")
	assert.Equal(t, 0.0, appl.Delta)

	// 100*(7.5+9)/19 before, 100 after.
	assert.InDelta(t, 100-100*16.5/19, d.WeightedScoreDelta, 1e-9)
	assert.Greater(t, d.WeightedScoreDelta, 0.0)
	assert.Equal(t, "before", d.OldID)
	assert.Equal(t, "after", d.NewID)
}

func TestCompareOrphanedAndAdded(t *testing.T) {
	c := testCatalog(t)
	old := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": Yes}, Strong)
	old.Answers["OLDQ-01"] = Answer{QuestionID: "OLDQ-01", Value: Yes}
	cur := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": No, "APPL-01": Yes}, Strong)

	d := Compare(c, testWeights(), old, cur)
	assert.Equal(t, []string{"OLDQ-01"}, d.Orphaned)
	assert.Equal(t, []string{"APPL-01"}, d.Added)
	require.Len(t, d.Regressed, 1)
	assert.Equal(t, "AAAI-01", d.Regressed[0].QuestionID)
	assert.Empty(t, d.Improved)
}

func TestCompareWithLatest(t *testing.T) {
	c := testCatalog(t)
	ctx := context.Background()
	cur := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": Yes}, Strong)

	store := &memoryStore{}
	d, err := CompareWithLatest(ctx, store, c, testWeights(), cur)
	require.NoError(t, err)
	assert.Nil(t, d, "empty archive yields no delta")

	require.NoError(t, store.Save(ctx, snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": No}, Strong)))
	d, err = CompareWithLatest(ctx, store, c, testWeights(), cur)
	require.NoError(t, err)
	require.Len(t, d.Improved, 1)

	store.err = errors.New("disk on fire")
	_, err = CompareWithLatest(ctx, store, c, testWeights(), cur)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestCompareCategoryDeltasKeyedByCategory(t *testing.T) {
	c := testCatalog(t)
	old := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": No, "APPL-01": Yes}, Strong)
	cur := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": Yes, "APPL-01": Yes}, Strong)

	data, err := json.Marshal(Compare(c, testWeights(), old, cur))
	require.NoError(t, err)
	var record struct {
		CategoryDeltas map[string]struct {
			OldScore float64 `json:"old_score"`
			NewScore float64 `json:"new_score"`
		} `json:"category_deltas"`
	}
	require.NoError(t, json.Unmarshal(data, &record))
	require.Contains(t, record.CategoryDeltas, "AAAI")
	assert.Equal(t, 0.0, record.CategoryDeltas["AAAI"].OldScore)
	assert.Equal(t, 100.0, record.CategoryDeltas["AAAI"].NewScore)
	assert.Equal(t, 100.0, record.CategoryDeltas["APPL"].NewScore)
}

func TestCompareUnknownIDsStayOutOfCategoryTallies(t *testing.T) {
	c := testCatalog(t)
	old := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": No}, Strong)
	old.Answers["ZZZZ-01"] = Answer{QuestionID: "ZZZZ-01", Value: No}
	cur := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": Yes}, Strong)
	cur.Answers["ZZZZ-01"] = Answer{QuestionID: "ZZZZ-01", Value: Yes}

	d := Compare(c, testWeights(), old, cur)
	assert.Len(t, d.Improved, 2, "question-level lists still report every shared id")
	_, ok := d.Category("ZZZZ")
	assert.False(t, ok)

	aaai, ok := d.Category("AAAI")
	require.True(t, ok)
	assert.Equal(t, map[Transition]int{Improved: 1}, aaai.Transitions)

	var total int
	for _, cd := range d.Categories() {
		for _, n := range cd.Transitions {
			total += n
		}
	}
	assert.Equal(t, 1, total)
}
