package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreAllStrongYes(t *testing.T) {
	c := testCatalog(t)
	snap := snapshotOf(t, c, allYes(c), Strong)

	sc := Score(c, testWeights(), snap)
	assert.Equal(t, 1.0, sc.RawScore)
	assert.Equal(t, 1.0, sc.ConfidenceAdjustedScore)
	assert.InDelta(t, 100.0, sc.WeightedScore, 1e-9)
	assert.Equal(t, 2, sc.AttestationRequired)
	assert.Equal(t, 10, sc.Assessed)
}

func TestScoreWeightedExample(t *testing.T) {
	c := testCatalog(t)
	snap := snapshotOf(t, c, map[string]AnswerValue{
		"AAAI-01": Yes, "AAAI-02": Yes, "AAAI-03": No,
		"AAAI-04": NotApplicable,
		"APPL-01": Yes,
	}, Strong)

	sc := Score(c, testWeights(), snap)
	assert.InDelta(t, 100*(10*2.0/3+9)/19, sc.WeightedScore, 1e-9)
	assert.InDelta(t, 82.46, sc.WeightedScore, 0.01)
	assert.InDelta(t, 0.75, sc.RawScore, 1e-9)

	aaai, ok := sc.Category("AAAI")
	require.True(t, ok)
	assert.Equal(t, 2, aaai.CompliantCount)
	assert.Equal(t, 3, aaai.AssessableCount)
	assert.Equal(t, 1, aaai.NotApplicableCount)
	assert.Equal(t, []string{"AAAI-03"}, aaai.Gaps)

	chng, _ := sc.Category("CHNG")
	assert.Equal(t, 0, chng.AssessableCount)
	assert.Equal(t, 0.0, chng.WeightedValue)
}

func TestScoreConfidenceAdjusted(t *testing.T) {
	c := testCatalog(t)
	snap := snapshotOf(t, c, map[string]AnswerValue{
		"APPL-01": Yes, "APPL-02": Yes, "CHNG-01": Yes, "CHNG-02": No,
	}, Strong)
	setQuality := func(id string, q EvidenceQuality) {
		a := snap.Answers[id]
		a.EvidenceQuality = q
		snap.Answers[id] = a
	}
	setQuality("APPL-02", Moderate)
	setQuality("CHNG-01", Weak)

	sc := Score(c, testWeights(), snap)
	assert.InDelta(t, 0.75, sc.RawScore, 1e-9)
	assert.InDelta(t, 0.5625, sc.ConfidenceAdjustedScore, 1e-9)
	assert.LessOrEqual(t, sc.ConfidenceAdjustedScore, sc.RawScore)
}

func TestScoreBounds(t *testing.T) {
	c := testCatalog(t)
	snaps := []*Snapshot{
		snapshotOf(t, c, map[string]AnswerValue{}, Strong),
		snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": No, "DOCU-01": No}, Inferred),
		snapshotOf(t, c, allYes(c), Inferred),
	}
	for _, s := range snaps {
		sc := Score(c, testWeights(), s)
		assert.GreaterOrEqual(t, sc.WeightedScore, 0.0)
		assert.LessOrEqual(t, sc.WeightedScore, 100.0)
		assert.LessOrEqual(t, sc.ConfidenceAdjustedScore, sc.RawScore)
	}

	empty := Score(c, testWeights(), snaps[0])
	assert.Equal(t, 0.0, empty.RawScore)
	assert.Equal(t, 0.0, empty.WeightedScore)
}

func TestScoreIsIdempotent(t *testing.T) {
	c := testCatalog(t)
	snap := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": Yes, "APPL-01": No, "GNRL-01": Unanswered}, Moderate)
	first := Score(c, testWeights(), snap)
	second := Score(c, testWeights(), snap)
	assert.Equal(t, first, second)
}

func TestScoreIgnoresUnknownAnswersAndMissingWeights(t *testing.T) {
	c := testCatalog(t)
	snap := snapshotOf(t, c, map[string]AnswerValue{"AAAI-01": Yes, "DOCU-01": No}, Strong)
	snap.Answers["ZZZZ-01"] = Answer{QuestionID: "ZZZZ-01", Value: Yes}

	w := testWeights()
	delete(w, "DOCU")
	sc := Score(c, w, snap)
	assert.Equal(t, 2, sc.Assessed)
	assert.InDelta(t, 0.5, sc.RawScore, 1e-9)
	assert.InDelta(t, 100.0, sc.WeightedScore, 1e-9, "a category without weight adds nothing")
}

func TestScoreGapsByFixTypeAndPriorities(t *testing.T) {
	c := testCatalog(t)
	snap := snapshotOf(t, c, map[string]AnswerValue{
		"AAAI-01": No, "AAAI-02": Yes, "AAAI-04": No,
		"APPL-01": No, "APPL-02": No,
		"CHNG-02": No, "DOCU-01": No,
	}, Strong)

	sc := Score(c, testWeights(), snap)
	assert.Equal(t, 3, sc.GapsByFixType[FixCode])
	assert.Equal(t, 1, sc.GapsByFixType[FixConfig])
	assert.Equal(t, 1, sc.GapsByFixType[FixPolicy])
	assert.Equal(t, 1, sc.GapsByFixType[FixDocumentation])
	assert.Equal(t, 4, sc.PatchableGaps)

	top := sc.TopPriorities(2)
	require.Len(t, top, 2)
	assert.Equal(t, "APPL", top[0].Category)
	assert.InDelta(t, 9.0, top[0].Impact, 1e-9)
	assert.Equal(t, "CHNG", top[1].Category)
	assert.InDelta(t, 7.0, top[1].Impact, 1e-9)
}
