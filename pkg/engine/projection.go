package engine

import "fmt"

const (
	ProvenanceAutoPatch = "auto-patch"
	ProvenanceChecklist = "checklist"

	postPatchMethodology = "Answers that are No with a code, config or new_file fix for which an automated patch " +
		"was generated are projected to Yes. All other answers are unchanged from the current assessment."
	postChecklistMethodology = "Starts from the post-patch projection and additionally projects documentation fixes " +
		"to Yes. Policy and organizational gaps are never projected."
)

// ProjectPostPatch derives the post-patch tier from a current snapshot.
// Gaps with a patchable fix type but no generated patch stay No and are
// listed in PatchDowngrades.
func ProjectPostPatch(current *Snapshot) (*Snapshot, error) {
	if current.Tier != TierCurrent {
		return nil, fmt.Errorf("post-patch projection from %s: %w", current.Tier, ErrWrongTier)
	}
	out := current.Clone()
	out.Tier = TierPostPatch
	out.ProjectedMethodology = postPatchMethodology
	out.FlippedQuestions = nil
	out.PatchDowngrades = nil

	for _, id := range current.IDs() {
		a := current.Answers[id]
		if a.Value != No || !a.FixType.Patchable() {
			continue
		}
		if !a.Patchable {
			out.PatchDowngrades = append(out.PatchDowngrades, id)
			continue
		}
		out.Answers[id] = flip(a, ProvenanceAutoPatch)
		out.FlippedQuestions = append(out.FlippedQuestions, Flip{
			QuestionID: id,
			FixType:    a.FixType,
			Tier:       TierPostPatch,
			Reason:     fmt.Sprintf("automated %s fix generated", a.FixType),
		})
	}
	return out, nil
}

// ProjectPostChecklist derives the post-checklist tier from the post-patch
// tier. Its flipped questions include every post-patch flip.
func ProjectPostChecklist(postPatch *Snapshot) (*Snapshot, error) {
	if postPatch.Tier != TierPostPatch {
		return nil, fmt.Errorf("post-checklist projection from %s: %w", postPatch.Tier, ErrWrongTier)
	}
	out := postPatch.Clone()
	out.Tier = TierPostChecklist
	out.ProjectedMethodology = postChecklistMethodology

	for _, id := range postPatch.IDs() {
		a := postPatch.Answers[id]
		if a.Value != No || a.FixType != FixDocumentation {
			continue
		}
		out.Answers[id] = flip(a, ProvenanceChecklist)
		out.FlippedQuestions = append(out.FlippedQuestions, Flip{
			QuestionID: id,
			FixType:    a.FixType,
			Tier:       TierPostChecklist,
			Reason:     "documentation checklist item completed",
		})
	}
	return out, nil
}

// Project derives both projected tiers from a current snapshot.
func Project(current *Snapshot) (postPatch, postChecklist *Snapshot, err error) {
	postPatch, err = ProjectPostPatch(current)
	if err != nil {
		return nil, nil, err
	}
	postChecklist, err = ProjectPostChecklist(postPatch)
	if err != nil {
		return nil, nil, err
	}
	return postPatch, postChecklist, nil
}

// flip turns a gap into a projected Yes. Evidence quality is not
// recomputed; the provenance tag marks the answer as projected.
func flip(a Answer, provenance string) Answer {
	a.Value = Yes
	a.EvidenceQuality = ""
	a.FixType = ""
	a.FixComplexity = ""
	a.Patchable = false
	a.Provenance = provenance
	return a
}
