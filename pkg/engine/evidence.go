package engine

// ClassifyEvidence grades the evidence cited by the findings that back an
// answer. The highest applicable tier wins:
//
//	Strong    implementation and verification evidence
//	Moderate  implementation evidence only
//	Weak      reference evidence only (declared but unused, disabled code)
//	Inferred  nothing direct, only a framework default or no citation at all
//
// The grade ignores the findings' confidence. For a "No" answer the same
// tiers grade how certain it is that the feature is absent.
func ClassifyEvidence(findings []Finding) EvidenceQuality {
	var impl, verify, ref bool
	for _, f := range findings {
		for _, e := range f.Files {
			switch e.EffectiveKind() {
			case KindImplementation:
				impl = true
			case KindVerification:
				verify = true
			case KindReference:
				ref = true
			}
		}
	}

	switch {
	case impl && verify:
		return Strong
	case impl:
		return Moderate
	case ref, verify:
		return Weak
	default:
		return Inferred
	}
}
