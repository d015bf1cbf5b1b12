package analysis

import "github.com/sells-group/grant-review/internal/model"

// ClassifyConsensus grades agreement across analyses by the share held by
// the most common tendency: all of them is unanimous, at least 75% majority,
// at least 50% mixed, anything less split. No analyses is unknown.
func ClassifyConsensus(analyses []model.PerspectiveAnalysis) model.Consensus {
	total := len(analyses)
	if total == 0 {
		return model.ConsensusUnknown
	}

	counts := make(map[model.Tendency]int, 4)
	maxCount := 0
	for _, a := range analyses {
		counts[a.RecommendationTendency]++
		maxCount = max(maxCount, counts[a.RecommendationTendency])
	}

	// Integer comparisons keep the thresholds exact.
	switch {
	case maxCount == total:
		return model.ConsensusUnanimous
	case 4*maxCount >= 3*total:
		return model.ConsensusMajority
	case 2*maxCount >= total:
		return model.ConsensusMixed
	default:
		return model.ConsensusSplit
	}
}

// DominantPerspective returns the name of the most confident analysis. The
// first one wins ties. It returns "" for no analyses.
func DominantPerspective(analyses []model.PerspectiveAnalysis) string {
	if len(analyses) == 0 {
		return ""
	}
	best := 0
	for i, a := range analyses[1:] {
		if a.Confidence > analyses[best].Confidence {
			best = i + 1
		}
	}
	return analyses[best].Perspective
}
