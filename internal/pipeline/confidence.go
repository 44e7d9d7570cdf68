package pipeline

import "github.com/sells-group/contract-intake/internal/model"

// Rule-count adjustment bounds for document confidence. Sparse extraction
// is unreliable; a richly supported one earns a small boost.
const (
	sparseRuleCount = 3
	denseRuleCount  = 10
	sparsePenalty   = 0.7
	denseBoost      = 1.1
)

// ScoreDocument computes a per-document confidence in [0,1]. The backend's
// reported document confidence is adjusted by rule count, then averaged
// with the mean confidence of the extracted rules so a single confident
// rule in a sparse document cannot dominate.
func ScoreDocument(res *model.DocumentAnalysisResult) float64 {
	adjusted := res.Stats.Confidence
	switch {
	case len(res.Rules) < sparseRuleCount:
		adjusted *= sparsePenalty
	case len(res.Rules) > denseRuleCount:
		adjusted *= denseBoost
		if adjusted > 1.0 {
			adjusted = 1.0
		}
	}

	if len(res.Rules) == 0 {
		return clamp01(adjusted)
	}

	var sum float64
	for _, r := range res.Rules {
		sum += r.Confidence
	}
	mean := sum / float64(len(res.Rules))

	return clamp01((adjusted + mean) / 2)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
