package model

// QualityMetrics scores a dataset against a schema on five dimensions, each
// in [0,1]. Accuracy is a heuristic proxy: the fraction of cells the quality
// improvement stage did not have to touch. It is not ground-truth accuracy
// and is documented as an approximation wherever it is surfaced.
type QualityMetrics struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
	Uniqueness   float64 `json:"uniqueness"`
	Validity     float64 `json:"validity"`
	OverallScore float64 `json:"overall_score"`
}

// MetricDeltas is the per-dimension difference between two metric snapshots
// (after minus before).
type MetricDeltas struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
	Uniqueness   float64 `json:"uniqueness"`
	Validity     float64 `json:"validity"`
	OverallScore float64 `json:"overall_score"`
}

// Delta returns after-minus-before deltas for two snapshots.
func Delta(before, after QualityMetrics) MetricDeltas {
	return MetricDeltas{
		Completeness: after.Completeness - before.Completeness,
		Accuracy:     after.Accuracy - before.Accuracy,
		Consistency:  after.Consistency - before.Consistency,
		Uniqueness:   after.Uniqueness - before.Uniqueness,
		Validity:     after.Validity - before.Validity,
		OverallScore: after.OverallScore - before.OverallScore,
	}
}
