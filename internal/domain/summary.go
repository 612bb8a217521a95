package domain

// Summary is the aggregate of a list of trial results.
// Nil fields mean the metric is undefined for the data, not zero.
type Summary struct {
	MeanSelf              *float64 `json:"mean_self"`
	MeanOther             *float64 `json:"mean_other"`
	MeanSelfOtherDiff     *float64 `json:"mean_self_other_diff"`
	CorrelationSelfTruth  *float64 `json:"correlation_self_truth"`
	CorrelationOtherTruth *float64 `json:"correlation_other_truth"`
	Total                 int      `json:"total"`

	Labeled           int `json:"labeled"`
	ArtifactFallbacks int `json:"artifact_fallbacks"`
	SelfFallbacks     int `json:"self_fallbacks"`
	OtherFallbacks    int `json:"other_fallbacks"`
}
