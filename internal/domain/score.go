package domain

const (
	// MinScore is the lowest rating on the scale
	MinScore = 0.0
	// MaxScore is the highest rating on the scale
	MaxScore = 10.0
	// NeutralScore is reported when no rating could be obtained
	NeutralScore = 5.0
)

// InRange reports whether v lies on the rating scale
func InRange(v float64) bool {
	return v >= MinScore && v <= MaxScore
}

// ScoreResult is a rating together with whether it is a genuine measurement.
// A fallback result always carries NeutralScore.
type ScoreResult struct {
	Value    float64 `json:"value"`
	Fallback bool    `json:"fallback"`
	Reason   string  `json:"reason,omitempty"`
}

// MeasuredScore wraps a rating parsed from a model response
func MeasuredScore(v float64) ScoreResult {
	return ScoreResult{Value: v}
}

// FallbackScore returns the neutral rating used when scoring failed
func FallbackScore(reason string) ScoreResult {
	return ScoreResult{Value: NeutralScore, Fallback: true, Reason: reason}
}
