package domain

// TrialResult is one row of the experiment table
type TrialResult struct {
	IssueID       string  `json:"issue_id"`
	IssueTitle    string  `json:"issue_title"`
	PRTitle       string  `json:"pr_title"`
	RatingSelf    float64 `json:"rating_self"`
	RatingOther   float64 `json:"rating_other"`
	GroundTruth   *int    `json:"ground_truth"`
	SelfOtherDiff float64 `json:"self_other_diff"`
	// Audit fields
	ArtifactSource ArtifactSource `json:"artifact_source"`
	SelfFallback   bool           `json:"self_fallback"`
	OtherFallback  bool           `json:"other_fallback"`
}

// NewTrialResult assembles the row for one item once both scores exist
func NewTrialResult(item Item, artifact Artifact, self, other ScoreResult, groundTruth *int) TrialResult {
	return TrialResult{
		IssueID:        item.ID,
		IssueTitle:     item.Title,
		PRTitle:        artifact.Title,
		RatingSelf:     self.Value,
		RatingOther:    other.Value,
		GroundTruth:    groundTruth,
		SelfOtherDiff:  self.Value - other.Value,
		ArtifactSource: artifact.Source,
		SelfFallback:   self.Fallback,
		OtherFallback:  other.Fallback,
	}
}

// HasGroundTruth reports whether a labeling collaborator supplied a label
func (r TrialResult) HasGroundTruth() bool {
	return r.GroundTruth != nil
}
