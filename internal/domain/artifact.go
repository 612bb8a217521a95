package domain

import "fmt"

// ErrorMarkerPrefix starts the RawResponse of an artifact whose model call failed
const ErrorMarkerPrefix = "Error: "

// Artifact is the pull request generated for one Item
type Artifact struct {
	IssueID     string         `json:"issueId"`
	Title       string         `json:"title"`
	Body        string         `json:"body"`
	Diff        string         `json:"diff"`
	RawResponse string         `json:"rawResponse"`
	Source      ArtifactSource `json:"source"`
}

// IsFallback reports whether any field of the artifact was not produced by the model
func (a Artifact) IsFallback() bool {
	return a.Source != ArtifactSourceModel
}

// FallbackTitle is the title used when the model did not produce one
func FallbackTitle(item Item) string {
	return "Fix: " + item.Title
}

// FallbackBody is the body used when the model did not produce one
func FallbackBody(item Item) string {
	return "Addresses issue: " + item.Description
}

// FallbackDiff is the placeholder diff used when the model did not produce one
func FallbackDiff(item Item) string {
	return fmt.Sprintf("# Sample diff for %s\n+ # TODO: Implement actual fix", item.Title)
}

// FallbackArtifact builds the artifact used when generation failed outright.
// cause is recorded in RawResponse behind ErrorMarkerPrefix.
func FallbackArtifact(item Item, cause error) Artifact {
	msg := "unknown failure"
	if cause != nil {
		msg = cause.Error()
	}
	return Artifact{
		IssueID:     item.ID,
		Title:       FallbackTitle(item),
		Body:        FallbackBody(item),
		Diff:        FallbackDiff(item),
		RawResponse: ErrorMarkerPrefix + msg,
		Source:      ArtifactSourceFallback,
	}
}
