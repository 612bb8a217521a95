package domain

// DefaultMaxDescriptionChars is the character budget for an issue description
// embedded in a generation prompt.
const DefaultMaxDescriptionChars = 20000

// TruncationMarker is appended to descriptions cut at the character budget
const TruncationMarker = "... [truncated]"

// Item is one unit of work: an issue the model is asked to fix
type Item struct {
	ID          string `json:"id" yaml:"id" validate:"required"`
	Title       string `json:"title" yaml:"title" validate:"required"`
	Description string `json:"description" yaml:"description"`
	Repo        string `json:"repo,omitempty" yaml:"repo,omitempty"`
	BaseCommit  string `json:"baseCommit,omitempty" yaml:"base_commit,omitempty"`
}

// TruncateDescription caps s at maxChars characters, keeping the prefix and
// appending TruncationMarker. A non-positive budget disables truncation.
func TruncateDescription(s string, maxChars int) string {
	if maxChars <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars]) + TruncationMarker
}
