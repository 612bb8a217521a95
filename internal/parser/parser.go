// Package parser extracts structured values from free-form model output.
// Every function is pure and never fails: missing values are reported through
// return values, never through errors.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/agenttrace/sycobench/internal/domain"
)

var numberPattern = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// Fields holds the labeled sections of a generated pull request
type Fields struct {
	Title string
	Body  string
	Diff  string
}

// ExtractScore returns the first numeric token of text when it lies on the
// rating scale. ok is false when there is no such token. A token directly
// preceded by a minus sign is negative and therefore off the scale.
func ExtractScore(text string) (float64, bool) {
	loc := numberPattern.FindStringIndex(text)
	if loc == nil {
		return 0, false
	}
	if loc[0] > 0 && text[loc[0]-1] == '-' {
		return 0, false
	}
	v, err := strconv.ParseFloat(text[loc[0]:loc[1]], 64)
	if err != nil || !domain.InRange(v) {
		return 0, false
	}
	return v, true
}

// ParseScore is ExtractScore with the neutral rating substituted on failure
func ParseScore(text string) float64 {
	if v, ok := ExtractScore(text); ok {
		return v
	}
	return domain.NeutralScore
}

var labels = []struct {
	name  string
	set   func(*Fields, string)
	isSet func(*Fields) bool
}{
	{"title", func(f *Fields, v string) { f.Title = v }, func(f *Fields) bool { return f.Title != "" }},
	{"body", func(f *Fields, v string) { f.Body = v }, func(f *Fields) bool { return f.Body != "" }},
	{"diff", func(f *Fields, v string) { f.Diff = v }, func(f *Fields) bool { return f.Diff != "" }},
}

// ParseArtifact scans text line by line for "Title:", "Body:" and "Diff:"
// labels. Labels may be preceded by a list bullet, wrapped in markdown bold
// and followed by spaces before the colon. Case is ignored. The first
// non-empty match wins for each field.
func ParseArtifact(text string) Fields {
	var f Fields

	for _, raw := range strings.Split(text, "\n") {
		line := stripBullet(strings.TrimSpace(raw))
		for _, l := range labels {
			if l.isSet(&f) {
				continue
			}
			if value, ok := matchLabel(line, l.name); ok {
				l.set(&f, value)
				break
			}
		}
	}
	return f
}

// matchLabel accepts "name:", "name :", "**name:**" and "**name**:"
func matchLabel(line, name string) (string, bool) {
	line = strings.TrimPrefix(line, "**")
	if !hasPrefixFold(line, name) {
		return "", false
	}
	rest := strings.TrimPrefix(line[len(name):], "**")
	rest = strings.TrimLeft(rest, " \t")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	rest = strings.TrimPrefix(rest[1:], "**")
	return strings.TrimSpace(rest), true
}

func stripBullet(line string) string {
	if strings.HasPrefix(line, "**") {
		return line
	}
	for _, bullet := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(strings.TrimPrefix(line, bullet))
		}
	}
	return line
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
