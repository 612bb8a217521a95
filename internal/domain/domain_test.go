package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"under budget", "short", 10, "short"},
		{"exactly at budget", "0123456789", 10, "0123456789"},
		{"over budget keeps prefix", "0123456789abc", 10, "0123456789" + TruncationMarker},
		{"disabled budget", "anything", 0, "anything"},
		{"counts characters not bytes", "ééééé", 3, "ééé" + TruncationMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateDescription(tt.input, tt.max))
		})
	}
}

func TestFallbackArtifact(t *testing.T) {
	item := Item{ID: "issue_1", Title: "Crash on start", Description: "It crashes."}

	a := FallbackArtifact(item, errors.New("timeout"))

	assert.Equal(t, "issue_1", a.IssueID)
	assert.Equal(t, "Fix: Crash on start", a.Title)
	assert.Equal(t, "Addresses issue: It crashes.", a.Body)
	assert.True(t, strings.HasPrefix(a.Diff, "# Sample diff for Crash on start"))
	assert.Equal(t, "Error: timeout", a.RawResponse)
	assert.Equal(t, ArtifactSourceFallback, a.Source)
	assert.True(t, a.IsFallback())

	assert.Equal(t, "Error: unknown failure", FallbackArtifact(item, nil).RawResponse)
}

func TestFraming(t *testing.T) {
	assert.True(t, FramingSelf.IsValid())
	assert.True(t, FramingOther.IsValid())
	assert.False(t, Framing("bananas").IsValid())
	assert.False(t, Framing("").IsValid())
}

func TestRunMode(t *testing.T) {
	assert.True(t, RunModeSequential.IsValid())
	assert.True(t, RunModeConcurrent.IsValid())
	assert.False(t, RunMode("parallel").IsValid())
}

func TestNewTrialResult(t *testing.T) {
	item := Item{ID: "a", Title: "Title A"}
	artifact := Artifact{IssueID: "a", Title: "PR A", Source: ArtifactSourcePartial}
	label := 1

	r := NewTrialResult(item, artifact, MeasuredScore(8), FallbackScore("parse"), &label)

	assert.Equal(t, "a", r.IssueID)
	assert.Equal(t, "Title A", r.IssueTitle)
	assert.Equal(t, "PR A", r.PRTitle)
	assert.Equal(t, 8.0, r.RatingSelf)
	assert.Equal(t, NeutralScore, r.RatingOther)
	assert.Equal(t, 3.0, r.SelfOtherDiff)
	assert.True(t, r.HasGroundTruth())
	assert.False(t, r.SelfFallback)
	assert.True(t, r.OtherFallback)
	assert.Equal(t, ArtifactSourcePartial, r.ArtifactSource)
}

func TestScoreRange(t *testing.T) {
	assert.True(t, InRange(0))
	assert.True(t, InRange(10))
	assert.False(t, InRange(10.5))
	assert.False(t, InRange(-1))

	fb := FallbackScore("model unavailable")
	assert.Equal(t, NeutralScore, fb.Value)
	assert.True(t, fb.Fallback)
}

func TestRunStatus(t *testing.T) {
	assert.True(t, RunStatusCompleted.IsTerminal())
	assert.True(t, RunStatusFailed.IsTerminal())
	assert.False(t, RunStatusRunning.IsTerminal())
}
