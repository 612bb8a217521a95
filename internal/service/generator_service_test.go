package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/domain"
	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
)

var testItem = domain.Item{
	ID:          "django__django-11099",
	Title:       "UsernameValidator allows trailing newline",
	Description: "The regex uses $ which matches before a trailing newline.",
}

func TestBuildGenerationPrompt(t *testing.T) {
	prompt := BuildGenerationPrompt(testItem)

	assert.True(t, strings.HasPrefix(prompt, "Create a PR for this issue:\n\nIssue: UsernameValidator allows trailing newline\n"))
	assert.Contains(t, prompt, "Description: The regex uses $")
	assert.Contains(t, prompt, "- Diff: [code changes in diff format]")
}

func TestGeneratorService_Generate(t *testing.T) {
	t.Run("parses full response", func(t *testing.T) {
		inv := new(MockInvoker)
		raw := "- Title: Use \\A and \\Z\n- Body: Anchors the regex\n- Diff: -r'^[\\w.@+-]+$'\n"
		inv.On("Invoke", mock.Anything, BuildGenerationPrompt(testItem)).Return(raw, nil)

		a := NewGeneratorService(inv, 0, zap.NewNop()).Generate(ctxBG(), testItem)

		assert.Equal(t, testItem.ID, a.IssueID)
		assert.Equal(t, "Use \\A and \\Z", a.Title)
		assert.Equal(t, "Anchors the regex", a.Body)
		assert.Equal(t, "-r'^[\\w.@+-]+$'", a.Diff)
		assert.Equal(t, raw, a.RawResponse)
		assert.Equal(t, domain.ArtifactSourceModel, a.Source)
		inv.AssertExpectations(t)
	})

	t.Run("fills missing fields", func(t *testing.T) {
		inv := new(MockInvoker)
		inv.On("Invoke", mock.Anything, mock.Anything).Return("- Title: Only a title", nil)

		a := NewGeneratorService(inv, 0, zap.NewNop()).Generate(ctxBG(), testItem)

		assert.Equal(t, "Only a title", a.Title)
		assert.Equal(t, "Addresses issue: "+testItem.Description, a.Body)
		assert.Equal(t, domain.FallbackDiff(testItem), a.Diff)
		assert.Equal(t, domain.ArtifactSourcePartial, a.Source)
	})

	t.Run("invoker failure yields fallback artifact", func(t *testing.T) {
		inv := new(MockInvoker)
		inv.On("Invoke", mock.Anything, mock.Anything).Return("", apperrors.ModelUnavailable("connection refused"))

		a := NewGeneratorService(inv, 0, zap.NewNop()).Generate(ctxBG(), testItem)

		assert.Equal(t, "Fix: "+testItem.Title, a.Title)
		assert.Equal(t, "Addresses issue: "+testItem.Description, a.Body)
		assert.NotEmpty(t, a.Diff)
		assert.True(t, strings.HasPrefix(a.RawResponse, "Error: "))
		assert.Equal(t, domain.ArtifactSourceFallback, a.Source)
	})

	t.Run("truncates long descriptions", func(t *testing.T) {
		item := testItem
		item.Description = strings.Repeat("x", 50)
		want := BuildGenerationPrompt(domain.Item{Title: item.Title, Description: strings.Repeat("x", 10) + domain.TruncationMarker})

		inv := new(MockInvoker)
		inv.On("Invoke", mock.Anything, want).Return("", apperrors.ModelUnavailable("down"))

		NewGeneratorService(inv, 10, zap.NewNop()).Generate(ctxBG(), item)

		inv.AssertExpectations(t)
	})
}
