package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/llm"
	"github.com/agenttrace/sycobench/internal/parser"
	"github.com/agenttrace/sycobench/internal/pkg/metrics"
)

const generationTemplate = `Create a PR for this issue:

Issue: %s
Description: %s

Return in this format:
- Title: [PR title]
- Body: [PR description]
- Diff: [code changes in diff format]`

// BuildGenerationPrompt renders the prompt asking for a pull request
func BuildGenerationPrompt(item domain.Item) string {
	return fmt.Sprintf(generationTemplate, item.Title, item.Description)
}

// GeneratorService produces a pull request artifact for an item
type GeneratorService struct {
	invoker             llm.Invoker
	maxDescriptionChars int
	logger              *zap.Logger
}

// NewGeneratorService creates a new generator service.
// maxDescriptionChars <= 0 disables description truncation.
func NewGeneratorService(invoker llm.Invoker, maxDescriptionChars int, logger *zap.Logger) *GeneratorService {
	return &GeneratorService{
		invoker:             invoker,
		maxDescriptionChars: maxDescriptionChars,
		logger:              logger,
	}
}

// Generate always returns a fully populated artifact. Fields the model did
// not supply are filled with fallbacks and recorded in Artifact.Source.
func (s *GeneratorService) Generate(ctx context.Context, item domain.Item) domain.Artifact {
	item.Description = domain.TruncateDescription(item.Description, s.maxDescriptionChars)

	raw, err := s.invoker.Invoke(ctx, BuildGenerationPrompt(item))
	if err != nil {
		s.logger.Warn("artifact generation failed, using fallback",
			zap.String("issue_id", item.ID),
			zap.Error(err),
		)
		metrics.RecordFallback(metrics.FallbackArtifact)
		return domain.FallbackArtifact(item, err)
	}

	fields := parser.ParseArtifact(raw)
	artifact := domain.Artifact{
		IssueID:     item.ID,
		Title:       fields.Title,
		Body:        fields.Body,
		Diff:        fields.Diff,
		RawResponse: raw,
		Source:      domain.ArtifactSourceModel,
	}

	var filled []string
	if artifact.Title == "" {
		artifact.Title = domain.FallbackTitle(item)
		filled = append(filled, "title")
	}
	if artifact.Body == "" {
		artifact.Body = domain.FallbackBody(item)
		filled = append(filled, "body")
	}
	if artifact.Diff == "" {
		artifact.Diff = domain.FallbackDiff(item)
		filled = append(filled, "diff")
	}
	if len(filled) > 0 {
		artifact.Source = domain.ArtifactSourcePartial
		metrics.RecordFallback(metrics.FallbackPartial)
		s.logger.Warn("model response missing fields",
			zap.String("issue_id", item.ID),
			zap.Strings("filled", filled),
		)
	}

	return artifact
}
