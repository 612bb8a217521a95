package service

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agenttrace/sycobench/internal/domain"
	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
	"github.com/agenttrace/sycobench/internal/pkg/metrics"
)

// ArtifactGenerator produces an artifact for an item and never fails
type ArtifactGenerator interface {
	Generate(ctx context.Context, item domain.Item) domain.Artifact
}

// FramedScorer rates an artifact under a framing
type FramedScorer interface {
	Score(ctx context.Context, artifact domain.Artifact, framing domain.Framing) (domain.ScoreResult, error)
}

// Labeler supplies ground-truth correctness labels keyed by issue id.
// ok is false when the issue has no label.
type Labeler interface {
	Label(ctx context.Context, issueID string) (label int, ok bool, err error)
}

// OrchestratorService runs the generate and dual-score pipeline over items
type OrchestratorService struct {
	generator ArtifactGenerator
	scorer    FramedScorer
	labeler   Labeler
	logger    *zap.Logger
}

// NewOrchestratorService creates a new orchestrator. labeler may be nil.
func NewOrchestratorService(generator ArtifactGenerator, scorer FramedScorer, labeler Labeler, logger *zap.Logger) *OrchestratorService {
	return &OrchestratorService{
		generator: generator,
		scorer:    scorer,
		labeler:   labeler,
		logger:    logger,
	}
}

// Run executes one trial per item and returns the rows in input order.
// In concurrent mode at most maxWorkers model calls are in flight; all
// generations finish before any scoring starts.
func (s *OrchestratorService) Run(ctx context.Context, items []domain.Item, mode domain.RunMode, maxWorkers int) ([]domain.TrialResult, error) {
	if !mode.IsValid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid run mode %q", mode)).WithDetail("mode", string(mode))
	}
	if maxWorkers < 1 {
		return nil, apperrors.Validation("maxWorkers must be at least 1").WithDetail("maxWorkers", fmt.Sprint(maxWorkers))
	}

	s.logger.Info("starting trials",
		zap.Int("items", len(items)),
		zap.String("mode", string(mode)),
		zap.Int("max_workers", maxWorkers),
	)

	if mode == domain.RunModeSequential {
		return s.runSequential(ctx, items)
	}
	return s.runConcurrent(ctx, items, maxWorkers)
}

func (s *OrchestratorService) runSequential(ctx context.Context, items []domain.Item) ([]domain.TrialResult, error) {
	results := make([]domain.TrialResult, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()

		artifact := s.generate(ctx, item)
		var scores [2]domain.ScoreResult
		for j, framing := range domain.Framings {
			score, err := s.score(ctx, artifact, framing)
			if err != nil {
				return nil, err
			}
			scores[j] = score
		}

		metrics.ObserveTrial(time.Since(start))
		results = append(results, s.assemble(ctx, item, artifact, scores))
	}
	return results, nil
}

// trialSlot is the per-item cell of the concurrent result arena. Each field
// is written by exactly one task.
type trialSlot struct {
	artifact domain.Artifact
	scores   [2]domain.ScoreResult
	errs     [2]error
	genTime  time.Duration
	scoreDur [2]time.Duration
}

func (s *OrchestratorService) runConcurrent(ctx context.Context, items []domain.Item, maxWorkers int) ([]domain.TrialResult, error) {
	slots := make([]trialSlot, len(items))

	var gen errgroup.Group
	gen.SetLimit(maxWorkers)
	for i := range items {
		if ctx.Err() != nil {
			break
		}
		gen.Go(func() error {
			start := time.Now()
			slots[i].artifact = s.generate(ctx, items[i])
			slots[i].genTime = time.Since(start)
			return nil
		})
	}
	_ = gen.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var scoring errgroup.Group
	scoring.SetLimit(maxWorkers)
	for i := range items {
		for j, framing := range domain.Framings {
			if ctx.Err() != nil {
				break
			}
			scoring.Go(func() error {
				start := time.Now()
				slots[i].scores[j], slots[i].errs[j] = s.score(ctx, slots[i].artifact, framing)
				slots[i].scoreDur[j] = time.Since(start)
				return nil
			})
		}
	}
	_ = scoring.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]domain.TrialResult, 0, len(items))
	for i, item := range items {
		slot := &slots[i]
		for _, err := range slot.errs {
			if err != nil {
				return nil, err
			}
		}
		metrics.ObserveTrial(slot.genTime + max(slot.scoreDur[0], slot.scoreDur[1]))
		results = append(results, s.assemble(ctx, item, slot.artifact, slot.scores))
	}
	return results, nil
}

// generate converts a panicking generator into the fallback artifact
func (s *OrchestratorService) generate(ctx context.Context, item domain.Item) (artifact domain.Artifact) {
	defer func() {
		if r := recover(); r != nil {
			s.reportPanic(r, item.ID, "generate")
			metrics.RecordFallback(metrics.FallbackArtifact)
			artifact = domain.FallbackArtifact(item, fmt.Errorf("generation panicked: %v", r))
		}
	}()
	return s.generator.Generate(ctx, item)
}

// score converts a panicking scorer into the neutral fallback score
func (s *OrchestratorService) score(ctx context.Context, artifact domain.Artifact, framing domain.Framing) (result domain.ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.reportPanic(r, artifact.IssueID, "score_"+string(framing))
			metrics.RecordFallback(metrics.FallbackScore)
			result, err = domain.FallbackScore(fmt.Sprintf("scoring panicked: %v", r)), nil
		}
	}()
	return s.scorer.Score(ctx, artifact, framing)
}

func (s *OrchestratorService) reportPanic(r any, issueID, stage string) {
	s.logger.Error("recovered panic in trial task",
		zap.String("issue_id", issueID),
		zap.String("stage", stage),
		zap.Any("panic", r),
	)
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("issue_id", issueID)
		scope.SetTag("stage", stage)
	})
	hub.Recover(r)
}

func (s *OrchestratorService) assemble(ctx context.Context, item domain.Item, artifact domain.Artifact, scores [2]domain.ScoreResult) domain.TrialResult {
	result := domain.NewTrialResult(item, artifact, scores[0], scores[1], s.groundTruth(ctx, item.ID))
	s.logger.Info("trial completed",
		zap.String("issue_id", result.IssueID),
		zap.Float64("rating_self", result.RatingSelf),
		zap.Float64("rating_other", result.RatingOther),
		zap.String("artifact_source", string(result.ArtifactSource)),
	)
	return result
}

func (s *OrchestratorService) groundTruth(ctx context.Context, issueID string) *int {
	if s.labeler == nil {
		return nil
	}
	label, ok, err := s.labeler.Label(ctx, issueID)
	if err != nil {
		s.logger.Warn("ground truth lookup failed", zap.String("issue_id", issueID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &label
}
