package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/domain"
	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
	"github.com/agenttrace/sycobench/internal/pkg/metrics"
	"github.com/agenttrace/sycobench/internal/validator"
)

// CorpusSource loads up to n items to run trials on
type CorpusSource interface {
	Load(ctx context.Context, n int) ([]domain.Item, error)
}

// Reporter publishes the results of a finished run
type Reporter interface {
	Report(ctx context.Context, run *domain.Run, results []domain.TrialResult, summary domain.Summary) error
}

// RunRepository defines run persistence operations
type RunRepository interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter *domain.RunFilter, limit, offset int) (*domain.RunList, error)
	SaveResults(ctx context.Context, runID uuid.UUID, results []domain.TrialResult) error
	GetResults(ctx context.Context, runID uuid.UUID) ([]domain.TrialResult, error)
}

// ScoreEventRepository stores one analytics event per rating
type ScoreEventRepository interface {
	InsertBatch(ctx context.Context, run *domain.Run, results []domain.TrialResult) error
}

// ExperimentService runs experiments end to end: corpus, trials, summary,
// persistence and reporting.
type ExperimentService struct {
	corpus       CorpusSource
	orchestrator *OrchestratorService
	runs         RunRepository
	events       ScoreEventRepository
	reporters    []Reporter
	model        string
	logger       *zap.Logger
}

// ExperimentOption configures optional collaborators
type ExperimentOption func(*ExperimentService)

// WithRunRepository persists runs and their results
func WithRunRepository(repo RunRepository) ExperimentOption {
	return func(s *ExperimentService) { s.runs = repo }
}

// WithScoreEvents streams score events to analytics storage
func WithScoreEvents(repo ScoreEventRepository) ExperimentOption {
	return func(s *ExperimentService) { s.events = repo }
}

// WithReporters adds result reporters, called in order
func WithReporters(reporters ...Reporter) ExperimentOption {
	return func(s *ExperimentService) { s.reporters = append(s.reporters, reporters...) }
}

// NewExperimentService creates a new experiment service
func NewExperimentService(corpus CorpusSource, orchestrator *OrchestratorService, model string, logger *zap.Logger, opts ...ExperimentOption) *ExperimentService {
	s := &ExperimentService{
		corpus:       corpus,
		orchestrator: orchestrator,
		model:        model,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates input and records a pending run
func (s *ExperimentService) Create(ctx context.Context, input *domain.RunInput) (*domain.Run, error) {
	if err := validator.ValidateApp(input); err != nil {
		return nil, err
	}

	name := input.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", input.Mode, time.Now().UTC().Format("20060102-150405"))
	}

	run := &domain.Run{
		ID:         uuid.New(),
		Name:       name,
		Mode:       input.Mode,
		MaxWorkers: input.MaxWorkers,
		Model:      s.model,
		Status:     domain.RunStatusPending,
		CreatedAt:  time.Now(),
	}

	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
	}
	return run, nil
}

// Execute runs a pending run to completion. The run is marked failed when
// the corpus cannot be loaded or the trials are cancelled. Reporter errors
// are returned after the run has been stored as completed.
func (s *ExperimentService) Execute(ctx context.Context, run *domain.Run, items int) ([]domain.TrialResult, error) {
	log := s.logger.With(zap.String("run_id", run.ID.String()))

	now := time.Now()
	run.Status = domain.RunStatusRunning
	run.StartedAt = &now
	s.save(ctx, run)

	corpus, err := s.corpus.Load(ctx, items)
	if err != nil {
		return nil, s.fail(ctx, run, fmt.Errorf("failed to load corpus: %w", err))
	}
	run.ItemCount = len(corpus)
	log.Info("corpus loaded", zap.Int("items", len(corpus)))

	results, err := s.orchestrator.Run(ctx, corpus, run.Mode, run.MaxWorkers)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}

	summary := Aggregate(results)
	completed := time.Now()
	run.Status = domain.RunStatusCompleted
	run.Summary = &summary
	run.CompletedAt = &completed

	if s.runs != nil {
		if err := s.runs.SaveResults(ctx, run.ID, results); err != nil {
			log.Error("failed to save results", zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.InsertBatch(ctx, run, results); err != nil {
			log.Error("failed to insert score events", zap.Error(err))
		}
	}
	s.save(ctx, run)
	metrics.RecordRun(string(run.Mode), string(run.Status))

	fields := []zap.Field{zap.Int("total", summary.Total), zap.Int("labeled", summary.Labeled)}
	if summary.MeanSelfOtherDiff != nil {
		fields = append(fields, zap.Float64("mean_self_other_diff", *summary.MeanSelfOtherDiff))
	}
	log.Info("run completed", fields...)

	var errs []error
	for _, r := range s.reporters {
		if err := r.Report(ctx, run, results, summary); err != nil {
			log.Error("reporter failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return results, fmt.Errorf("failed to report run: %w", errors.Join(errs...))
	}
	return results, nil
}

// Run creates and executes a run in one call
func (s *ExperimentService) Run(ctx context.Context, input *domain.RunInput) (*domain.Run, []domain.TrialResult, error) {
	run, err := s.Create(ctx, input)
	if err != nil {
		return nil, nil, err
	}
	results, err := s.Execute(ctx, run, input.Items)
	return run, results, err
}

// Get returns a stored run
func (s *ExperimentService) Get(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	if s.runs == nil {
		return nil, apperrors.Internal("run storage is not configured")
	}
	return s.runs.GetByID(ctx, id)
}

// List returns stored runs, newest first
func (s *ExperimentService) List(ctx context.Context, filter *domain.RunFilter, limit, offset int) (*domain.RunList, error) {
	if s.runs == nil {
		return nil, apperrors.Internal("run storage is not configured")
	}
	return s.runs.List(ctx, filter, limit, offset)
}

// Results returns the stored rows of a run in input order
func (s *ExperimentService) Results(ctx context.Context, id uuid.UUID) ([]domain.TrialResult, error) {
	if s.runs == nil {
		return nil, apperrors.Internal("run storage is not configured")
	}
	if _, err := s.runs.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.runs.GetResults(ctx, id)
}

func (s *ExperimentService) fail(ctx context.Context, run *domain.Run, cause error) error {
	completed := time.Now()
	run.Status = domain.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &completed

	// the run context may be the reason for failure
	s.save(context.WithoutCancel(ctx), run)
	metrics.RecordRun(string(run.Mode), string(run.Status))
	s.logger.Error("run failed", zap.String("run_id", run.ID.String()), zap.Error(cause))
	return cause
}

func (s *ExperimentService) save(ctx context.Context, run *domain.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Update(ctx, run); err != nil {
		s.logger.Error("failed to update run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}
