package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/service"
)

// Experiments is the part of the experiment service the worker drives
type Experiments interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	Execute(ctx context.Context, run *domain.Run, items int) ([]domain.TrialResult, error)
	Results(ctx context.Context, id uuid.UUID) ([]domain.TrialResult, error)
}

// ExperimentWorker handles experiment run and export tasks
type ExperimentWorker struct {
	logger      *zap.Logger
	experiments Experiments
	exporter    service.Reporter
}

// NewExperimentWorker creates a new experiment worker. exporter may be nil,
// in which case export tasks are rejected.
func NewExperimentWorker(logger *zap.Logger, experiments Experiments, exporter service.Reporter) *ExperimentWorker {
	return &ExperimentWorker{
		logger:      logger,
		experiments: experiments,
		exporter:    exporter,
	}
}

// ProcessRunTask executes a pending run
func (w *ExperimentWorker) ProcessRunTask(ctx context.Context, t *asynq.Task) error {
	var payload RunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal run payload: %v: %w", err, asynq.SkipRetry)
	}

	run, err := w.experiments.Get(ctx, payload.RunID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	log := w.logger.With(zap.String("run_id", run.ID.String()))
	if run.Status != domain.RunStatusPending {
		log.Info("run already started, skipping", zap.String("status", string(run.Status)))
		return nil
	}

	log.Info("processing run",
		zap.String("mode", string(run.Mode)),
		zap.Int("max_workers", run.MaxWorkers),
		zap.Int("items", payload.Items),
	)

	if _, err := w.experiments.Execute(ctx, run, payload.Items); err != nil {
		if run.Status == domain.RunStatusCompleted {
			// results are stored, only publishing failed
			log.Warn("run completed with report errors", zap.Error(err))
			return nil
		}
		return fmt.Errorf("run failed: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}

// ProcessExportTask renders and publishes the stored results of a completed run
func (w *ExperimentWorker) ProcessExportTask(ctx context.Context, t *asynq.Task) error {
	var payload ExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal export payload: %v: %w", err, asynq.SkipRetry)
	}
	if w.exporter == nil {
		return fmt.Errorf("no exporter configured: %w", asynq.SkipRetry)
	}

	run, err := w.experiments.Get(ctx, payload.RunID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	if run.Status != domain.RunStatusCompleted || run.Summary == nil {
		return fmt.Errorf("run %s is %s: %w", run.ID, run.Status, asynq.SkipRetry)
	}

	results, err := w.experiments.Results(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("failed to get results: %w", err)
	}

	if err := w.exporter.Report(ctx, run, results, *run.Summary); err != nil {
		return fmt.Errorf("failed to export run: %w", err)
	}

	w.logger.Info("run exported", zap.String("run_id", run.ID.String()), zap.Int("rows", len(results)))
	return nil
}
