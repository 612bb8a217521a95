package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/domain"
	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
	chrepo "github.com/agenttrace/sycobench/internal/repository/clickhouse"
	"github.com/agenttrace/sycobench/internal/worker"
)

// RunService is the part of the experiment service the API exposes
type RunService interface {
	Create(ctx context.Context, input *domain.RunInput) (*domain.Run, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter *domain.RunFilter, limit, offset int) (*domain.RunList, error)
	Results(ctx context.Context, id uuid.UUID) ([]domain.TrialResult, error)
}

// FramingStatsSource returns analytics aggregates for a run
type FramingStatsSource interface {
	StatsByFraming(ctx context.Context, runID uuid.UUID) ([]chrepo.FramingStats, error)
}

// QueueConfig names the queues tasks are submitted to
type QueueConfig struct {
	Default string
	Low     string
}

// RunsHandler handles run endpoints
type RunsHandler struct {
	runs   RunService
	tasks  worker.Enqueuer
	stats  FramingStatsSource
	queues QueueConfig
	logger *zap.Logger
}

// NewRunsHandler creates a new runs handler. stats may be nil when the
// analytics store is disabled.
func NewRunsHandler(runs RunService, tasks worker.Enqueuer, stats FramingStatsSource, queues QueueConfig, logger *zap.Logger) *RunsHandler {
	return &RunsHandler{
		runs:   runs,
		tasks:  tasks,
		stats:  stats,
		queues: queues,
		logger: logger,
	}
}

// CreateRun handles POST /v1/runs
func (h *RunsHandler) CreateRun(c *fiber.Ctx) error {
	var input domain.RunInput
	if err := c.BodyParser(&input); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if input.Mode == "" {
		input.Mode = domain.RunModeSequential
	}
	if input.MaxWorkers == 0 {
		input.MaxWorkers = 1
	}

	run, err := h.runs.Create(c.Context(), &input)
	if err != nil {
		if !apperrors.IsValidation(err) {
			h.logger.Error("failed to create run", zap.Error(err))
		}
		return appErrorResponse(c, err, "Failed to create run")
	}

	if err := worker.EnqueueRun(h.tasks, h.queues.Default, &worker.RunPayload{RunID: run.ID, Items: input.Items}); err != nil {
		h.logger.Error("failed to enqueue run", zap.String("run_id", run.ID.String()), zap.Error(err))
		return errorResponse(c, fiber.StatusServiceUnavailable, "Failed to enqueue run")
	}

	return c.Status(fiber.StatusAccepted).JSON(run)
}

// ListRuns handles GET /v1/runs
func (h *RunsHandler) ListRuns(c *fiber.Ctx) error {
	filter := &domain.RunFilter{}
	if s := c.Query("status"); s != "" {
		status := domain.RunStatus(s)
		filter.Status = &status
	}
	page := ParsePagination(c, 100)

	list, err := h.runs.List(c.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		return appErrorResponse(c, err, "Failed to list runs")
	}

	return c.JSON(fiber.Map{
		"data":       list.Runs,
		"totalCount": list.TotalCount,
		"hasMore":    list.HasMore,
	})
}

// GetRun handles GET /v1/runs/:runId
func (h *RunsHandler) GetRun(c *fiber.Ctx) error {
	id, ok, err := runIDParam(c)
	if !ok {
		return err
	}

	run, err := h.runs.Get(c.Context(), id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.logger.Error("failed to get run", zap.Error(err))
		}
		return appErrorResponse(c, err, "Failed to get run")
	}
	return c.JSON(run)
}

// GetResults handles GET /v1/runs/:runId/results
func (h *RunsHandler) GetResults(c *fiber.Ctx) error {
	id, ok, err := runIDParam(c)
	if !ok {
		return err
	}

	results, err := h.runs.Results(c.Context(), id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			h.logger.Error("failed to get results", zap.Error(err))
		}
		return appErrorResponse(c, err, "Failed to get results")
	}

	return c.JSON(fiber.Map{
		"data":       results,
		"totalCount": len(results),
	})
}

// GetStats handles GET /v1/runs/:runId/stats
func (h *RunsHandler) GetStats(c *fiber.Ctx) error {
	if h.stats == nil {
		return errorResponse(c, fiber.StatusNotFound, "Analytics are not enabled")
	}
	id, ok, err := runIDParam(c)
	if !ok {
		return err
	}

	stats, err := h.stats.StatsByFraming(c.Context(), id)
	if err != nil {
		h.logger.Error("failed to get framing stats", zap.Error(err))
		return appErrorResponse(c, err, "Failed to get stats")
	}
	return c.JSON(fiber.Map{
		"data": stats,
	})
}

// ExportRun handles POST /v1/runs/:runId/export
func (h *RunsHandler) ExportRun(c *fiber.Ctx) error {
	id, ok, err := runIDParam(c)
	if !ok {
		return err
	}

	run, err := h.runs.Get(c.Context(), id)
	if err != nil {
		return appErrorResponse(c, err, "Failed to get run")
	}
	if run.Status != domain.RunStatusCompleted {
		return errorResponse(c, fiber.StatusConflict, "Run is not completed")
	}

	if err := worker.EnqueueExport(h.tasks, h.queues.Low, &worker.ExportPayload{RunID: id}); err != nil {
		h.logger.Error("failed to enqueue export", zap.String("run_id", id.String()), zap.Error(err))
		return errorResponse(c, fiber.StatusServiceUnavailable, "Failed to enqueue export")
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"runId":  id,
		"status": "queued",
	})
}
