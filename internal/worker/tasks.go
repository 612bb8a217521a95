package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// TypeExperimentRun is the task type for executing a pending run
	TypeExperimentRun = "experiment:run"
	// TypeReportExport is the task type for re-exporting a finished run
	TypeReportExport = "experiment:export"
)

// RunPayload is the payload for experiment run tasks
type RunPayload struct {
	RunID uuid.UUID `json:"run_id"`
	Items int       `json:"items"`
}

// NewRunTask creates an experiment run task. Runs are not retried once
// they started, so the retry budget only covers transient queue errors.
func NewRunTask(payload *RunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run payload: %w", err)
	}
	return asynq.NewTask(TypeExperimentRun, data, asynq.MaxRetry(1), asynq.Timeout(6*time.Hour)), nil
}

// ExportPayload is the payload for report export tasks
type ExportPayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// NewExportTask creates a report export task
func NewExportTask(payload *ExportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}
	return asynq.NewTask(TypeReportExport, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// Enqueuer is the subset of the asynq client used to submit tasks
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueRun enqueues an experiment run task
func EnqueueRun(client Enqueuer, queue string, payload *RunPayload) error {
	task, err := NewRunTask(payload)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(task, asynq.Queue(queue), asynq.TaskID(payload.RunID.String()))
	return err
}

// EnqueueExport enqueues a report export task
func EnqueueExport(client Enqueuer, queue string, payload *ExportPayload) error {
	task, err := NewExportTask(payload)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(task, asynq.Queue(queue))
	return err
}
