package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run is one execution of the experiment over a corpus
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Mode        RunMode    `json:"mode"`
	MaxWorkers  int        `json:"maxWorkers"`
	Model       string     `json:"model"`
	Status      RunStatus  `json:"status"`
	ItemCount   int        `json:"itemCount"`
	Summary     *Summary   `json:"summary,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// RunInput represents input for starting a run
type RunInput struct {
	Name       string  `json:"name" validate:"max=100"`
	Mode       RunMode `json:"mode" validate:"runmode"`
	MaxWorkers int     `json:"maxWorkers" validate:"gte=1,lte=64"`
	Items      int     `json:"items" validate:"gte=1,lte=10000"`
}

// RunFilter represents filter options for listing runs
type RunFilter struct {
	Status *RunStatus
}

// RunList represents a paginated list of runs
type RunList struct {
	Runs       []Run `json:"runs"`
	TotalCount int64 `json:"totalCount"`
	HasMore    bool  `json:"hasMore"`
}
