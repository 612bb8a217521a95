package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/pkg/database"
	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	mode         TEXT NOT NULL,
	max_workers  INTEGER NOT NULL,
	model        TEXT NOT NULL,
	status       TEXT NOT NULL,
	item_count   INTEGER NOT NULL DEFAULT 0,
	summary      JSONB,
	error        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	started_at   TIMESTAMPTZ,
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS runs_created_at_idx ON runs (created_at DESC);

CREATE TABLE IF NOT EXISTS trial_results (
	run_id          UUID NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	issue_id        TEXT NOT NULL,
	issue_title     TEXT NOT NULL,
	pr_title        TEXT NOT NULL,
	rating_self     DOUBLE PRECISION NOT NULL,
	rating_other    DOUBLE PRECISION NOT NULL,
	ground_truth    SMALLINT,
	self_other_diff DOUBLE PRECISION NOT NULL,
	artifact_source TEXT NOT NULL,
	self_fallback   BOOLEAN NOT NULL,
	other_fallback  BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, position)
);
`

const runColumns = `id, name, mode, max_workers, model, status, item_count, summary, error, created_at, started_at, completed_at`

var resultColumns = []string{
	"run_id", "position", "issue_id", "issue_title", "pr_title",
	"rating_self", "rating_other", "ground_truth", "self_other_diff",
	"artifact_source", "self_fallback", "other_fallback",
}

// RunRepository handles run data operations in PostgreSQL
type RunRepository struct {
	db *database.PostgresDB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.PostgresDB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the run tables when they do not exist
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create run schema: %w", err)
	}
	return nil
}

// Create inserts a new run
func (r *RunRepository) Create(ctx context.Context, run *domain.Run) error {
	summary, err := marshalSummary(run.Summary)
	if err != nil {
		return err
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.db.Pool.Exec(ctx, query,
		run.ID,
		run.Name,
		string(run.Mode),
		run.MaxWorkers,
		run.Model,
		string(run.Status),
		run.ItemCount,
		summary,
		run.Error,
		run.CreatedAt,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Update stores the mutable fields of a run
func (r *RunRepository) Update(ctx context.Context, run *domain.Run) error {
	summary, err := marshalSummary(run.Summary)
	if err != nil {
		return err
	}

	query := `
		UPDATE runs
		SET status = $2, item_count = $3, summary = $4, error = $5, started_at = $6, completed_at = $7
		WHERE id = $1
	`
	tag, err := r.db.Pool.Exec(ctx, query,
		run.ID,
		string(run.Status),
		run.ItemCount,
		summary,
		run.Error,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("run")
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *RunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	run, err := scanRun(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("run")
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List retrieves runs newest first
func (r *RunRepository) List(ctx context.Context, filter *domain.RunFilter, limit, offset int) (*domain.RunList, error) {
	baseQuery := `FROM runs WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter != nil && filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, string(*filter.Status))
		argIndex++
	}

	var totalCount int64
	if err := r.db.Pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		runColumns, baseQuery, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []domain.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return &domain.RunList{
		Runs:       runs,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(runs)) < totalCount,
	}, nil
}

// SaveResults replaces the stored rows of a run
func (r *RunRepository) SaveResults(ctx context.Context, runID uuid.UUID, results []domain.TrialResult) error {
	return database.Transaction(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM trial_results WHERE run_id = $1`, runID); err != nil {
			return fmt.Errorf("failed to clear results: %w", err)
		}

		_, err := tx.CopyFrom(ctx, pgx.Identifier{"trial_results"}, resultColumns,
			pgx.CopyFromSlice(len(results), func(i int) ([]any, error) {
				res := results[i]
				return []any{
					runID,
					i,
					res.IssueID,
					res.IssueTitle,
					res.PRTitle,
					res.RatingSelf,
					res.RatingOther,
					res.GroundTruth,
					res.SelfOtherDiff,
					string(res.ArtifactSource),
					res.SelfFallback,
					res.OtherFallback,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to copy results: %w", err)
		}
		return nil
	})
}

// GetResults returns the rows of a run in input order
func (r *RunRepository) GetResults(ctx context.Context, runID uuid.UUID) ([]domain.TrialResult, error) {
	query := `
		SELECT issue_id, issue_title, pr_title, rating_self, rating_other, ground_truth,
			self_other_diff, artifact_source, self_fallback, other_fallback
		FROM trial_results
		WHERE run_id = $1
		ORDER BY position
	`

	rows, err := r.db.Pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	defer rows.Close()

	results := []domain.TrialResult{}
	for rows.Next() {
		var (
			res    domain.TrialResult
			truth  *int16
			source string
		)
		if err := rows.Scan(
			&res.IssueID,
			&res.IssueTitle,
			&res.PRTitle,
			&res.RatingSelf,
			&res.RatingOther,
			&truth,
			&res.SelfOtherDiff,
			&source,
			&res.SelfFallback,
			&res.OtherFallback,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if truth != nil {
			v := int(*truth)
			res.GroundTruth = &v
		}
		res.ArtifactSource = domain.ArtifactSource(source)
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanRun(row pgx.Row) (*domain.Run, error) {
	var (
		run     domain.Run
		mode    string
		status  string
		summary []byte
	)
	if err := row.Scan(
		&run.ID,
		&run.Name,
		&mode,
		&run.MaxWorkers,
		&run.Model,
		&status,
		&run.ItemCount,
		&summary,
		&run.Error,
		&run.CreatedAt,
		&run.StartedAt,
		&run.CompletedAt,
	); err != nil {
		return nil, err
	}
	run.Mode = domain.RunMode(mode)
	run.Status = domain.RunStatus(status)

	if len(summary) > 0 {
		var s domain.Summary
		if err := json.Unmarshal(summary, &s); err != nil {
			return nil, fmt.Errorf("failed to decode summary: %w", err)
		}
		run.Summary = &s
	}
	return &run, nil
}

func marshalSummary(s *domain.Summary) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode summary: %w", err)
	}
	return data, nil
}
