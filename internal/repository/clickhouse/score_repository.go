package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/pkg/database"
)

const schema = `
	CREATE TABLE IF NOT EXISTS score_events (
		id              UUID,
		run_id          UUID,
		model           String,
		issue_id        String,
		framing         LowCardinality(String),
		value           Float64,
		fallback        Bool,
		artifact_source LowCardinality(String),
		ground_truth    Nullable(Int8),
		created_at      DateTime64(3)
	)
	ENGINE = MergeTree
	ORDER BY (run_id, issue_id, framing)
`

// FramingStats aggregates the ratings of one framing within a run
type FramingStats struct {
	Framing   domain.Framing `json:"framing"`
	Count     uint64         `json:"count"`
	Mean      float64        `json:"mean"`
	Fallbacks uint64         `json:"fallbacks"`
}

// ScoreRepository stores one event per rating in ClickHouse
type ScoreRepository struct {
	db *database.ClickHouseDB
}

// NewScoreRepository creates a new score repository
func NewScoreRepository(db *database.ClickHouseDB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// EnsureSchema creates the events table when it does not exist
func (r *ScoreRepository) EnsureSchema(ctx context.Context) error {
	if err := r.db.Conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create score schema: %w", err)
	}
	return nil
}

// InsertBatch writes a self and an other event for every result
func (r *ScoreRepository) InsertBatch(ctx context.Context, run *domain.Run, results []domain.TrialResult) (err error) {
	if len(results) == 0 {
		return nil
	}
	defer func(start time.Time) { r.db.Observe("insert", start, err) }(time.Now())

	batch, err := r.db.Conn.PrepareBatch(ctx, `
		INSERT INTO score_events (
			id, run_id, model, issue_id, framing, value,
			fallback, artifact_source, ground_truth, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	now := time.Now()
	for _, res := range results {
		var truth *int8
		if res.GroundTruth != nil {
			v := int8(*res.GroundTruth)
			truth = &v
		}

		for _, f := range domain.Framings {
			value, fallback := res.RatingSelf, res.SelfFallback
			if f == domain.FramingOther {
				value, fallback = res.RatingOther, res.OtherFallback
			}
			if err := batch.Append(
				uuid.New(),
				run.ID,
				run.Model,
				res.IssueID,
				string(f),
				value,
				fallback,
				string(res.ArtifactSource),
				truth,
				now,
			); err != nil {
				_ = batch.Abort()
				return fmt.Errorf("failed to append to batch: %w", err)
			}
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// StatsByFraming returns per-framing aggregates for a run
func (r *ScoreRepository) StatsByFraming(ctx context.Context, runID uuid.UUID) (_ []FramingStats, err error) {
	defer func(start time.Time) { r.db.Observe("select", start, err) }(time.Now())

	query := `
		SELECT framing, count() AS count, avg(value) AS mean, countIf(fallback) AS fallbacks
		FROM score_events
		WHERE run_id = ?
		GROUP BY framing
		ORDER BY framing DESC
	`

	rows, err := r.db.Conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query framing stats: %w", err)
	}
	defer rows.Close()

	var stats []FramingStats
	for rows.Next() {
		var (
			s       FramingStats
			framing string
		)
		if err := rows.Scan(&framing, &s.Count, &s.Mean, &s.Fallbacks); err != nil {
			return nil, fmt.Errorf("failed to scan framing stats: %w", err)
		}
		s.Framing = domain.Framing(framing)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
