package clickhouse

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/pkg/database"
)

// getTestDB returns a database connection for integration tests.
// Returns nil if the database is not available (skips tests).
func getTestDB(t *testing.T) *database.ClickHouseDB {
	if os.Getenv("CLICKHOUSE_TEST_HOST") == "" {
		t.Skip("Skipping integration test: CLICKHOUSE_TEST_HOST not set")
		return nil
	}

	cfg := config.ClickHouseConfig{
		Host:     os.Getenv("CLICKHOUSE_TEST_HOST"),
		Port:     9000,
		Database: os.Getenv("CLICKHOUSE_TEST_DB"),
		User:     os.Getenv("CLICKHOUSE_TEST_USER"),
		Password: os.Getenv("CLICKHOUSE_TEST_PASS"),
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}

	db, err := database.NewClickHouse(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to ClickHouse: %v", err)
		return nil
	}
	return db
}

func TestScoreRepository_InsertBatch(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	ctx := context.Background()
	repo := NewScoreRepository(db)
	require.NoError(t, repo.EnsureSchema(ctx))

	run := &domain.Run{ID: uuid.New(), Model: "test-model"}
	truth := 1
	results := []domain.TrialResult{
		{IssueID: "issue_1", RatingSelf: 8, RatingOther: 6, GroundTruth: &truth, ArtifactSource: domain.ArtifactSourceModel},
		{IssueID: "issue_2", RatingSelf: 4, RatingOther: 5, OtherFallback: true, ArtifactSource: domain.ArtifactSourceModel},
	}
	require.NoError(t, repo.InsertBatch(ctx, run, results))

	stats, err := repo.StatsByFraming(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, domain.FramingSelf, stats[0].Framing)
	assert.Equal(t, uint64(2), stats[0].Count)
	assert.InDelta(t, 6.0, stats[0].Mean, 1e-9)
	assert.Zero(t, stats[0].Fallbacks)

	assert.Equal(t, domain.FramingOther, stats[1].Framing)
	assert.InDelta(t, 5.5, stats[1].Mean, 1e-9)
	assert.Equal(t, uint64(1), stats[1].Fallbacks)
}

func TestScoreRepository_InsertBatch_Empty(t *testing.T) {
	repo := NewScoreRepository(nil)
	assert.NoError(t, repo.InsertBatch(context.Background(), &domain.Run{}, nil))
}
