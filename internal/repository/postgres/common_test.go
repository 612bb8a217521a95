package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/pkg/database"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getTestDB connects to the database named by POSTGRES_TEST_* and makes
// sure the run tables exist. The test is skipped when no host is set.
func getTestDB(t *testing.T) *database.PostgresDB {
	t.Helper()

	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		t.Skip("POSTGRES_TEST_HOST not set")
	}

	db, err := database.NewPostgres(context.Background(), config.PostgresConfig{
		Host:     host,
		Port:     5432,
		User:     envOr("POSTGRES_TEST_USER", "postgres"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: envOr("POSTGRES_TEST_DB", "test_sycobench"),
		SSLMode:  "disable",
		MaxConns: 4,
		MinConns: 1,
	})
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, NewRunRepository(db).EnsureSchema(context.Background()))
	return db
}

// cleanupRuns deletes runs on test exit; trial rows cascade
func cleanupRuns(t *testing.T, db *database.PostgresDB, ids ...uuid.UUID) {
	t.Cleanup(func() {
		for _, id := range ids {
			_, _ = db.Pool.Exec(context.Background(), "DELETE FROM runs WHERE id = $1", id)
		}
	})
}
