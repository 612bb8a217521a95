package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/bootstrap"
	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/handler"
	"github.com/agenttrace/sycobench/internal/worker"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	*bootstrap.Dependencies

	AsynqClient *asynq.Client

	HealthHandler *handler.HealthHandler
	RunsHandler   *handler.RunsHandler
}

// initDependencies initializes all dependencies
func initDependencies(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Dependencies, error) {
	if !cfg.Postgres.Enabled {
		return nil, fmt.Errorf("the API serves stored runs: postgres.enabled must be true")
	}

	base, err := bootstrap.Init(ctx, cfg, log, bootstrap.Options{
		PerRunResults: true,
		RequireRedis:  true,
	})
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Dependencies: base,
		AsynqClient:  asynq.NewClient(worker.RedisOpt(cfg.Redis)),
	}

	checks := map[string]handler.Check{
		"postgres": base.Postgres.Pool.Ping,
		"redis":    func(ctx context.Context) error { return base.Redis.Ping(ctx).Err() },
	}
	var stats handler.FramingStatsSource
	if base.ClickHouse != nil {
		checks["clickhouse"] = base.ClickHouse.Conn.Ping
		stats = base.ScoreRepo
	}

	deps.HealthHandler = handler.NewHealthHandler(appVersion, checks)
	deps.RunsHandler = handler.NewRunsHandler(
		base.Experiments,
		deps.AsynqClient,
		stats,
		handler.QueueConfig{Default: cfg.Worker.QueueDefault, Low: cfg.Worker.QueueLow},
		log,
	)

	return deps, nil
}

// Close releases the queue client and every store connection
func (d *Dependencies) Close() {
	if d.AsynqClient != nil {
		_ = d.AsynqClient.Close()
	}
	d.Dependencies.Close()
}
