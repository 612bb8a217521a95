package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/bootstrap"
	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/middleware"
	"github.com/agenttrace/sycobench/internal/pkg/logger"
	"github.com/agenttrace/sycobench/internal/worker"
)

func main() {
	cfg, err := config.Load(os.Getenv("SYCOBENCH_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	defer func() { _ = logger.Sync() }()

	if _, err := middleware.InitSentry(cfg.Sentry, "sycobench-worker"); err != nil {
		log.Error("failed to initialize Sentry", zap.Error(err))
	}

	if !cfg.Postgres.Enabled {
		log.Fatal("the worker executes stored runs: postgres.enabled must be true")
	}

	log.Info("starting worker service")

	deps, err := bootstrap.Init(context.Background(), cfg, log, bootstrap.Options{
		PerRunResults: true,
		RequireRedis:  true,
	})
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	workerServer := worker.NewServer(log, cfg, &worker.Dependencies{
		Experiments: deps.Experiments,
		Exporter:    deps.Exporter,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	middleware.FlushSentry(2 * time.Second)
	log.Info("worker stopped")
}
