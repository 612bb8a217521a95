// Package bootstrap wires configuration into the experiment service and its
// storage, shared by the CLI, the API server and the worker.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/llm"
	"github.com/agenttrace/sycobench/internal/pkg/database"
	"github.com/agenttrace/sycobench/internal/report"
	chrepo "github.com/agenttrace/sycobench/internal/repository/clickhouse"
	"github.com/agenttrace/sycobench/internal/repository/corpus"
	"github.com/agenttrace/sycobench/internal/repository/labels"
	pgrepo "github.com/agenttrace/sycobench/internal/repository/postgres"
	"github.com/agenttrace/sycobench/internal/service"
)

// Options adjusts what Init builds
type Options struct {
	// Invoker replaces the configured model client
	Invoker llm.Invoker
	// Reporters run after the configured file and object reporters
	Reporters []service.Reporter
	// PerRunResults writes result files into a directory per run
	PerRunResults bool
	// RequireRedis connects to Redis even when labels are not stored there
	RequireRedis bool
}

// Dependencies holds every component built from configuration
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Postgres   *database.PostgresDB
	ClickHouse *database.ClickHouseDB
	Redis      *redis.Client
	MinIO      *minio.Client

	RunRepo   *pgrepo.RunRepository
	ScoreRepo *chrepo.ScoreRepository

	Invoker     llm.Invoker
	Labeler     service.Labeler
	Experiments *service.ExperimentService
	// Exporter publishes stored runs on demand
	Exporter service.Reporter
}

// Init connects the enabled stores and builds the experiment service.
// On error every connection opened so far is closed.
func Init(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (_ *Dependencies, err error) {
	deps := &Dependencies{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			deps.Close()
		}
	}()

	if err := deps.initStores(ctx, opts); err != nil {
		return nil, err
	}

	deps.Invoker = opts.Invoker
	if deps.Invoker == nil {
		deps.Invoker, err = llm.New(ctx, cfg.Model, cfg.Breaker, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize model client: %w", err)
		}
	}

	deps.Labeler, err = deps.initLabeler()
	if err != nil {
		return nil, err
	}

	fileReporter := report.NewFileReporter(cfg.Experiment.ResultsDir, logger)
	if opts.PerRunResults {
		fileReporter.PerRun()
	}
	reporters := []service.Reporter{fileReporter}
	deps.Exporter = fileReporter
	if deps.MinIO != nil {
		objectReporter := report.NewObjectReporter(deps.MinIO, cfg.MinIO.Bucket, logger)
		reporters = append(reporters, objectReporter)
		deps.Exporter = objectReporter
	}
	reporters = append(reporters, opts.Reporters...)

	deps.Experiments = NewExperimentService(cfg, deps.Invoker, deps.Labeler, logger, deps.serviceOptions(reporters)...)
	return deps, nil
}

// NewExperimentService assembles the trial pipeline over the configured corpus
func NewExperimentService(cfg *config.Config, invoker llm.Invoker, labeler service.Labeler, logger *zap.Logger, opts ...service.ExperimentOption) *service.ExperimentService {
	generator := service.NewGeneratorService(invoker, cfg.Experiment.MaxDescriptionChars, logger)
	scorer := service.NewScorerService(invoker, logger)
	orchestrator := service.NewOrchestratorService(generator, scorer, labeler, logger)

	var source corpus.Source = corpus.SampleSource{}
	if cfg.Experiment.CorpusPath != "" {
		source = corpus.WithFallback(
			corpus.NewFileSource(cfg.Experiment.CorpusPath, cfg.Experiment.MaxDescriptionChars),
			corpus.SampleSource{},
			logger,
		)
	}

	return service.NewExperimentService(source, orchestrator, cfg.Model.Model, logger, opts...)
}

func (d *Dependencies) initStores(ctx context.Context, opts Options) error {
	cfg := d.Config

	if cfg.Postgres.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		d.Postgres = db
		d.RunRepo = pgrepo.NewRunRepository(db)
		if err := d.RunRepo.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	if cfg.ClickHouse.Enabled {
		db, err := database.NewClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		d.ClickHouse = db
		d.ScoreRepo = chrepo.NewScoreRepository(db)
		if err := d.ScoreRepo.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	if opts.RequireRedis || cfg.Experiment.Labels == config.LabelsRedis {
		client, err := database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize Redis: %w", err)
		}
		d.Redis = client
	}

	if cfg.MinIO.Enabled {
		client, err := report.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return err
		}
		d.MinIO = client
	}
	return nil
}

func (d *Dependencies) initLabeler() (service.Labeler, error) {
	switch d.Config.Experiment.Labels {
	case config.LabelsFile:
		l, err := labels.LoadFile(d.Config.Experiment.LabelsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load labels: %w", err)
		}
		return l, nil
	case config.LabelsRedis:
		return labels.NewRedisLabeler(d.Redis, d.Config.Redis.LabelPrefix), nil
	}
	return nil, nil
}

func (d *Dependencies) serviceOptions(reporters []service.Reporter) []service.ExperimentOption {
	opts := []service.ExperimentOption{service.WithReporters(reporters...)}
	if d.RunRepo != nil {
		opts = append(opts, service.WithRunRepository(d.RunRepo))
	}
	if d.ScoreRepo != nil {
		opts = append(opts, service.WithScoreEvents(d.ScoreRepo))
	}
	return opts
}

// Close releases every open connection
func (d *Dependencies) Close() {
	if d.Postgres != nil {
		d.Postgres.Close()
	}
	if d.ClickHouse != nil {
		if err := d.ClickHouse.Close(); err != nil {
			d.Logger.Warn("failed to close ClickHouse", zap.Error(err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn("failed to close Redis", zap.Error(err))
		}
	}
}
