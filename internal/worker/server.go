package worker

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/service"
)

// Server is the worker server
type Server struct {
	logger *zap.Logger
	config *config.Config
	server *asynq.Server
	mux    *asynq.ServeMux
	client *asynq.Client
}

// Dependencies holds dependencies for workers
type Dependencies struct {
	Experiments Experiments
	Exporter    service.Reporter
}

// RedisOpt builds the asynq connection options from configuration
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// NewServer creates a new worker server
func NewServer(logger *zap.Logger, cfg *config.Config, deps *Dependencies) *Server {
	redisOpt := RedisOpt(cfg.Redis)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				cfg.Worker.QueueDefault: 3,
				cfg.Worker.QueueLow:     1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
				sentry.CaptureException(err)
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	return &Server{
		logger: logger,
		config: cfg,
		server: server,
		mux:    NewMux(logger, deps),
		client: asynq.NewClient(redisOpt),
	}
}

// NewMux registers every task handler
func NewMux(logger *zap.Logger, deps *Dependencies) *asynq.ServeMux {
	experimentWorker := NewExperimentWorker(logger, deps.Experiments, deps.Exporter)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExperimentRun, experimentWorker.ProcessRunTask)
	mux.HandleFunc(TypeReportExport, experimentWorker.ProcessExportTask)
	return mux
}

// Start starts the worker server
func (s *Server) Start() error {
	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)
	if err := s.server.Run(s.mux); err != nil {
		return fmt.Errorf("worker server stopped: %w", err)
	}
	return nil
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	_ = s.client.Close()
}

// Client returns the asynq client for enqueuing tasks
func (s *Server) Client() *asynq.Client {
	return s.client
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Fatal(fmt.Sprint(args...))
}
