package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agenttrace/sycobench/internal/validator"
)

// Load reads configuration from .env, the environment and an optional YAML file.
// configFile overrides the search for config.yaml when non-empty.
func Load(configFile string) (*Config, error) {
	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/sycobench")

		// Ignore error if config file not found
		_ = v.ReadInConfig()
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Model
	cfg.Model.Provider = v.GetString("model.provider")
	cfg.Model.BaseURL = v.GetString("model.base_url")
	cfg.Model.APIKey = v.GetString("model.api_key")
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = providerKey(v, cfg.Model.Provider)
	}
	cfg.Model.Model = v.GetString("model.model")
	cfg.Model.MaxTokens = v.GetInt("model.max_tokens")
	cfg.Model.Temperature = v.GetFloat64("model.temperature")
	cfg.Model.Timeout = v.GetDuration("model.timeout")
	cfg.Model.MaxRetries = v.GetInt("model.max_retries")
	cfg.Model.Referer = v.GetString("model.referer")
	cfg.Model.AppTitle = v.GetString("model.app_title")

	// Experiment
	cfg.Experiment.Name = v.GetString("experiment.name")
	cfg.Experiment.Mode = v.GetString("experiment.mode")
	cfg.Experiment.MaxWorkers = v.GetInt("experiment.max_workers")
	cfg.Experiment.Items = v.GetInt("experiment.items")
	cfg.Experiment.MaxDescriptionChars = v.GetInt("experiment.max_description_chars")
	cfg.Experiment.CorpusPath = v.GetString("experiment.corpus_path")
	cfg.Experiment.Labels = v.GetString("experiment.labels")
	cfg.Experiment.LabelsPath = v.GetString("experiment.labels_path")
	cfg.Experiment.ResultsDir = v.GetString("experiment.results_dir")

	// Logging
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	// PostgreSQL
	cfg.Postgres.Enabled = v.GetBool("postgres.enabled")
	cfg.Postgres.Host = v.GetString("postgres.host")
	cfg.Postgres.Port = v.GetInt("postgres.port")
	cfg.Postgres.User = v.GetString("postgres.user")
	cfg.Postgres.Password = v.GetString("postgres.password")
	cfg.Postgres.Database = v.GetString("postgres.database")
	cfg.Postgres.SSLMode = v.GetString("postgres.ssl_mode")
	cfg.Postgres.MaxConns = v.GetInt32("postgres.max_conns")
	cfg.Postgres.MinConns = v.GetInt32("postgres.min_conns")

	// ClickHouse
	cfg.ClickHouse.Enabled = v.GetBool("clickhouse.enabled")
	cfg.ClickHouse.Host = v.GetString("clickhouse.host")
	cfg.ClickHouse.Port = v.GetInt("clickhouse.port")
	cfg.ClickHouse.User = v.GetString("clickhouse.user")
	cfg.ClickHouse.Password = v.GetString("clickhouse.password")
	cfg.ClickHouse.Database = v.GetString("clickhouse.database")

	// Redis
	cfg.Redis.Host = v.GetString("redis.host")
	cfg.Redis.Port = v.GetInt("redis.port")
	cfg.Redis.Password = v.GetString("redis.password")
	cfg.Redis.DB = v.GetInt("redis.db")
	cfg.Redis.LabelPrefix = v.GetString("redis.label_prefix")

	// MinIO
	cfg.MinIO.Enabled = v.GetBool("minio.enabled")
	cfg.MinIO.Endpoint = v.GetString("minio.endpoint")
	cfg.MinIO.AccessKey = v.GetString("minio.access_key")
	cfg.MinIO.SecretKey = v.GetString("minio.secret_key")
	cfg.MinIO.UseSSL = v.GetBool("minio.use_ssl")
	cfg.MinIO.Bucket = v.GetString("minio.bucket")

	// Worker
	cfg.Worker.Concurrency = v.GetInt("worker.concurrency")
	cfg.Worker.QueueDefault = v.GetString("worker.queue_default")
	cfg.Worker.QueueLow = v.GetString("worker.queue_low")

	// Server
	cfg.Server.Host = v.GetString("server.host")
	cfg.Server.Port = v.GetInt("server.port")
	cfg.Server.Env = v.GetString("server.env")

	// Sentry
	cfg.Sentry.DSN = v.GetString("sentry.dsn")
	cfg.Sentry.Environment = v.GetString("sentry.environment")
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = cfg.Server.Env
	}
	cfg.Sentry.TracesSampleRate = v.GetFloat64("sentry.traces_sample_rate")

	// Circuit breaker
	cfg.Breaker.Enabled = v.GetBool("breaker.enabled")
	cfg.Breaker.MaxFailures = v.GetInt("breaker.max_failures")
	cfg.Breaker.Cooldown = v.GetDuration("breaker.cooldown")

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// providerKey falls back to the key variable each provider documents
func providerKey(v *viper.Viper, provider string) string {
	switch provider {
	case ProviderGemini:
		return v.GetString("gemini_api_key")
	default:
		return v.GetString("openrouter_api_key")
	}
}

func setDefaults(v *viper.Viper) {
	// Model defaults
	v.SetDefault("model.provider", ProviderOpenRouter)
	v.SetDefault("model.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("model.model", "google/gemma-2-9b-it:free")
	v.SetDefault("model.max_tokens", 500)
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.timeout", "60s")
	v.SetDefault("model.max_retries", 3)
	v.SetDefault("model.referer", "http://localhost:3000")
	v.SetDefault("model.app_title", "Self-Sycophancy-Experiment")

	// Experiment defaults
	v.SetDefault("experiment.mode", "sequential")
	v.SetDefault("experiment.max_workers", 4)
	v.SetDefault("experiment.items", 20)
	v.SetDefault("experiment.max_description_chars", 20000)
	v.SetDefault("experiment.labels", LabelsNone)
	v.SetDefault("experiment.results_dir", "results")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// PostgreSQL defaults
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "sycobench")
	v.SetDefault("postgres.password", "sycobench")
	v.SetDefault("postgres.database", "sycobench")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	// ClickHouse defaults
	v.SetDefault("clickhouse.enabled", false)
	v.SetDefault("clickhouse.host", "localhost")
	v.SetDefault("clickhouse.port", 9000)
	v.SetDefault("clickhouse.user", "sycobench")
	v.SetDefault("clickhouse.password", "sycobench")
	v.SetDefault("clickhouse.database", "sycobench")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.label_prefix", "sycobench:label:")

	// MinIO defaults
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", "localhost:9002")
	v.SetDefault("minio.access_key", "sycobench")
	v.SetDefault("minio.secret_key", "sycobench123")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "sycobench-results")

	// Worker defaults
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.queue_default", "default")
	v.SetDefault("worker.queue_low", "low")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.env", "development")

	// Sentry defaults
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	// Circuit breaker defaults
	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.cooldown", "30s")
}

func validate(cfg *Config) error {
	if err := validator.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.IsProduction() && cfg.Model.APIKey == "" {
		return fmt.Errorf("invalid configuration: model.api_key is required in production")
	}
	return nil
}
