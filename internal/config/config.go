package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all configuration for the benchmark binaries
type Config struct {
	Model      ModelConfig      `mapstructure:"model"`
	Experiment ExperimentConfig `mapstructure:"experiment"`
	Log        LogConfig        `mapstructure:"log"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Server     ServerConfig     `mapstructure:"server"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
}

// Model providers
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// ModelConfig holds the model endpoint configuration
type ModelConfig struct {
	Provider    string        `mapstructure:"provider" validate:"oneof=openrouter gemini"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model" validate:"required"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=1"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	Referer     string        `mapstructure:"referer"`
	AppTitle    string        `mapstructure:"app_title"`
}

// Label sources
const (
	LabelsNone  = "none"
	LabelsFile  = "file"
	LabelsRedis = "redis"
)

// ExperimentConfig holds the defaults of an experiment run
type ExperimentConfig struct {
	Name                string `mapstructure:"name" validate:"max=100"`
	Mode                string `mapstructure:"mode" validate:"runmode"`
	MaxWorkers          int    `mapstructure:"max_workers" validate:"gte=1,lte=64"`
	Items               int    `mapstructure:"items" validate:"gte=1"`
	MaxDescriptionChars int    `mapstructure:"max_description_chars" validate:"gte=0"`
	CorpusPath          string `mapstructure:"corpus_path"`
	Labels              string `mapstructure:"labels" validate:"oneof=none file redis"`
	LabelsPath          string `mapstructure:"labels_path" validate:"required_if=Labels file"`
	ResultsDir          string `mapstructure:"results_dir" validate:"required"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// PostgresConfig holds PostgreSQL configuration
type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// DSN returns the PostgreSQL connection string
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		c.User, c.Password, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), c.Database, c.SSLMode)
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Addr returns the ClickHouse native protocol address
func (c ClickHouseConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	LabelPrefix string `mapstructure:"label_prefix"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MinIOConfig holds MinIO configuration
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Concurrency  int    `mapstructure:"concurrency" validate:"gte=1"`
	QueueDefault string `mapstructure:"queue_default"`
	QueueLow     string `mapstructure:"queue_low"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	Env  string `mapstructure:"env"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SentryConfig holds error reporting configuration. An empty DSN disables it.
type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"gte=0,lte=1"`
}

// BreakerConfig holds the circuit breaker placed in front of the model endpoint
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures int           `mapstructure:"max_failures" validate:"gte=1"`
	Cooldown    time.Duration `mapstructure:"cooldown" validate:"gt=0"`
}

// IsDevelopment returns true if running in development mode
func (c Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c Config) IsProduction() bool {
	return c.Server.Env == "production"
}
