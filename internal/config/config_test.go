package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultsViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(defaultsViper())
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenRouter, cfg.Model.Provider)
	assert.Equal(t, "google/gemma-2-9b-it:free", cfg.Model.Model)
	assert.Equal(t, 500, cfg.Model.MaxTokens)
	assert.Equal(t, 0.7, cfg.Model.Temperature)
	assert.Equal(t, 60*time.Second, cfg.Model.Timeout)
	assert.Equal(t, "Self-Sycophancy-Experiment", cfg.Model.AppTitle)

	assert.Equal(t, "sequential", cfg.Experiment.Mode)
	assert.Equal(t, 20, cfg.Experiment.Items)
	assert.Equal(t, 20000, cfg.Experiment.MaxDescriptionChars)
	assert.Equal(t, LabelsNone, cfg.Experiment.Labels)

	assert.Equal(t, 30*time.Second, cfg.Breaker.Cooldown)
	assert.Equal(t, "development", cfg.Sentry.Environment)
	assert.True(t, cfg.IsDevelopment())
}

func TestFromViper_ProviderKeyFallback(t *testing.T) {
	t.Run("openrouter", func(t *testing.T) {
		v := defaultsViper()
		v.Set("openrouter_api_key", "or-key")

		cfg, err := fromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "or-key", cfg.Model.APIKey)
	})

	t.Run("gemini", func(t *testing.T) {
		v := defaultsViper()
		v.Set("model.provider", ProviderGemini)
		v.Set("gemini_api_key", "g-key")

		cfg, err := fromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "g-key", cfg.Model.APIKey)
	})

	t.Run("explicit key wins", func(t *testing.T) {
		v := defaultsViper()
		v.Set("model.api_key", "explicit")
		v.Set("openrouter_api_key", "or-key")

		cfg, err := fromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "explicit", cfg.Model.APIKey)
	})
}

func TestFromViper_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown mode", "experiment.mode", "parallel"},
		{"zero workers", "experiment.max_workers", 0},
		{"unknown provider", "model.provider", "llama"},
		{"file labels without path", "experiment.labels", LabelsFile},
		{"bad log level", "log.level", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := defaultsViper()
			v.Set(tt.key, tt.value)

			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}

	t.Run("production requires api key", func(t *testing.T) {
		v := defaultsViper()
		v.Set("server.env", "production")

		_, err := fromViper(v)
		assert.ErrorContains(t, err, "api_key")
	})
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.yaml")
	content := `
model:
  model: openai/gpt-4o-mini
experiment:
  mode: concurrent
  max_workers: 8
  items: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o-mini", cfg.Model.Model)
	assert.Equal(t, "concurrent", cfg.Experiment.Mode)
	assert.Equal(t, 8, cfg.Experiment.MaxWorkers)
	assert.Equal(t, 5, cfg.Experiment.Items)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "bench", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/bench?sslmode=disable", c.DSN())
	assert.Equal(t, "cache:6379", RedisConfig{Host: "cache", Port: 6379}.Addr())
}
