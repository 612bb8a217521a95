// Package llm provides the model invokers used to generate and score
// artifacts. An Invoker turns a prompt into text or returns an app error
// coded MODEL_UNAVAILABLE or MALFORMED_RESPONSE. Callers never inspect the
// error beyond logging it.
package llm

import (
	"context"
	"time"

	"github.com/agenttrace/sycobench/internal/config"
)

// Invoker sends one prompt to a model and returns its text response
type Invoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// InvokerFunc adapts a function to the Invoker interface
type InvokerFunc func(ctx context.Context, prompt string) (string, error)

// Invoke calls f
func (f InvokerFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Config holds the settings shared by every provider client
type Config struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
	Referer     string
	AppTitle    string
}

// ConfigFromModel converts the loaded model section into client settings
func ConfigFromModel(m config.ModelConfig) Config {
	return Config{
		Provider:    m.Provider,
		BaseURL:     m.BaseURL,
		APIKey:      m.APIKey,
		Model:       m.Model,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
		Timeout:     m.Timeout,
		MaxRetries:  m.MaxRetries,
		Referer:     m.Referer,
		AppTitle:    m.AppTitle,
	}
}

// withCallTimeout bounds a single invocation by the configured timeout
func withCallTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
