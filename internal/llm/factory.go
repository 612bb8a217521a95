package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/pkg/circuitbreaker"
)

// New builds the invoker for the configured provider, wrapped in a circuit
// breaker when one is enabled.
func New(ctx context.Context, model config.ModelConfig, breakerCfg config.BreakerConfig, logger *zap.Logger) (Invoker, error) {
	cfg := ConfigFromModel(model)

	var (
		base Invoker
		err  error
	)
	switch cfg.Provider {
	case config.ProviderOpenRouter, "":
		base = NewOpenRouterClient(cfg, logger)
		cfg.Provider = config.ProviderOpenRouter
	case config.ProviderGemini:
		base, err = NewGeminiClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}

	var breaker *circuitbreaker.Breaker
	if breakerCfg.Enabled {
		breaker = circuitbreaker.New(circuitbreaker.Config{
			Name:          cfg.Provider,
			MaxFailures:   breakerCfg.MaxFailures,
			Cooldown:      breakerCfg.Cooldown,
			OnStateChange: BreakerStateLogger(logger),
		})
	}

	return NewBreakerInvoker(base, cfg.Provider, breaker, logger), nil
}
