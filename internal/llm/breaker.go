package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/pkg/circuitbreaker"
	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
	"github.com/agenttrace/sycobench/internal/pkg/metrics"
)

// BreakerInvoker guards an Invoker with a circuit breaker and records
// per-provider invocation metrics. Calls rejected by an open breaker fail
// fast with MODEL_UNAVAILABLE.
type BreakerInvoker struct {
	next     Invoker
	breaker  *circuitbreaker.Breaker
	provider string
	logger   *zap.Logger
}

// NewBreakerInvoker wraps next. A nil breaker only records metrics.
func NewBreakerInvoker(next Invoker, provider string, breaker *circuitbreaker.Breaker, logger *zap.Logger) *BreakerInvoker {
	return &BreakerInvoker{
		next:     next,
		breaker:  breaker,
		provider: provider,
		logger:   logger,
	}
}

// Invoke calls the wrapped invoker unless the breaker is open
func (b *BreakerInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	var (
		out string
		err error
	)
	if b.breaker == nil {
		out, err = b.next.Invoke(ctx, prompt)
	} else {
		out, err = circuitbreaker.Do(ctx, b.breaker, func(ctx context.Context) (string, error) {
			return b.next.Invoke(ctx, prompt)
		})
	}

	switch {
	case err == nil:
		metrics.RecordInvocation(b.provider, metrics.OutcomeSuccess, time.Since(start))
	case errors.Is(err, circuitbreaker.ErrOpen), errors.Is(err, circuitbreaker.ErrProbeInFlight):
		metrics.RecordInvocation(b.provider, metrics.OutcomeRejected, 0)
		return "", apperrors.ModelUnavailable("model endpoint circuit open").WithError(err)
	default:
		metrics.RecordInvocation(b.provider, metrics.OutcomeError, time.Since(start))
	}
	return out, err
}

// BreakerStateLogger returns a state change hook that logs and publishes transitions
func BreakerStateLogger(logger *zap.Logger) func(name string, from, to circuitbreaker.State) {
	return func(name string, from, to circuitbreaker.State) {
		metrics.SetBreakerState(name, int(to))
		logger.Warn("model circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
}
