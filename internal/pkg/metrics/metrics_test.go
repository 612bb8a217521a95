package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordInvocation(t *testing.T) {
	before := testutil.ToFloat64(invocationsTotal.WithLabelValues("test-provider", OutcomeSuccess))

	RecordInvocation("test-provider", OutcomeSuccess, 120*time.Millisecond)

	after := testutil.ToFloat64(invocationsTotal.WithLabelValues("test-provider", OutcomeSuccess))
	assert.Equal(t, before+1, after)
}

func TestRecordFallback(t *testing.T) {
	before := testutil.ToFloat64(fallbacksTotal.WithLabelValues(FallbackScore))

	RecordFallback(FallbackScore)
	RecordFallback(FallbackScore)

	assert.Equal(t, before+2, testutil.ToFloat64(fallbacksTotal.WithLabelValues(FallbackScore)))
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("openrouter", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(breakerState.WithLabelValues("openrouter")))
}

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(runsTotal.WithLabelValues("concurrent", "completed"))
	RecordRun("concurrent", "completed")
	assert.Equal(t, before+1, testutil.ToFloat64(runsTotal.WithLabelValues("concurrent", "completed")))
}
