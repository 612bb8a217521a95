package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestID(t *testing.T) {
	newApp := func(seen *string) *fiber.App {
		app := fiber.New()
		app.Use(RequestID())
		app.Get("/test", func(c *fiber.Ctx) error {
			*seen = GetRequestID(c)
			return c.SendStatus(fiber.StatusOK)
		})
		return app
	}

	t.Run("generates an ID", func(t *testing.T) {
		var seen string
		resp, err := newApp(&seen).Test(httptest.NewRequest("GET", "/test", nil))
		require.NoError(t, err)

		id := resp.Header.Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps the caller's ID", func(t *testing.T) {
		var seen string
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "run-req-1")

		resp, err := newApp(&seen).Test(req)
		require.NoError(t, err)
		assert.Equal(t, "run-req-1", resp.Header.Get(RequestIDHeader))
		assert.Equal(t, "run-req-1", seen)
	})
}

func TestRecover(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	app := fiber.New()
	app.Use(RequestID())
	app.Use(Recover(zap.New(core), false))
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(Logger(zap.New(core), HealthSkipper))
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })

	_, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	_, err = app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.EqualValues(t, fiber.StatusNotFound, entry.ContextMap()["status"])
}

func TestMetrics(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics(nil))
	app.Get("/v1/runs/:runId", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/runs/:runId", "200"))
	_, err := app.Test(httptest.NewRequest("GET", "/v1/runs/abc", nil))
	require.NoError(t, err)

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/runs/:runId", "200"))
	assert.Equal(t, before+1, after)
}
