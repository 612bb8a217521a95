package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	app.Get("/health", deps.HealthHandler.Health)
	app.Get("/livez", deps.HealthHandler.Liveness)
	app.Get("/readyz", deps.HealthHandler.Readiness)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	runs := v1.Group("/runs")
	runs.Post("/", deps.RunsHandler.CreateRun)
	runs.Get("/", deps.RunsHandler.ListRuns)
	runs.Get("/:runId", deps.RunsHandler.GetRun)
	runs.Get("/:runId/results", deps.RunsHandler.GetResults)
	runs.Get("/:runId/stats", deps.RunsHandler.GetStats)
	runs.Post("/:runId/export", deps.RunsHandler.ExportRun)
}
