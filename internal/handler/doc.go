// Package handler contains the HTTP handlers of the sycobench API.
//
// Routes:
//   - /health, /livez, /readyz - probes
//   - /v1/runs - create, list and inspect experiment runs
//
// Handlers convert app errors to HTTP status codes through the apperrors
// package so every error response has the same shape.
package handler
