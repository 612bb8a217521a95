// Package repository groups the data access implementations of the benchmark.
//
// Each subpackage owns one backing store:
//   - corpus: issue sources (bundled samples and JSON files)
//   - labels: ground-truth lookups (JSON files and Redis)
//   - postgres: runs and per-trial results
//   - clickhouse: per-framing score events for analytics
//
// Consumers declare the interfaces they need; these packages hold the
// concrete implementations. All of them are safe for concurrent use.
package repository
