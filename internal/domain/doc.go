// Package domain contains the core entities of the self-sycophancy benchmark.
//
// This package defines:
//   - Item: one issue taken from a corpus
//   - Artifact: the pull request a model generated for an Item
//   - ScoreResult: a rating in [0, 10] together with its fallback discriminant
//   - TrialResult: one row of the experiment table
//   - Run and Summary: an experiment execution and its aggregated metrics
//
// # Design Philosophy
//
// Domain types are persistence-agnostic. Values are created once by the
// service layer and never mutated afterwards, so they can be shared across
// goroutines without locking.
//
// # Naming Conventions
//
// Types ending in "Input" are used for create operations.
// Types ending in "Filter" are used for query operations.
package domain
