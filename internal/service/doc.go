// Package service contains the experiment core of sycobench.
//
// GeneratorService asks the model for a pull request that fixes an issue.
// ScorerService asks the same model to rate that pull request under a
// "self" or "other" framing. OrchestratorService runs the
// generate-then-dual-score pipeline for every item, sequentially or on a
// bounded worker pool, and Aggregate turns the resulting rows into the bias
// summary. ExperimentService ties the core to its collaborators: a corpus,
// a labeler, run storage and reporters.
//
// # Failure Model
//
// Model failures never abort a run. A failed or malformed generation becomes
// a fallback artifact and a failed rating becomes the neutral score; both
// are flagged on the result row. Only an invalid framing, invalid run
// parameters or a cancelled context surface as errors.
//
// # Thread Safety
//
// All services are safe for concurrent use from multiple goroutines.
package service
