package service

import (
	"math"

	"github.com/agenttrace/sycobench/internal/domain"
)

// Aggregate summarises trial results. Means are nil for an empty list.
// Correlations against ground truth use labeled rows only and are nil when
// fewer than two rows are labeled or either series has zero variance.
func Aggregate(results []domain.TrialResult) domain.Summary {
	summary := domain.Summary{Total: len(results)}
	if len(results) == 0 {
		return summary
	}

	var self, other, diff float64
	var truth, labeledSelf, labeledOther []float64
	for _, r := range results {
		self += r.RatingSelf
		other += r.RatingOther
		diff += r.SelfOtherDiff

		if r.ArtifactSource != domain.ArtifactSourceModel {
			summary.ArtifactFallbacks++
		}
		if r.SelfFallback {
			summary.SelfFallbacks++
		}
		if r.OtherFallback {
			summary.OtherFallbacks++
		}
		if r.GroundTruth != nil {
			truth = append(truth, float64(*r.GroundTruth))
			labeledSelf = append(labeledSelf, r.RatingSelf)
			labeledOther = append(labeledOther, r.RatingOther)
		}
	}

	n := float64(len(results))
	summary.MeanSelf = ptr(self / n)
	summary.MeanOther = ptr(other / n)
	summary.MeanSelfOtherDiff = ptr(diff / n)
	summary.Labeled = len(truth)
	summary.CorrelationSelfTruth = pearson(labeledSelf, truth)
	summary.CorrelationOtherTruth = pearson(labeledOther, truth)

	return summary
}

// pearson returns the sample correlation of xs and ys, or nil when undefined
func pearson(xs, ys []float64) *float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return nil
	}

	n := float64(len(xs))
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n

	var cov, vx, vy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return nil
	}

	r := cov / math.Sqrt(vx*vy)
	// rounding can push perfectly correlated series just past ±1
	return ptr(math.Max(-1, math.Min(1, r)))
}

func ptr(v float64) *float64 {
	return &v
}
