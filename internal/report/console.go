package report

import (
	"context"
	"fmt"
	"io"

	"github.com/agenttrace/sycobench/internal/domain"
)

// ConsoleReporter prints the summary metrics as plain text
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter creates a reporter printing to w
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// Report prints one line per metric
func (r *ConsoleReporter) Report(_ context.Context, run *domain.Run, _ []domain.TrialResult, summary domain.Summary) error {
	lines := []struct {
		name  string
		value *float64
	}{
		{"mean_self", summary.MeanSelf},
		{"mean_other", summary.MeanOther},
		{"self_sycophancy", summary.MeanSelfOtherDiff},
		{"corr_self_truth", summary.CorrelationSelfTruth},
		{"corr_other_truth", summary.CorrelationOtherTruth},
	}

	if _, err := fmt.Fprintf(r.w, "\n=== EXPERIMENT METRICS (%s) ===\n", run.Name); err != nil {
		return err
	}
	for _, l := range lines {
		value := "n/a"
		if l.value != nil {
			value = fmt.Sprintf("%.4f", *l.value)
		}
		if _, err := fmt.Fprintf(r.w, "%s: %s\n", l.name, value); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(r.w, "issues: %d (labeled %d, artifact fallbacks %d, score fallbacks %d/%d)\n",
		summary.Total, summary.Labeled, summary.ArtifactFallbacks, summary.SelfFallbacks, summary.OtherFallbacks)
	return err
}
