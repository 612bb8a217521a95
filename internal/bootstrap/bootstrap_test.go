package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/llm"
	"github.com/agenttrace/sycobench/internal/report"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Model: config.ModelConfig{Model: "test-model"},
		Experiment: config.ExperimentConfig{
			Mode:       string(domain.RunModeSequential),
			MaxWorkers: 2,
			Items:      3,
			Labels:     config.LabelsNone,
			ResultsDir: t.TempDir(),
		},
	}
}

// cannedInvoker writes a full artifact and rates self above other
var cannedInvoker = llm.InvokerFunc(func(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "You wrote"):
		return "8", nil
	case strings.HasPrefix(prompt, "Another model"):
		return "Rating: 6", nil
	}
	return "Title: Fix it\nBody: Explains the fix\nDiff: + fixed", nil
})

func TestInit_RunsSampleCorpusEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	deps, err := Init(context.Background(), cfg, zap.NewNop(), Options{Invoker: cannedInvoker})
	require.NoError(t, err)
	defer deps.Close()

	assert.Nil(t, deps.Postgres)
	assert.Nil(t, deps.Labeler)
	assert.IsType(t, &report.FileReporter{}, deps.Exporter)

	run, results, err := deps.Experiments.Run(context.Background(), &domain.RunInput{
		Mode:       domain.RunModeConcurrent,
		MaxWorkers: 2,
		Items:      3,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "issue_1", results[0].IssueID)
	assert.Equal(t, 2.0, results[2].SelfOtherDiff)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, "test-model", run.Model)

	for _, name := range []string{report.ResultsFile, report.DatasetFile, report.SummaryFile} {
		_, err := os.Stat(filepath.Join(cfg.Experiment.ResultsDir, name))
		assert.NoError(t, err, name)
	}
}

func TestInit_FileLabels(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  issue_1: 1\n  issue_2: 0\n"), 0o644))
	cfg.Experiment.Labels = config.LabelsFile
	cfg.Experiment.LabelsPath = path

	deps, err := Init(context.Background(), cfg, zap.NewNop(), Options{Invoker: cannedInvoker, PerRunResults: true})
	require.NoError(t, err)
	defer deps.Close()

	label, ok, err := deps.Labeler.Label(context.Background(), "issue_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, label)

	_, results, err := deps.Experiments.Run(context.Background(), &domain.RunInput{Mode: domain.RunModeSequential, MaxWorkers: 1, Items: 3})
	require.NoError(t, err)
	require.NotNil(t, results[0].GroundTruth)
	assert.Nil(t, results[2].GroundTruth)
}

func TestInit_MissingLabelsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Experiment.Labels = config.LabelsFile
	cfg.Experiment.LabelsPath = filepath.Join(t.TempDir(), "missing.yaml")

	deps, err := Init(context.Background(), cfg, zap.NewNop(), Options{Invoker: cannedInvoker})
	assert.Error(t, err)
	assert.Nil(t, deps)
}
