package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/bootstrap"
	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/report"
	"github.com/agenttrace/sycobench/internal/service"
)

// runFlags are the experiment settings the run and enqueue commands override
type runFlags struct {
	parallel   bool
	workers    int
	issues     int
	corpus     string
	labelsFile string
	resultsDir string
	name       string
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment in this process",
	Long: `Generate a pull request per issue, rate each one under self and other
framing, and write experiment_results.csv, dataset.json and summary.csv to the
results directory.

Examples:
  # Sequential run over 20 sample issues
  sycobench run

  # Concurrent run over a SWE-bench export with labels
  sycobench run --parallel --workers 8 --corpus swebench.jsonl --labels-file labels.yaml`,
	Args: cobra.NoArgs,
	RunE: runExperiment,
}

func init() {
	addRunFlags(runCmd.Flags(), &runOpts)
}

func addRunFlags(fs *pflag.FlagSet, f *runFlags) {
	fs.BoolVar(&f.parallel, "parallel", false, "Run trials concurrently")
	fs.IntVar(&f.workers, "workers", 0, "Maximum concurrent model calls (defaults to experiment.max_workers)")
	fs.IntVar(&f.issues, "issues", 0, "Number of issues to evaluate (defaults to experiment.items, 20)")
	fs.StringVar(&f.corpus, "corpus", "", "Corpus file (YAML, JSON or JSONL); sample issues when empty")
	fs.StringVar(&f.labelsFile, "labels-file", "", "Ground-truth labels file")
	fs.StringVar(&f.resultsDir, "results-dir", "", "Directory for result files")
	fs.StringVar(&f.name, "name", "", "Run name")
}

// apply overrides the experiment configuration with the flags that were set
func (f *runFlags) apply(fs *pflag.FlagSet, exp *config.ExperimentConfig) {
	if fs.Changed("parallel") {
		exp.Mode = string(domain.RunModeSequential)
		if f.parallel {
			exp.Mode = string(domain.RunModeConcurrent)
		}
	}
	if fs.Changed("workers") {
		exp.MaxWorkers = f.workers
	}
	if fs.Changed("issues") {
		exp.Items = f.issues
	}
	if f.corpus != "" {
		exp.CorpusPath = f.corpus
	}
	if f.labelsFile != "" {
		exp.Labels = config.LabelsFile
		exp.LabelsPath = f.labelsFile
	}
	if f.resultsDir != "" {
		exp.ResultsDir = f.resultsDir
	}
	if f.name != "" {
		exp.Name = f.name
	}
}

// runInput builds the run request from the experiment configuration
func runInput(exp config.ExperimentConfig) *domain.RunInput {
	return &domain.RunInput{
		Name:       exp.Name,
		Mode:       domain.RunMode(exp.Mode),
		MaxWorkers: exp.MaxWorkers,
		Items:      exp.Items,
	}
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	runOpts.apply(cmd.Flags(), &cfg.Experiment)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Init(ctx, cfg, log, bootstrap.Options{
		Reporters: []service.Reporter{report.NewConsoleReporter(cmd.OutOrStdout())},
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	input := runInput(cfg.Experiment)
	log.Info("starting experiment",
		zap.String("mode", string(input.Mode)),
		zap.Int("max_workers", input.MaxWorkers),
		zap.Int("issues", input.Items),
		zap.String("model", cfg.Model.Model),
	)

	run, results, err := deps.Experiments.Run(ctx, input)
	if err != nil {
		if run != nil && run.Status == domain.RunStatusCompleted {
			log.Warn("experiment completed with report errors", zap.Error(err))
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("experiment interrupted: %w", context.Cause(ctx))
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%d trials written to %s\n", len(results), cfg.Experiment.ResultsDir)
	return nil
}
