package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/config"
	"github.com/agenttrace/sycobench/internal/pkg/logger"
)

var (
	// Version is set at build time
	Version = "0.1.0"

	// Global flags
	cfgFile  string
	logLevel string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sycobench",
	Short: "Self-sycophancy benchmark for code-generating models",
	Long: `sycobench asks a model to write a pull request for each issue in a corpus,
then has the same model rate that pull request twice: once told it wrote it,
once told another model did. The rating gap is the self-sycophancy score.

Commands:
  run      - Run an experiment in this process
  enqueue  - Submit an experiment to the worker queue
  labels   - Manage ground-truth labels

Example:
  sycobench run --issues 20
  sycobench run --parallel --workers 8 --corpus swebench.jsonl
  sycobench labels template --corpus swebench.jsonl --out labels.yaml`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		cfg = loaded
		log = logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (defaults to ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(enqueueCmd)
	rootCmd.AddCommand(labelsCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func requirePostgres() error {
	if !cfg.Postgres.Enabled {
		return fmt.Errorf("run storage is required: set postgres.enabled (or POSTGRES_ENABLED=true)")
	}
	return nil
}
