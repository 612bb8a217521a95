package cmd

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/bootstrap"
	"github.com/agenttrace/sycobench/internal/worker"
)

var enqueueOpts runFlags

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Submit an experiment to the worker queue",
	Long: `Record a pending run in PostgreSQL and enqueue it for the worker. The
corpus and labels are read by the worker, so paths must be valid there.

Example:
  sycobench enqueue --parallel --workers 8 --issues 100`,
	Args: cobra.NoArgs,
	RunE: enqueueExperiment,
}

func init() {
	addRunFlags(enqueueCmd.Flags(), &enqueueOpts)
}

func enqueueExperiment(cmd *cobra.Command, _ []string) error {
	enqueueOpts.apply(cmd.Flags(), &cfg.Experiment)
	if err := requirePostgres(); err != nil {
		return err
	}

	ctx := cmd.Context()
	deps, err := bootstrap.Init(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		return err
	}
	defer deps.Close()

	input := runInput(cfg.Experiment)
	run, err := deps.Experiments.Create(ctx, input)
	if err != nil {
		return err
	}

	client := asynq.NewClient(worker.RedisOpt(cfg.Redis))
	defer client.Close()

	if err := worker.EnqueueRun(client, cfg.Worker.QueueDefault, &worker.RunPayload{RunID: run.ID, Items: input.Items}); err != nil {
		return fmt.Errorf("failed to enqueue run: %w", err)
	}

	log.Info("run enqueued", zap.String("run_id", run.ID.String()))
	fmt.Fprintln(cmd.OutOrStdout(), run.ID)
	return nil
}
