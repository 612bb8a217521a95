package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/pkg/database"
	"github.com/agenttrace/sycobench/internal/repository/corpus"
	"github.com/agenttrace/sycobench/internal/repository/labels"
)

var (
	labelsCorpus string
	labelsIssues int
	labelsOut    string
	labelsFile   string
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Manage ground-truth labels",
	Long: `Ground-truth labels mark whether the fix for an issue is known to be
correct (1) or wrong (0). Correlations with ground truth use labeled issues only.`,
}

var labelsTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a labels file with every corpus issue unlabeled",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var source corpus.Source = corpus.SampleSource{}
		if labelsCorpus != "" {
			source = corpus.NewFileSource(labelsCorpus, 0)
		}

		items, err := source.Load(cmd.Context(), labelsIssues)
		if err != nil {
			return err
		}
		ids := make([]string, len(items))
		for i, item := range items {
			ids[i] = item.ID
		}

		if err := labels.WriteTemplate(labelsOut, ids); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d issues written to %s\n", len(ids), labelsOut)
		return nil
	},
}

var labelsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a labels file into Redis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, err := labels.LoadFile(labelsFile)
		if err != nil {
			return err
		}

		client, err := database.NewRedis(cmd.Context(), cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		n, err := labels.NewRedisLabeler(client, cfg.Redis.LabelPrefix).Import(cmd.Context(), file.Labels())
		if err != nil {
			return err
		}
		log.Info("labels imported", zap.Int("count", n))
		fmt.Fprintf(cmd.OutOrStdout(), "%d labels imported\n", n)
		return nil
	},
}

func init() {
	labelsTemplateCmd.Flags().StringVar(&labelsCorpus, "corpus", "", "Corpus file; sample issues when empty")
	labelsTemplateCmd.Flags().IntVar(&labelsIssues, "issues", 20, "Number of issues (0 reads the whole corpus file)")
	labelsTemplateCmd.Flags().StringVar(&labelsOut, "out", "labels.yaml", "Output file")

	labelsImportCmd.Flags().StringVar(&labelsFile, "file", "labels.yaml", "Labels file")

	labelsCmd.AddCommand(labelsTemplateCmd)
	labelsCmd.AddCommand(labelsImportCmd)
}
