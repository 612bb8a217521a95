// Package report renders finished runs into the result files and publishes
// them to the local filesystem or object storage.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/agenttrace/sycobench/internal/domain"
)

// Result file names
const (
	ResultsFile = "experiment_results.csv"
	DatasetFile = "dataset.json"
	SummaryFile = "summary.csv"
)

const (
	experimentName   = "self-sycophancy-swebench"
	evaluationMethod = "choice-based rating (0-10)"
)

// Document is one rendered result file
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render produces every result file for a run
func Render(run *domain.Run, results []domain.TrialResult, summary domain.Summary) ([]Document, error) {
	resultsCSV, err := ResultsCSV(results)
	if err != nil {
		return nil, err
	}
	dataset, err := DatasetJSON(run, results, summary)
	if err != nil {
		return nil, err
	}
	summaryCSV, err := SummaryCSV(summary)
	if err != nil {
		return nil, err
	}

	return []Document{
		{Name: ResultsFile, ContentType: "text/csv", Data: resultsCSV},
		{Name: DatasetFile, ContentType: "application/json", Data: dataset},
		{Name: SummaryFile, ContentType: "text/csv", Data: summaryCSV},
	}, nil
}

// ResultsCSV writes one row per trial in input order
func ResultsCSV(results []domain.TrialResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"issue_id", "issue_title", "pr_title", "rating_self", "rating_other",
		"ground_truth", "self_other_diff", "artifact_source", "self_fallback", "other_fallback",
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, r := range results {
		truth := ""
		if r.GroundTruth != nil {
			truth = strconv.Itoa(*r.GroundTruth)
		}
		row := []string{
			r.IssueID,
			r.IssueTitle,
			r.PRTitle,
			formatFloat(r.RatingSelf),
			formatFloat(r.RatingOther),
			truth,
			formatFloat(r.SelfOtherDiff),
			string(r.ArtifactSource),
			strconv.FormatBool(r.SelfFallback),
			strconv.FormatBool(r.OtherFallback),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

type datasetMetadata struct {
	RunID            string    `json:"run_id"`
	Name             string    `json:"name"`
	Experiment       string    `json:"experiment"`
	Model            string    `json:"model"`
	Mode             string    `json:"mode"`
	MaxWorkers       int       `json:"max_workers"`
	TotalIssues      int       `json:"total_issues"`
	EvaluationMethod string    `json:"evaluation_method"`
	GeneratedAt      time.Time `json:"generated_at"`
}

type dataset struct {
	Metadata datasetMetadata      `json:"metadata"`
	Results  []domain.TrialResult `json:"results"`
	Summary  domain.Summary       `json:"summary"`
}

// DatasetJSON writes the run metadata, rows and summary as one document
func DatasetJSON(run *domain.Run, results []domain.TrialResult, summary domain.Summary) ([]byte, error) {
	if results == nil {
		results = []domain.TrialResult{}
	}
	doc := dataset{
		Metadata: datasetMetadata{
			RunID:            run.ID.String(),
			Name:             run.Name,
			Experiment:       experimentName,
			Model:            run.Model,
			Mode:             string(run.Mode),
			MaxWorkers:       run.MaxWorkers,
			TotalIssues:      len(results),
			EvaluationMethod: evaluationMethod,
			GeneratedAt:      time.Now().UTC(),
		},
		Results: results,
		Summary: summary,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// SummaryCSV writes metric, value and description rows. Undefined
// metrics have an empty value.
func SummaryCSV(summary domain.Summary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	rows := [][]string{
		{"metric", "value", "description"},
		{"Self-Sycophancy Score", formatOptional(summary.MeanSelfOtherDiff), "Positive = self-sycophancy, Negative = self-criticism"},
		{"Mean Self Rating", formatOptional(summary.MeanSelf), "Mean rating under self framing"},
		{"Mean Other Rating", formatOptional(summary.MeanOther), "Mean rating under other framing"},
		{"Self-Truth Correlation", formatOptional(summary.CorrelationSelfTruth), "Pearson correlation of self ratings with ground truth"},
		{"Other-Truth Correlation", formatOptional(summary.CorrelationOtherTruth), "Pearson correlation of other ratings with ground truth"},
		{"Total Issues", strconv.Itoa(summary.Total), "Number of issues evaluated"},
		{"Labeled Issues", strconv.Itoa(summary.Labeled), "Issues with a ground truth label"},
		{"Artifact Fallbacks", strconv.Itoa(summary.ArtifactFallbacks), "Artifacts not fully parsed from model output"},
		{"Self Score Fallbacks", strconv.Itoa(summary.SelfFallbacks), "Self ratings replaced by the neutral score"},
		{"Other Score Fallbacks", strconv.Itoa(summary.OtherFallbacks), "Other ratings replaced by the neutral score"},
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}
