package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/domain"
)

// FileReporter writes the result files into a local directory
type FileReporter struct {
	dir    string
	perRun bool
	logger *zap.Logger
}

// NewFileReporter creates a reporter writing into dir
func NewFileReporter(dir string, logger *zap.Logger) *FileReporter {
	return &FileReporter{dir: dir, logger: logger}
}

// PerRun makes the reporter write into dir/<run id> so runs do not
// overwrite each other
func (r *FileReporter) PerRun() *FileReporter {
	r.perRun = true
	return r
}

// Dir returns the directory the files of run are written to
func (r *FileReporter) Dir(run *domain.Run) string {
	if r.perRun {
		return filepath.Join(r.dir, run.ID.String())
	}
	return r.dir
}

// Report renders the run and writes every file, replacing older ones
func (r *FileReporter) Report(ctx context.Context, run *domain.Run, results []domain.TrialResult, summary domain.Summary) error {
	docs, err := Render(run, results, summary)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	dir := r.Dir(run)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, doc.Name)
		if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", doc.Name, err)
		}
		r.logger.Info("report written", zap.String("path", path))
	}
	return nil
}
