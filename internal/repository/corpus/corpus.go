// Package corpus loads the issues an experiment runs on. Files may be YAML,
// a JSON array or JSON Lines, in either the native item shape or the
// SWE-bench export shape (instance_id, problem_statement, repo, base_commit).
package corpus

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/agenttrace/sycobench/internal/domain"
)

const maxTitleChars = 150

// record accepts both the native and the SWE-bench field names
type record struct {
	ID               string `yaml:"id"`
	InstanceID       string `yaml:"instance_id"`
	Title            string `yaml:"title"`
	Description      string `yaml:"description"`
	ProblemStatement string `yaml:"problem_statement"`
	Repo             string `yaml:"repo"`
	BaseCommit       string `yaml:"base_commit"`
}

type document struct {
	Items []record `yaml:"items"`
}

// FileSource reads items from a corpus file
type FileSource struct {
	path                string
	maxDescriptionChars int
}

// NewFileSource creates a source for path. maxDescriptionChars <= 0 keeps
// descriptions whole.
func NewFileSource(path string, maxDescriptionChars int) *FileSource {
	return &FileSource{path: path, maxDescriptionChars: maxDescriptionChars}
}

// Load returns the first n items of the file. n <= 0 returns all of them.
func (s *FileSource) Load(ctx context.Context, n int) ([]domain.Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var records []record
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".jsonl", ".ndjson":
		records, err = decodeLines(ctx, data, n)
	default:
		records, err = decodeDocument(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse corpus file %s: %w", s.path, err)
	}

	if n > 0 && len(records) > n {
		records = records[:n]
	}
	items := make([]domain.Item, 0, len(records))
	for i, r := range records {
		items = append(items, r.toItem(i, s.maxDescriptionChars))
	}
	return items, nil
}

// decodeDocument parses YAML, which also covers JSON, holding either a
// top-level list or a mapping with an items list.
func decodeDocument(data []byte) ([]record, error) {
	var records []record
	if err := yaml.Unmarshal(data, &records); err == nil {
		return records, nil
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func decodeLines(ctx context.Context, data []byte, n int) ([]record, error) {
	var records []record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var r record
		if err := yaml.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, r)
		if n > 0 && len(records) == n {
			break
		}
	}
	return records, scanner.Err()
}

func (r record) toItem(index, maxDescriptionChars int) domain.Item {
	id := firstNonEmpty(r.ID, r.InstanceID, fmt.Sprintf("issue_%d", index+1))
	description := firstNonEmpty(r.Description, r.ProblemStatement)

	title := r.Title
	if title == "" {
		title = deriveTitle(r.ProblemStatement, index)
	}

	return domain.Item{
		ID:          id,
		Title:       title,
		Description: domain.TruncateDescription(description, maxDescriptionChars),
		Repo:        r.Repo,
		BaseCommit:  r.BaseCommit,
	}
}

// deriveTitle uses the opening of a problem statement as the issue title
func deriveTitle(statement string, index int) string {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return fmt.Sprintf("SWE-bench issue %d", index+1)
	}
	runes := []rune(statement)
	if len(runes) > maxTitleChars {
		return string(runes[:maxTitleChars]) + "..."
	}
	return statement
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// SampleSource generates placeholder issues for smoke runs
type SampleSource struct{}

// Load returns n synthetic items numbered from 1
func (SampleSource) Load(_ context.Context, n int) ([]domain.Item, error) {
	items := make([]domain.Item, 0, max(n, 0))
	for i := 1; i <= n; i++ {
		items = append(items, domain.Item{
			ID:          fmt.Sprintf("issue_%d", i),
			Title:       fmt.Sprintf("Fix bug in function %d", i),
			Description: fmt.Sprintf("This is a sample issue description for issue %d. It describes a bug that needs fixing.", i),
			Repo:        fmt.Sprintf("sample-repo-%d", i),
			BaseCommit:  fmt.Sprintf("commit_hash_%d", i),
		})
	}
	return items, nil
}

// Source is the loading contract shared by the corpus implementations
type Source interface {
	Load(ctx context.Context, n int) ([]domain.Item, error)
}

// FallbackSource loads from primary and switches to fallback when primary
// fails or yields nothing
type FallbackSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// WithFallback wraps primary
func WithFallback(primary, fallback Source, logger *zap.Logger) *FallbackSource {
	return &FallbackSource{primary: primary, fallback: fallback, logger: logger}
}

// Load implements Source
func (s *FallbackSource) Load(ctx context.Context, n int) ([]domain.Item, error) {
	items, err := s.primary.Load(ctx, n)
	if err == nil && len(items) > 0 {
		return items, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		s.logger.Warn("corpus unavailable, using sample issues", zap.Error(err))
	} else {
		s.logger.Warn("corpus is empty, using sample issues")
	}
	return s.fallback.Load(ctx, n)
}
