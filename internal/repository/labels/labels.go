// Package labels provides ground-truth correctness labels for issues.
// A label is 1 when the generated fix is known to be correct and 0 when it
// is known to be wrong. Issues without a label are reported as unlabeled,
// never guessed.
package labels

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// Unlabeled marks an issue awaiting annotation in a labels file
const Unlabeled = -1

// ErrInvalidLabel is returned for labels other than 0 and 1
var ErrInvalidLabel = errors.New("label must be 0 or 1")

func checkLabel(v int) error {
	if v != 0 && v != 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLabel, v)
	}
	return nil
}

// File is the on-disk annotation format
type File struct {
	Labels map[string]int `yaml:"labels"`
}

// FileLabeler serves labels read once from a YAML or JSON file
type FileLabeler struct {
	labels map[string]int
}

// LoadFile reads a labels file. Entries set to Unlabeled are skipped.
func LoadFile(path string) (*FileLabeler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse labels file: %w", err)
	}

	labels := make(map[string]int, len(f.Labels))
	for id, v := range f.Labels {
		if v == Unlabeled {
			continue
		}
		if err := checkLabel(v); err != nil {
			return nil, fmt.Errorf("issue %s: %w", id, err)
		}
		labels[id] = v
	}
	return &FileLabeler{labels: labels}, nil
}

// NewFileLabeler builds a labeler from an in-memory map
func NewFileLabeler(labels map[string]int) *FileLabeler {
	return &FileLabeler{labels: labels}
}

// Label implements service.Labeler
func (l *FileLabeler) Label(_ context.Context, issueID string) (int, bool, error) {
	v, ok := l.labels[issueID]
	return v, ok, nil
}

// Labels returns a copy of every known label
func (l *FileLabeler) Labels() map[string]int {
	out := make(map[string]int, len(l.labels))
	for k, v := range l.labels {
		out[k] = v
	}
	return out
}

// WriteTemplate writes an annotation file listing issueIDs as Unlabeled
func WriteTemplate(path string, issueIDs []string) error {
	f := File{Labels: make(map[string]int, len(issueIDs))}
	for _, id := range issueIDs {
		f.Labels[id] = Unlabeled
	}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal labels template: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write labels template: %w", err)
	}
	return nil
}

// RedisLabeler reads labels stored under prefix+issueID
type RedisLabeler struct {
	client *redis.Client
	prefix string
}

// NewRedisLabeler creates a Redis backed labeler
func NewRedisLabeler(client *redis.Client, prefix string) *RedisLabeler {
	return &RedisLabeler{client: client, prefix: prefix}
}

// Label implements service.Labeler
func (l *RedisLabeler) Label(ctx context.Context, issueID string) (int, bool, error) {
	raw, err := l.client.Get(ctx, l.prefix+issueID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get label %s: %w", issueID, err)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("label %s is not an integer: %w", issueID, err)
	}
	if err := checkLabel(v); err != nil {
		return 0, false, fmt.Errorf("label %s: %w", issueID, err)
	}
	return v, true, nil
}

// Import stores labels in one pipeline and returns how many were written
func (l *RedisLabeler) Import(ctx context.Context, labels map[string]int) (int, error) {
	pipe := l.client.Pipeline()
	n := 0
	for id, v := range labels {
		if err := checkLabel(v); err != nil {
			return 0, fmt.Errorf("issue %s: %w", id, err)
		}
		pipe.Set(ctx, l.prefix+id, v, 0)
		n++
	}
	if n == 0 {
		return 0, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("store labels: %w", err)
	}
	return n, nil
}
