package labels

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  issue_1: 1\n  issue_2: 0\n  issue_3: -1\n"), 0o600))

	l, err := LoadFile(path)
	require.NoError(t, err)

	v, ok, err := l.Label(context.Background(), "issue_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok, _ = l.Label(context.Background(), "issue_2")
	assert.True(t, ok)
	assert.Equal(t, 0, v)

	_, ok, _ = l.Label(context.Background(), "issue_3")
	assert.False(t, ok, "unlabeled entries are skipped")

	_, ok, _ = l.Label(context.Background(), "issue_4")
	assert.False(t, ok)
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"labels": {"a": 1}}`), 0o600))

	l, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1}, l.Labels())
}

func TestLoadFile_RejectsInvalidLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.yaml")
	require.NoError(t, os.WriteFile(path, []byte("labels:\n  issue_1: 7\n"), 0o600))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalidLabel)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.yaml")
	require.NoError(t, WriteTemplate(path, []string{"x", "y"}))

	l, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, l.Labels(), "template entries start unlabeled")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "x: -1")
}

func redisTestClient(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("REDIS_TEST_HOST")
	if host == "" {
		t.Skip("REDIS_TEST_HOST not set, skipping redis integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":6379", DB: 15})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLabeler(t *testing.T) {
	client := redisTestClient(t)
	ctx := context.Background()
	prefix := "sycobench:test:label:"
	l := NewRedisLabeler(client, prefix)

	n, err := l.Import(ctx, map[string]int{"a": 1, "b": 0})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	t.Cleanup(func() { client.Del(ctx, prefix+"a", prefix+"b", prefix+"bad") })

	v, ok, err := l.Label(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok, err = l.Label(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.Set(ctx, prefix+"bad", "yes", 0).Err())
	_, _, err = l.Label(ctx, "bad")
	assert.Error(t, err)
}
