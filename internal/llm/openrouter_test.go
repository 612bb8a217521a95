package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
)

func testConfig(url string) Config {
	return Config{
		Provider:    "openrouter",
		BaseURL:     url,
		APIKey:      "test-key",
		Model:       "google/gemma-2-9b-it:free",
		MaxTokens:   500,
		Temperature: 0.7,
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		Referer:     "http://localhost:3000",
		AppTitle:    "Self-Sycophancy-Experiment",
	}
}

func newTestClient(url string) *OpenRouterClient {
	c := NewOpenRouterClient(testConfig(url), zap.NewNop())
	c.backoff = time.Millisecond
	return c
}

func writeChoice(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestOpenRouterClient_Invoke(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "http://localhost:3000", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Self-Sycophancy-Experiment", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeChoice(w, "Rating: 8")
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Invoke(context.Background(), "rate this")

	require.NoError(t, err)
	assert.Equal(t, "Rating: 8", out)
	assert.Equal(t, "google/gemma-2-9b-it:free", got.Model)
	assert.Equal(t, 500, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "rate this", got.Messages[0].Content)
}

func TestOpenRouterClient_RetriesRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeChoice(w, "7")
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).Invoke(context.Background(), "p")

	require.NoError(t, err)
	assert.Equal(t, "7", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenRouterClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		assertCode func(error) bool
	}{
		{
			name: "empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices": []}`))
			},
			assertCode: apperrors.IsMalformedResponse,
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			assertCode: apperrors.IsMalformedResponse,
		},
		{
			name: "client error is not retried",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			assertCode: apperrors.IsModelUnavailable,
		},
		{
			name: "server errors exhaust retries",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			assertCode: apperrors.IsModelUnavailable,
		},
		{
			name: "api error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"error": {"message": "model not found"}}`))
			},
			assertCode: apperrors.IsModelUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient(server.URL).Invoke(context.Background(), "p")

			require.Error(t, err)
			assert.True(t, tt.assertCode(err), "unexpected error: %v", err)
		})
	}
}

func TestOpenRouterClient_MissingKey(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	cfg.APIKey = ""

	_, err := NewOpenRouterClient(cfg, zap.NewNop()).Invoke(context.Background(), "p")

	assert.True(t, apperrors.IsModelUnavailable(err))
}

func TestOpenRouterClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	cfg.MaxRetries = 0
	client := NewOpenRouterClient(cfg, zap.NewNop())

	_, err := client.Invoke(context.Background(), "p")

	assert.True(t, apperrors.IsModelUnavailable(err))
}
