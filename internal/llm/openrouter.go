package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
)

const (
	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
	maxResponseBytes     = 10 * 1024 * 1024
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenRouterClient calls the OpenRouter chat completions endpoint
type OpenRouterClient struct {
	cfg        Config
	httpClient *http.Client
	backoff    time.Duration
	logger     *zap.Logger
}

// NewOpenRouterClient creates a client; cfg.Timeout bounds each Invoke call
func NewOpenRouterClient(cfg Config, logger *zap.Logger) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenRouterURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &OpenRouterClient{
		cfg:        cfg,
		httpClient: &http.Client{},
		backoff:    time.Second,
		logger:     logger.With(zap.String("provider", "openrouter"), zap.String("model", cfg.Model)),
	}
}

// Invoke sends prompt as a single user message.
// 429 and 5xx responses are retried with exponential backoff up to MaxRetries times.
func (c *OpenRouterClient) Invoke(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", apperrors.ModelUnavailable("openrouter API key not configured")
	}

	ctx, cancel := withCallTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", apperrors.Internal("failed to marshal request").WithError(err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<uint(attempt-1))
			c.logger.Debug("retrying model call", zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return "", apperrors.ModelUnavailable("model call cancelled").WithError(ctx.Err())
			case <-time.After(wait):
			}
		}

		body, status, err := c.post(ctx, payload)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("status %d: %s", status, truncate(body, 200))
			continue
		}
		if status != http.StatusOK {
			return "", apperrors.ModelUnavailable(fmt.Sprintf("openrouter returned status %d", status)).
				WithDetail("body", truncate(body, 500))
		}
		return decodeChat(body)
	}

	return "", apperrors.ModelUnavailable("openrouter request failed").WithError(lastErr)
}

func (c *OpenRouterClient) post(ctx context.Context, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.AppTitle != "" {
		req.Header.Set("X-Title", c.cfg.AppTitle)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func decodeChat(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperrors.MalformedResponse("response is not valid JSON").WithError(err)
	}
	if resp.Error != nil {
		return "", apperrors.ModelUnavailable("openrouter error: " + resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.MalformedResponse("response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
