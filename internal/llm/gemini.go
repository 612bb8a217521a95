package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini API through the genai SDK
type GeminiClient struct {
	cfg    Config
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini client
func NewGeminiClient(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" || strings.Contains(cfg.Model, "/") {
		// OpenRouter style ids are not Gemini model names
		cfg.Model = defaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" && !strings.Contains(cfg.BaseURL, "openrouter") {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		cfg:    cfg,
		client: client,
		logger: logger.With(zap.String("provider", "gemini"), zap.String("model", cfg.Model)),
	}, nil
}

// Invoke sends prompt as a single user turn
func (c *GeminiClient) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withCallTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.cfg.Temperature)),
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	})
	if err != nil {
		return "", apperrors.ModelUnavailable("gemini request failed").WithError(err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", apperrors.MalformedResponse("gemini response has no candidates")
	}

	text := resp.Text()
	if text == "" {
		c.logger.Debug("gemini returned empty text", zap.String("finish_reason", string(resp.Candidates[0].FinishReason)))
		return "", apperrors.MalformedResponse("gemini response has no text")
	}
	return text, nil
}
