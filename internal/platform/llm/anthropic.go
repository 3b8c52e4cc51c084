package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const DefaultAnthropicModel = "claude-sonnet-4-20250514"

type AnthropicConfig struct {
	APIKey string
	// BaseURL is the API root, e.g. "https://api.anthropic.com/". Empty keeps the SDK default.
	BaseURL string
	Model   string
	// HTTPClient overrides the default client; deadlines come from ctx.
	HTTPClient *http.Client
}

type anthropicClient struct {
	log    *logger.Logger
	client anthropic.Client
	model  string
}

func NewAnthropic(cfg AnthropicConfig, log *logger.Logger) (Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	// Retries belong to the bounded decorator so every provider shares one policy.
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &anthropicClient{
		log:    log.With("service", "AnthropicClient"),
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *anthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	start := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: ProviderAnthropic, StatusCode: apiErr.StatusCode, Body: truncate(apiErr.Error(), 512)}
		}
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	c.log.Debug("anthropic completion", "model", model, "max_tokens", req.MaxTokens, "duration", time.Since(start))
	return out.String(), nil
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports rate limiting and upstream overload.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
