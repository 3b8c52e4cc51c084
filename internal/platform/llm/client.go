package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"
)

var ErrEmptyCompletion = errors.New("llm: empty completion")

// Request is a single user-role message with an output budget.
type Request struct {
	Model     string
	MaxTokens int
	Prompt    string
}

// Generator is the text-generation capability. Implementations return the
// raw completion text; callers persist it verbatim.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Config struct {
	Provider string
	Model    string

	AnthropicAPIKey  string
	AnthropicBaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	GeminiAPIKey   string
	GeminiProject  string
	GeminiLocation string
	GeminiBaseURL  string

	Timeout        time.Duration
	MaxConcurrency int
	MaxRetries     int
	RetryBackoff   time.Duration
}

// New builds the configured provider and wraps it in the bounded decorator.
func New(ctx context.Context, cfg Config, log *logger.Logger) (Generator, error) {
	var (
		base Generator
		err  error
	)
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch provider {
	case "", ProviderAnthropic:
		provider = ProviderAnthropic
		base, err = NewAnthropic(AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			BaseURL: cfg.AnthropicBaseURL,
			Model:   cfg.Model,
		}, log)
	case ProviderGemini:
		base, err = NewGemini(ctx, GeminiConfig{
			APIKey:   cfg.GeminiAPIKey,
			Project:  cfg.GeminiProject,
			Location: cfg.GeminiLocation,
			BaseURL:  cfg.GeminiBaseURL,
			Model:    cfg.Model,
		}, log)
	case ProviderOpenAI:
		base, err = NewOpenAI(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.Model,
		}, log)
	case ProviderMock:
		base = NewMock()
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewBounded(base, BoundedConfig{
		Provider:       provider,
		Timeout:        cfg.Timeout,
		MaxConcurrency: cfg.MaxConcurrency,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}, log), nil
}
