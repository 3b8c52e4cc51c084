package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/souling-backend/internal/observability"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

const (
	DefaultTimeout        = 120 * time.Second
	DefaultMaxConcurrency = 8
	DefaultRetryBackoff   = time.Second
	maxRetryBackoff       = 10 * time.Second
)

type BoundedConfig struct {
	Provider       string
	Timeout        time.Duration
	MaxConcurrency int
	// MaxRetries is opt-in; zero means a single attempt.
	MaxRetries   int
	RetryBackoff time.Duration
}

type bounded struct {
	next    Generator
	cfg     BoundedConfig
	sem     *semaphore.Weighted
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewBounded caps concurrency, applies the per-call deadline, optionally
// retries transient failures, and traces each call.
func NewBounded(next Generator, cfg BoundedConfig, log *logger.Logger) Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}
	return &bounded{
		next:    next,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		log:     log.With("service", "BoundedGenerator", "provider", cfg.Provider),
		metrics: observability.Current(),
	}
}

func (b *bounded) Generate(ctx context.Context, req Request) (string, error) {
	ctx, span := otel.Tracer("souling/llm").Start(ctx, "llm.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", b.cfg.Provider),
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.max_tokens", req.MaxTokens),
	)

	// The deadline covers queueing for a slot as well as the call itself.
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	if err := b.sem.Acquire(ctx, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "waiting for generation slot")
		return "", fmt.Errorf("waiting for generation slot: %w", err)
	}
	defer b.sem.Release(1)
	b.metrics.LLMInflightInc()
	defer b.metrics.LLMInflightDec()

	backoff := b.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			b.log.Warn("generation retrying", "attempt", attempt, "backoff", backoff, "error", lastErr)
			select {
			case <-ctx.Done():
				lastErr = errors.Join(lastErr, ctx.Err())
				span.RecordError(lastErr)
				span.SetStatus(codes.Error, "deadline exceeded during retry backoff")
				return "", lastErr
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxRetryBackoff)
		}

		start := time.Now()
		text, err := b.next.Generate(ctx, req)
		status := "ok"
		if err != nil {
			status = "error"
		}
		b.metrics.ObserveLLMRequest(b.cfg.Provider, req.Model, status, time.Since(start))
		if err == nil {
			span.SetAttributes(attribute.Int("llm.attempts", attempt+1), attribute.Int("llm.response_chars", len(text)))
			return text, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "generation failed")
	return "", lastErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyCompletion) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
