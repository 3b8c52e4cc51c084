package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/souling-backend/internal/data/kv"
	server "github.com/yungbote/souling-backend/internal/http"
	"github.com/yungbote/souling-backend/internal/observability"
	"github.com/yungbote/souling-backend/internal/platform/llm"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Engine   kv.Engine
	Repos    Repos
	Services Services
	Server   *server.Server
	Metrics  *observability.Metrics

	shutdownOtel func(context.Context) error
}

func New(ctx context.Context, cfg Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Version:     cfg.Otel.Version,
		SampleRatio: cfg.Otel.SampleRatio,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     cfg.Otel.Headers,
		Insecure:    cfg.Otel.Insecure,
	})
	metrics := observability.Init(log, cfg.Metrics.Enabled)

	engine, err := resolveEngine(ctx, log, cfg.Storage)
	if err != nil {
		_ = shutdownOtel(ctx)
		log.Sync()
		return nil, err
	}

	gen, err := llm.New(ctx, llm.Config{
		Provider:         cfg.Generation.Provider,
		Model:            cfg.Generation.Model,
		AnthropicAPIKey:  cfg.Generation.AnthropicAPIKey,
		AnthropicBaseURL: cfg.Generation.AnthropicBaseURL,
		OpenAIAPIKey:     cfg.Generation.OpenAIAPIKey,
		OpenAIBaseURL:    cfg.Generation.OpenAIBaseURL,
		GeminiAPIKey:     cfg.Generation.GeminiAPIKey,
		GeminiProject:    cfg.Generation.GeminiProject,
		GeminiLocation:   cfg.Generation.GeminiLocation,
		Timeout:          cfg.Generation.Timeout,
		MaxConcurrency:   cfg.Generation.MaxConcurrency,
		MaxRetries:       cfg.Generation.MaxRetries,
		RetryBackoff:     cfg.Generation.RetryBackoff,
	}, log)
	if err != nil {
		_ = engine.Close()
		_ = shutdownOtel(ctx)
		log.Sync()
		return nil, fmt.Errorf("init generator: %w", err)
	}

	reposet := wireRepos(engine, log)
	serviceset := wireServices(log, cfg, reposet, gen)
	srv := server.NewServer(wireRouterConfig(log, cfg, metrics, engine, serviceset))

	return &App{
		Log:          log,
		Cfg:          cfg,
		Engine:       engine,
		Repos:        reposet,
		Services:     serviceset,
		Server:       srv,
		Metrics:      metrics,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(gctx, ":"+a.Cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.Log.Info("shutdown requested")
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Engine != nil {
		if err := a.Engine.Close(); err != nil {
			a.Log.Warn("record store close failed", "error", err)
		}
	}
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
