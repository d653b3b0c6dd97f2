package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"stock-signal-advisor/internal/agent"
	"stock-signal-advisor/internal/analysis"
	"stock-signal-advisor/internal/cache"
	"stock-signal-advisor/internal/httpapi"
	"stock-signal-advisor/internal/limiter"
	"stock-signal-advisor/internal/llm"
	"stock-signal-advisor/internal/logger"
	"stock-signal-advisor/internal/marketdata"
	"stock-signal-advisor/internal/news"
	"stock-signal-advisor/internal/sentiment"
	"stock-signal-advisor/internal/store"
)

const clientWindow = time.Minute

// initializeSystem loads environment variables and initializes the logger.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// initializeProvider builds the LLM provider and logs which one is active.
func initializeProvider(ctx context.Context, cfg *store.Config) llm.Provider {
	provider := llm.New(cfg)
	if provider.Name() == "none" {
		logger.Warn(ctx, "No LLM provider configured - signal generation will use the fallback")
	} else {
		logger.Info(ctx, "LLM provider configured", "provider", provider.Name(), "model", provider.Model())
	}
	return provider
}

// buildServer wires the whole pipeline: market data, news, sentiment, agent,
// orchestrator, cache and rate limiter behind the HTTP handlers.
func buildServer(ctx context.Context, cfg *store.Config) (*httpapi.Server, *cache.ResultCache) {
	provider := initializeProvider(ctx, cfg)

	market := marketdata.New(cfg)
	newsFeed := news.NewService(cfg)
	resultCache := cache.New(cfg.CacheTTL(), cfg.Cache.MaxEntries)
	clientLimiter := limiter.New(cfg.RateLimit.UncachedPerMinute, clientWindow)

	orchestrator := analysis.NewOrchestrator(
		cfg,
		market,
		newsFeed,
		sentiment.NewAnalyzer(provider),
		agent.NewGenerator(provider),
		resultCache,
		provider,
	)

	handlers := httpapi.NewHandlers(orchestrator, resultCache, clientLimiter, market, newsFeed, provider, cfg)
	return httpapi.NewServer(cfg, handlers), resultCache
}
