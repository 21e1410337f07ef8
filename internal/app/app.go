// Package app wires configuration into the analyzer, its optional backends,
// the dashboard and the watchlist scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"patternscope/config"
	"patternscope/internal/analyzer"
	"patternscope/internal/dashboard"
	"patternscope/internal/explain"
	"patternscope/internal/market"
	"patternscope/internal/memorystore"
	"patternscope/internal/pattern"
	"patternscope/internal/scheduler"
	"patternscope/pkg/polygon"
	"patternscope/pkg/storage/cache"
	"patternscope/pkg/storage/postgres"

	"go.uber.org/zap"
)

var ErrMissingAPIKey = errors.New("polygon api key is not set (POLYGON_API_KEY)")

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Analyzer *analyzer.Analyzer
	Reports  *memorystore.MemoryReportStore
	Symbols  *memorystore.MemorySymbolStore

	// nil when disabled in config
	Postgres *postgres.PostgresClient
	Cache    *cache.BarCache

	closers []func() error
}

// New builds the pipeline from cfg. Redis and Postgres are connected only
// when enabled; a missing LLM key leaves the analyzer without an explainer.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.Polygon.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	params, err := pattern.ParamsFromConfig(cfg.Pattern)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Reports: memorystore.NewReportStore(memorystore.DefaultHistory),
		Symbols: memorystore.NewSymbolStore(),
	}
	for _, s := range cfg.Watchlist.Symbols {
		for _, sym := range market.NormalizeSymbols(s) {
			a.Symbols.Add(sym)
		}
	}

	var opts []analyzer.Option

	exp, err := explain.New(cfg.LLM)
	switch {
	case errors.Is(err, explain.ErrNotConfigured):
		logger.Warn("llm api key not set, interpretations disabled")
	case err != nil:
		return nil, fmt.Errorf("failed to create explainer: %w", err)
	default:
		logger.Info("llm explainer ready", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))
		opts = append(opts, analyzer.WithExplainer(exp))
	}

	if cfg.Redis.Enabled {
		c, err := cache.NewBarCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err != nil {
			return nil, err
		}
		a.Cache = c
		a.closers = append(a.closers, c.Close)
		opts = append(opts, analyzer.WithCache(c))
		logger.Info("redis bar cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
	}

	if cfg.Postgres.Enabled {
		pg, err := postgres.InitializeAndMigrate(cfg.Postgres, true)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		a.Postgres = pg
		a.closers = append(a.closers, pg.Close)
		opts = append(opts, analyzer.WithStore(pg))
		logger.Info("pattern history enabled", zap.String("db", cfg.Postgres.DBName))
	}

	source := polygon.NewRESTClient(cfg.Polygon.APIKey, cfg.Polygon.Timeout)
	a.Analyzer = analyzer.New(source, pattern.NewDetector(params), logger, opts...)
	return a, nil
}

// Handler returns the dashboard routes backed by this app.
func (a *App) Handler() http.Handler {
	opts := dashboard.Options{
		Reports:     a.Reports,
		Symbols:     a.Symbols,
		DefaultDays: a.Config.App.DefaultDays,
		Checks:      map[string]dashboard.HealthCheck{},

		SymbolBudget:   a.SymbolBudget(),
		AllowedOrigins: a.Config.App.AllowedOrigins,
	}
	if a.Postgres != nil {
		opts.History = a.Postgres
		opts.Checks["postgres"] = func(ctx context.Context) error {
			if !a.Postgres.IsHealthy(ctx) {
				return errors.New("postgres ping failed")
			}
			return nil
		}
	}
	if a.Cache != nil {
		opts.Checks["redis"] = a.Cache.Ping
	}
	return dashboard.NewHandler(a.Analyzer, opts, a.Logger).Routes()
}

// SymbolBudget is the longest one symbol's analysis may take: the Polygon
// and LLM timeouts plus slack for detection and persistence.
func (a *App) SymbolBudget() time.Duration {
	return a.Config.Polygon.Timeout + a.Config.LLM.Timeout + 10*time.Second
}

// Scheduler returns the daily watchlist scanner over a.Symbols.
func (a *App) Scheduler() *scheduler.DailyScanner {
	loader := &scheduler.WatchlistLoader{Symbols: a.Symbols, Logger: a.Logger}
	return &scheduler.DailyScanner{
		Load:    scheduler.DefaultLoadFn(loader),
		Scanner: a.Analyzer,
		Reports: a.Reports,
		Days:    a.Config.Watchlist.Days,
		Explain: a.Config.Watchlist.Explain,
		Logger:  a.Logger,
	}
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
