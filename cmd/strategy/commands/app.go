package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/brain"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/external/mops"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/external/telegram"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/external/twse"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/report"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data/collector"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data/quality"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s1_universe"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/selection"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/config"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/database"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/httputil"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/metrics"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/redis"
)

// app holds every wired dependency of one CLI invocation
// ⭐ SSOT: 依賴組裝只在這裡
type app struct {
	cfg          *config.Config
	strategy     strategyconfig.Config
	strategyHash string
	log          *logger.Logger
	loc          *time.Location

	db       *database.DB
	redis    *redis.Client
	cache    *redis.Cache
	recorder *metrics.Recorder

	stocks    *s0_data.StockRepository
	loader    *s0_data.PanelLoader
	gate      *quality.Gate
	formatter *report.Formatter
	notifier  *telegram.Client // nil when Telegram is not configured

	collector    *collector.Collector
	orchestrator *brain.Orchestrator
}

// loadSettings reads env config, the strategy YAML and builds the logger
func loadSettings() (*config.Config, strategyconfig.Config, *logger.Logger, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, strategyconfig.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyFile != "" {
		cfg.Strategy.ConfigPath = strategyFile
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Load strategy parameters
	strategy, _, err := strategyconfig.Load(cfg.Strategy.ConfigPath)
	if err != nil {
		return nil, strategyconfig.Config{}, nil, fmt.Errorf("load strategy %s: %w", cfg.Strategy.ConfigPath, err)
	}

	return cfg, strategy, log, nil
}

// newApp wires storage, clients and the pipeline
func newApp(ctx context.Context) (*app, error) {
	cfg, strategy, log, err := loadSettings()
	if err != nil {
		return nil, err
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}

	a := &app{
		cfg:          cfg,
		strategy:     strategy,
		strategyHash: hash,
		log:          log,
		loc:          cfg.Location(),
	}

	log.WithFields(map[string]interface{}{
		"strategy_id": strategy.Meta.StrategyID,
		"version":     strategy.Meta.Version,
		"hash":        hash[:12],
		"mode":        cfg.Execution.Mode,
	}).Info("Strategy loaded")

	// 4. Connect to database
	a.db, err = database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if migrationDir != "" {
		files, err := a.db.Migrate(ctx, migrationDir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Debugf("Applied %d migration files", len(files))
	}

	// 5. Redis (optional)
	a.redis, err = redis.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.redis = redis.Disabled()
	}
	a.cache = redis.NewCache(a.redis, "second_high")
	limiter := redis.NewRateLimiter(a.redis, "second_high")

	// 6. Metrics
	a.recorder = metrics.New(prometheus.NewRegistry())

	// 7. Repositories
	a.stocks = s0_data.NewStockRepository(a.db.Pool)
	prices := s0_data.NewPriceRepository(a.db.Pool)
	revenues := s0_data.NewRevenueRepository(a.db.Pool)

	// 8. External clients, one rate-limited HTTP client per host
	twseClient := twse.NewClient(
		httputil.New(log).WithRateLimiter(limiter, redis.TWSERateLimit),
		cfg.TWSE.BaseURL, cfg.TWSE.TPExBaseURL, log)
	mopsClient := mops.NewClient(
		httputil.New(log).WithRateLimiter(limiter, redis.MOPSRateLimit),
		cfg.MOPS.BaseURL, log)

	if cfg.Telegram.Enabled() {
		a.notifier = telegram.NewClient(
			httputil.New(log).WithRateLimiter(limiter, redis.TelegramRateLimit),
			telegram.Config{
				BaseURL:   cfg.Telegram.BaseURL,
				BotToken:  cfg.Telegram.BotToken,
				ChatID:    cfg.Telegram.ChatID,
				ParseMode: "Markdown",
				MaxChars:  strategy.Report.MaxMessageChars,
				Pause:     strategy.Report.FragmentPause,
			}, a.recorder, log)
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID not set, reports will not be delivered")
	}

	// 9. Collector
	a.collector = collector.NewCollector(twseClient, mopsClient,
		collector.Repositories{Stocks: a.stocks, Prices: prices, Revenues: revenues},
		cfg.MOPS.Markets, a.recorder, log)

	// 10. Pipeline
	a.loader = s0_data.NewPanelLoader(prices, revenues, a.cache, log)
	a.gate = quality.NewGate(quality.DefaultConfig(), log)
	a.formatter = report.NewFormatter(strategy, a.loc)

	deps := brain.Deps{
		Source:    a.loader,
		Gate:      a.gate,
		Filter:    s1_universe.NewFilter(strategy.Filter, log),
		Screener:  selection.NewScreener(strategy, a.recorder, log),
		Formatter: a.formatter,
		Stocks:    a.stocks,
		Recorder:  a.recorder,

		MessagePause: strategy.Report.MessagePause,
	}
	if a.notifier != nil {
		deps.Notifier = a.notifier
	}
	a.orchestrator = brain.NewOrchestrator(deps, brain.Execution{
		Mode:   cfg.Execution.Mode,
		RunURL: cfg.Execution.RunURL(),
	}, log)

	return a, nil
}

// Close releases the database pool and the Redis connection
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
