package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data/collector"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/redis"
)

// Collector refreshes revenue and prices
type Collector interface {
	CollectAll(ctx context.Context, asOf time.Time, cfg collector.Config) error
}

// CacheInvalidator drops cached entries
type CacheInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// DataCollectionJob collects market data after the close
// ⭐ SSOT: 資料收集排程只在這個 Job
type DataCollectionJob struct {
	collector Collector
	cache     CacheInvalidator // optional
	gate      *TradingDayGate
	schedule  string
	workers   int
	logger    *logger.Logger
}

// NewDataCollectionJob creates a new data collection job
func NewDataCollectionJob(col Collector, cache CacheInvalidator, gate *TradingDayGate, schedule string, workers int, log *logger.Logger) *DataCollectionJob {
	return &DataCollectionJob{
		collector: col,
		cache:     cache,
		gate:      gate,
		schedule:  schedule,
		workers:   workers,
		logger:    log,
	}
}

// Name returns the job name
func (j *DataCollectionJob) Name() string {
	return "market_data_collection"
}

// Schedule returns the cron schedule (18:00 Taipei, Mon-Fri by default)
func (j *DataCollectionJob) Schedule() string {
	return j.schedule
}

// Run collects today's data and drops today's cached panel snapshot
func (j *DataCollectionJob) Run(ctx context.Context) error {
	if err := j.gate.Check(); err != nil {
		return err
	}

	today := j.gate.Today()
	j.logger.WithField("as_of", today.Format(panel.DateLayout)).Info("Starting scheduled data collection")

	if err := j.collector.CollectAll(ctx, today, collector.Config{Workers: j.workers}); err != nil {
		return fmt.Errorf("collect market data: %w", err)
	}

	if j.cache != nil {
		key := redis.PanelSnapshotKey(today.Format(panel.DateLayout))
		if err := j.cache.Delete(ctx, key); err != nil {
			j.logger.WithError(err).Warn("Failed to drop panel snapshot")
		}
	}

	j.logger.Info("Scheduled data collection completed successfully")
	return nil
}
