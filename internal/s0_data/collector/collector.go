package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/external/mops"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/metrics"
)

// PriceFetcher returns one month of daily prices for one stock
type PriceFetcher interface {
	FetchMonth(ctx context.Context, stock contracts.Stock, month time.Time) ([]contracts.DailyPrice, error)
}

// RevenueFetcher returns the monthly revenue summary of one market segment
type RevenueFetcher interface {
	FetchMonthlyRevenue(ctx context.Context, segment string, month time.Time) ([]mops.RevenueReport, error)
}

// Collector orchestrates data collection from external sources
// ⭐ SSOT: 資料收集流程只在這個 package
type Collector struct {
	prices   PriceFetcher
	revenues RevenueFetcher

	stockRepo   contracts.StockRepository
	priceRepo   contracts.PriceRepository
	revenueRepo contracts.RevenueRepository

	segments []string
	recorder *metrics.Recorder
	logger   *logger.Logger
}

// Repositories bundles the storage targets of a collection run
type Repositories struct {
	Stocks   contracts.StockRepository
	Prices   contracts.PriceRepository
	Revenues contracts.RevenueRepository
}

// Config holds collector configuration
type Config struct {
	Workers int // Number of concurrent workers
}

// NewCollector creates a new Collector instance.
// segments are MOPS market segments (sii, otc).
func NewCollector(
	prices PriceFetcher,
	revenues RevenueFetcher,
	repos Repositories,
	segments []string,
	recorder *metrics.Recorder,
	log *logger.Logger,
) *Collector {
	return &Collector{
		prices:      prices,
		revenues:    revenues,
		stockRepo:   repos.Stocks,
		priceRepo:   repos.Prices,
		revenueRepo: repos.Revenues,
		segments:    segments,
		recorder:    recorder,
		logger:      log.WithField("module", "collector"),
	}
}

// FetchResult represents the result of one stock's price collection
type FetchResult struct {
	StockCode  string
	PriceCount int
	Error      error
}

// Months returns the n calendar months ending at asOf's month, oldest first
func Months(asOf time.Time, n int) []time.Time {
	if n < 1 {
		n = 1
	}
	last := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]time.Time, n)
	for i := 0; i < n; i++ {
		months[i] = last.AddDate(0, i-n+1, 0)
	}
	return months
}

// CollectPrices fetches the given months of prices for all active stocks.
// A stock that fails is reported in its FetchResult and does not stop the others.
func (c *Collector) CollectPrices(ctx context.Context, months []time.Time, cfg Config) ([]FetchResult, error) {
	// 1. Get active stocks
	stocks, err := c.stockRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active stocks: %w", err)
	}
	if len(stocks) == 0 {
		return nil, fmt.Errorf("no active stocks, collect revenue first: %w", contracts.ErrInputUnavailable)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_count": len(stocks),
		"months":      len(months),
		"workers":     workers,
	}).Info("Starting price collection")

	// 2. Create worker pool
	resultCh := make(chan FetchResult, len(stocks))
	stockCh := make(chan contracts.Stock)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for stock := range stockCh {
				resultCh <- c.collectStock(ctx, workerID, stock, months)
			}
		}(i)
	}

dispatch:
	for _, stock := range stocks {
		select {
		case <-ctx.Done():
			break dispatch
		case stockCh <- stock:
		}
	}
	close(stockCh)

	wg.Wait()
	close(resultCh)

	// 3. Collect results
	results := make([]FetchResult, 0, len(stocks))
	successCount, failCount, rows := 0, 0, 0
	for result := range resultCh {
		results = append(results, result)
		rows += result.PriceCount
		if result.Error != nil {
			failCount++
		} else {
			successCount++
		}
	}
	c.recorder.RecordCollected("prices", rows)

	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  failCount,
		"rows":    rows,
	}).Info("Price collection completed")

	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("price collection cancelled: %w", err)
	}
	return results, nil
}

// collectStock fetches and stores every month of one stock
func (c *Collector) collectStock(ctx context.Context, workerID int, stock contracts.Stock, months []time.Time) FetchResult {
	result := FetchResult{StockCode: stock.Code}

	var prices []contracts.DailyPrice
	for _, month := range months {
		if err := ctx.Err(); err != nil {
			result.Error = err
			return result
		}
		rows, err := c.prices.FetchMonth(ctx, stock, month)
		if err != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"worker":     workerID,
				"stock_code": stock.Code,
				"month":      month.Format("2006-01"),
			}).Error("Failed to fetch prices")
			result.Error = err
			return result
		}
		prices = append(prices, rows...)
	}

	if len(prices) == 0 {
		return result
	}

	saved, err := c.priceRepo.SaveBatch(ctx, prices)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"worker":     workerID,
			"stock_code": stock.Code,
		}).Error("Failed to save prices")
		result.Error = err
		return result
	}
	result.PriceCount = saved

	c.logger.WithFields(map[string]interface{}{
		"worker":     workerID,
		"stock_code": stock.Code,
		"count":      saved,
	}).Debug("Fetched prices")

	return result
}

// CollectRevenue fetches one month of revenue for every segment, refreshing
// the stock master from the same pages. Returns the saved revenue rows.
// ⭐ SSOT: 股票清單由 MOPS 月營收彙總表維護
func (c *Collector) CollectRevenue(ctx context.Context, month time.Time) (int, error) {
	month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		stocks   []contracts.Stock
		revenues []contracts.MonthlyRevenue
		errs     []error
	)
	for _, segment := range c.segments {
		reports, err := c.revenues.FetchMonthlyRevenue(ctx, segment, month)
		if err != nil {
			c.logger.WithError(err).WithField("segment", segment).Error("Failed to fetch revenue")
			errs = append(errs, err)
			continue
		}
		for _, r := range reports {
			stock := r.Stock
			stock.Active = true
			stocks = append(stocks, stock)
			revenues = append(revenues, r.Revenue)
		}
	}

	if len(errs) == len(c.segments) && len(errs) > 0 {
		return 0, fmt.Errorf("revenue collection %s: %w", month.Format("2006-01"), errors.Join(errs...))
	}

	if _, err := c.stockRepo.UpsertBatch(ctx, stocks); err != nil {
		return 0, fmt.Errorf("upsert stocks: %w", err)
	}
	saved, err := c.revenueRepo.SaveBatch(ctx, revenues)
	if err != nil {
		return 0, fmt.Errorf("save revenue: %w", err)
	}
	c.recorder.RecordCollected("revenue", saved)

	c.logger.WithFields(map[string]interface{}{
		"month":  month.Format("2006-01"),
		"stocks": len(stocks),
		"rows":   saved,
		"failed": len(errs),
	}).Info("Revenue collection completed")

	return saved, nil
}

// CollectAll refreshes revenue (and the stock master) for the latest
// published month, then prices for the month of asOf
func (c *Collector) CollectAll(ctx context.Context, asOf time.Time, cfg Config) error {
	month := s0_data.LatestPublishedMonth(asOf)
	if _, err := c.CollectRevenue(ctx, month); err != nil {
		// prices can still be refreshed for the existing stock master
		c.logger.WithError(err).Warnf("Revenue collection for %s failed", month.Format("2006-01"))
	}

	results, err := c.CollectPrices(ctx, Months(asOf, 1), cfg)
	if err != nil {
		return fmt.Errorf("collect prices: %w", err)
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	if len(results) > 0 && failed == len(results) {
		return fmt.Errorf("collect prices: all %d stocks failed", failed)
	}
	return nil
}
