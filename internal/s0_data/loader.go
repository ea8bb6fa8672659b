package s0_data

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/redis"
)

// Load windows
const (
	PriceWindowDays     = 400 // calendar days, > 250 sessions
	RevenueWindowMonths = 24
	RevenuePublishDay   = 10 // 月營收於次月 10 日前公告
)

// PanelLoader pivots stored rows into the panels of one run
// ⭐ SSOT: S0 panel 組裝只在這裡
type PanelLoader struct {
	prices   contracts.PriceRepository
	revenues contracts.RevenueRepository
	cache    *redis.Cache
	logger   *logger.Logger
}

// NewPanelLoader creates a loader. cache may be nil.
func NewPanelLoader(prices contracts.PriceRepository, revenues contracts.RevenueRepository, cache *redis.Cache, log *logger.Logger) *PanelLoader {
	return &PanelLoader{
		prices:   prices,
		revenues: revenues,
		cache:    cache,
		logger:   log.WithField("module", "panel_loader"),
	}
}

// Load returns the panels as of asOf (zero: the latest stored session).
// Snapshots are cached for a day when Redis is enabled.
func (l *PanelLoader) Load(ctx context.Context, asOf time.Time) (panel.Set, error) {
	if asOf.IsZero() {
		latest, err := l.prices.LatestDate(ctx)
		if err != nil {
			return panel.Set{}, fmt.Errorf("resolve as-of date: %w", err)
		}
		asOf = latest
	}
	asOf = time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)

	if l.cache == nil {
		return l.load(ctx, asOf)
	}

	var set panel.Set
	err := l.cache.GetOrSet(ctx, redis.PanelSnapshotKey(asOf.Format(panel.DateLayout)), &set, redis.TTLDaily,
		func() (interface{}, error) {
			return l.load(ctx, asOf)
		})
	if err != nil {
		return panel.Set{}, err
	}
	return set, nil
}

func (l *PanelLoader) load(ctx context.Context, asOf time.Time) (panel.Set, error) {
	start := time.Now()

	prices, err := l.prices.LoadRange(ctx, asOf.AddDate(0, 0, -PriceWindowDays), asOf)
	if err != nil {
		return panel.Set{}, fmt.Errorf("load prices: %w", err)
	}
	if len(prices) == 0 {
		return panel.Set{}, fmt.Errorf("no prices up to %s: %w", asOf.Format(panel.DateLayout), contracts.ErrInputUnavailable)
	}

	set := PivotPrices(prices)

	lastMonth := LatestPublishedMonth(asOf)
	firstMonth := lastMonth.AddDate(0, -(RevenueWindowMonths - 1), 0)
	revenues, err := l.revenues.LoadRange(ctx, firstMonth, lastMonth)
	if err != nil {
		// Revenue is optional: condition 7 fails open without it
		l.logger.WithError(err).Warn("Revenue unavailable, continuing without revenue panel")
	} else if len(revenues) > 0 {
		set.Revenue = PivotRevenue(revenues)
	}

	l.logger.WithFields(map[string]interface{}{
		"as_of":         asOf.Format(panel.DateLayout),
		"sessions":      set.Close.Len(),
		"instruments":   set.Close.Width(),
		"price_rows":    len(prices),
		"revenue_rows":  len(revenues),
		"revenue_month": lastMonth.Format("2006-01"),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Panels loaded")

	return set, nil
}

// PivotPrices builds the close, high and volume panels from daily rows.
// Symbols are sorted by code.
func PivotPrices(prices []contracts.DailyPrice) panel.Set {
	closes, highs, volumes := panel.NewBuilder(), panel.NewBuilder(), panel.NewBuilder()

	for _, code := range uniqueCodes(len(prices), func(i int) string { return prices[i].Code }) {
		closes.AddSymbol(code)
		highs.AddSymbol(code)
		volumes.AddSymbol(code)
	}

	for _, p := range prices {
		closes.Add(p.Date, p.Code, p.Close)
		highs.Add(p.Date, p.Code, p.High)
		volumes.Add(p.Date, p.Code, float64(p.Volume))
	}

	return panel.Set{
		Close:  closes.Build(),
		High:   highs.Build(),
		Volume: volumes.Build(),
	}
}

// PivotRevenue builds the monthly revenue panel
func PivotRevenue(revenues []contracts.MonthlyRevenue) *panel.Panel {
	b := panel.NewBuilder()
	for _, code := range uniqueCodes(len(revenues), func(i int) string { return revenues[i].Code }) {
		b.AddSymbol(code)
	}
	for _, r := range revenues {
		b.Add(r.Month, r.Code, float64(r.Revenue))
	}
	return b.Build()
}

// LatestPublishedMonth is the newest revenue month public on asOf.
// Month M is published by day RevenuePublishDay of M+1.
func LatestPublishedMonth(asOf time.Time) time.Time {
	month := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC)
	if asOf.Day() > RevenuePublishDay {
		return month.AddDate(0, -1, 0)
	}
	return month.AddDate(0, -2, 0)
}

func uniqueCodes(n int, code func(int) string) []string {
	seen := make(map[string]struct{})
	codes := make([]string, 0)
	for i := 0; i < n; i++ {
		c := code(i)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
