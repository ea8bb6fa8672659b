package s1_universe

import (
	"context"
	"fmt"
	"math"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// Filter removes instruments that are not worth evaluating:
// too little history, price below the floor, or too little liquidity
type Filter struct {
	params strategyconfig.FilterParams
	logger *logger.Logger
}

// NewFilter creates a new basic filter
func NewFilter(params strategyconfig.FilterParams, log *logger.Logger) *Filter {
	return &Filter{
		params: params,
		logger: log,
	}
}

// Apply returns the surviving universe and the close panel restricted to it.
// An empty universe is not an error.
// ⭐ SSOT: S1 → S2 universe construction
func (f *Filter) Apply(ctx context.Context, panels panel.Set) (*contracts.Universe, *panel.Panel, error) {
	if panels.Close.Empty() {
		return nil, nil, fmt.Errorf("basic filter: close panel: %w", contracts.ErrInputUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	closes := panels.Close
	symbols := closes.Symbols()

	universe := &contracts.Universe{
		Date:       closes.LastDate(),
		Stocks:     make([]string, 0, len(symbols)),
		Excluded:   make(map[string]string),
		TotalCount: len(symbols),
	}

	minDays := f.MinHistory(closes.Len())
	for _, symbol := range symbols {
		if reason := f.checkExclusion(symbol, closes, panels.Volume, minDays); reason != "" {
			universe.Excluded[symbol] = reason
			continue
		}
		universe.Stocks = append(universe.Stocks, symbol)
	}

	fields := map[string]interface{}{
		"stage":       contracts.StageUniverse.ShortName(),
		"total":       universe.TotalCount,
		"passed":      universe.Count(),
		"min_history": minDays,
	}
	for reason, n := range universe.ExclusionCounts() {
		fields[reason] = n
	}
	f.logger.WithFields(fields).Info("Basic filter applied")

	return universe, closes.Select(universe.Stocks), nil
}

// MinHistory returns min(MinHistoryDays, totalDays * MinHistoryRatio)
func (f *Filter) MinHistory(totalDays int) float64 {
	return math.Min(float64(f.params.MinHistoryDays), float64(totalDays)*f.params.MinHistoryRatio)
}

// checkExclusion returns the first failed rule, "" when the instrument survives.
// Order: history, price floor, liquidity.
func (f *Filter) checkExclusion(symbol string, closes, volume *panel.Panel, minDays float64) string {
	// 1. 資料天數不足
	if float64(closes.Count(symbol)) < minDays {
		return contracts.ReasonInsufficientHistory
	}

	// 2. 股價過低（最新一列收盤價缺值也視為不通過）
	latest := closes.Latest(symbol)
	if math.IsNaN(latest) || latest < f.params.MinPrice {
		return contracts.ReasonPriceFloor
	}

	// 3. 成交量不足
	if !f.liquid(symbol, volume) {
		return contracts.ReasonLowLiquidity
	}

	return ""
}

// liquid checks the average of the last VolumeWindow rows of the volume panel.
// Every one of those rows must be present. Only a missing volume panel
// passes; a symbol without a volume column fails.
func (f *Filter) liquid(symbol string, volume *panel.Panel) bool {
	if volume == nil {
		return true
	}
	col, ok := volume.Column(symbol)
	if !ok {
		return false
	}

	window := f.params.VolumeWindow
	if len(col) < window {
		return false
	}

	sum := 0.0
	for _, v := range col[len(col)-window:] {
		if math.IsNaN(v) {
			return false
		}
		sum += v
	}
	return sum/float64(window) >= f.params.MinAvgVolume
}
