package quality

import (
	"context"
	"fmt"
	"math"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// Config holds quality gate thresholds
type Config struct {
	MinValidRatio float64 // share of instruments with a close on the last session
	MinSessions   int     // sessions needed before any instrument can qualify
}

// DefaultConfig returns the production thresholds
func DefaultConfig() Config {
	return Config{
		MinValidRatio: 0.5,
		MinSessions:   130,
	}
}

// Gate validates the loaded panels and generates snapshots
type Gate struct {
	config Config
	logger *logger.Logger
}

// NewGate creates a new quality gate
func NewGate(config Config, log *logger.Logger) *Gate {
	return &Gate{
		config: config,
		logger: log,
	}
}

// Check measures panel coverage on the last session.
// ⭐ SSOT: S0 → S1 品質檢查
// Returns contracts.ErrInputUnavailable when no instrument has a usable
// close; threshold misses only clear Passed and add warnings.
func (g *Gate) Check(ctx context.Context, panels panel.Set) (*contracts.DataQualitySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if panels.Close.Empty() {
		return nil, fmt.Errorf("close panel is empty: %w", contracts.ErrInputUnavailable)
	}

	symbols := panels.Close.Symbols()
	snapshot := &contracts.DataQualitySnapshot{
		Date:        panels.AsOf(),
		TradingDays: panels.Close.Len(),
		TotalStocks: len(symbols),
		Coverage:    make(map[string]float64),
	}

	snapshot.ValidStocks = countLatest(panels.Close, symbols)
	snapshot.Coverage["close"] = ratio(snapshot.ValidStocks, len(symbols))
	snapshot.Coverage["high"] = ratio(countLatest(panels.High, symbols), len(symbols))
	snapshot.Coverage["volume"] = ratio(countLatest(panels.Volume, symbols), len(symbols))
	snapshot.Coverage["revenue"] = ratio(countAny(panels.Revenue, symbols), len(symbols))

	if snapshot.ValidStocks == 0 {
		return nil, fmt.Errorf("no instrument has a close on %s: %w",
			snapshot.Date.Format(panel.DateLayout), contracts.ErrInputUnavailable)
	}

	if snapshot.Coverage["close"] < g.config.MinValidRatio {
		snapshot.Warnings = append(snapshot.Warnings,
			fmt.Sprintf("close coverage %.1f%% below %.1f%%", snapshot.Coverage["close"]*100, g.config.MinValidRatio*100))
	}
	if snapshot.TradingDays < g.config.MinSessions {
		snapshot.Warnings = append(snapshot.Warnings,
			fmt.Sprintf("only %d sessions loaded, %d needed", snapshot.TradingDays, g.config.MinSessions))
	}
	if panels.Volume.Empty() {
		snapshot.Warnings = append(snapshot.Warnings, "volume panel missing, condition 8 passes by default")
	}
	if panels.Revenue.Empty() {
		snapshot.Warnings = append(snapshot.Warnings, "revenue panel missing, condition 7 passes by default")
	}

	snapshot.QualityScore = snapshot.CoverageRate()
	snapshot.Passed = snapshot.Coverage["close"] >= g.config.MinValidRatio &&
		snapshot.TradingDays >= g.config.MinSessions

	entry := g.logger.WithFields(map[string]interface{}{
		"date":          snapshot.Date.Format(panel.DateLayout),
		"total_stocks":  snapshot.TotalStocks,
		"valid_stocks":  snapshot.ValidStocks,
		"trading_days":  snapshot.TradingDays,
		"quality_score": snapshot.QualityScore,
		"passed":        snapshot.Passed,
	})
	if len(snapshot.Warnings) > 0 {
		entry.WithField("warnings", snapshot.Warnings).Warn("Data quality warnings")
	} else {
		entry.Info("Data quality check passed")
	}

	return snapshot, nil
}

// countLatest counts symbols with a finite value on p's last row
func countLatest(p *panel.Panel, symbols []string) int {
	n := 0
	for _, s := range symbols {
		if v := p.Latest(s); !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

// countAny counts symbols with at least one value in p
func countAny(p *panel.Panel, symbols []string) int {
	n := 0
	for _, s := range symbols {
		if p.Count(s) > 0 {
			n++
		}
	}
	return n
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
