package s2_signals

import (
	"fmt"
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
)

// Evaluation is the verdict of the eight conditions for one instrument
type Evaluation struct {
	Conditions contracts.ConditionSet
	Passes     bool

	Latest     float64
	LatestDate time.Time
	Resistance float64 // max close of the confirmation window

	LongTermBase   float64 // close LongTerm sessions back (0 when unavailable)
	MediumTermBase float64 // close MediumTerm sessions back (0 when unavailable)
}

// BreakoutRatio is the distance above resistance in percent
func (e Evaluation) BreakoutRatio() float64 {
	if e.Resistance == 0 {
		return 0
	}
	return (e.Latest/e.Resistance - 1) * 100
}

// LongTermGain is the percent change against LongTermBase
func (e Evaluation) LongTermGain() float64 {
	if e.LongTermBase == 0 {
		return 0
	}
	return (e.Latest/e.LongTermBase - 1) * 100
}

// MediumTermGain is the percent change against MediumTermBase
func (e Evaluation) MediumTermGain() float64 {
	if e.MediumTermBase == 0 {
		return 0
	}
	return (e.Latest/e.MediumTermBase - 1) * 100
}

// ConditionEvaluator evaluates the second-high breakout pattern
// ⭐ SSOT: the eight conditions are computed here only
type ConditionEvaluator struct {
	params strategyconfig.ConditionParams
}

// NewConditionEvaluator creates a new condition evaluator
func NewConditionEvaluator(params strategyconfig.ConditionParams) *ConditionEvaluator {
	return &ConditionEvaluator{params: params}
}

// Evaluate computes all eight conditions at the latest observation.
// Every condition is computed even when an earlier one fails so the
// result can explain a rejection.
// Returns contracts.ErrInsufficientHistory when the instrument has fewer
// than LongTerm+HistoryBuffer closes.
func (e *ConditionEvaluator) Evaluate(h History) (Evaluation, error) {
	p := e.params
	s := h.Close.Values
	n := len(s)

	if n < p.MinHistory() {
		return Evaluation{}, fmt.Errorf("%s: %d closes, need %d: %w",
			h.Symbol, n, p.MinHistory(), contracts.ErrInsufficientHistory)
	}
	for i, v := range s {
		if !finite(v) {
			return Evaluation{}, fmt.Errorf("%s: non-finite close at %d", h.Symbol, i)
		}
	}

	latest := s[n-1]
	ev := Evaluation{
		Latest:     latest,
		LatestDate: h.Close.Dates[n-1],
	}
	c := &ev.Conditions

	// 1. 創 Lookback 日新高（含今日，>=）
	high, _ := rollingMax(s, n-1, p.Lookback)
	c.NewHigh = latest >= high

	// 2. 整理期：今日之前 Gap 日內至少一日低於自身滾動高點
	for i := n - 1 - p.Gap; i <= n-2; i++ {
		if rm, ok := rollingMax(s, i, p.Lookback); ok && s[i] < rm {
			c.PriorConsolidation = true
			break
		}
	}

	// 3. 確認期 [n-Gap-Confirmation, n-Gap) 內曾創新高
	confirmStart, confirmEnd := n-p.Gap-p.Confirmation, n-p.Gap
	for i := confirmStart; i < confirmEnd; i++ {
		if rm, ok := rollingMax(s, i, p.Lookback); ok && s[i] >= rm {
			c.HistoricalStrength = true
			break
		}
	}

	// 4. 突破確認期高點（嚴格 >）
	ev.Resistance = maxOf(s[confirmStart:confirmEnd])
	c.GenuineBreakout = latest > ev.Resistance

	// 5. / 6. 長中期趨勢
	if n >= p.LongTerm {
		ev.LongTermBase = s[n-p.LongTerm]
		c.LongTermUptrend = latest > ev.LongTermBase
	}
	if n >= p.MediumTerm {
		ev.MediumTermBase = s[n-p.MediumTerm]
		c.MediumTermUptrend = latest > ev.MediumTermBase
	}

	// 7. / 8. 缺資料視為通過
	c.RevenueAccel = e.revenueAccelerating(h)
	c.VolumeExpansion = e.volumeExpanding(h)

	ev.Passes = c.All()
	return ev, nil
}

// revenueAccelerating compares the short and long trailing revenue averages.
// Missing data or fewer than RevenueLong months passes.
func (e *ConditionEvaluator) revenueAccelerating(h History) bool {
	if !h.HasRevenue || h.Revenue.Len() < e.params.RevenueLong {
		return true
	}
	return mean(h.Revenue.Tail(e.params.RevenueShort)) > mean(h.Revenue.Tail(e.params.RevenueLong))
}

// volumeExpanding compares the short average volume with VolumeExpansion
// times the long average. Missing data or fewer than VolumeLong sessions passes.
func (e *ConditionEvaluator) volumeExpanding(h History) bool {
	if !h.HasVolume || h.Volume.Len() < e.params.VolumeLong {
		return true
	}
	short := mean(h.Volume.Tail(e.params.VolumeShort))
	long := mean(h.Volume.Tail(e.params.VolumeLong))
	return short > long*e.params.VolumeExpansion
}
