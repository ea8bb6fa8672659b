package s2_signals

import (
	"errors"
	"fmt"
	"math"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
)

// Metrics are the display and ranking figures of a passing instrument
type Metrics struct {
	PrevClose float64
	ChangePct float64
	High60    float64
	Low60     float64

	MA5  float64
	MA10 float64
	MA20 float64
	MA60 float64

	RSI         float64
	VolumeRatio float64
	Volatility  float64 // %

	TechnicalScore int

	RevenueGrowth          float64 // %
	RevenueGrowthAvailable bool

	// Neutral is set when the calculation failed and defaults were returned
	Neutral bool
	Err     error
}

// NeutralMetrics are returned when a calculation fails
func NeutralMetrics(err error) Metrics {
	return Metrics{
		RSI:            50,
		VolumeRatio:    1.0,
		TechnicalScore: 50,
		Neutral:        true,
		Err:            err,
	}
}

// MetricsCalculator computes technical metrics for passing instruments
// ⭐ SSOT: display/ranking metrics are computed here only
type MetricsCalculator struct {
	metrics    strategyconfig.MetricParams
	conditions strategyconfig.ConditionParams
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(metrics strategyconfig.MetricParams, conditions strategyconfig.ConditionParams) *MetricsCalculator {
	return &MetricsCalculator{
		metrics:    metrics,
		conditions: conditions,
	}
}

// Calculate never fails: any error, panic or non-finite result yields
// NeutralMetrics, because the instrument already passed every condition.
func (c *MetricsCalculator) Calculate(h History) (m Metrics) {
	defer func() {
		if r := recover(); r != nil {
			m = NeutralMetrics(fmt.Errorf("metrics panic: %v", r))
		}
	}()

	m, err := c.calculate(h)
	if err != nil {
		return NeutralMetrics(err)
	}
	return m
}

func (c *MetricsCalculator) calculate(h History) (Metrics, error) {
	s := h.Close.Values
	n := len(s)
	if n < 2 {
		return Metrics{}, errNotEnoughData
	}

	var m Metrics
	var err error
	latest := s[n-1]

	m.PrevClose = s[n-2]
	if m.PrevClose == 0 {
		return Metrics{}, errors.New("zero previous close")
	}
	m.ChangePct = (latest/m.PrevClose - 1) * 100

	if m.MA5, err = sma(s, 5); err != nil {
		return Metrics{}, fmt.Errorf("ma5: %w", err)
	}
	if m.MA10, err = sma(s, 10); err != nil {
		return Metrics{}, fmt.Errorf("ma10: %w", err)
	}
	if m.MA20, err = sma(s, 20); err != nil {
		return Metrics{}, fmt.Errorf("ma20: %w", err)
	}
	if m.MA60, err = sma(s, 60); err != nil {
		return Metrics{}, fmt.Errorf("ma60: %w", err)
	}

	m.RSI = rsi(s, c.metrics.RSIPeriod)

	changes, err := pctChanges(s, c.metrics.VolatilityWindow)
	if err != nil {
		return Metrics{}, fmt.Errorf("volatility: %w", err)
	}
	m.Volatility = sampleStdDev(changes) * 100

	rangeCloses := h.Close.Tail(c.metrics.RangeWindow)
	low, high := minOf(rangeCloses), maxOf(rangeCloses)
	m.Low60, m.High60 = low, high
	if h.HasHigh && h.High.Len() > 0 {
		if hi := maxOf(h.High.Tail(c.metrics.RangeWindow)); hi > m.High60 {
			m.High60 = hi
		}
	}

	m.VolumeRatio = c.volumeRatio(h)
	m.RevenueGrowth, m.RevenueGrowthAvailable = c.revenueGrowth(h)
	m.TechnicalScore = TechnicalScore(latest, m.MA20, m.MA60, low, high)

	if !finite(m.ChangePct, m.MA5, m.MA10, m.MA20, m.MA60, m.RSI, m.Volatility, m.High60, m.Low60, m.VolumeRatio, m.RevenueGrowth) {
		return Metrics{}, errors.New("non-finite metric")
	}
	return m, nil
}

// volumeRatio is short/long average volume; 1.0 when unavailable
func (c *MetricsCalculator) volumeRatio(h History) float64 {
	if !h.HasVolume || h.Volume.Len() < c.conditions.VolumeLong {
		return 1.0
	}
	long := mean(h.Volume.Tail(c.conditions.VolumeLong))
	if long <= 0 {
		return 1.0
	}
	return mean(h.Volume.Tail(c.conditions.VolumeShort)) / long
}

// revenueGrowth is the short vs long average revenue in percent
func (c *MetricsCalculator) revenueGrowth(h History) (float64, bool) {
	if !h.HasRevenue || h.Revenue.Len() < c.conditions.RevenueLong {
		return 0, false
	}
	long := mean(h.Revenue.Tail(c.conditions.RevenueLong))
	if long <= 0 {
		return 0, false
	}
	return (mean(h.Revenue.Tail(c.conditions.RevenueShort))/long - 1) * 100, true
}

// TechnicalScore starts at 50 and adds trend and range-position points,
// clamped to [0, 100]. A flat range contributes nothing.
func TechnicalScore(price, ma20, ma60, low, high float64) int {
	score := 50

	if price > ma20 {
		score += 15
	}
	if price > ma60 {
		score += 15
	}
	if ma20 > ma60 {
		score += 10
	}

	if span := high - low; span > 0 && !math.IsNaN(span) {
		position := (price - low) / span
		switch {
		case position >= 0.8:
			score += 10
		case position <= 0.2:
			score -= 10
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
