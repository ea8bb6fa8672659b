package s2_signals

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel/paneltest"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
)

func newCalculator() *MetricsCalculator {
	cfg := strategyconfig.Default()
	return NewMetricsCalculator(cfg.Metrics, cfg.Conditions)
}

func TestCalculate_BreakoutExample(t *testing.T) {
	m := newCalculator().Calculate(breakoutHistory())
	require.False(t, m.Neutral, "err: %v", m.Err)

	assert.Equal(t, 100.0, m.PrevClose)
	assert.InDelta(t, 5.0, m.ChangePct, 1e-9)
	assert.InDelta(t, 101.0, m.MA5, 1e-9)
	assert.InDelta(t, 100.5, m.MA10, 1e-9)
	assert.InDelta(t, 100.15, m.MA20, 1e-9)
	assert.InDelta(t, 100.1, m.MA60, 1e-9)
	assert.Equal(t, 98.0, m.Low60)
	assert.Equal(t, 105.0, m.High60)
	assert.Equal(t, 100.0, m.RSI) // no losses in the last 14 changes
	assert.InDelta(t, 1.3, m.VolumeRatio, 1e-9)
	assert.InDelta(t, 10.0, m.RevenueGrowth, 1e-9)
	assert.True(t, m.RevenueGrowthAvailable)
	assert.Equal(t, 100, m.TechnicalScore)
	assert.Greater(t, m.Volatility, 0.0)
}

func TestCalculate_NeutralOnFailure(t *testing.T) {
	m := newCalculator().Calculate(historyOf(paneltest.Const(10, 100), nil, nil))

	assert.True(t, m.Neutral)
	assert.Error(t, m.Err)
	assert.Equal(t, 50.0, m.RSI)
	assert.Equal(t, 1.0, m.VolumeRatio)
	assert.Equal(t, 50, m.TechnicalScore)
	assert.Zero(t, m.MA20)
	assert.Zero(t, m.Volatility)
}

func TestCalculate_NeutralOnZeroClose(t *testing.T) {
	s := paneltest.BreakoutCloses()
	s[len(s)-2] = 0

	m := newCalculator().Calculate(historyOf(s, nil, nil))
	assert.True(t, m.Neutral)
}

func TestCalculate_MissingOptionalData(t *testing.T) {
	m := newCalculator().Calculate(historyOf(paneltest.BreakoutCloses(), nil, nil))
	require.False(t, m.Neutral)

	assert.Equal(t, 1.0, m.VolumeRatio)
	assert.False(t, m.RevenueGrowthAvailable)
	assert.Zero(t, m.RevenueGrowth)
}

func TestRSI(t *testing.T) {
	assert.Equal(t, 50.0, rsi(paneltest.Ramp(14, 1, 2), 14), "window not populated")
	assert.Equal(t, 100.0, rsi(paneltest.Ramp(15, 1, 2), 14), "no losses")
	assert.Equal(t, 100.0, rsi(paneltest.Const(30, 7), 14), "flat")

	// 7 gains of +2 and 7 losses of -1: rs = 2
	closes := []float64{100}
	for i := 0; i < 7; i++ {
		last := closes[len(closes)-1]
		closes = append(closes, last+2, last+1)
	}
	assert.InDelta(t, 100-100/3.0, rsi(closes, 14), 1e-9)

	// falling only
	assert.InDelta(t, 0.0, rsi(paneltest.Ramp(20, 50, 10), 14), 1e-9)
}

func TestSampleStdDev(t *testing.T) {
	assert.True(t, math.IsNaN(sampleStdDev([]float64{1})))
	assert.InDelta(t, 0.0, sampleStdDev([]float64{3, 3, 3}), 1e-12)
	// mean 5, squared deviations 4+0+4 → 8/2
	assert.InDelta(t, 2.0, sampleStdDev([]float64{3, 5, 7}), 1e-12)
}

func TestVolatility(t *testing.T) {
	// constant 1% growth has zero dispersion
	closes := []float64{100}
	for i := 0; i < 30; i++ {
		closes = append(closes, closes[len(closes)-1]*1.01)
	}
	changes, err := pctChanges(closes, 20)
	require.NoError(t, err)
	assert.Len(t, changes, 20)
	assert.InDelta(t, 0.0, sampleStdDev(changes)*100, 1e-9)

	_, err = pctChanges(closes[:20], 20)
	assert.Error(t, err)
}

func TestRollingMax(t *testing.T) {
	s := []float64{1, 5, 2, 3}

	v, ok := rollingMax(s, 3, 3)
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = rollingMax(s, 1, 3)
	assert.False(t, ok)
}

func TestTechnicalScore(t *testing.T) {
	tests := []struct {
		name                      string
		price, ma20, ma60, lo, hi float64
		want                      int
	}{
		{"everything bullish", 110, 100, 90, 50, 110, 100},
		{"everything bearish", 50, 100, 110, 50, 150, 40},
		{"flat range no adjustment", 100, 100, 100, 100, 100, 50},
		{"middle of range", 100, 90, 95, 50, 150, 80},
		{"bottom of range", 60, 50, 70, 55, 155, 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TechnicalScore(tt.price, tt.ma20, tt.ma60, tt.lo, tt.hi))
		})
	}
}

func TestTechnicalScoreAlwaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	values := []float64{0, -1, 1e9, math.NaN(), math.Inf(1), math.Inf(-1)}

	pick := func() float64 {
		if rng.Intn(4) == 0 {
			return values[rng.Intn(len(values))]
		}
		return rng.Float64() * 200
	}

	for i := 0; i < 2000; i++ {
		score := TechnicalScore(pick(), pick(), pick(), pick(), pick())
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestNewCandidate(t *testing.T) {
	h := breakoutHistory()
	ev, err := newEvaluator().Evaluate(h)
	require.NoError(t, err)

	c := NewCandidate(h, ev, newCalculator().Calculate(h))
	assert.Equal(t, "TEST", c.Symbol)
	assert.Equal(t, 8, c.ConditionsMet)
	assert.Equal(t, 1.0, c.SignalStrength)
	assert.InDelta(t, 0.9615, c.BreakoutRatio, 1e-3)
	assert.Equal(t, 104.0, c.Resistance)
	assert.Equal(t, 13000.0, c.Volume)
	assert.Equal(t, 0, c.Rank)

	// a neutral fallback keeps the evaluation figures
	c = NewCandidate(h, ev, NeutralMetrics(nil))
	assert.InDelta(t, 0.9615, c.BreakoutRatio, 1e-3)
	assert.Equal(t, 50.0, c.RSI)
	assert.Equal(t, 50, c.TechnicalScore)
}
