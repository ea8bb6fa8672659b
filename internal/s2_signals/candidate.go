package s2_signals

import (
	"github.com/benjamintsai23/second-high-auto-strategy/internal/contracts"
)

// NewCandidate assembles the S2 output record of a passing instrument.
// Breakout and trend figures come from the evaluation, so they survive a
// neutral metrics fallback.
func NewCandidate(h History, ev Evaluation, m Metrics) contracts.Candidate {
	met := ev.Conditions.Count()

	volume := 0.0
	if h.HasVolume && h.Volume.Len() > 0 {
		volume = h.Volume.Last()
	}

	return contracts.Candidate{
		Symbol: h.Symbol,
		Date:   ev.LatestDate,

		Close:       ev.Latest,
		PrevClose:   m.PrevClose,
		ChangePct:   m.ChangePct,
		High60:      m.High60,
		Low60:       m.Low60,
		MA5:         m.MA5,
		MA10:        m.MA10,
		MA20:        m.MA20,
		MA60:        m.MA60,
		Volume:      volume,
		VolumeRatio: m.VolumeRatio,

		RevenueGrowth:          m.RevenueGrowth,
		RevenueGrowthAvailable: m.RevenueGrowthAvailable,

		Conditions:     ev.Conditions,
		ConditionsMet:  met,
		SignalStrength: float64(met) / contracts.ConditionCount,
		TechnicalScore: m.TechnicalScore,

		Resistance:     ev.Resistance,
		BreakoutRatio:  ev.BreakoutRatio(),
		LongTermGain:   ev.LongTermGain(),
		MediumTermGain: ev.MediumTermGain(),
		RSI:            m.RSI,
		Volatility:     m.Volatility,
	}
}
