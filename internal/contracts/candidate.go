package contracts

import "time"

// ConditionCount is the number of breakout conditions
const ConditionCount = 8

// ConditionSet holds the eight breakout conditions of one instrument
type ConditionSet struct {
	NewHigh            bool `json:"new_high"`            // 1. 今日創 60 日新高
	PriorConsolidation bool `json:"prior_consolidation"` // 2. 近 30 日曾未創高（整理）
	HistoricalStrength bool `json:"historical_strength"` // 3. 30~55 日前曾創高
	GenuineBreakout    bool `json:"genuine_breakout"`    // 4. 突破整理前高點
	LongTermUptrend    bool `json:"long_term_uptrend"`   // 5. 高於 120 日前
	MediumTermUptrend  bool `json:"medium_term_uptrend"` // 6. 高於 60 日前
	RevenueAccel       bool `json:"revenue_accel"`       // 7. 近 3 月營收 > 近 12 月
	VolumeExpansion    bool `json:"volume_expansion"`    // 8. 5 日均量 > 1.2 x 20 日均量
}

// Slice returns the conditions in their numbered order
func (c ConditionSet) Slice() []bool {
	return []bool{
		c.NewHigh,
		c.PriorConsolidation,
		c.HistoricalStrength,
		c.GenuineBreakout,
		c.LongTermUptrend,
		c.MediumTermUptrend,
		c.RevenueAccel,
		c.VolumeExpansion,
	}
}

// Count returns how many conditions hold
func (c ConditionSet) Count() int {
	n := 0
	for _, ok := range c.Slice() {
		if ok {
			n++
		}
	}
	return n
}

// All reports whether every condition holds
func (c ConditionSet) All() bool {
	return c.Count() == ConditionCount
}

// Failed returns the 1-based numbers of the conditions that do not hold
func (c ConditionSet) Failed() []int {
	var failed []int
	for i, ok := range c.Slice() {
		if !ok {
			failed = append(failed, i+1)
		}
	}
	return failed
}

// ConditionLabels are the report names of the eight conditions, in order
var ConditionLabels = [ConditionCount]string{
	"今日創 60 日新高",
	"近 30 日有整理（未持續創高）",
	"30~55 日前曾創新高",
	"突破整理期前高點",
	"股價高於 120 日前（長期上升）",
	"股價高於 60 日前（中期上升）",
	"近 3 月營收 > 近 12 月平均",
	"5 日均量 > 1.2 倍 20 日均量",
}

// Candidate is one instrument that satisfied every breakout condition
// ⭐ SSOT: S2 → S3 → S4 hand-off
type Candidate struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name,omitempty"`
	Date   time.Time `json:"date"`

	Close       float64 `json:"close"`
	PrevClose   float64 `json:"prev_close"`
	ChangePct   float64 `json:"change_pct"`
	High60      float64 `json:"high_60"`
	Low60       float64 `json:"low_60"`
	MA5         float64 `json:"ma5"`
	MA10        float64 `json:"ma10"`
	MA20        float64 `json:"ma20"`
	MA60        float64 `json:"ma60"`
	Volume      float64 `json:"volume"` // shares, latest session
	VolumeRatio float64 `json:"volume_ratio"`

	RevenueGrowth          float64 `json:"revenue_growth"` // %, 3m avg vs 12m avg
	RevenueGrowthAvailable bool    `json:"revenue_growth_available"`

	Conditions     ConditionSet `json:"conditions"`
	ConditionsMet  int          `json:"conditions_met"`
	SignalStrength float64      `json:"signal_strength"` // ConditionsMet / 8
	TechnicalScore int          `json:"technical_score"` // 0 ~ 100

	Resistance     float64 `json:"resistance"`
	BreakoutRatio  float64 `json:"breakout_ratio"` // %
	LongTermGain   float64 `json:"long_term_gain"`
	MediumTermGain float64 `json:"medium_term_gain"`
	RSI            float64 `json:"rsi"`
	Volatility     float64 `json:"volatility"` // %

	Rank int `json:"rank"` // 1-based, 0 before ranking
}

// IsTopRanked checks if the candidate is in top N ranks
func (c *Candidate) IsTopRanked(n int) bool {
	return c.Rank <= n && c.Rank > 0
}
