package strategyconfig

import "time"

// Config is the full parameter set of the second-high breakout strategy.
// It is loaded once per run and passed by value into every stage.
// ⭐ SSOT: every threshold and window lives here, never as a package global
type Config struct {
	Meta       Meta            `yaml:"meta" json:"meta"`
	Filter     FilterParams    `yaml:"filter" json:"filter"`
	Conditions ConditionParams `yaml:"conditions" json:"conditions"`
	Metrics    MetricParams    `yaml:"metrics" json:"metrics"`
	Report     ReportParams    `yaml:"report" json:"report"`
	Runtime    RuntimeParams   `yaml:"runtime" json:"runtime"`
}

// Meta identifies the rule set and its schedule
type Meta struct {
	StrategyID          string `yaml:"strategy_id" json:"strategy_id" default:"second_high_v2" validate:"required"`
	Version             string `yaml:"version" json:"version" default:"2.0"`
	Timezone            string `yaml:"timezone" json:"timezone" default:"Asia/Taipei" validate:"required"`
	DecisionTimeLocal   string `yaml:"decision_time_local" json:"decision_time_local" default:"21:00"`     // HH:MM 盤後選股
	CollectionTimeLocal string `yaml:"collection_time_local" json:"collection_time_local" default:"18:00"` // HH:MM 資料更新
}

// FilterParams S1: basic tradability filter
type FilterParams struct {
	MinHistoryDays  int     `yaml:"min_history_days" json:"min_history_days" default:"250" validate:"gt=0"`
	MinHistoryRatio float64 `yaml:"min_history_ratio" json:"min_history_ratio" default:"0.8" validate:"gt=0,lte=1"`
	MinPrice        float64 `yaml:"min_price" json:"min_price" default:"10" validate:"gte=0"`
	MinAvgVolume    float64 `yaml:"min_avg_volume" json:"min_avg_volume" default:"1000" validate:"gte=0"`
	VolumeWindow    int     `yaml:"volume_window" json:"volume_window" default:"20" validate:"gt=0"`
}

// ConditionParams S2: windows of the eight breakout conditions.
// The consolidation window is the last Gap sessions before today and the
// confirmation window is the Confirmation sessions before that.
type ConditionParams struct {
	Lookback        int     `yaml:"lookback" json:"lookback" default:"60" validate:"gt=0"`
	Gap             int     `yaml:"gap" json:"gap" default:"30" validate:"gt=0"`
	Confirmation    int     `yaml:"confirmation" json:"confirmation" default:"25" validate:"gt=0"`
	LongTerm        int     `yaml:"long_term" json:"long_term" default:"120" validate:"gt=0"`
	MediumTerm      int     `yaml:"medium_term" json:"medium_term" default:"60" validate:"gt=0"`
	HistoryBuffer   int     `yaml:"history_buffer" json:"history_buffer" default:"10" validate:"gte=0"`
	RevenueShort    int     `yaml:"revenue_short" json:"revenue_short" default:"3" validate:"gt=0"`
	RevenueLong     int     `yaml:"revenue_long" json:"revenue_long" default:"12" validate:"gt=0"`
	VolumeShort     int     `yaml:"volume_short" json:"volume_short" default:"5" validate:"gt=0"`
	VolumeLong      int     `yaml:"volume_long" json:"volume_long" default:"20" validate:"gt=0"`
	VolumeExpansion float64 `yaml:"volume_expansion" json:"volume_expansion" default:"1.2" validate:"gt=0"`
}

// MinHistory is the number of non-missing closes an instrument needs
func (c ConditionParams) MinHistory() int {
	return c.LongTerm + c.HistoryBuffer
}

// MetricParams S2: ranking metrics of passing instruments
type MetricParams struct {
	RSIPeriod        int `yaml:"rsi_period" json:"rsi_period" default:"14" validate:"gt=0"`
	VolatilityWindow int `yaml:"volatility_window" json:"volatility_window" default:"20" validate:"gt=1"`
	RangeWindow      int `yaml:"range_window" json:"range_window" default:"60" validate:"gt=0"`
}

// ReportParams S4: report text and delivery
type ReportParams struct {
	MaxCandidates   int           `yaml:"max_candidates" json:"max_candidates" default:"10" validate:"gt=0"`
	MaxMessageChars int           `yaml:"max_message_chars" json:"max_message_chars" default:"4000" validate:"gt=0,lte=4096"`
	FragmentPause   time.Duration `yaml:"fragment_pause" json:"fragment_pause" default:"1s" validate:"gte=0"`
	MessagePause    time.Duration `yaml:"message_pause" json:"message_pause" default:"2s" validate:"gte=0"`
}

// RuntimeParams controls fan-out of per-instrument work
type RuntimeParams struct {
	Workers int `yaml:"workers" json:"workers" default:"4" validate:"gt=0,lte=64"`
}
