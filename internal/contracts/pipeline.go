package contracts

// Pipeline Stage definitions (SSOT)
// Every log line, metric label and RunResult uses these constants.
//
// Pipeline flow:
//   S0 → S1 → S2 → S3 → S4
//   Data  Universe  Signals  Ranker  Report

// Stage represents a pipeline stage
type Stage string

const (
	// StageData S0: panel loading and data quality gate
	// Location: internal/s0_data/
	StageData Stage = "S0_DATA"

	// StageUniverse S1: basic tradability filter
	// Location: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageSignals S2: eight breakout conditions and metrics per instrument
	// Location: internal/s2_signals/, fan-out in internal/selection/screener.go
	StageSignals Stage = "S2_SIGNALS"

	// StageRanker S3: ordering of qualifying instruments
	// Location: internal/selection/ranker.go
	StageRanker Stage = "S3_RANKER"

	// StageReport S4: report text and Telegram delivery
	// Location: internal/report/, internal/external/telegram/
	StageReport Stage = "S4_REPORT"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageData:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageSignals:
		return "S2"
	case StageRanker:
		return "S3"
	case StageReport:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns the Traditional Chinese label used in reports
func (s Stage) Description() string {
	switch s {
	case StageData:
		return "資料載入/品質檢查"
	case StageUniverse:
		return "基本過濾"
	case StageSignals:
		return "八大條件/技術指標"
	case StageRanker:
		return "排序"
	case StageReport:
		return "報告推播"
	default:
		return "未知"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageData,
		StageUniverse,
		StageSignals,
		StageRanker,
		StageReport,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult represents the result of a pipeline stage execution
type StageResult struct {
	Stage       Stage                  `json:"stage"`
	Success     bool                   `json:"success"`
	Skipped     bool                   `json:"skipped,omitempty"`
	InputCount  int                    `json:"input_count"`
	OutputCount int                    `json:"output_count"`
	Duration    int64                  `json:"duration_ms"`
	Error       string                 `json:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
