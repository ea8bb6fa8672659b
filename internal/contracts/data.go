package contracts

import "time"

// DataQualitySnapshot represents data quality information passed from S0 to S1
// ⭐ SSOT: S0 → S1 data quality hand-off
type DataQualitySnapshot struct {
	Date         time.Time          `json:"date"`
	TradingDays  int                `json:"trading_days"`
	TotalStocks  int                `json:"total_stocks"`
	ValidStocks  int                `json:"valid_stocks"`  // latest close present
	Coverage     map[string]float64 `json:"coverage"`      // per panel: share of instruments with data
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// IsValid checks if the data quality snapshot meets minimum requirements
func (d *DataQualitySnapshot) IsValid() bool {
	return d.Passed && d.ValidStocks > 0
}

// CoverageRate returns the average coverage rate across all panels
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
