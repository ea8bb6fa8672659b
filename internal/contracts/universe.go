package contracts

import "time"

// Exclusion reasons of the basic filter
const (
	ReasonInsufficientHistory = "insufficient_history"
	ReasonPriceFloor          = "price_floor"
	ReasonLowLiquidity        = "low_liquidity"
)

// Universe represents tradable instruments passed from S1 to S2
// ⭐ SSOT: S1 → S2 hand-off
type Universe struct {
	Date       time.Time         `json:"date"`
	Stocks     []string          `json:"stocks"`                // survivors, original column order
	Excluded   map[string]string `json:"excluded"`              // symbol: reason
	TotalCount int               `json:"total_count,omitempty"` // instruments before filtering
}

// Contains checks if a stock code is in the universe
func (u *Universe) Contains(code string) bool {
	for _, stock := range u.Stocks {
		if stock == code {
			return true
		}
	}
	return false
}

// IsExcluded checks if a stock code is excluded with reason
func (u *Universe) IsExcluded(code string) (bool, string) {
	reason, exists := u.Excluded[code]
	return exists, reason
}

// Count returns the number of tradable stocks
func (u *Universe) Count() int {
	return len(u.Stocks)
}

// ExclusionCounts groups excluded instruments by reason
func (u *Universe) ExclusionCounts() map[string]int {
	counts := make(map[string]int)
	for _, reason := range u.Excluded {
		counts[reason]++
	}
	return counts
}
