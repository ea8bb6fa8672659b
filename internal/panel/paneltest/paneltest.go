// Package paneltest builds synthetic panels for tests.
package paneltest

import (
	"time"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
)

// Start is the first session of every generated calendar
var Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// TradingDays returns n consecutive weekdays from Start
func TradingDays(n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for d := Start; len(dates) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// Months returns n consecutive month starts from Start
func Months(n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = Start.AddDate(0, i, 0)
	}
	return dates
}

// Const returns n copies of v
func Const(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Ramp returns n values rising linearly from `from` to `to`
func Ramp(n int, from, to float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if n == 1 {
			out[i] = to
			continue
		}
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

// Build creates a panel and panics on invalid input
func Build(dates []time.Time, symbols []string, columns ...[]float64) *panel.Panel {
	p, err := panel.New(dates, symbols, columns)
	if err != nil {
		panic(err)
	}
	return p
}

// Sessions is the length of the breakout example history
const Sessions = 200

// BreakoutCloses is a 200-session history that satisfies every price condition:
// flat at 100, 95 at s[n-120], 99 at s[n-60], a 104 high at s[n-40],
// a dip to 98 at s[n-15] and a 105 breakout today. Resistance is 104.
func BreakoutCloses() []float64 {
	n := Sessions
	s := Const(n, 100)
	s[n-120] = 95
	s[n-60] = 99
	s[n-40] = 104
	s[n-15] = 98
	s[n-1] = 105
	return s
}

// BreakoutVolume has a 5-session average of 1.3x the 20-session average
func BreakoutVolume() []float64 {
	v := Const(Sessions, 9000)
	for i := Sessions - 5; i < Sessions; i++ {
		v[i] = 13000
	}
	return v
}

// BreakoutRevenue is 12 months with a 3-month average of 110 and a
// 12-month average of 100
func BreakoutRevenue() []float64 {
	return []float64{100, 90, 100, 90, 100, 90, 100, 100, 100, 110, 110, 110}
}

// BreakoutSet returns a panel set where every symbol carries the breakout example
func BreakoutSet(symbols ...string) panel.Set {
	closes := make([][]float64, len(symbols))
	volumes := make([][]float64, len(symbols))
	revenues := make([][]float64, len(symbols))
	for i := range symbols {
		closes[i] = BreakoutCloses()
		volumes[i] = BreakoutVolume()
		revenues[i] = BreakoutRevenue()
	}

	days := TradingDays(Sessions)
	return panel.Set{
		Close:   Build(days, symbols, closes...),
		Volume:  Build(days, symbols, volumes...),
		Revenue: Build(Months(12), symbols, revenues...),
	}
}
