package s2_signals

import (
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
)

// History is everything the evaluator may read about one instrument.
// It is built from the instrument's own columns only.
type History struct {
	Symbol string

	Close panel.Series

	High    panel.Series
	HasHigh bool

	Volume    panel.Series
	HasVolume bool

	Revenue    panel.Series
	HasRevenue bool
}

// HistoryFromPanels extracts symbol's columns (missing values dropped).
// Absent optional panels or columns leave the matching Has* flag false.
func HistoryFromPanels(symbol string, panels panel.Set) History {
	h := History{Symbol: symbol}
	h.Close, _ = panels.Close.Series(symbol)
	h.High, h.HasHigh = panels.High.Series(symbol)
	h.Volume, h.HasVolume = panels.Volume.Series(symbol)
	h.Revenue, h.HasRevenue = panels.Revenue.Series(symbol)
	return h
}
