// Package panel holds the date x instrument matrices the screener reads.
//
// A Panel is immutable once built: rows are ascending unique trading dates
// (or reporting months for revenue), columns are instrument symbols in
// insertion order, and a missing observation is NaN.
package panel

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire format of panel dates
const DateLayout = "2006-01-02"

// Panel is a date-indexed, symbol-columned matrix of float64
type Panel struct {
	dates   []time.Time
	symbols []string
	index   map[string]int
	columns [][]float64 // columns[col][row]
}

// New builds a panel from column-major data. columns[i] belongs to symbols[i]
// and must have len(dates) values.
func New(dates []time.Time, symbols []string, columns [][]float64) (*Panel, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("dates must be ascending and unique: %s after %s",
				dates[i].Format(DateLayout), dates[i-1].Format(DateLayout))
		}
	}
	if len(columns) != len(symbols) {
		return nil, fmt.Errorf("got %d columns for %d symbols", len(columns), len(symbols))
	}

	index := make(map[string]int, len(symbols))
	for i, s := range symbols {
		if _, dup := index[s]; dup {
			return nil, fmt.Errorf("duplicate symbol %q", s)
		}
		if len(columns[i]) != len(dates) {
			return nil, fmt.Errorf("column %q has %d rows, want %d", s, len(columns[i]), len(dates))
		}
		index[s] = i
	}

	return &Panel{
		dates:   append([]time.Time(nil), dates...),
		symbols: append([]string(nil), symbols...),
		index:   index,
		columns: columns,
	}, nil
}

// Len returns the number of rows
func (p *Panel) Len() int {
	if p == nil {
		return 0
	}
	return len(p.dates)
}

// Width returns the number of instruments
func (p *Panel) Width() int {
	if p == nil {
		return 0
	}
	return len(p.symbols)
}

// Empty reports a panel with no rows or no columns
func (p *Panel) Empty() bool {
	return p.Len() == 0 || p.Width() == 0
}

// Dates returns a copy of the row index
func (p *Panel) Dates() []time.Time {
	if p == nil {
		return nil
	}
	return append([]time.Time(nil), p.dates...)
}

// LastDate returns the latest row date, zero for an empty panel
func (p *Panel) LastDate() time.Time {
	if p.Len() == 0 {
		return time.Time{}
	}
	return p.dates[len(p.dates)-1]
}

// Symbols returns the column order
func (p *Panel) Symbols() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.symbols...)
}

// Has reports whether symbol is a column
func (p *Panel) Has(symbol string) bool {
	if p == nil {
		return false
	}
	_, ok := p.index[symbol]
	return ok
}

// Column returns the raw column (NaN included). The slice must not be modified.
func (p *Panel) Column(symbol string) ([]float64, bool) {
	if p == nil {
		return nil, false
	}
	i, ok := p.index[symbol]
	if !ok {
		return nil, false
	}
	return p.columns[i], true
}

// Latest returns the value of symbol in the last row (NaN when missing)
func (p *Panel) Latest(symbol string) float64 {
	col, ok := p.Column(symbol)
	if !ok || len(col) == 0 {
		return math.NaN()
	}
	return col[len(col)-1]
}

// Count returns the number of non-missing observations of symbol
func (p *Panel) Count(symbol string) int {
	col, _ := p.Column(symbol)
	n := 0
	for _, v := range col {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Series returns symbol's column with missing values dropped
func (p *Panel) Series(symbol string) (Series, bool) {
	col, ok := p.Column(symbol)
	if !ok {
		return Series{}, false
	}

	s := Series{
		Dates:  make([]time.Time, 0, len(col)),
		Values: make([]float64, 0, len(col)),
	}
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		s.Dates = append(s.Dates, p.dates[i])
		s.Values = append(s.Values, v)
	}
	return s, true
}

// Select returns a panel restricted to symbols, in the given order.
// Unknown symbols are ignored.
func (p *Panel) Select(symbols []string) *Panel {
	out := &Panel{
		dates: p.Dates(),
		index: make(map[string]int, len(symbols)),
	}
	for _, s := range symbols {
		i, ok := p.index[s]
		if !ok {
			continue
		}
		if _, dup := out.index[s]; dup {
			continue
		}
		out.index[s] = len(out.symbols)
		out.symbols = append(out.symbols, s)
		out.columns = append(out.columns, p.columns[i])
	}
	return out
}

// Set bundles the panels of one screening run. Close is required,
// the others may be nil when the source is entirely absent.
type Set struct {
	Close   *Panel `json:"close"`
	High    *Panel `json:"high,omitempty"`
	Volume  *Panel `json:"volume,omitempty"`
	Revenue *Panel `json:"revenue,omitempty"`
}

// AsOf returns the latest trading date of the close panel
func (s Set) AsOf() time.Time {
	return s.Close.LastDate()
}
