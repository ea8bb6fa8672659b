package panel

import (
	"math"
	"sort"
	"time"
)

// Builder pivots long rows (date, symbol, value) into a Panel.
// Symbols keep first-seen order; dates are sorted on Build.
type Builder struct {
	symbols []string
	index   map[string]int
	cells   map[time.Time]map[int]float64
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		index: make(map[string]int),
		cells: make(map[time.Time]map[int]float64),
	}
}

// AddSymbol registers a column even if it never receives a value
func (b *Builder) AddSymbol(symbol string) int {
	if i, ok := b.index[symbol]; ok {
		return i
	}
	i := len(b.symbols)
	b.index[symbol] = i
	b.symbols = append(b.symbols, symbol)
	return i
}

// Add sets one cell. Later writes of the same cell win.
func (b *Builder) Add(date time.Time, symbol string, value float64) {
	col := b.AddSymbol(symbol)
	day := truncateDay(date)
	row, ok := b.cells[day]
	if !ok {
		row = make(map[int]float64)
		b.cells[day] = row
	}
	row[col] = value
}

// Build materialises the panel; cells never added are NaN
func (b *Builder) Build() *Panel {
	dates := make([]time.Time, 0, len(b.cells))
	for d := range b.cells {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	columns := make([][]float64, len(b.symbols))
	for c := range columns {
		col := make([]float64, len(dates))
		for r, d := range dates {
			v, ok := b.cells[d][c]
			if !ok {
				v = math.NaN()
			}
			col[r] = v
		}
		columns[c] = col
	}

	index := make(map[string]int, len(b.symbols))
	for s, i := range b.index {
		index[s] = i
	}
	return &Panel{
		dates:   dates,
		symbols: append([]string(nil), b.symbols...),
		index:   index,
		columns: columns,
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
