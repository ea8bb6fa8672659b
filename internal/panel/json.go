package panel

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// wirePanel is the cached form; NaN travels as null
type wirePanel struct {
	Dates   []string     `json:"dates"`
	Symbols []string     `json:"symbols"`
	Columns [][]*float64 `json:"columns"`
}

// MarshalJSON encodes the panel with missing values as null
func (p *Panel) MarshalJSON() ([]byte, error) {
	w := wirePanel{
		Dates:   make([]string, len(p.dates)),
		Symbols: p.symbols,
		Columns: make([][]*float64, len(p.columns)),
	}
	for i, d := range p.dates {
		w.Dates[i] = d.Format(DateLayout)
	}
	for c, col := range p.columns {
		out := make([]*float64, len(col))
		for r, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			out[r] = &v
		}
		w.Columns[c] = out
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the format written by MarshalJSON
func (p *Panel) UnmarshalJSON(data []byte) error {
	var w wirePanel
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	dates := make([]time.Time, len(w.Dates))
	for i, s := range w.Dates {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return fmt.Errorf("panel date %q: %w", s, err)
		}
		dates[i] = d
	}

	columns := make([][]float64, len(w.Columns))
	for c, col := range w.Columns {
		values := make([]float64, len(col))
		for r, v := range col {
			if v == nil {
				values[r] = math.NaN()
				continue
			}
			values[r] = *v
		}
		columns[c] = values
	}

	decoded, err := New(dates, w.Symbols, columns)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
