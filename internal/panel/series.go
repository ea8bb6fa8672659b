package panel

import (
	"math"
	"time"
)

// Series is one instrument's observations with missing values removed
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations
func (s Series) Len() int {
	return len(s.Values)
}

// Last returns the latest value, NaN when empty
func (s Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// Tail returns the last n values (all of them when n exceeds Len)
func (s Series) Tail(n int) []float64 {
	if n >= len(s.Values) {
		return s.Values
	}
	if n <= 0 {
		return nil
	}
	return s.Values[len(s.Values)-n:]
}

// FromBack returns the value k positions from the end; FromBack(1) == Last()
func (s Series) FromBack(k int) float64 {
	if k <= 0 || k > len(s.Values) {
		return math.NaN()
	}
	return s.Values[len(s.Values)-k]
}
