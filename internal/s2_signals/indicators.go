package s2_signals

import (
	"errors"
	"math"
)

var errNotEnoughData = errors.New("not enough data")

// mean of values; NaN when empty
func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// maxOf returns the largest value; NaN when empty
func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// minOf returns the smallest value; NaN when empty
func minOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// sampleStdDev uses the n-1 denominator; NaN for fewer than two values
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// sma is the simple average of the last period values
func sma(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, errNotEnoughData
	}
	return mean(values[len(values)-period:]), nil
}

// rollingMax is max(values[i-window+1 .. i]); false when the window
// reaches before the first observation
func rollingMax(values []float64, i, window int) (float64, bool) {
	start := i - window + 1
	if start < 0 || i >= len(values) {
		return 0, false
	}
	return maxOf(values[start : i+1]), true
}

// rsi is 100 - 100/(1+avgGain/avgLoss) over the last period close-to-close
// changes. A flat or rising window (no losses) is 100; fewer than
// period+1 closes is neutral 50.
func rsi(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}

	window := closes[len(closes)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		return 100
	}
	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - 100/(1+rs)
}

// pctChanges returns the last `count` day-over-day percent changes (as fractions)
func pctChanges(closes []float64, count int) ([]float64, error) {
	if count <= 0 || len(closes) < count+1 {
		return nil, errNotEnoughData
	}
	window := closes[len(closes)-count-1:]
	out := make([]float64, count)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			return nil, errors.New("zero close in volatility window")
		}
		out[i-1] = window[i]/window[i-1] - 1
	}
	return out, nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
