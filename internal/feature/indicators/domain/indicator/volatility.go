package indicator

import "math"

// BollingerResult holds the three Bollinger bands.
type BollingerResult struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger returns SMA(close, window) ± numStd × the rolling sample
// standard deviation.
func Bollinger(close []float64, window int, numStd float64) BollingerResult {
	middle := SMA(close, window)
	std := RollingStd(close, window)
	upper := Undefined(len(close))
	lower := Undefined(len(close))
	for i := range close {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = middle[i] + std[i]*numStd
		lower[i] = middle[i] - std[i]*numStd
	}
	return BollingerResult{Upper: upper, Middle: middle, Lower: lower}
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per
// sample. The first sample has no previous close and uses high-low.
func TrueRange(high, low, close []float64) Series {
	n := minLen(len(high), len(low), len(close))
	out := make(Series, n)
	for i := 0; i < n; i++ {
		tr := high[i] - low[i]
		if i > 0 {
			tr = math.Max(tr, math.Abs(high[i]-close[i-1]))
			tr = math.Max(tr, math.Abs(low[i]-close[i-1]))
		}
		out[i] = tr
	}
	return out
}

// ATR returns the simple moving average of the true range.
func ATR(high, low, close []float64, window int) Series {
	return SMA(TrueRange(high, low, close), window)
}
