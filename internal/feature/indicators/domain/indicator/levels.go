package indicator

import "sort"

// maxLevels caps how many support and resistance levels are reported.
const maxLevels = 5

// Levels holds horizontal price levels with no time dimension.
type Levels struct {
	Support    []float64 // ascending
	Resistance []float64 // descending
}

// SupportResistance scans samples in [window, n-window) and keeps a high
// that equals the trailing window maximum as resistance and a low that
// equals the trailing window minimum as support. Levels are deduplicated
// and truncated to the five lowest supports and five highest resistances.
func SupportResistance(high, low []float64, window int) Levels {
	lv := Levels{Support: []float64{}, Resistance: []float64{}}
	n := minLen(len(high), len(low))
	if window < 1 || n <= 2*window {
		return lv
	}
	highs := RollingMax(high[:n], window)
	lows := RollingMin(low[:n], window)

	res := map[float64]struct{}{}
	sup := map[float64]struct{}{}
	for i := window; i < n-window; i++ {
		if highs.Defined(i) && high[i] == highs[i] {
			res[high[i]] = struct{}{}
		}
		if lows.Defined(i) && low[i] == lows[i] {
			sup[low[i]] = struct{}{}
		}
	}
	for v := range res {
		lv.Resistance = append(lv.Resistance, v)
	}
	for v := range sup {
		lv.Support = append(lv.Support, v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(lv.Resistance)))
	sort.Float64s(lv.Support)
	if len(lv.Resistance) > maxLevels {
		lv.Resistance = lv.Resistance[:maxLevels]
	}
	if len(lv.Support) > maxLevels {
		lv.Support = lv.Support[:maxLevels]
	}
	return lv
}

// Pivots are the classic floor-trader pivot levels.
type Pivots struct {
	Pivot float64
	R1    float64
	R2    float64
	R3    float64
	S1    float64
	S2    float64
	S3    float64
}

// PivotPoints computes classic pivots from one bar's high, low and close.
func PivotPoints(high, low, close float64) Pivots {
	p := (high + low + close) / 3
	return Pivots{
		Pivot: p,
		R1:    2*p - low,
		R2:    p + (high - low),
		R3:    high + 2*(p-low),
		S1:    2*p - high,
		S2:    p - (high - low),
		S3:    low - 2*(high-p),
	}
}

// PivotPointsFromBars computes pivots from the latest bar. ok is false for
// an empty series.
func PivotPointsFromBars(series PriceSeries) (Pivots, bool) {
	last, ok := series.Last()
	if !ok {
		return Pivots{}, false
	}
	return PivotPoints(last.High, last.Low, last.Close), true
}
