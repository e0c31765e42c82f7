package indicator

import "math"

// SMA returns the trailing arithmetic mean over window values.
// The first window-1 entries are undefined, as is any window that contains
// an undefined input.
func SMA(values []float64, window int) Series {
	out := Undefined(len(values))
	if window < 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for _, v := range values[i-window+1 : i+1] {
			if math.IsNaN(v) {
				ok = false
				break
			}
			sum += v
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA returns the exponential moving average with span window:
// alpha = 2/(window+1), EMA[0] = S[0], EMA[i] = alpha*S[i] + (1-alpha)*EMA[i-1].
//
// A leading undefined prefix is skipped and the first defined input seeds
// the average. Undefined inputs after the seed yield undefined outputs and
// leave the running average untouched.
func EMA(values []float64, window int) Series {
	out := Undefined(len(values))
	if window < 1 {
		return out
	}
	alpha := 2.0 / float64(window+1)
	seeded := false
	prev := 0.0
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if !seeded {
			prev = v
			seeded = true
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// RollingStd returns the trailing sample standard deviation (n-1
// denominator) over window values. A window of 1 has no sample deviation
// and stays undefined.
func RollingStd(values []float64, window int) Series {
	out := Undefined(len(values))
	if window < 2 || len(values) < window {
		return out
	}
	mean := SMA(values, window)
	for i := window - 1; i < len(values); i++ {
		m := mean[i]
		if math.IsNaN(m) {
			continue
		}
		ss := 0.0
		for _, v := range values[i-window+1 : i+1] {
			d := v - m
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// RollingMax returns the trailing maximum over window values.
func RollingMax(values []float64, window int) Series {
	return rollingExtreme(values, window, func(a, b float64) bool { return a > b })
}

// RollingMin returns the trailing minimum over window values.
func RollingMin(values []float64, window int) Series {
	return rollingExtreme(values, window, func(a, b float64) bool { return a < b })
}

func rollingExtreme(values []float64, window int, better func(a, b float64) bool) Series {
	out := Undefined(len(values))
	if window < 1 || len(values) < window {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		best := values[i-window+1]
		ok := !math.IsNaN(best)
		for _, v := range values[i-window+2 : i+1] {
			if math.IsNaN(v) {
				ok = false
				break
			}
			if better(v, best) {
				best = v
			}
		}
		if ok {
			out[i] = best
		}
	}
	return out
}
