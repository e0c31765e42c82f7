package indicator

import "math"

// RSI returns the relative strength index over window price changes.
// Average gain and loss are simple trailing means of the positive and
// negative deltas, so the first defined index is window. A window with no
// losses has no defined ratio and yields NaN.
func RSI(close []float64, window int) Series {
	n := len(close)
	out := Undefined(n)
	if window < 1 || n <= window {
		return out
	}
	gains := Undefined(n)
	losses := Undefined(n)
	for i := 1; i < n; i++ {
		d := close[i] - close[i-1]
		if math.IsNaN(d) {
			continue
		}
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}
	avgGain := SMA(gains, window)
	avgLoss := SMA(losses, window)
	for i := window; i < n; i++ {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) || l == 0 {
			continue
		}
		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACDResult holds the three MACD lines.
type MACDResult struct {
	MACD      Series
	Signal    Series
	Histogram Series
}

// MACD returns EMA(fast) - EMA(slow), its signal EMA and the histogram
// (macd - signal).
func MACD(close []float64, fast, slow, signal int) MACDResult {
	n := len(close)
	if fast < 1 || slow < 1 || signal < 1 {
		return MACDResult{MACD: Undefined(n), Signal: Undefined(n), Histogram: Undefined(n)}
	}
	emaFast := EMA(close, fast)
	emaSlow := EMA(close, slow)
	line := make(Series, n)
	for i := range line {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMA(line, signal)
	hist := make(Series, n)
	for i := range hist {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{MACD: line, Signal: sig, Histogram: hist}
}

// StochasticResult holds %K and its %D smoothing.
type StochasticResult struct {
	K Series
	D Series
}

// Stochastic returns %K = 100*(close-lowest)/(highest-lowest) over kWindow
// and %D = SMA(%K, dWindow). A flat range leaves %K undefined.
func Stochastic(high, low, close []float64, kWindow, dWindow int) StochasticResult {
	n := minLen(len(high), len(low), len(close))
	k := Undefined(n)
	if kWindow >= 1 && n >= kWindow {
		hh := RollingMax(high[:n], kWindow)
		ll := RollingMin(low[:n], kWindow)
		for i := kWindow - 1; i < n; i++ {
			rng := hh[i] - ll[i]
			if math.IsNaN(rng) || rng == 0 {
				continue
			}
			k[i] = 100 * (close[i] - ll[i]) / rng
		}
	}
	return StochasticResult{K: k, D: SMA(k, dWindow)}
}

// WilliamsR returns -100*(highest-close)/(highest-lowest) over window.
// A flat range yields NaN.
func WilliamsR(high, low, close []float64, window int) Series {
	n := minLen(len(high), len(low), len(close))
	out := Undefined(n)
	if window < 1 || n < window {
		return out
	}
	hh := RollingMax(high[:n], window)
	ll := RollingMin(low[:n], window)
	for i := window - 1; i < n; i++ {
		rng := hh[i] - ll[i]
		if math.IsNaN(rng) || rng == 0 {
			continue
		}
		out[i] = -100 * (hh[i] - close[i]) / rng
	}
	return out
}
