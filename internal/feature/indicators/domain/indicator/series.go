// Package indicator implements the technical-analysis indicators over price
// and volume series.
//
// Every function is pure: inputs are never mutated and identical inputs
// produce identical outputs. Values that cannot be computed (warm-up
// prefix, too-short input, division by zero) are NaN. Callers must treat
// NaN as "no value", never as zero.
package indicator

import (
	"math"
	"sort"
	"time"
)

// Series is a position-aligned indicator output. NaN marks an undefined value.
type Series []float64

// Undefined returns a Series of length n with every value undefined.
func Undefined(n int) Series {
	if n < 0 {
		n = 0
	}
	s := make(Series, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// IsUndefined reports whether v carries no value.
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

// Defined reports whether index i holds a value.
func (s Series) Defined(i int) bool {
	return i >= 0 && i < len(s) && !math.IsNaN(s[i])
}

// Last returns the final value and whether it is defined.
func (s Series) Last() (float64, bool) {
	if len(s) == 0 {
		return math.NaN(), false
	}
	v := s[len(s)-1]
	return v, !math.IsNaN(v)
}

// At returns s[i], or NaN when i is out of range.
func (s Series) At(i int) float64 {
	if i < 0 || i >= len(s) {
		return math.NaN()
	}
	return s[i]
}

// FirstDefined returns the index of the first defined value, or -1.
func (s Series) FirstDefined() int {
	for i, v := range s {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// Bar is one OHLCV sample.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries is an ordered sequence of bars for one symbol.
type PriceSeries []Bar

// Sorted returns a copy ordered by ascending time.
func (p PriceSeries) Sorted() PriceSeries {
	out := make(PriceSeries, len(p))
	copy(out, p)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// Closes extracts the close column.
func (p PriceSeries) Closes() []float64 {
	out := make([]float64, len(p))
	for i, b := range p {
		out[i] = b.Close
	}
	return out
}

// Highs extracts the high column.
func (p PriceSeries) Highs() []float64 {
	out := make([]float64, len(p))
	for i, b := range p {
		out[i] = b.High
	}
	return out
}

// Lows extracts the low column.
func (p PriceSeries) Lows() []float64 {
	out := make([]float64, len(p))
	for i, b := range p {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts the volume column.
func (p PriceSeries) Volumes() []float64 {
	out := make([]float64, len(p))
	for i, b := range p {
		out[i] = b.Volume
	}
	return out
}

// Times extracts the timestamps.
func (p PriceSeries) Times() []time.Time {
	out := make([]time.Time, len(p))
	for i, b := range p {
		out[i] = b.Time
	}
	return out
}

// Last returns the most recent bar.
func (p PriceSeries) Last() (Bar, bool) {
	if len(p) == 0 {
		return Bar{}, false
	}
	return p[len(p)-1], true
}

func minLen(lengths ...int) int {
	if len(lengths) == 0 {
		return 0
	}
	n := lengths[0]
	for _, l := range lengths[1:] {
		if l < n {
			n = l
		}
	}
	return n
}
