package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollinger_BandWidth(t *testing.T) {
	t.Parallel()

	for _, k := range []float64{1, 2, 2.5} {
		bb := Bollinger(sampleCloses, 20, k)
		std := RollingStd(sampleCloses, 20)
		mid := SMA(sampleCloses, 20)
		require.Equal(t, 19, bb.Middle.FirstDefined())
		for i := range sampleCloses {
			if !bb.Middle.Defined(i) {
				assert.True(t, IsUndefined(bb.Upper[i]))
				assert.True(t, IsUndefined(bb.Lower[i]))
				continue
			}
			assert.Equal(t, mid[i], bb.Middle[i])
			assert.InDelta(t, 2*k*std[i], bb.Upper[i]-bb.Lower[i], 1e-9, "k=%v index=%d", k, i)
		}
	}
}

func TestTrueRangeAndATR(t *testing.T) {
	t.Parallel()

	high := []float64{10, 12, 11}
	low := []float64{8, 11, 7}
	close := []float64{9, 11.5, 8}

	tr := TrueRange(high, low, close)
	// 0: 10-8
	// 1: max(1, |12-9|, |11-9|) = 3
	// 2: max(4, |11-11.5|, |7-11.5|) = 4.5
	assert.Equal(t, Series{2, 3, 4.5}, tr)

	atr := ATR(high, low, close, 2)
	assert.True(t, IsUndefined(atr[0]))
	assert.InDelta(t, 2.5, atr[1], 1e-12)
	assert.InDelta(t, 3.75, atr[2], 1e-12)
}

func TestOBV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		close  []float64
		volume []float64
		want   Series
	}{
		{
			name:   "seeded with first volume",
			close:  []float64{10, 11, 10, 10, 12},
			volume: []float64{100, 200, 50, 70, 30},
			want:   Series{100, 300, 250, 250, 280},
		},
		{
			name:   "empty",
			close:  nil,
			volume: nil,
			want:   Series{},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, OBV(tt.close, tt.volume))
		})
	}
}

func TestVolumeSMA(t *testing.T) {
	t.Parallel()

	v := VolumeSMA([]float64{100, 200, 300}, 2)
	assert.True(t, IsUndefined(v[0]))
	assert.InDelta(t, 150, v[1], 1e-12)
	assert.InDelta(t, 250, v[2], 1e-12)
}
