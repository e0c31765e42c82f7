package indicator

// DefaultVolumeWindow is the window used for the volume moving average.
const DefaultVolumeWindow = 20

// OBV returns on-balance volume. The first value is that sample's volume;
// afterwards volume is added on an up close, subtracted on a down close and
// ignored when the close is unchanged.
func OBV(close, volume []float64) Series {
	n := minLen(len(close), len(volume))
	out := make(Series, n)
	if n == 0 {
		return out
	}
	acc := volume[0]
	out[0] = acc
	for i := 1; i < n; i++ {
		switch {
		case close[i] > close[i-1]:
			acc += volume[i]
		case close[i] < close[i-1]:
			acc -= volume[i]
		}
		out[i] = acc
	}
	return out
}

// VolumeSMA is the trailing mean of volume.
func VolumeSMA(volume []float64, window int) Series {
	return SMA(volume, window)
}
