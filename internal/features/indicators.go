package features

import "math"

// MovingAverage returns the trailing simple moving average of values.
// Positions before window-1 are NaN, as is any window that contains a NaN.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		// NaN propagates through the sum
		out[i] = sum / float64(window)
	}
	return out
}
