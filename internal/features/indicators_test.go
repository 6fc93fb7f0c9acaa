package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovingAverage_WarmUpAndTrailingMean(t *testing.T) {
	values := make([]float64, 60)
	for i := range values {
		values[i] = float64(i + 1)
	}

	sma := MovingAverage(values, 20)
	require.Len(t, sma, 60)

	for i := 0; i < 19; i++ {
		assert.True(t, math.IsNaN(sma[i]), "position %d should be in warm-up", i)
	}
	// mean of 1..20
	assert.InDelta(t, 10.5, sma[19], 1e-12)
	// mean of 41..60
	assert.InDelta(t, 50.5, sma[59], 1e-12)
}

func TestMovingAverage_NaNInWindow(t *testing.T) {
	values := []float64{1, 2, math.NaN(), 4, 5, 6}
	sma := MovingAverage(values, 2)

	assert.True(t, math.IsNaN(sma[0]))
	assert.InDelta(t, 1.5, sma[1], 1e-12)
	assert.True(t, math.IsNaN(sma[2]))
	assert.True(t, math.IsNaN(sma[3]))
	assert.InDelta(t, 4.5, sma[4], 1e-12)
	assert.InDelta(t, 5.5, sma[5], 1e-12)
}

func TestMovingAverage_ShortSeries(t *testing.T) {
	sma := MovingAverage([]float64{1, 2, 3}, 50)
	require.Len(t, sma, 3)
	for _, v := range sma {
		assert.True(t, math.IsNaN(v))
	}

	assert.Empty(t, MovingAverage(nil, 20))
}

func TestMovingAverage_NonPositiveWindow(t *testing.T) {
	sma := MovingAverage([]float64{1, 2}, 0)
	require.Len(t, sma, 2)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
}
