package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSavgol(t *testing.T) {
	t.Run("linear series is preserved", func(t *testing.T) {
		x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		assert.InDeltaSlice(t, x, Savgol(x, 7), 1e-9)
	})

	t.Run("single spike over exact window", func(t *testing.T) {
		// Line fit over the whole window is flat at the mean, and so is
		// the centered average.
		got := Savgol([]float64{0, 0, 0, 10, 0, 0, 0}, 7)
		for _, v := range got {
			assert.InDelta(t, 10.0/7, v, 1e-9)
		}
	})

	t.Run("interior is the centered mean", func(t *testing.T) {
		x := []float64{0, 0, 0, 7, 0, 0, 0, 0, 0}
		got := Savgol(x, 7)
		assert.InDelta(t, 1.0, got[3], 1e-9)
		assert.InDelta(t, 1.0, got[4], 1e-9)
		assert.InDelta(t, 1.0, got[5], 1e-9)
	})

	t.Run("short series shrinks the window", func(t *testing.T) {
		// 4 rows, window 7 -> window 3.
		got := Savgol([]float64{0, 3, 0, 3}, 7)
		assert.InDeltaSlice(t, []float64{1, 1, 2, 2}, got, 1e-9)
	})

	t.Run("two rows pass through", func(t *testing.T) {
		x := []float64{4, 9}
		assert.Equal(t, x, Savgol(x, 15))
	})

	t.Run("one row passes through", func(t *testing.T) {
		assert.Equal(t, []float64{3}, Savgol([]float64{3}, 7))
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Empty(t, Savgol(nil, 7))
	})

	t.Run("input is not modified", func(t *testing.T) {
		x := []float64{0, 0, 0, 10, 0, 0, 0}
		Savgol(x, 7)
		assert.Equal(t, []float64{0, 0, 0, 10, 0, 0, 0}, x)
	})
}

func TestEffectiveWindow(t *testing.T) {
	cases := []struct {
		n, window, want int
	}{
		{n: 100, window: 7, want: 7},
		{n: 7, window: 7, want: 7},
		{n: 6, window: 7, want: 5},
		{n: 5, window: 15, want: 5},
		{n: 4, window: 15, want: 3},
		{n: 3, window: 15, want: 3},
		{n: 2, window: 15, want: 1},
		{n: 1, window: 7, want: 1},
		{n: 20, window: 8, want: 7},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, effectiveWindow(tc.n, tc.window), "n=%d window=%d", tc.n, tc.window)
	}
}

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{2, 4, math.NaN(), 6, 8}, 3)
	assert.InDeltaSlice(t, []float64{2, 3, 3, 5, 7}, got, 1e-9)

	allMissing := RollingMean([]float64{math.NaN()}, 7)
	assert.True(t, math.IsNaN(allMissing[0]))
}
