package domain

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Savgol smooths x with a degree-1 Savitzky-Golay filter of the given odd
// window. Interior points are the least-squares line of the centered window
// evaluated at its center; the first and last half-window are evaluated on
// the line fitted to the first and last full window.
//
// A series shorter than window uses the largest odd window that fits. When
// that window is 1 or less the series is returned unchanged, since a line
// needs at least 3 points to smooth anything.
func Savgol(x []float64, window int) []float64 {
	out := slices.Clone(x)
	w := effectiveWindow(len(x), window)
	if w <= 1 {
		return out
	}

	half := w / 2
	for i := half; i < len(x)-half; i++ {
		out[i] = stat.Mean(x[i-half:i+half+1], nil)
	}

	pos := make([]float64, w)
	for i := range pos {
		pos[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(pos, x[:w], nil, false)
	for i := 0; i < half; i++ {
		out[i] = alpha + beta*pos[i]
	}

	start := len(x) - w
	alpha, beta = stat.LinearRegression(pos, x[start:], nil, false)
	for i := len(x) - half; i < len(x); i++ {
		out[i] = alpha + beta*pos[i-start]
	}
	return out
}

// effectiveWindow returns the odd window Savgol actually uses for a series
// of length n.
func effectiveWindow(n, window int) int {
	if window%2 == 0 {
		window--
	}
	if n >= window {
		return window
	}
	// largest odd number <= n
	return (n+1)/2*2 - 1
}

// RollingMean is the trailing mean over up to window observations, skipping
// missing values. A position with no observed value in its window is NaN.
func RollingMean(x []float64, window int) []float64 {
	out := make([]float64, len(x))
	buf := make([]float64, 0, window)
	for i := range x {
		buf = buf[:0]
		for j := max(0, i-window+1); j <= i; j++ {
			if !isMissing(x[j]) {
				buf = append(buf, x[j])
			}
		}
		if len(buf) == 0 {
			out[i] = nan()
			continue
		}
		out[i] = stat.Mean(buf, nil)
	}
	return out
}
