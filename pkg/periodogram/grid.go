package periodogram

import (
	"math"
	"slices"
)

// BuildGrid returns the frequency grid, in unit, shared by every window.
//
// minfreq defaults to zero and maxfreq to the approximate Nyquist frequency
// 0.5/median(diff(time)). The step is 1/(2*seglength*osample) cycles per day.
// The grid is the half-open range [minfreq, maxfreq) and is empty when
// maxfreq <= minfreq. Grids longer than MaxFrequencies are rejected.
func BuildGrid(time []float64, seglength float64, unit FrequencyUnit, minfreq, maxfreq *float64, osample float64) ([]float64, error) {
	if !unit.Valid() {
		return nil, invalidf("unknown frequency unit %d", int(unit))
	}
	if !(seglength > 0) || !(osample > 0) {
		return nil, invalidf("seglength and oversample must be positive, got %g and %g", seglength, osample)
	}

	lo := 0.0
	if minfreq != nil {
		lo = *minfreq
	}

	var hi float64
	if maxfreq != nil {
		hi = *maxfreq
	} else {
		nyq, err := NyquistFrequency(time, unit)
		if err != nil {
			return nil, err
		}
		hi = nyq
	}

	step := FrequencyStep(seglength, osample, unit)
	grid, err := arange(lo, hi, step, MaxFrequencies, "frequency grid")
	if err != nil {
		return nil, err
	}

	// ceil() on a ratio that rounded up can leave one element sitting on maxfreq.
	for len(grid) > 0 && grid[len(grid)-1] >= hi {
		grid = grid[:len(grid)-1]
	}
	return grid, nil
}

// FrequencyStep is the grid spacing 1/(2*seglength*osample) cycles/day, in unit.
func FrequencyStep(seglength, osample float64, unit FrequencyUnit) float64 {
	return 1. / (2. * seglength * osample) * unit.PerDay()
}

// NyquistFrequency approximates the Nyquist frequency of an uneven series
// from its median sampling interval. Time order is not checked: a series
// that mostly runs backwards has a negative median interval and so a negative
// Nyquist frequency, which leaves the default grid empty. A zero median
// interval has no Nyquist frequency and is an error.
func NyquistFrequency(time []float64, unit FrequencyUnit) (float64, error) {
	if len(time) < 2 {
		return 0, invalidf("need at least 2 samples to estimate the Nyquist frequency, got %d", len(time))
	}
	diffs := make([]float64, len(time)-1)
	for i := range diffs {
		diffs[i] = time[i+1] - time[i]
	}
	dt := median(diffs)
	if dt == 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return 0, invalidf("median sampling interval %g has no Nyquist frequency", dt)
	}
	return 0.5 * (1. / dt) * unit.PerDay(), nil
}

// median averages the two central values for even lengths.
func median(xs []float64) float64 {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
