package periodogram

import "math"

// Window is a half-open time interval [Start, Stop) in days.
type Window struct {
	Start float64 `json:"start"`
	Stop  float64 `json:"stop"`
}

// Center returns the window midpoint.
func (w Window) Center() float64 {
	return (w.Start + w.Stop) / 2
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t < w.Stop
}

// Size limits on a single run. Plans that exceed them fail with
// ErrInvalidInput before anything is allocated.
const (
	MaxWindows     = 1 << 20
	MaxFrequencies = 1 << 20
	// MaxCells bounds windows x frequencies, 512 MiB of float64.
	MaxCells = 1 << 26
)

// PlanWindows lays sliding windows of length seglength over the span of time,
// stepping by stepsize. The last start is allowed to land on
// max(time)-seglength; half a step of slack absorbs rounding in the step
// count. A span shorter than seglength yields no windows. More than
// MaxWindows windows is an error.
func PlanWindows(time []float64, seglength, stepsize float64) ([]Window, error) {
	if len(time) == 0 || !(seglength > 0) || !(stepsize > 0) {
		return nil, nil
	}
	tmin, tmax := minMax(time)

	starts, err := arange(tmin, tmax-seglength+stepsize/2, stepsize, MaxWindows, "window plan")
	if err != nil {
		return nil, err
	}
	windows := make([]Window, len(starts))
	for i, s := range starts {
		windows[i] = Window{Start: s, Stop: s + seglength}
	}
	return windows, nil
}

// arange returns start, start+step, ... strictly below stop, with the element
// count fixed up front as ceil((stop-start)/step). Counts above limit, or too
// large to represent, are rejected before allocating.
func arange(start, stop, step float64, limit int, what string) ([]float64, error) {
	span := (stop - start) / step
	if math.IsNaN(span) || span <= 0 {
		return nil, nil
	}
	count := math.Ceil(span)
	if math.IsInf(count, 0) || count > float64(limit) {
		return nil, invalidf("%s needs %.3g points, limit is %d", what, count, limit)
	}
	out := make([]float64, int(count))
	for k := range out {
		out[k] = start + float64(k)*step
	}
	return out, nil
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}
