package periodogram

import "math"

// LightCurve is an unevenly sampled time series. Time is in days and is
// expected, but not required, to be increasing.
type LightCurve struct {
	Time []float64 `json:"time"`
	Flux []float64 `json:"flux"`
}

// Len returns the number of samples.
func (lc LightCurve) Len() int {
	return len(lc.Time)
}

// Validate checks the invariants every computation relies on.
func (lc LightCurve) Validate() error {
	if len(lc.Time) == 0 {
		return invalidf("light curve is empty")
	}
	if len(lc.Time) != len(lc.Flux) {
		return invalidf("light curve has %d times but %d fluxes", len(lc.Time), len(lc.Flux))
	}
	for i := range lc.Time {
		if math.IsNaN(lc.Time[i]) || math.IsInf(lc.Time[i], 0) {
			return invalidf("time[%d] is not finite", i)
		}
		if math.IsNaN(lc.Flux[i]) || math.IsInf(lc.Flux[i], 0) {
			return invalidf("flux[%d] is not finite", i)
		}
	}
	return nil
}

// Slice returns the samples inside w, in their original order.
func (lc LightCurve) Slice(w Window) LightCurve {
	var out LightCurve
	for i, t := range lc.Time {
		if w.Contains(t) {
			out.Time = append(out.Time, t)
			out.Flux = append(out.Flux, lc.Flux[i])
		}
	}
	return out
}

// Finite returns lc without the samples whose time or flux is NaN or
// infinite, and how many were dropped. lc is returned unchanged when every
// sample is finite. Time and Flux must have the same length.
func (lc LightCurve) Finite() (LightCurve, int) {
	keep := 0
	for i := range lc.Time {
		if isFinite(lc.Time[i]) && isFinite(lc.Flux[i]) {
			keep++
		}
	}
	if keep == len(lc.Time) {
		return lc, 0
	}

	out := LightCurve{
		Time: make([]float64, 0, keep),
		Flux: make([]float64, 0, keep),
	}
	for i := range lc.Time {
		if isFinite(lc.Time[i]) && isFinite(lc.Flux[i]) {
			out.Time = append(out.Time, lc.Time[i])
			out.Flux = append(out.Flux, lc.Flux[i])
		}
	}
	return out, len(lc.Time) - keep
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
