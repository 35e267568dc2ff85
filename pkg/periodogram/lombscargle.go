package periodogram

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// cancelStride is how many frequencies are evaluated between context checks.
const cancelStride = 256

// LombScargle is the classic Lomb-Scargle estimator on mean-subtracted flux.
//
// Raw power follows the Scargle (1982) definition, so a sinusoid of
// semi-amplitude A sampled N times gives P ~ N*A^2/4 at its frequency.
// Amplitude normalization returns sqrt(4P/N); PSD returns 2PT/N with T the
// window baseline expressed in inverse frequency units.
type LombScargle struct {
	// MinSamples is the smallest window that is estimated. Values below 2
	// are raised to 2.
	MinSamples int
}

// NewLombScargle returns the default estimator.
func NewLombScargle() *LombScargle {
	return &LombScargle{MinSamples: 2}
}

// Estimate implements Estimator.
func (ls *LombScargle) Estimate(ctx context.Context, time, flux, frequencies []float64, unit FrequencyUnit, norm Normalization) ([]float64, error) {
	if len(time) != len(flux) {
		return nil, fmt.Errorf("lombscargle: %d times but %d fluxes", len(time), len(flux))
	}
	if !unit.Valid() {
		return nil, invalidf("unknown frequency unit %d", int(unit))
	}
	if !norm.Valid() {
		return nil, invalidf("unknown normalization %q", norm)
	}

	n := len(time)
	minSamples := max(ls.MinSamples, 2)
	if n < minSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewSamples, n, minSamples)
	}
	tmin, tmax := minMax(time)
	baseline := tmax - tmin
	if !(baseline > 0) {
		return nil, ErrZeroBaseline
	}

	// Shift to the window start so large epochs (BJD) keep phase precision.
	t := make([]float64, n)
	for i := range time {
		t[i] = time[i] - tmin
	}
	mean := vecmath.Sum(flux) / float64(n)
	y := make([]float64, n)
	for i := range flux {
		y[i] = flux[i] - mean
	}

	cosBuf := make([]float64, n)
	sinBuf := make([]float64, n)
	power := make([]float64, len(frequencies))
	tiny := 1e-12 * float64(n)

	for j, f := range frequencies {
		if j%cancelStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		omega := 2 * math.Pi * unit.ToPerDay(f)
		if omega == 0 {
			continue
		}

		for i := range t {
			sinBuf[i], cosBuf[i] = math.Sincos(2 * omega * t[i])
		}
		tau := math.Atan2(vecmath.Sum(sinBuf), vecmath.Sum(cosBuf)) / (2 * omega)

		for i := range t {
			sinBuf[i], cosBuf[i] = math.Sincos(omega * (t[i] - tau))
		}
		yc := vecmath.DotProduct(y, cosBuf)
		cc := vecmath.DotProduct(cosBuf, cosBuf)
		ys := vecmath.DotProduct(y, sinBuf)
		ss := vecmath.DotProduct(sinBuf, sinBuf)

		var p float64
		if cc > tiny {
			p += yc * yc / cc
		}
		if ss > tiny {
			p += ys * ys / ss
		}
		power[j] = 0.5 * p
	}

	switch norm {
	case Amplitude:
		vecmath.ScaleBlockInPlace(power, 4/float64(n))
		for j := range power {
			power[j] = math.Sqrt(power[j])
		}
	case PSD:
		// One day is 1/PerDay() inverse units, so the baseline divides.
		vecmath.ScaleBlockInPlace(power, 2*(baseline/unit.PerDay())/float64(n))
	}

	for j, p := range power {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w at frequency %g", ErrNonFinite, frequencies[j])
		}
	}
	return power, nil
}
