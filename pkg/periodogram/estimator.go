package periodogram

import "context"

// Estimator turns one window of an uneven time series into a spectrum sampled
// at the given frequencies (expressed in unit).
//
// Errors wrapping ErrDegenerateWindow report that the window's data cannot
// support an estimate. Any other error is treated as a real failure.
type Estimator interface {
	Estimate(ctx context.Context, time, flux, frequencies []float64, unit FrequencyUnit, norm Normalization) ([]float64, error)
}

// EstimatorFunc adapts a function to the Estimator interface.
type EstimatorFunc func(ctx context.Context, time, flux, frequencies []float64, unit FrequencyUnit, norm Normalization) ([]float64, error)

// Estimate calls f.
func (f EstimatorFunc) Estimate(ctx context.Context, time, flux, frequencies []float64, unit FrequencyUnit, norm Normalization) ([]float64, error) {
	return f(ctx, time, flux, frequencies, unit, norm)
}
