// Package periodogram computes running (sliding-window) Lomb-Scargle
// periodograms of unevenly sampled light curves.
//
// A run plans windows over the time axis, builds one frequency grid shared by
// every window, and estimates a spectrum per window. Windows whose data cannot
// support an estimate are left as zero rows and reported as failures.
package periodogram

import (
	"context"
	"math"

	"github.com/rs/zerolog"
)

// Default values mirror the interactive tool this package grew out of.
const (
	DefaultSegmentLength = 5.0
	DefaultStepSize      = 1.0
	DefaultOversample    = 5.0
	DefaultUnit          = MicroHertz
	DefaultNormalization = Amplitude
)

// Options configures Compute. Use DefaultOptions and override fields.
type Options struct {
	SegmentLength float64 // days
	StepSize      float64 // days
	Unit          FrequencyUnit
	MinFrequency  *float64 // in Unit; nil means 0
	MaxFrequency  *float64 // in Unit; nil means approximate Nyquist
	Oversample    float64
	Normalization Normalization

	Workers   int
	Estimator Estimator
	Progress  ProgressReporter
	Logger    *zerolog.Logger
}

// DefaultOptions returns 5 day windows stepped by 1 day, a 5x oversampled
// microhertz grid and amplitude normalization.
func DefaultOptions() Options {
	return Options{
		SegmentLength: DefaultSegmentLength,
		StepSize:      DefaultStepSize,
		Unit:          DefaultUnit,
		Oversample:    DefaultOversample,
		Normalization: DefaultNormalization,
	}
}

// Validate reports the first option that makes a run impossible.
func (o Options) Validate() error {
	if !(o.SegmentLength > 0) || math.IsInf(o.SegmentLength, 0) {
		return invalidf("segment length must be positive, got %g", o.SegmentLength)
	}
	if !(o.StepSize > 0) || math.IsInf(o.StepSize, 0) {
		return invalidf("step size must be positive, got %g", o.StepSize)
	}
	if !(o.Oversample > 0) || math.IsInf(o.Oversample, 0) {
		return invalidf("oversample factor must be positive, got %g", o.Oversample)
	}
	if !o.Unit.Valid() {
		return invalidf("unknown frequency unit %d", int(o.Unit))
	}
	if !o.Normalization.Valid() {
		return invalidf("unknown normalization %q", o.Normalization)
	}
	if f := o.MinFrequency; f != nil && (*f < 0 || math.IsNaN(*f) || math.IsInf(*f, 0)) {
		return invalidf("minimum frequency must be finite and non-negative, got %g", *f)
	}
	if f := o.MaxFrequency; f != nil && (*f < 0 || math.IsNaN(*f) || math.IsInf(*f, 0)) {
		return invalidf("maximum frequency must be finite and non-negative, got %g", *f)
	}
	return nil
}

// Result is a finished running periodogram.
type Result struct {
	Frequencies   []float64
	Windows       []Window
	WindowCenters []float64
	Matrix        *Matrix
	Failures      []WindowFailure
	Unit          FrequencyUnit
	Normalization Normalization
}

// Succeeded returns the number of windows with an estimate.
func (r *Result) Succeeded() int {
	return len(r.Windows) - len(r.Failures)
}

// Compute runs a sliding-window periodogram over lc. Samples with a NaN or
// infinite time or flux are dropped first. Only invalid input is fatal;
// degenerate windows come back as zero rows listed in Result.Failures.
func Compute(ctx context.Context, lc LightCurve, opts Options) (*Result, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	if len(lc.Time) != len(lc.Flux) {
		return nil, invalidf("light curve has %d times but %d fluxes", len(lc.Time), len(lc.Flux))
	}
	lc, dropped := lc.Finite()
	if dropped > 0 {
		if lc.Len() == 0 {
			return nil, invalidf("light curve has no finite samples, %d dropped", dropped)
		}
		logger.Warn().Int("dropped", dropped).Int("kept", lc.Len()).Msg("Dropped non-finite samples")
	}
	if err := lc.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	windows, err := PlanWindows(lc.Time, opts.SegmentLength, opts.StepSize)
	if err != nil {
		return nil, err
	}
	freqs, err := BuildGrid(lc.Time, opts.SegmentLength, opts.Unit, opts.MinFrequency, opts.MaxFrequency, opts.Oversample)
	if err != nil {
		return nil, err
	}
	if cells := len(windows) * len(freqs); cells > MaxCells {
		return nil, invalidf("%d windows x %d frequencies is %d cells, limit is %d", len(windows), len(freqs), cells, MaxCells)
	}

	est := opts.Estimator
	if est == nil {
		est = NewLombScargle()
	}
	engine := NewEngine(est)
	engine.Workers = opts.Workers
	if opts.Progress != nil {
		engine.Progress = opts.Progress
	}
	engine.Logger = logger

	engine.Logger.Debug().
		Int("samples", lc.Len()).
		Int("windows", len(windows)).
		Int("frequencies", len(freqs)).
		Str("unit", opts.Unit.String()).
		Str("normalization", string(opts.Normalization)).
		Msg("Computing running periodogram")

	m, failures, err := engine.Run(ctx, lc, windows, freqs, opts.Unit, opts.Normalization)
	if err != nil {
		return nil, err
	}

	centers := make([]float64, len(windows))
	for i, w := range windows {
		centers[i] = w.Center()
	}
	return &Result{
		Frequencies:   freqs,
		Windows:       windows,
		WindowCenters: centers,
		Matrix:        m,
		Failures:      failures,
		Unit:          opts.Unit,
		Normalization: opts.Normalization,
	}, nil
}
