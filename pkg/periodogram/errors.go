package periodogram

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for inputs that make the whole computation
	// meaningless: empty or mismatched series, non-positive lengths, unknown
	// units or normalizations.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateWindow marks an estimator failure caused by the data in a
	// single window. The engine zeroes the row and carries on.
	ErrDegenerateWindow = errors.New("degenerate window")

	ErrTooFewSamples = fmt.Errorf("%w: too few samples", ErrDegenerateWindow)
	ErrZeroBaseline  = fmt.Errorf("%w: zero time baseline", ErrDegenerateWindow)
	ErrNonFinite     = fmt.Errorf("%w: non-finite power", ErrDegenerateWindow)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// WindowFailure records a window whose estimate was recovered as a zero row.
type WindowFailure struct {
	Index   int     `json:"index"`
	Start   float64 `json:"start"`
	Stop    float64 `json:"stop"`
	Samples int     `json:"samples"`
	Reason  string  `json:"reason"`
}
