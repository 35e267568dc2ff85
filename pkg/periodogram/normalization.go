package periodogram

import "strings"

// Normalization selects what the periodogram cells hold.
type Normalization string

const (
	// Amplitude gives the semi-amplitude of the best-fit sinusoid, in flux units.
	Amplitude Normalization = "amplitude"
	// PSD gives power spectral density, in flux^2 per frequency unit.
	PSD Normalization = "psd"
)

// Valid reports whether n is a supported normalization.
func (n Normalization) Valid() bool {
	return n == Amplitude || n == PSD
}

// ParseNormalization maps user input onto a Normalization.
func ParseNormalization(s string) (Normalization, error) {
	switch n := Normalization(strings.ToLower(strings.TrimSpace(s))); n {
	case Amplitude, PSD:
		return n, nil
	case "power":
		return PSD, nil
	default:
		return "", invalidf("unknown normalization %q (want amplitude or psd)", s)
	}
}
