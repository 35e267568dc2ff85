package periodogram

import (
	"fmt"
	"strings"
)

// FrequencyUnit is one of the supported frequency units. Every unit is
// defined by its factor relative to cycles per day.
type FrequencyUnit int

const (
	MicroHertz FrequencyUnit = iota
	PerDay
	Hertz
	MilliHertz
	NanoHertz
)

const secondsPerDay = 86400.0

// PerDay returns how many of u make up one cycle per day.
func (u FrequencyUnit) PerDay() float64 {
	switch u {
	case PerDay:
		return 1
	case Hertz:
		return 1 / secondsPerDay
	case MilliHertz:
		return 1e3 / secondsPerDay
	case MicroHertz:
		return 1e6 / secondsPerDay
	case NanoHertz:
		return 1e9 / secondsPerDay
	default:
		return 0
	}
}

// Valid reports whether u is a known unit.
func (u FrequencyUnit) Valid() bool {
	return u.PerDay() > 0
}

func (u FrequencyUnit) String() string {
	switch u {
	case PerDay:
		return "1/d"
	case Hertz:
		return "Hz"
	case MilliHertz:
		return "mHz"
	case MicroHertz:
		return "uHz"
	case NanoHertz:
		return "nHz"
	default:
		return fmt.Sprintf("FrequencyUnit(%d)", int(u))
	}
}

// FromPerDay converts a frequency in cycles per day into u.
func (u FrequencyUnit) FromPerDay(f float64) float64 {
	return f * u.PerDay()
}

// ToPerDay converts a frequency expressed in u into cycles per day.
func (u FrequencyUnit) ToPerDay(f float64) float64 {
	return f / u.PerDay()
}

var unitAliases = map[string]FrequencyUnit{
	"1/d":        PerDay,
	"1/day":      PerDay,
	"c/d":        PerDay,
	"cd":         PerDay,
	"perday":     PerDay,
	"per_day":    PerDay,
	"hz":         Hertz,
	"hertz":      Hertz,
	"mhz":        MilliHertz,
	"millihertz": MilliHertz,
	"uhz":        MicroHertz,
	"µhz":        MicroHertz,
	"μhz":        MicroHertz,
	"microhertz": MicroHertz,
	"nhz":        NanoHertz,
	"nanohertz":  NanoHertz,
}

// ParseFrequencyUnit accepts unit symbols and spelled-out names, case-insensitively.
// "mHz" and "MHz" both fold to millihertz; megahertz has no place on a light curve.
func ParseFrequencyUnit(s string) (FrequencyUnit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if u, ok := unitAliases[key]; ok {
		return u, nil
	}
	return 0, invalidf("unknown frequency unit %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (u FrequencyUnit) MarshalText() ([]byte, error) {
	if !u.Valid() {
		return nil, invalidf("unknown frequency unit %d", int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *FrequencyUnit) UnmarshalText(b []byte) error {
	parsed, err := ParseFrequencyUnit(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
