package periodogram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// evenTimes returns n samples spaced dt apart starting at t0.
func evenTimes(t0, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = t0 + float64(i)*dt
	}
	return out
}

// jitteredTimes returns an unevenly sampled, still increasing time axis.
func jitteredTimes(dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)*dt + 0.25*dt*math.Sin(float64(i))
	}
	return out
}

func sinusoid(time []float64, freqPerDay, amplitude float64) []float64 {
	out := make([]float64, len(time))
	for i, t := range time {
		out[i] = 1 + amplitude*math.Sin(2*math.Pi*freqPerDay*t)
	}
	return out
}

func ptr(f float64) *float64 { return &f }

func planWindows(t *testing.T, time []float64, seglength, stepsize float64) []Window {
	t.Helper()
	windows, err := PlanWindows(time, seglength, stepsize)
	require.NoError(t, err)
	return windows
}
