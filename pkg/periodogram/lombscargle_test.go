package periodogram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLombScargle_RecoversAmplitude(t *testing.T) {
	time := jitteredTimes(0.02, 250)
	flux := sinusoid(time, 3, 0.01)

	power, err := NewLombScargle().Estimate(context.Background(), time, flux, []float64{3, 7.3}, PerDay, Amplitude)
	require.NoError(t, err)
	require.Len(t, power, 2)

	assert.InEpsilon(t, 0.01, power[0], 0.05)
	assert.Less(t, power[1], 0.002)
}

func TestLombScargle_UnitIndependentAmplitude(t *testing.T) {
	time := jitteredTimes(0.02, 250)
	flux := sinusoid(time, 3, 0.01)
	ls := NewLombScargle()

	perDay, err := ls.Estimate(context.Background(), time, flux, []float64{2.5, 3}, PerDay, Amplitude)
	require.NoError(t, err)
	micro, err := ls.Estimate(context.Background(), time, flux,
		[]float64{MicroHertz.FromPerDay(2.5), MicroHertz.FromPerDay(3)}, MicroHertz, Amplitude)
	require.NoError(t, err)

	assert.InDeltaSlice(t, perDay, micro, 1e-9)
}

func TestLombScargle_PSDScaling(t *testing.T) {
	time := jitteredTimes(0.02, 250)
	flux := sinusoid(time, 3, 0.01)
	freqs := []float64{1.5, 3}
	ls := NewLombScargle()

	amp, err := ls.Estimate(context.Background(), time, flux, freqs, PerDay, Amplitude)
	require.NoError(t, err)
	psd, err := ls.Estimate(context.Background(), time, flux, freqs, PerDay, PSD)
	require.NoError(t, err)

	// amplitude^2 = 4P/N and psd = 2PT/N, so psd = amplitude^2 * T/2.
	baseline := time[len(time)-1] - time[0]
	for j := range freqs {
		assert.InEpsilon(t, amp[j]*amp[j]*baseline/2, psd[j], 1e-9)
	}

	// Microhertz baseline is measured in 1/uHz.
	psdMicro, err := ls.Estimate(context.Background(), time, flux,
		[]float64{MicroHertz.FromPerDay(3)}, MicroHertz, PSD)
	require.NoError(t, err)
	assert.InEpsilon(t, psd[1]/MicroHertz.PerDay(), psdMicro[0], 1e-9)
}

func TestLombScargle_ZeroFrequency(t *testing.T) {
	time := jitteredTimes(0.02, 100)
	flux := sinusoid(time, 3, 0.01)

	power, err := NewLombScargle().Estimate(context.Background(), time, flux, []float64{0, 3}, PerDay, Amplitude)
	require.NoError(t, err)
	assert.Equal(t, 0.0, power[0])
	assert.Greater(t, power[1], 0.0)
}

func TestLombScargle_LargeEpoch(t *testing.T) {
	base := jitteredTimes(0.02, 250)
	shifted := make([]float64, len(base))
	for i, v := range base {
		shifted[i] = v + 2458000
	}
	flux := sinusoid(base, 3, 0.01)
	ls := NewLombScargle()

	want, err := ls.Estimate(context.Background(), base, flux, []float64{3}, PerDay, Amplitude)
	require.NoError(t, err)
	got, err := ls.Estimate(context.Background(), shifted, flux, []float64{3}, PerDay, Amplitude)
	require.NoError(t, err)

	assert.InEpsilon(t, want[0], got[0], 1e-6)
}

func TestLombScargle_DegenerateWindows(t *testing.T) {
	tests := []struct {
		name    string
		ls      *LombScargle
		time    []float64
		flux    []float64
		wantErr error
	}{
		{"no samples", NewLombScargle(), nil, nil, ErrTooFewSamples},
		{"one sample", NewLombScargle(), []float64{1}, []float64{1}, ErrTooFewSamples},
		{"zero baseline", NewLombScargle(), []float64{2, 2, 2}, []float64{1, 2, 3}, ErrZeroBaseline},
		{"below configured minimum", &LombScargle{MinSamples: 10}, evenTimes(0, 1, 5), make([]float64, 5), ErrTooFewSamples},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.ls.Estimate(context.Background(), tt.time, tt.flux, []float64{1}, PerDay, Amplitude)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrDegenerateWindow)
		})
	}
}

func TestLombScargle_ProgrammingErrorsAreNotDegenerate(t *testing.T) {
	ls := NewLombScargle()

	_, err := ls.Estimate(context.Background(), []float64{1, 2}, []float64{1}, []float64{1}, PerDay, Amplitude)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDegenerateWindow)

	_, err = ls.Estimate(context.Background(), []float64{1, 2}, []float64{1, 2}, []float64{1}, PerDay, Normalization("log"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrDegenerateWindow)
}

func TestLombScargle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	time := jitteredTimes(0.02, 100)
	_, err := NewLombScargle().Estimate(ctx, time, sinusoid(time, 3, 0.01), []float64{1, 2}, PerDay, Amplitude)
	assert.ErrorIs(t, err, context.Canceled)
}
