package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/runningls/pkg/periodogram"
)

func f(v float64) *float64 { return &v }

func TestPeriodogramOptions_Apply(t *testing.T) {
	base := periodogram.DefaultOptions()

	opts, err := PeriodogramOptions{}.Apply(base)
	require.NoError(t, err)
	assert.Equal(t, base, opts)

	opts, err = PeriodogramOptions{
		SegmentLength: f(10),
		StepSize:      f(2),
		FrequencyUnit: "c/d",
		MaxFrequency:  f(24),
		Oversample:    f(10),
		Normalization: "psd",
	}.Apply(base)
	require.NoError(t, err)
	assert.Equal(t, 10.0, opts.SegmentLength)
	assert.Equal(t, 2.0, opts.StepSize)
	assert.Equal(t, periodogram.PerDay, opts.Unit)
	assert.Equal(t, 24.0, *opts.MaxFrequency)
	assert.Nil(t, opts.MinFrequency)
	assert.Equal(t, 10.0, opts.Oversample)
	assert.Equal(t, periodogram.PSD, opts.Normalization)
}

func TestPeriodogramOptions_ApplyInvalid(t *testing.T) {
	tests := []PeriodogramOptions{
		{FrequencyUnit: "rpm"},
		{Normalization: "log"},
		{SegmentLength: f(0)},
		{MinFrequency: f(-1)},
	}
	for _, o := range tests {
		_, err := o.Apply(periodogram.DefaultOptions())
		assert.ErrorIs(t, err, periodogram.ErrInvalidInput)
	}
}

func TestPeriodogramData_RoundTrip(t *testing.T) {
	m, ok := periodogram.MatrixFromRows([][]float64{{0, 1}, {2, 3}})
	require.True(t, ok)
	res := &periodogram.Result{
		Frequencies:   []float64{0, 11.57},
		Windows:       []periodogram.Window{{Start: 0, Stop: 5}, {Start: 1, Stop: 6}},
		WindowCenters: []float64{2.5, 3.5},
		Matrix:        m,
		Failures:      []periodogram.WindowFailure{{Index: 1, Start: 1, Stop: 6, Reason: "degenerate window: too few samples"}},
		Unit:          periodogram.MicroHertz,
		Normalization: periodogram.Amplitude,
	}

	data := NewPeriodogramData(res)
	assert.Equal(t, []float64{0, 1}, data.WindowStarts)
	assert.Equal(t, []float64{5, 6}, data.WindowStops)
	assert.Equal(t, "uHz", data.Unit)

	b, err := json.Marshal(data)
	require.NoError(t, err)
	var decoded PeriodogramData
	require.NoError(t, json.Unmarshal(b, &decoded))

	back, err := decoded.Result()
	require.NoError(t, err)
	assert.Equal(t, res, back)
}

func TestPeriodogramData_Empty(t *testing.T) {
	res := &periodogram.Result{
		Frequencies:   []float64{0, 1, 2},
		Windows:       []periodogram.Window{},
		WindowCenters: []float64{},
		Matrix:        periodogram.NewMatrix(0, 3),
		Unit:          periodogram.PerDay,
		Normalization: periodogram.PSD,
	}

	data := NewPeriodogramData(res)
	assert.NotNil(t, data.Failures)
	assert.Empty(t, data.Matrix)

	back, err := data.Result()
	require.NoError(t, err)
	assert.Equal(t, 0, back.Matrix.Rows)
	assert.Equal(t, 3, back.Matrix.Cols)
}
