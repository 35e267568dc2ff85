package render

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/runningls/pkg/periodogram"
)

func sampleResult(t *testing.T) *periodogram.Result {
	t.Helper()
	m, ok := periodogram.MatrixFromRows([][]float64{
		{0, 0.2, 0.8, 0.1},
		{0, 0.3, 0.9, 0.2},
		{0, 0.1, 0.7, 0.1},
	})
	require.True(t, ok)
	return &periodogram.Result{
		Frequencies:   []float64{0, 10, 20, 30},
		Windows:       []periodogram.Window{{Start: 0, Stop: 5}, {Start: 1, Stop: 6}, {Start: 2, Stop: 7}},
		WindowCenters: []float64{2.5, 3.5, 4.5},
		Matrix:        m,
		Unit:          periodogram.MicroHertz,
		Normalization: periodogram.Amplitude,
	}
}

func emptyResult() *periodogram.Result {
	return &periodogram.Result{
		Frequencies:   []float64{0, 10},
		Matrix:        periodogram.NewMatrix(0, 2),
		Unit:          periodogram.MicroHertz,
		Normalization: periodogram.Amplitude,
	}
}

func decode(t *testing.T, b []byte) (w, h int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRender_PNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(t), DefaultConfig()))

	w, h := decode(t, buf.Bytes())
	assert.Equal(t, 600, w)
	assert.Equal(t, 400, h)
}

func TestRender_Options(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero config", Config{}},
		{"reversed brewer", Config{Colormap: "YlOrRd_r", ShowColorbar: true}},
		{"diverging brewer", Config{Colormap: "RdBu", ShowColorbar: true}},
		{"moreland", Config{Colormap: "Kindlmann", ShowColorbar: true}},
		{"diverging moreland reversed", Config{Colormap: "SmoothBlueRed_r", ShowColorbar: true}},
		{"explicit limits", Config{VMin: ptr(0.1), VMax: ptr(0.5), ShowColorbar: true}},
		{"narrow figure drops color bar", Config{Width: 1.6, Height: 3, DPI: 72, ShowColorbar: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, sampleResult(t), tt.cfg))
			decode(t, buf.Bytes())
		})
	}
}

func TestRender_EmptyResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, emptyResult(), DefaultConfig()))
	decode(t, buf.Bytes())
}

func TestRender_FlatMatrix(t *testing.T) {
	res := sampleResult(t)
	for i := range res.Matrix.Data {
		res.Matrix.Data[i] = 0
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, DefaultConfig()))
	decode(t, buf.Bytes())
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer

	assert.Error(t, Render(&buf, nil, DefaultConfig()))

	cfg := DefaultConfig()
	cfg.Colormap = "NotAColormap"
	assert.ErrorContains(t, Render(&buf, sampleResult(t), cfg), "unknown colormap")

	cfg = DefaultConfig()
	cfg.VMin, cfg.VMax = ptr(2), ptr(1)
	assert.ErrorContains(t, Render(&buf, sampleResult(t), cfg), "vmin")
}

func TestSave(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, Save(sampleResult(t), cfg))

	b, err := os.ReadFile(cfg.OutputPath)
	require.NoError(t, err)
	decode(t, b)

	assert.Error(t, Save(sampleResult(t), DefaultConfig()))
}

func TestShow_UsesViewer(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true binary available")
	}

	cfg := DefaultConfig()
	cfg.Viewer = truePath
	path, err := Show(context.Background(), sampleResult(t), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	decode(t, b)
}

func TestShow_MissingViewer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Viewer = filepath.Join(t.TempDir(), "no-such-viewer")
	path, err := Show(context.Background(), sampleResult(t), cfg)
	assert.Error(t, err)
	if path != "" {
		os.Remove(path)
	}
}

func ptr(f float64) *float64 { return &f }
