// Package render draws running periodograms as time-frequency heat maps.
package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/RMahshie/runningls/pkg/periodogram"
)

const (
	// paletteSize is the number of discrete colors used for the heat map.
	paletteSize = 256

	colorbarWidth = 0.9 * vg.Inch
)

// Config controls how a result is drawn. The zero value is usable.
type Config struct {
	VMin     *float64 // lower color limit; defaults to the matrix minimum
	VMax     *float64 // upper color limit; defaults to the matrix maximum
	Colormap string

	Width  float64 // inches
	Height float64 // inches
	DPI    int

	ShowColorbar bool

	OutputPath string
	// Viewer opens the image for Show; empty picks the platform default.
	Viewer string
}

// DefaultConfig returns a 6x4 inch, 100 dpi figure with a color bar.
func DefaultConfig() Config {
	return Config{
		Colormap:     DefaultColormap,
		Width:        6,
		Height:       4,
		DPI:          100,
		ShowColorbar: true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Colormap == "" {
		c.Colormap = d.Colormap
	}
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.DPI <= 0 {
		c.DPI = d.DPI
	}
	return c
}

// Render writes res to w as a PNG image.
func Render(w io.Writer, res *periodogram.Result, cfg Config) error {
	if res == nil {
		return errors.New("render: nil result")
	}
	cfg = cfg.withDefaults()

	cm, err := Colormap(cfg.Colormap)
	if err != nil {
		return err
	}
	lo, hi, err := colorLimits(res.Matrix, cfg)
	if err != nil {
		return err
	}
	cm.SetMin(lo)
	cm.SetMax(hi)

	img := vgimg.NewWith(
		vgimg.UseWH(vg.Length(cfg.Width)*vg.Inch, vg.Length(cfg.Height)*vg.Inch),
		vgimg.UseDPI(cfg.DPI),
	)
	dc := draw.New(img)

	fig := heatMapPlot(res)
	if res.Matrix.Empty() || len(res.WindowCenters) == 0 {
		fig.Draw(dc)
	} else {
		hm := plotter.NewHeatMap(periodogramGrid{res: res}, cm.Palette(paletteSize))
		hm.Min, hm.Max = lo, hi
		hm.Underflow = hm.Palette.Colors()[0]
		hm.Overflow = hm.Palette.Colors()[paletteSize-1]
		hm.NaN = color.Transparent
		hm.Rasterized = true
		fig.Add(hm)

		if cfg.ShowColorbar && float64(dc.Size().X) > 2*float64(colorbarWidth) {
			fig.Draw(draw.Crop(dc, 0, -colorbarWidth, 0, 0))
			colorbarPlot(res, cm).Draw(draw.Crop(dc, dc.Size().X-colorbarWidth, 0, 0, 0))
		} else {
			fig.Draw(dc)
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

func heatMapPlot(res *periodogram.Result) *plot.Plot {
	p := plot.New()
	p.X.Label.Text = fmt.Sprintf("frequency (%s)", res.Unit)
	p.Y.Label.Text = "time (days)"
	if res.Matrix.Empty() || len(res.WindowCenters) == 0 {
		p.Title.Text = "no periodogram data"
	}
	return p
}

func colorbarPlot(res *periodogram.Result, cm palette.ColorMap) *plot.Plot {
	p := plot.New()
	p.HideX()
	p.Y.Label.Text = string(res.Normalization)
	p.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	return p
}

// colorLimits resolves the color range. A flat matrix gets a unit-wide range
// so the color bar has something to span.
func colorLimits(m *periodogram.Matrix, cfg Config) (lo, hi float64, err error) {
	if m != nil {
		lo, hi = m.Range()
	}
	if cfg.VMin != nil {
		lo = *cfg.VMin
	}
	if cfg.VMax != nil {
		hi = *cfg.VMax
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("render: vmin %g is greater than vmax %g", lo, hi)
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi, nil
}

// periodogramGrid adapts a result to plotter.GridXYZ: columns are
// frequencies and rows are window centers.
type periodogramGrid struct {
	res *periodogram.Result
}

func (g periodogramGrid) Dims() (c, r int)   { return g.res.Matrix.Cols, g.res.Matrix.Rows }
func (g periodogramGrid) Z(c, r int) float64 { return g.res.Matrix.At(r, c) }
func (g periodogramGrid) X(c int) float64    { return g.res.Frequencies[c] }
func (g periodogramGrid) Y(r int) float64    { return g.res.WindowCenters[r] }

// Save renders res to cfg.OutputPath.
func Save(res *periodogram.Result, cfg Config) (err error) {
	if cfg.OutputPath == "" {
		return errors.New("render: no output path")
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", cfg.OutputPath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Render(f, res, cfg)
}

// Show renders res to a temporary file and opens it in an image viewer.
// It returns the path of the image, which is left in place for the viewer.
func Show(ctx context.Context, res *periodogram.Result, cfg Config) (string, error) {
	f, err := os.CreateTemp("", "runningls-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	path := f.Name()
	if err := Render(f, res, cfg); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	viewer := cfg.Viewer
	if viewer == "" {
		viewer = defaultViewer()
	}
	cmd := exec.CommandContext(ctx, viewer, path)
	if err := cmd.Start(); err != nil {
		return path, fmt.Errorf("failed to launch viewer %s: %w", viewer, err)
	}
	log.Info().Str("viewer", filepath.Base(viewer)).Str("image", path).Msg("Opened periodogram image")

	// Reap the viewer in the background.
	go func() { _ = cmd.Wait() }()
	return path, nil
}

func defaultViewer() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
