package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/RMahshie/runningls/internal/lightcurve"
	"github.com/RMahshie/runningls/internal/render"
	"github.com/RMahshie/runningls/pkg/periodogram"
)

type runOptions struct {
	segLength     float64
	stepSize      float64
	freqUnit      string
	minFreq       float64
	maxFreq       float64
	oversample    float64
	normalization string
	workers       int

	vmin     float64
	vmax     float64
	cmap     string
	figsize  string
	dpi      int
	colorbar bool
	output   string
	viewer   string

	timeCol    int
	fluxCol    int
	noProgress bool

	// filled by complete
	periodogram periodogram.Options
	render      render.Config
	reader      lightcurve.Options
}

func newRunOptions() *runOptions {
	p := periodogram.DefaultOptions()
	r := render.DefaultConfig()
	l := lightcurve.DefaultOptions()
	return &runOptions{
		segLength:     p.SegmentLength,
		stepSize:      p.StepSize,
		freqUnit:      p.Unit.String(),
		oversample:    p.Oversample,
		normalization: string(p.Normalization),
		cmap:          r.Colormap,
		figsize:       fmt.Sprintf("%g,%g", r.Width, r.Height),
		dpi:           r.DPI,
		colorbar:      r.ShowColorbar,
		timeCol:       l.TimeColumn,
		fluxCol:       l.FluxColumn,
	}
}

func (o *runOptions) addFlags(f *pflag.FlagSet) {
	f.Float64Var(&o.segLength, "seglength", o.segLength, "window length in days")
	f.Float64Var(&o.stepSize, "stepsize", o.stepSize, "window step in days")
	f.StringVar(&o.freqUnit, "frequnit", o.freqUnit, "frequency unit (1/d, Hz, mHz, uHz, nHz)")
	f.Float64Var(&o.minFreq, "minfreq", 0, "lowest frequency, in frequnit (default 0)")
	f.Float64Var(&o.maxFreq, "maxfreq", 0, "grid upper bound, in frequnit (default Nyquist)")
	f.Float64Var(&o.oversample, "osample", o.oversample, "frequency grid oversampling factor")
	f.StringVar(&o.normalization, "normalization", o.normalization, "cell normalization (amplitude, psd, power)")
	f.IntVar(&o.workers, "workers", 0, "parallel windows (default number of CPUs)")

	f.Float64Var(&o.vmin, "vmin", 0, "lower color limit (default matrix minimum)")
	f.Float64Var(&o.vmax, "vmax", 0, "upper color limit (default matrix maximum)")
	f.StringVar(&o.cmap, "cmap", o.cmap, "colormap; append _r to reverse ("+strings.Join(render.ColormapNames(), ", ")+")")
	f.StringVar(&o.figsize, "figsize", o.figsize, "figure width,height in inches")
	f.IntVar(&o.dpi, "dpi", o.dpi, "image resolution")
	f.BoolVar(&o.colorbar, "colorbar", o.colorbar, "draw a color bar")
	f.StringVarP(&o.output, "output", "o", "", "write the PNG here instead of opening a viewer")
	f.StringVar(&o.viewer, "viewer", "", "program used to display the image (default xdg-open or open)")

	f.IntVar(&o.timeCol, "time-col", o.timeCol, "zero-based column holding times")
	f.IntVar(&o.fluxCol, "flux-col", o.fluxCol, "zero-based column holding fluxes")
	f.BoolVar(&o.noProgress, "no-progress", false, "hide the progress bar")
}

// complete turns the parsed flags into library options.
func (o *runOptions) complete(f *pflag.FlagSet) error {
	unit, err := periodogram.ParseFrequencyUnit(o.freqUnit)
	if err != nil {
		return err
	}
	norm, err := periodogram.ParseNormalization(o.normalization)
	if err != nil {
		return err
	}
	if _, err := render.Colormap(o.cmap); err != nil {
		return err
	}
	width, height, err := parseFigsize(o.figsize)
	if err != nil {
		return err
	}

	p := periodogram.DefaultOptions()
	p.SegmentLength = o.segLength
	p.StepSize = o.stepSize
	p.Unit = unit
	p.Oversample = o.oversample
	p.Normalization = norm
	p.Workers = o.workers
	if f.Changed("minfreq") {
		p.MinFrequency = &o.minFreq
	}
	if f.Changed("maxfreq") {
		p.MaxFrequency = &o.maxFreq
	}
	if err := p.Validate(); err != nil {
		return err
	}

	r := render.Config{
		Colormap:     o.cmap,
		Width:        width,
		Height:       height,
		DPI:          o.dpi,
		ShowColorbar: o.colorbar,
		OutputPath:   o.output,
		Viewer:       o.viewer,
	}
	if f.Changed("vmin") {
		r.VMin = &o.vmin
	}
	if f.Changed("vmax") {
		r.VMax = &o.vmax
	}

	o.periodogram = p
	o.render = r
	o.reader = lightcurve.Options{TimeColumn: o.timeCol, FluxColumn: o.fluxCol}
	return nil
}

func (o *runOptions) run(ctx context.Context, path string) error {
	lc, err := lightcurve.ReadFile(path, o.reader)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Int("samples", lc.Len()).Msg("Loaded light curve")

	opts := o.periodogram
	if !o.noProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		opts.Progress = newBarProgress(os.Stderr)
	}
	logger := log.Logger
	opts.Logger = &logger

	res, err := periodogram.Compute(ctx, lc, opts)
	if err != nil {
		return err
	}

	if n := len(res.Failures); n > 0 {
		log.Warn().Int("failed", n).Int("windows", len(res.Windows)).
			Msg("Some windows had too little usable data and were left empty")
	}
	log.Info().
		Int("windows", len(res.Windows)).
		Int("frequencies", len(res.Frequencies)).
		Str("unit", res.Unit.String()).
		Msg("Computed running periodogram")

	if o.render.OutputPath != "" {
		if err := render.Save(res, o.render); err != nil {
			return err
		}
		log.Info().Str("file", o.render.OutputPath).Msg("Wrote image")
		return nil
	}
	_, err = render.Show(ctx, res, o.render)
	return err
}

func parseFigsize(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("figsize must be width,height, got %q", s)
	}
	var dims [2]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || !(v > 0) {
			return 0, 0, fmt.Errorf("figsize must be two positive numbers, got %q", s)
		}
		dims[i] = v
	}
	return dims[0], dims[1], nil
}
