package render

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/palette/moreland"
)

// DefaultColormap is used when Config.Colormap is empty.
const DefaultColormap = "Blues"

// brewerColors is the number of ColorBrewer classes interpolated between.
// Every sequential and diverging scheme ships a 9 class variant.
const brewerColors = 9

var morelandMaps = map[string]func() palette.ColorMap{
	"Kindlmann":         moreland.Kindlmann,
	"ExtendedKindlmann": moreland.ExtendedKindlmann,
	"BlackBody":         moreland.BlackBody,
	"ExtendedBlackBody": moreland.ExtendedBlackBody,
	"SmoothBlueRed":     func() palette.ColorMap { return moreland.SmoothBlueRed() },
	"SmoothBlueTan":     func() palette.ColorMap { return moreland.SmoothBlueTan() },
	"SmoothGreenRed":    func() palette.ColorMap { return moreland.SmoothGreenRed() },
}

// Colormap resolves name to a color map. Names are ColorBrewer sequential or
// diverging schemes ("Blues", "YlOrRd", "RdBu") or one of the Moreland maps
// ("Kindlmann", "BlackBody", "SmoothBlueRed"). A "_r" suffix reverses the map.
func Colormap(name string) (palette.ColorMap, error) {
	if name == "" {
		name = DefaultColormap
	}
	base, reversed := strings.CutSuffix(name, "_r")

	var cm palette.ColorMap
	if mk, ok := morelandMaps[base]; ok {
		cm = mk()
	} else {
		p, err := brewerPalette(base)
		if err != nil {
			return nil, fmt.Errorf("unknown colormap %q", name)
		}
		cm = newInterpolated(p.Colors())
	}

	if reversed {
		cm = palette.Reverse(cm)
	}
	return cm, nil
}

func brewerPalette(name string) (palette.Palette, error) {
	if p, err := brewer.GetPalette(brewer.TypeSequential, name, brewerColors); err == nil {
		return p, nil
	}
	return brewer.GetPalette(brewer.TypeDiverging, name, brewerColors)
}

// ColormapNames lists every name accepted by Colormap, without "_r" variants.
func ColormapNames() []string {
	var names []string
	for name := range brewer.SequentialPalettes {
		names = append(names, name)
	}
	for name := range brewer.DivergingPalettes {
		names = append(names, name)
	}
	for name := range morelandMaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// interpolated is a ColorMap that blends linearly between fixed control colors.
type interpolated struct {
	controls []color.NRGBA
	min, max float64
	alpha    float64
}

func newInterpolated(colors []color.Color) *interpolated {
	controls := make([]color.NRGBA, len(colors))
	for i, c := range colors {
		controls[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return &interpolated{controls: controls, min: 0, max: 1, alpha: 1}
}

func (m *interpolated) At(v float64) (color.Color, error) {
	if m.max <= m.min {
		return nil, fmt.Errorf("colormap: invalid range [%g, %g]", m.min, m.max)
	}
	if math.IsNaN(v) || v < m.min || v > m.max {
		return nil, fmt.Errorf("colormap: value %g outside [%g, %g]", v, m.min, m.max)
	}

	pos := (v - m.min) / (m.max - m.min) * float64(len(m.controls)-1)
	i := int(pos)
	if i >= len(m.controls)-1 {
		i = len(m.controls) - 2
	}
	frac := pos - float64(i)
	lo, hi := m.controls[i], m.controls[i+1]

	return color.NRGBA{
		R: lerp(lo.R, hi.R, frac),
		G: lerp(lo.G, hi.G, frac),
		B: lerp(lo.B, hi.B, frac),
		A: uint8(math.Round(m.alpha * 255)),
	}, nil
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func (m *interpolated) Max() float64     { return m.max }
func (m *interpolated) SetMax(v float64) { m.max = v }
func (m *interpolated) Min() float64     { return m.min }
func (m *interpolated) SetMin(v float64) { m.min = v }
func (m *interpolated) Alpha() float64   { return m.alpha }

func (m *interpolated) SetAlpha(a float64) {
	if a < 0 || a > 1 {
		panic(fmt.Sprintf("colormap: alpha %g outside [0, 1]", a))
	}
	m.alpha = a
}

// Palette samples n evenly spaced colors across the map.
func (m *interpolated) Palette(n int) palette.Palette {
	if n < 2 {
		n = 2
	}
	lo, hi := m.min, m.max
	if hi <= lo {
		lo, hi = 0, 1
	}
	sampler := &interpolated{controls: m.controls, min: lo, max: hi, alpha: m.alpha}
	colors := make(colorList, n)
	for i := range colors {
		v := lo + (hi-lo)*float64(i)/float64(n-1)
		c, err := sampler.At(math.Min(v, hi))
		if err != nil {
			panic(err)
		}
		colors[i] = c
	}
	return colors
}

type colorList []color.Color

func (c colorList) Colors() []color.Color { return c }
