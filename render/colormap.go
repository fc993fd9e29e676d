// Package render turns vorticity frames into images: an animated GIF of the
// whole run and per-frame PNG heatmaps.
package render

import (
	"image/color"
	"math"

	"github.com/mazznoer/colorgrad"
)

// Levels is the number of gradient colours in a Colormap. Index Levels is
// reserved for solid cells so the whole palette fits a GIF frame.
const Levels = 255

// Solid is the colour used for obstacle cells.
var Solid = color.RGBA{A: 255}

// Colormap maps signed vorticity onto a diverging blue-white-red gradient
// symmetric around zero.
type Colormap struct {
	Range  float64
	colors []color.RGBA
}

// NewColormap samples the RdBu gradient reversed so negative (clockwise)
// vorticity is blue and positive is red. Values beyond ±rng saturate.
func NewColormap(rng float64) *Colormap {
	grad := colorgrad.RdBu()
	cols := grad.Colors(Levels)

	cm := &Colormap{Range: rng, colors: make([]color.RGBA, Levels)}
	for i, c := range cols {
		r, g, b, _ := c.RGBA()
		cm.colors[Levels-1-i] = color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
	}
	return cm
}

// Index returns the palette index for v.
func (cm *Colormap) Index(v float64) uint8 {
	if math.IsNaN(v) {
		return Levels / 2
	}
	t := (v/cm.Range + 1) / 2
	t = math.Max(0, math.Min(1, t))
	return uint8(math.Round(t * (Levels - 1)))
}

// At returns the colour for v.
func (cm *Colormap) At(v float64) color.RGBA {
	return cm.colors[cm.Index(v)]
}

// Palette returns the gradient followed by the solid colour.
func (cm *Colormap) Palette() color.Palette {
	pal := make(color.Palette, 0, Levels+1)
	for _, c := range cm.colors {
		pal = append(pal, c)
	}
	return append(pal, Solid)
}

// Colors implements gonum.org/v1/plot/palette.Palette.
func (cm *Colormap) Colors() []color.Color {
	out := make([]color.Color, len(cm.colors))
	for i, c := range cm.colors {
		out[i] = c
	}
	return out
}
