package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pthm-cable/vortex/diagnostics"
	"github.com/pthm-cable/vortex/fluid"
	"github.com/pthm-cable/vortex/sim"
)

// fieldGrid adapts a vorticity field to plotter.GridXYZ. Solid cells are NaN
// and everything else is clamped to the colormap range.
type fieldGrid struct {
	v    *diagnostics.Field
	mask *fluid.Mask
	rng  float64
}

func (g fieldGrid) Dims() (c, r int) { return g.v.W, g.v.H }

func (g fieldGrid) Z(c, r int) float64 {
	if g.mask != nil && g.mask.Solid(c+1, r+1) {
		return math.NaN()
	}
	return math.Max(-g.rng, math.Min(g.rng, g.v.At(c, r)))
}

func (g fieldGrid) X(c int) float64 { return float64(c + 1) }
func (g fieldGrid) Y(r int) float64 { return float64(r + 1) }

// HeatmapSink writes one PNG heatmap per frame into a directory.
type HeatmapSink struct {
	dir    string
	cmap   *Colormap
	scale  int
	frames int
}

// NewHeatmapSink creates dir and returns a sink writing vorticity_<step>.png.
func NewHeatmapSink(dir string, cmap *Colormap, scale int) (*HeatmapSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating heatmap directory: %w", err)
	}
	return &HeatmapSink{dir: dir, cmap: cmap, scale: max(scale, 1)}, nil
}

// Emit plots the frame.
func (h *HeatmapSink) Emit(f sim.Frame) error {
	if f.Vorticity == nil || f.Vorticity.W < 2 || f.Vorticity.H < 2 {
		return fmt.Errorf("vorticity field too small to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Vorticity, step %d", f.Step)
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"

	hm := plotter.NewHeatMap(fieldGrid{v: f.Vorticity, mask: f.Mask, rng: h.cmap.Range}, h.cmap)
	hm.Min, hm.Max = -h.cmap.Range, h.cmap.Range
	hm.NaN = Solid
	hm.Rasterized = true
	p.Add(hm)

	w := vg.Points(float64(f.Vorticity.W*h.scale) + 80)
	ht := vg.Points(float64(f.Vorticity.H*h.scale) + 80)
	path := filepath.Join(h.dir, fmt.Sprintf("vorticity_%06d.png", f.Step))
	if err := p.Save(w, ht, path); err != nil {
		return fmt.Errorf("saving heatmap: %w", err)
	}
	h.frames++
	return nil
}

// Frames returns the number of PNGs written.
func (h *HeatmapSink) Frames() int { return h.frames }

// Close is a no-op; every frame is written by Emit.
func (h *HeatmapSink) Close() error { return nil }
