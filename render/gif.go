package render

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"log/slog"
	"os"

	"github.com/pthm-cable/vortex/diagnostics"
	"github.com/pthm-cable/vortex/fluid"
	"github.com/pthm-cable/vortex/sim"
)

// GIFSink collects vorticity frames and writes them as one animated GIF on
// Close. Frames past MaxFrames are dropped.
type GIFSink struct {
	path      string
	cmap      *Colormap
	scale     int
	delay     int
	maxFrames int
	dropped   int
	anim      gif.GIF
}

// NewGIFSink creates a sink writing to path. scale enlarges every cell to a
// scale x scale block; delay is in hundredths of a second.
func NewGIFSink(path string, cmap *Colormap, scale, delay, maxFrames int) *GIFSink {
	return &GIFSink{
		path:      path,
		cmap:      cmap,
		scale:     max(scale, 1),
		delay:     delay,
		maxFrames: maxFrames,
	}
}

// Emit renders the frame at the interior grid's size, north up.
func (g *GIFSink) Emit(f sim.Frame) error {
	if f.Vorticity == nil || f.Vorticity.W == 0 || f.Vorticity.H == 0 {
		return errors.New("empty vorticity field")
	}
	if g.maxFrames > 0 && len(g.anim.Image) >= g.maxFrames {
		if g.dropped == 0 {
			slog.Warn("gif frame limit reached", "path", g.path, "max_frames", g.maxFrames)
		}
		g.dropped++
		return nil
	}

	g.anim.Image = append(g.anim.Image, Paletted(f.Vorticity, f.Mask, g.cmap, g.scale))
	g.anim.Delay = append(g.anim.Delay, g.delay)
	return nil
}

// Frames returns the number of frames collected.
func (g *GIFSink) Frames() int { return len(g.anim.Image) }

// Close encodes the animation. Nothing is written if no frame arrived.
func (g *GIFSink) Close() error {
	if len(g.anim.Image) == 0 {
		return nil
	}
	f, err := os.Create(g.path)
	if err != nil {
		return fmt.Errorf("creating gif: %w", err)
	}
	if err := gif.EncodeAll(f, &g.anim); err != nil {
		f.Close()
		return fmt.Errorf("encoding gif: %w", err)
	}
	slog.Info("gif written", "path", g.path, "frames", len(g.anim.Image), "dropped", g.dropped)
	return f.Close()
}

// Paletted draws a vorticity field with obstacle cells in the solid colour.
// Field cell (x, y) is lattice cell (x+1, y+1); image rows run from the top
// of the channel down.
func Paletted(v *diagnostics.Field, mask *fluid.Mask, cmap *Colormap, scale int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, v.W*scale, v.H*scale), cmap.Palette())
	for y := 0; y < v.H; y++ {
		top := (v.H - 1 - y) * scale
		for x := 0; x < v.W; x++ {
			idx := cmap.Index(v.At(x, y))
			if mask != nil && mask.Solid(x+1, y+1) {
				idx = Levels
			}
			for dy := 0; dy < scale; dy++ {
				row := img.Pix[(top+dy)*img.Stride:]
				for dx := 0; dx < scale; dx++ {
					row[x*scale+dx] = idx
				}
			}
		}
	}
	return img
}
