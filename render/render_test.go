package render

import (
	"image/gif"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/vortex/diagnostics"
	"github.com/pthm-cable/vortex/fluid"
	"github.com/pthm-cable/vortex/sim"
)

func testFrame(step int) sim.Frame {
	v := diagnostics.NewField(6, 4)
	for i := range v.Data {
		v.Data[i] = float64(i-12) / 100
	}
	return sim.Frame{
		Step:      step,
		Vorticity: v,
		Mask:      fluid.NewMask(8, 6, fluid.Rect(1, 1, 1, 1)), // field cell (0, 0)
	}
}

func TestColormapIndex(t *testing.T) {
	cm := NewColormap(0.1)

	tests := []struct {
		name string
		v    float64
		want uint8
	}{
		{"zero", 0, 127},
		{"max", 0.1, Levels - 1},
		{"min", -0.1, 0},
		{"saturates high", 5, Levels - 1},
		{"saturates low", -5, 0},
		{"nan", math.NaN(), Levels / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cm.Index(tt.v); got != tt.want {
				t.Errorf("Index(%v) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}

	if n := len(cm.Palette()); n != Levels+1 {
		t.Errorf("palette has %d colours, want %d", n, Levels+1)
	}
	if n := len(cm.Colors()); n != Levels {
		t.Errorf("Colors() has %d entries, want %d", n, Levels)
	}
}

func TestColormapIsDiverging(t *testing.T) {
	cm := NewColormap(1)
	neg, mid, pos := cm.At(-1), cm.At(0), cm.At(1)

	if neg.B <= neg.R {
		t.Errorf("negative end %v should be blue", neg)
	}
	if pos.R <= pos.B {
		t.Errorf("positive end %v should be red", pos)
	}
	if mid.R < 200 || mid.G < 200 || mid.B < 200 {
		t.Errorf("centre %v should be near white", mid)
	}
}

func TestPalettedMarksObstacle(t *testing.T) {
	f := testFrame(0)
	img := Paletted(f.Vorticity, f.Mask, NewColormap(0.1), 2)

	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
		t.Fatalf("image is %dx%d, want 12x8", b.Dx(), b.Dy())
	}
	// Field row 0 is the bottom of the image.
	for _, p := range [][2]int{{0, 6}, {1, 7}} {
		if got := img.ColorIndexAt(p[0], p[1]); got != Levels {
			t.Errorf("pixel %v index %d, want solid", p, got)
		}
	}
	if got := img.ColorIndexAt(2, 7); got == Levels {
		t.Error("fluid pixel drawn as solid")
	}
}

func TestGIFSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.gif")
	sink := NewGIFSink(path, NewColormap(0.1), 3, 4, 2)

	for step := 0; step < 30; step += 10 {
		if err := sink.Emit(testFrame(step)); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if sink.Frames() != 2 {
		t.Errorf("Frames() = %d, want 2 (limit)", sink.Frames())
	}
	if err := sink.Emit(sim.Frame{}); err == nil {
		t.Error("expected an error for an empty frame")
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	anim, err := gif.DecodeAll(f)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(anim.Image) != 2 || anim.Delay[0] != 4 {
		t.Errorf("decoded %d frames, delay %v", len(anim.Image), anim.Delay)
	}
	if b := anim.Image[0].Bounds(); b.Dx() != 18 || b.Dy() != 12 {
		t.Errorf("frame is %dx%d, want 18x12", b.Dx(), b.Dy())
	}
}

func TestGIFSinkWithoutFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.gif")
	if err := NewGIFSink(path, NewColormap(1), 1, 1, 0).Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written without frames")
	}
}

func TestHeatmapSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "heat")
	sink, err := NewHeatmapSink(dir, NewColormap(0.1), 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Emit(testFrame(200)); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "vorticity_000200.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("heatmap is not a PNG: %v", err)
	}
	if sink.Frames() != 1 {
		t.Errorf("Frames() = %d", sink.Frames())
	}
}

func TestFieldGridClampsAndMasks(t *testing.T) {
	f := testFrame(0)
	g := fieldGrid{v: f.Vorticity, mask: f.Mask, rng: 0.05}

	if c, r := g.Dims(); c != 6 || r != 4 {
		t.Errorf("Dims() = %d, %d", c, r)
	}
	if !math.IsNaN(g.Z(0, 0)) {
		t.Error("solid cell should be NaN")
	}
	if z := g.Z(5, 3); z != 0.05 {
		t.Errorf("Z = %v, want clamped 0.05", z)
	}
	if g.X(0) != 1 || g.Y(3) != 4 {
		t.Error("coordinates should be lattice positions")
	}
}
