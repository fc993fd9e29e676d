// Package viewer shows a running simulation in a raylib window: the live
// vorticity field with pan and zoom, the tracer streaks and a small control
// panel.
package viewer

import (
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/vortex/camera"
	"github.com/pthm-cable/vortex/diagnostics"
	"github.com/pthm-cable/vortex/fluid"
	"github.com/pthm-cable/vortex/render"
	"github.com/pthm-cable/vortex/sim"
	"github.com/pthm-cable/vortex/tracers"
)

const (
	margin      = 10
	panelHeight = 90
	maxSpeed    = 200
)

var tracerColor = rl.NewColor(40, 40, 40, 200)

// Viewer drives the simulation from the render loop. It also acts as a
// sim.Sink so the panel shows the statistics of the last sampled frame.
type Viewer struct {
	sim  *sim.Simulation
	cmap *render.Colormap

	tex    rl.Texture2D
	pixels []color.RGBA
	vort   *diagnostics.Field
	dots   []tracers.Position

	cam           *camera.Camera
	width, height int32

	paused        bool
	stepsPerFrame float32
	stats         diagnostics.FrameStats
	err           error
}

// New creates the field texture. The raylib window must already be open.
func New(s *sim.Simulation, cmap *render.Colormap, width, height int) *Viewer {
	nx, ny := s.Engine().Params().Nx, s.Engine().Params().Ny
	w, h := max(nx-2, 1), max(ny-2, 1)

	img := rl.GenImageColor(w, h, rl.Black)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)

	return &Viewer{
		sim:           s,
		cmap:          cmap,
		tex:           tex,
		pixels:        make([]color.RGBA, w*h),
		cam:           camera.New(float32(width-2*margin), float32(height-2*margin-panelHeight), float32(w), float32(h)),
		width:         int32(width),
		height:        int32(height),
		stepsPerFrame: 20,
	}
}

// Emit records the frame statistics for the panel.
func (v *Viewer) Emit(f sim.Frame) error {
	v.stats = f.Stats
	return nil
}

// Close releases the texture.
func (v *Viewer) Close() error {
	rl.UnloadTexture(v.tex)
	return nil
}

// Run steps and draws until the window closes, maxSteps is reached
// (0 = no limit) or the simulation fails. The failure is kept on screen
// until the window closes and then returned.
func (v *Viewer) Run(maxSteps int) error {
	for !rl.WindowShouldClose() {
		v.handleInput()

		if !v.paused && v.err == nil {
			for i := 0; i < int(v.stepsPerFrame); i++ {
				if maxSteps > 0 && v.sim.StepCount() >= maxSteps {
					return nil
				}
				if err := v.sim.Step(); err != nil {
					v.err = err
					break
				}
			}
		}
		v.sim.Perf().RecordFrame()

		v.refresh()
		v.draw()
	}
	return v.err
}

func (v *Viewer) handleInput() {
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.reset()
	}

	// Zoom toward the cursor, pan with a right-drag, Home shows everything
	mouse := rl.GetMousePosition()
	mx, my := mouse.X-margin, mouse.Y-margin
	inField := mx >= 0 && my >= 0 && mx < v.cam.ViewportW && my < v.cam.ViewportH
	if wheel := rl.GetMouseWheelMove(); wheel != 0 && inField {
		v.cam.ZoomAt(mx, my, 1+wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		v.cam.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		v.cam.ZoomBy(0.8)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
}

func (v *Viewer) reset() {
	if err := v.sim.Reset(); err != nil {
		v.err = err
		return
	}
	v.err = nil
	v.stats = diagnostics.FrameStats{}
}

// refresh recomputes the vorticity texture and tracer positions.
func (v *Viewer) refresh() {
	e := v.sim.Engine()
	v.vort = diagnostics.VorticityInto(v.vort, e.Fields())
	FillPixels(v.pixels, v.vort, e.Mask(), v.cmap)
	rl.UpdateTexture(v.tex, v.pixels)
	v.dots = v.sim.Tracers(v.dots[:0])
}

func (v *Viewer) draw() {
	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(rl.RayWhite)

	minX, minY, maxX, maxY := v.cam.VisibleWorldBounds()
	x0, y0 := v.cam.WorldToScreen(minX, minY)
	x1, y1 := v.cam.WorldToScreen(maxX, maxY)
	rl.DrawTexturePro(
		v.tex,
		rl.Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY},
		rl.Rectangle{X: margin + x0, Y: margin + y0, Width: x1 - x0, Height: y1 - y0},
		rl.Vector2{},
		0,
		rl.White,
	)
	rl.DrawRectangleLines(int32(margin+x0), int32(margin+y0), int32(x1-x0), int32(y1-y0), rl.DarkGray)

	ny := v.sim.Engine().Params().Ny
	radius := max(1.5, v.cam.Zoom/4)
	for _, p := range v.dots {
		tx, ty := TexelPos(p, ny)
		if tx < minX || tx > maxX || ty < minY || ty > maxY {
			continue
		}
		x, y := v.cam.WorldToScreen(tx, ty)
		rl.DrawCircleV(rl.Vector2{X: margin + x, Y: margin + y}, radius, tracerColor)
	}

	v.drawPanel(margin + v.cam.ViewportH + margin)
}

func (v *Viewer) drawPanel(top float32) {
	x := int32(margin)
	y := int32(top)

	rl.DrawText(fmt.Sprintf("Step %d", v.sim.StepCount()), x, y, 20, rl.DarkGray)
	perf := v.sim.Perf().Stats()
	rl.DrawText(fmt.Sprintf("%.0f steps/s  %.1f MLUPS  %.0f fps", perf.TicksPerSecond, perf.MLUPS, perf.FPS), x, y+24, 16, rl.Gray)
	rl.DrawText(fmt.Sprintf("vorticity [%.4f, %.4f]  enstrophy %.3f  tracers %d  mass %.0f",
		v.stats.VortMin, v.stats.VortMax, v.stats.Enstrophy, v.stats.Tracers, v.stats.Mass), x, y+44, 16, rl.Gray)
	if st, ok := v.sim.Strouhal(); ok {
		rl.DrawText(fmt.Sprintf("St %.3f", st), x, y+64, 16, rl.Gray)
	}

	px := float32(v.width) - 380
	label := "Pause"
	if v.paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: px, Y: top, Width: 100, Height: 28}, label) {
		v.paused = !v.paused
	}
	if gui.Button(rl.Rectangle{X: px + 110, Y: top, Width: 100, Height: 28}, "Reset") {
		v.reset()
	}

	rl.DrawText("Steps/frame", int32(px), int32(top)+40, 14, rl.Gray)
	v.stepsPerFrame = gui.SliderBar(
		rl.Rectangle{X: px + 90, Y: top + 38, Width: 200, Height: 20},
		"", fmt.Sprintf("%d", int(v.stepsPerFrame)),
		v.stepsPerFrame, 1, maxSpeed,
	)

	if v.err != nil {
		rl.DrawText(v.err.Error(), x, int32(v.height)-24, 16, rl.Red)
	}
}

// FillPixels colours dst from the vorticity field, north up. Solid cells are
// drawn in render.Solid.
func FillPixels(dst []color.RGBA, v *diagnostics.Field, mask *fluid.Mask, cmap *render.Colormap) {
	for y := 0; y < v.H; y++ {
		row := dst[(v.H-1-y)*v.W:]
		for x := 0; x < v.W; x++ {
			if mask != nil && mask.Solid(x+1, y+1) {
				row[x] = render.Solid
				continue
			}
			row[x] = cmap.At(v.At(x, y))
		}
	}
}

// TexelPos maps a tracer to coordinates within the field image. Lattice
// nodes sit at texel centres.
func TexelPos(p tracers.Position, ny int) (x, y float32) {
	return float32(p.X - 0.5), float32(float64(ny) - 1.5 - p.Y)
}
