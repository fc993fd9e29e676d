package fluid

import (
	"fmt"

	"github.com/pthm-cable/vortex/lattice"
)

// Phase names reported to a PhaseTimer, in execution order.
const (
	PhaseOpenEdges  = "open_edges"
	PhaseStream     = "stream"
	PhaseBounceBack = "bounce_back"
	PhaseMoments    = "moments"
	PhaseBoundary   = "boundary"
	PhaseCollide    = "collide"
)

// Phases lists the step phases in execution order.
var Phases = []string{PhaseOpenEdges, PhaseStream, PhaseBounceBack, PhaseMoments, PhaseBoundary, PhaseCollide}

// PhaseTimer is notified when each phase begins.
type PhaseTimer interface {
	StartPhase(name string)
}

// Engine advances the grid state one timestep at a time. Each phase runs
// over the whole grid before the next one starts.
type Engine struct {
	params   Params
	pop      *Populations
	fields   *Fields
	mask     *Mask
	captured [][lattice.Q]float64
	rowBad   []int
	pool     *rowPool
	timer    PhaseTimer
	step     int
}

// NewEngine validates the lattice and parameters and allocates the grid.
// Populations start at zero; call Initialize or InitializeEquilibrium.
// A nil mask means no obstacle.
func NewEngine(p Params, mask *Mask) (*Engine, error) {
	if err := lattice.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if mask == nil {
		mask = NewMask(p.Nx, p.Ny, NoObstacle)
	}
	if mask.Nx != p.Nx || mask.Ny != p.Ny {
		return nil, fmt.Errorf("%w: mask is %dx%d, grid is %dx%d", ErrInvalidParams, mask.Nx, mask.Ny, p.Nx, p.Ny)
	}

	return &Engine{
		params:   p,
		pop:      NewPopulations(p.Nx, p.Ny),
		fields:   NewFields(p.Nx, p.Ny),
		mask:     mask,
		captured: make([][lattice.Q]float64, mask.Count()),
		rowBad:   make([]int, p.Ny),
		pool:     newRowPool(p.Workers),
	}, nil
}

// Initialize fills the populations with the perturbed rightward start state.
func (e *Engine) Initialize(src NormalSource) {
	Initialize(e.pop, e.params, src)
}

// InitializeEquilibrium fills the populations with the rest equilibrium.
func (e *Engine) InitializeEquilibrium() {
	InitializeEquilibrium(e.pop, e.params.Rho0)
}

// SetPhaseTimer installs an optional phase timer (nil disables timing).
func (e *Engine) SetPhaseTimer(t PhaseTimer) { e.timer = t }

// Step runs one full timestep. An *InstabilityError is fatal: the grid is
// left in its partially updated state and must not be stepped again.
func (e *Engine) Step() error {
	e.startPhase(PhaseOpenEdges)
	e.ApplyOpenEdges()

	e.startPhase(PhaseStream)
	e.Stream()

	e.startPhase(PhaseBounceBack)
	e.CaptureBounceBack()

	e.startPhase(PhaseMoments)
	if err := e.ComputeMoments(); err != nil {
		return err
	}

	e.startPhase(PhaseBoundary)
	e.ApplyBoundary()

	e.startPhase(PhaseCollide)
	e.Collide()

	e.step++
	return nil
}

func (e *Engine) startPhase(name string) {
	if e.timer != nil {
		e.timer.StartPhase(name)
	}
}

// StepCount returns the number of completed timesteps.
func (e *Engine) StepCount() int { return e.step }

// Params returns the run parameters.
func (e *Engine) Params() Params { return e.params }

// Populations exposes the grid state.
func (e *Engine) Populations() *Populations { return e.pop }

// Fields exposes the macroscopic fields of the last completed step.
func (e *Engine) Fields() *Fields { return e.fields }

// Mask returns the obstacle mask.
func (e *Engine) Mask() *Mask { return e.mask }

// Close stops the worker pool.
func (e *Engine) Close() {
	e.pool.stop()
}

// Restore replaces the populations with saved layers and resumes the step
// counter at step. Fields are recomputed from the restored populations.
func (e *Engine) Restore(step int, layers [lattice.Q][]float64) error {
	n := e.params.Nx * e.params.Ny
	for d, layer := range layers {
		if len(layer) != n {
			return fmt.Errorf("%w: layer %d has %d cells, grid has %d", ErrInvalidParams, d, len(layer), n)
		}
	}
	for d, layer := range layers {
		copy(e.pop.Layer(lattice.Direction(d)), layer)
	}
	e.step = step
	return e.ComputeMoments()
}
