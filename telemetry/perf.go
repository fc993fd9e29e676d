package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/vortex/fluid"
)

// Phase names outside the engine step.
const (
	PhaseTracers     = "tracers"
	PhaseDiagnostics = "diagnostics"
	PhaseSinks       = "sinks"
)

// Phases lists every phase in execution order: the engine phases followed by
// the per-step work done around them.
var Phases = append(append([]string(nil), fluid.Phases...), PhaseTracers, PhaseDiagnostics, PhaseSinks)

// PerfCollector tracks step and phase timings over a rolling window.
// It satisfies fluid.PhaseTimer.
type PerfCollector struct {
	window int
	cells  int

	// Ring buffers indexed by sample; phases[i][slot].
	ticks  []time.Duration
	phases [][]time.Duration
	head   int
	count  int

	slots   map[string]int
	names   []string
	current []time.Duration
	active  int

	tickStart  time.Time
	phaseStart time.Time

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over window steps.
// cells is the lattice size, used to report throughput in MLUPS.
func NewPerfCollector(window, cells int) *PerfCollector {
	if window < 1 {
		window = 100
	}
	p := &PerfCollector{
		window: window,
		cells:  cells,
		ticks:  make([]time.Duration, window),
		phases: make([][]time.Duration, window),
		slots:  make(map[string]int, len(Phases)),
		active: -1,
	}
	for _, name := range Phases {
		p.slot(name)
	}
	return p
}

func (p *PerfCollector) slot(name string) int {
	if i, ok := p.slots[name]; ok {
		return i
	}
	i := len(p.names)
	p.slots[name] = i
	p.names = append(p.names, name)
	p.current = append(p.current, 0)
	return i
}

// StartTick begins timing a simulation step.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	clear(p.current)
	p.active = -1
}

// StartPhase closes the running phase, if any, and starts timing name.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	if p.active >= 0 {
		p.current[p.active] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.active = p.slot(name)
}

// EndTick closes the running phase and records the step.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.active >= 0 {
		p.current[p.active] += now.Sub(p.phaseStart)
		p.active = -1
	}

	p.ticks[p.head] = now.Sub(p.tickStart)
	p.phases[p.head] = append(p.phases[p.head][:0], p.current...)
	p.head = (p.head + 1) % p.window
	if p.count < p.window {
		p.count++
	}
}

// RecordFrame records the wall time between rendered frames.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats holds aggregated timings.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration

	// Average duration and share of the step per phase.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64
	MLUPS          float64 // million lattice updates per second

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	var total time.Duration
	sums := make([]time.Duration, len(p.names))
	for i := 0; i < p.count; i++ {
		d := p.ticks[i]
		total += d
		if i == 0 || d < s.MinTickDuration {
			s.MinTickDuration = d
		}
		s.MaxTickDuration = max(s.MaxTickDuration, d)
		for slot, pd := range p.phases[i] {
			sums[slot] += pd
		}
	}

	n := time.Duration(p.count)
	s.AvgTickDuration = total / n
	for slot, sum := range sums {
		if sum == 0 {
			continue
		}
		name := p.names[slot]
		s.PhaseAvg[name] = sum / n
		if s.AvgTickDuration > 0 {
			s.PhasePct[name] = float64(sum/n) / float64(s.AvgTickDuration) * 100
		}
	}
	if s.AvgTickDuration > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTickDuration)
		s.MLUPS = s.TicksPerSecond * float64(p.cells) / 1e6
	}
	return s
}

// LogStats logs the timings, phases in execution order.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_step_us", s.AvgTickDuration.Microseconds(),
		"min_step_us", s.MinTickDuration.Microseconds(),
		"max_step_us", s.MaxTickDuration.Microseconds(),
		"steps_per_sec", int(s.TicksPerSecond),
		"mlups", float64(int(s.MLUPS*100)) / 100,
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_step_us", s.AvgTickDuration.Microseconds()),
		slog.Float64("steps_per_sec", s.TicksPerSecond),
		slog.Float64("mlups", s.MLUPS),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is the flat perf.csv record.
type PerfStatsCSV struct {
	Step           int     `csv:"step"`
	AvgStepUS      int64   `csv:"avg_step_us"`
	MinStepUS      int64   `csv:"min_step_us"`
	MaxStepUS      int64   `csv:"max_step_us"`
	StepsPerSec    float64 `csv:"steps_per_sec"`
	MLUPS          float64 `csv:"mlups"`
	FPS            float64 `csv:"fps"`
	OpenEdgesPct   float64 `csv:"open_edges_pct"`
	StreamPct      float64 `csv:"stream_pct"`
	BounceBackPct  float64 `csv:"bounce_back_pct"`
	MomentsPct     float64 `csv:"moments_pct"`
	BoundaryPct    float64 `csv:"boundary_pct"`
	CollidePct     float64 `csv:"collide_pct"`
	TracersPct     float64 `csv:"tracers_pct"`
	DiagnosticsPct float64 `csv:"diagnostics_pct"`
	SinksPct       float64 `csv:"sinks_pct"`
}

// ToCSV flattens the stats for the window ending at step.
func (s PerfStats) ToCSV(step int) PerfStatsCSV {
	return PerfStatsCSV{
		Step:           step,
		AvgStepUS:      s.AvgTickDuration.Microseconds(),
		MinStepUS:      s.MinTickDuration.Microseconds(),
		MaxStepUS:      s.MaxTickDuration.Microseconds(),
		StepsPerSec:    s.TicksPerSecond,
		MLUPS:          s.MLUPS,
		FPS:            s.FPS,
		OpenEdgesPct:   s.PhasePct[fluid.PhaseOpenEdges],
		StreamPct:      s.PhasePct[fluid.PhaseStream],
		BounceBackPct:  s.PhasePct[fluid.PhaseBounceBack],
		MomentsPct:     s.PhasePct[fluid.PhaseMoments],
		BoundaryPct:    s.PhasePct[fluid.PhaseBoundary],
		CollidePct:     s.PhasePct[fluid.PhaseCollide],
		TracersPct:     s.PhasePct[PhaseTracers],
		DiagnosticsPct: s.PhasePct[PhaseDiagnostics],
		SinksPct:       s.PhasePct[PhaseSinks],
	}
}
