// Package sim drives a lattice Boltzmann run: it owns the engine, the tracer
// and probe diagnostics, and hands sampled frames to the output sinks.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pthm-cable/vortex/config"
	"github.com/pthm-cable/vortex/diagnostics"
	"github.com/pthm-cable/vortex/fluid"
	"github.com/pthm-cable/vortex/telemetry"
	"github.com/pthm-cable/vortex/tracers"
)

// Frame is one sampled step. The pointers refer to buffers reused by the
// simulation; sinks must copy anything they keep past Emit.
type Frame struct {
	Step      int
	Vorticity *diagnostics.Field
	Fields    *fluid.Fields
	Mask      *fluid.Mask
	Stats     diagnostics.FrameStats
	Tracers   []tracers.Position
}

// Sink consumes sampled frames. Emit errors are logged and counted but never
// stop the run.
type Sink interface {
	Emit(f Frame) error
	Close() error
}

// Options holds runtime settings that are not part of the config file.
type Options struct {
	Seed      int64 // 0 = config run.seed, then time-based
	LogStats  bool
	OutputDir string
	Sinks     []Sink

	// SnapshotDir receives a population checkpoint for every bookmark and
	// at the end of Run. Empty disables checkpoints.
	SnapshotDir string
	// Restore resumes from a checkpoint instead of the perturbed start
	// state. Reset returns to the checkpoint.
	Restore *telemetry.Snapshot
}

// Simulation is a single run.
type Simulation struct {
	cfg  *config.Config
	seed int64

	engine  *fluid.Engine
	tracers *tracers.System
	probe   *diagnostics.Probe
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	bookmarks *telemetry.BookmarkDetector
	sinks     []Sink

	logStats    bool
	snapshotDir string
	restore     *telemetry.Snapshot

	// Sampling buffers, reused between frames.
	vort      *diagnostics.Field
	scratch   []float64
	positions []tracers.Position
	last      diagnostics.FrameStats
	samples   int

	sinkErrors int
	failed     error
}

// New builds and initializes a simulation from cfg. Derived config values
// are recomputed first.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}

	seed := opts.Seed
	if seed == 0 && opts.Restore != nil {
		seed = opts.Restore.Seed
	}
	if seed == 0 {
		seed = cfg.Run.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	s := &Simulation{
		cfg:      cfg,
		seed:     seed,
		perf:     telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow, cfg.Grid.Width*cfg.Grid.Height),
		output:   output,
		sinks:       opts.Sinks,
		logStats:    opts.LogStats,
		snapshotDir: opts.SnapshotDir,
		restore:     opts.Restore,
	}
	if err := s.build(); err != nil {
		output.Close()
		return nil, err
	}

	slog.Info("simulation ready",
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Width, cfg.Grid.Height),
		"tau", cfg.Fluid.Tau,
		"viscosity", cfg.FluidParams().Viscosity(),
		"obstacle", cfg.Obstacle.Shape,
		"solid_cells", s.engine.Mask().Count(),
		"seed", seed,
	)
	return s, nil
}

// build creates a fresh engine, tracer world and probe.
func (s *Simulation) build() error {
	cfg := s.cfg
	params := cfg.FluidParams()
	mask := fluid.NewMask(params.Nx, params.Ny, cfg.Shape())

	engine, err := fluid.NewEngine(params, mask)
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	engine.Initialize(rand.New(rand.NewPCG(uint64(s.seed), 0)))
	if s.restore != nil {
		if err := s.restore.Apply(engine); err != nil {
			engine.Close()
			return fmt.Errorf("restoring snapshot: %w", err)
		}
		if s.restore.Tau != params.Tau {
			slog.Warn("snapshot tau differs from config", "snapshot", s.restore.Tau, "config", params.Tau)
		}
		slog.Info("restored snapshot", "step", s.restore.Step)
	}
	engine.SetPhaseTimer(s.perf)

	if s.engine != nil {
		s.engine.Close()
	}
	s.engine = engine
	s.failed = nil
	s.samples = 0
	s.last = diagnostics.FrameStats{}
	s.bookmarks = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory)

	s.tracers = nil
	if cfg.Tracers.Enabled {
		s.tracers = tracers.New(tracers.Config{
			SpawnInterval: cfg.Tracers.SpawnInterval,
			PerSpawn:      cfg.Tracers.PerSpawn,
			MaxAge:        cfg.Tracers.MaxAge,
		})
	}

	s.probe = nil
	if cfg.Probe.Enabled {
		s.probe = diagnostics.NewProbe(cfg.Derived.ProbeX, cfg.Derived.ProbeY, cfg.Probe.Window)
	}
	return nil
}

// Reset restarts the run from the initial state with the same seed.
func (s *Simulation) Reset() error {
	slog.Info("simulation reset", "step", s.StepCount())
	return s.build()
}

// Step advances one timestep and emits a frame when the sampling interval
// is due. An instability error is returned again on every later call.
func (s *Simulation) Step() error {
	if s.failed != nil {
		return s.failed
	}

	s.perf.StartTick()
	if err := s.engine.Step(); err != nil {
		s.perf.EndTick()
		s.failed = fmt.Errorf("advancing simulation: %w", err)
		return s.failed
	}

	// Zero-based index of the step just completed.
	it := s.engine.StepCount() - 1
	fields := s.engine.Fields()

	if s.tracers != nil {
		s.perf.StartPhase(telemetry.PhaseTracers)
		s.tracers.Update(fields, s.engine.Mask())
	}

	s.perf.StartPhase(telemetry.PhaseDiagnostics)
	if s.probe != nil {
		s.probe.Record(fields)
	}
	if it%s.cfg.Run.SampleInterval == 0 {
		frame := s.frame(it)
		s.perf.StartPhase(telemetry.PhaseSinks)
		s.emit(frame)
	}
	s.perf.EndTick()
	return nil
}

// frame computes vorticity and statistics for the current fields.
func (s *Simulation) frame(it int) Frame {
	fields := s.engine.Fields()
	s.vort = diagnostics.VorticityInto(s.vort, fields)

	var stats diagnostics.FrameStats
	stats, s.scratch = diagnostics.Summarize(it, fields, s.vort, s.scratch)

	s.positions = s.positions[:0]
	if s.tracers != nil {
		stats.Tracers = s.tracers.Count()
		s.positions = s.tracers.Positions(s.positions)
	}
	s.last = stats

	return Frame{
		Step:      it,
		Vorticity: s.vort,
		Fields:    fields,
		Mask:      s.engine.Mask(),
		Stats:     stats,
		Tracers:   s.positions,
	}
}

// emit hands the frame to every sink and writes the CSV records.
func (s *Simulation) emit(f Frame) {
	s.samples++

	if err := s.output.WriteFrame(f.Stats); err != nil {
		s.sinkFailed("frames.csv", f.Step, err)
	}
	for _, sink := range s.sinks {
		if err := sink.Emit(f); err != nil {
			s.sinkFailed(fmt.Sprintf("%T", sink), f.Step, err)
		}
	}

	for _, b := range s.bookmarks.Check(f.Stats) {
		s.bookmark(b)
	}

	perf := s.perf.Stats()
	if err := s.output.WritePerf(perf, f.Step); err != nil {
		s.sinkFailed("perf.csv", f.Step, err)
	}

	if s.logStats && (s.samples-1)%max(s.cfg.Telemetry.LogEvery, 1) == 0 {
		f.Stats.LogStats()
		perf.LogStats()
	}
}

// bookmark records a detected flow event and checkpoints the grid.
func (s *Simulation) bookmark(b telemetry.Bookmark) {
	if s.logStats {
		b.LogBookmark()
	}
	if err := s.output.WriteBookmark(b); err != nil {
		s.sinkFailed("bookmarks.csv", b.Step, err)
	}
	if s.snapshotDir == "" {
		return
	}
	snap := telemetry.CaptureSnapshot(s.engine, s.seed)
	snap.Bookmark = &b
	if _, err := telemetry.SaveSnapshot(snap, s.snapshotDir); err != nil {
		s.sinkFailed("snapshot", b.Step, err)
	}
}

// SaveSnapshot writes a checkpoint of the current grid to dir.
func (s *Simulation) SaveSnapshot(dir string) (string, error) {
	return telemetry.SaveSnapshot(telemetry.CaptureSnapshot(s.engine, s.seed), dir)
}

func (s *Simulation) sinkFailed(name string, step int, err error) {
	s.sinkErrors++
	slog.Error("sink failed", "sink", name, "step", step, "error", err)
}

// Run steps until maxSteps (0 = run.steps from the config) or an error.
func (s *Simulation) Run(maxSteps int) error {
	if maxSteps <= 0 {
		maxSteps = s.cfg.Run.Steps
	}

	slog.Info("starting run", "steps", maxSteps, "sample_interval", s.cfg.Run.SampleInterval)
	start := time.Now()
	for s.StepCount() < maxSteps {
		if err := s.Step(); err != nil {
			var inst *fluid.InstabilityError
			if errors.As(err, &inst) {
				slog.Error("numerical instability", "step", inst.Step, "x", inst.X, "y", inst.Y, "rho", inst.Rho)
			}
			return err
		}
	}

	elapsed := time.Since(start)
	attrs := []any{
		"steps", s.StepCount(),
		"elapsed", elapsed.Round(time.Millisecond).String(),
		"sink_errors", s.sinkErrors,
		"last", s.last,
	}
	if st, ok := s.Strouhal(); ok {
		attrs = append(attrs, "strouhal", st)
	}
	if s.snapshotDir != "" {
		path, err := s.SaveSnapshot(s.snapshotDir)
		if err != nil {
			s.sinkFailed("snapshot", s.StepCount(), err)
		} else {
			attrs = append(attrs, "snapshot", path)
		}
	}
	slog.Info("run complete", attrs...)
	return nil
}

// Strouhal estimates f*D/U from the wake probe, using the obstacle's
// cross-stream size and the inlet velocity of the last frame.
func (s *Simulation) Strouhal() (float64, bool) {
	if s.probe == nil {
		return 0, false
	}
	u := s.last.InletVelocity
	if u == 0 {
		u = diagnostics.InletVelocity(s.engine.Fields())
	}
	return s.probe.Strouhal(s.cfg.Derived.Diameter, u)
}

// AddSink registers another sink for the following frames.
func (s *Simulation) AddSink(sink Sink) { s.sinks = append(s.sinks, sink) }

// StepCount returns the number of completed timesteps.
func (s *Simulation) StepCount() int { return s.engine.StepCount() }

// LastStats returns the statistics of the most recent frame.
func (s *Simulation) LastStats() diagnostics.FrameStats { return s.last }

// SinkErrors returns the number of failed sink writes so far.
func (s *Simulation) SinkErrors() int { return s.sinkErrors }

// Perf exposes the step timings.
func (s *Simulation) Perf() *telemetry.PerfCollector { return s.perf }

// Engine exposes the underlying engine.
func (s *Simulation) Engine() *fluid.Engine { return s.engine }

// Tracers returns the live tracer positions appended to dst.
func (s *Simulation) Tracers(dst []tracers.Position) []tracers.Position {
	if s.tracers == nil {
		return dst
	}
	return s.tracers.Positions(dst)
}

// Config returns the run configuration.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Close closes every sink and the CSV output and stops the workers.
func (s *Simulation) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %T: %w", sink, err))
		}
	}
	errs = append(errs, s.output.Close())
	s.engine.Close()
	return errors.Join(errs...)
}
