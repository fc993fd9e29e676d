package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/vortex/fluid"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10, 1000)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(fluid.PhaseStream)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(fluid.PhaseCollide)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average step duration")
	}
	for _, phase := range []string{fluid.PhaseStream, fluid.PhaseCollide} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("expected %s phase to be tracked", phase)
		}
	}
	if _, ok := stats.PhaseAvg[fluid.PhaseMoments]; ok {
		t.Error("phase that never ran should not be reported")
	}
	if stats.MLUPS <= 0 {
		t.Error("expected positive MLUPS")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5, 1)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(fluid.PhaseStream)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average step duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive steps per second")
	}
	if stats.MinTickDuration > stats.AvgTickDuration || stats.AvgTickDuration > stats.MaxTickDuration {
		t.Errorf("min/avg/max out of order: %v %v %v", stats.MinTickDuration, stats.AvgTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10, 1)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
	if slowPct > 100 {
		t.Errorf("phase share above 100%%: %v", slowPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10, 1)

	stats := pc.Stats()
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero average for an empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10, 1)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frames, got %v", stats.FPS)
	}
}

func TestPerfCollector_DrivesEngine(t *testing.T) {
	e, err := fluid.NewEngine(fluid.Params{Nx: 8, Ny: 6, Rho0: 1, Tau: 0.8, OpenEdges: true, Workers: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	e.InitializeEquilibrium()

	pc := NewPerfCollector(4, 48)
	e.SetPhaseTimer(pc)
	pc.StartTick()
	if err := e.Step(); err != nil {
		t.Fatal(err)
	}
	pc.EndTick()

	rec := pc.Stats().ToCSV(1)
	if rec.Step != 1 || rec.AvgStepUS < 0 {
		t.Errorf("record = %+v", rec)
	}
	if len(pc.Stats().PhaseAvg) == 0 {
		t.Error("engine phases were not timed")
	}
}
