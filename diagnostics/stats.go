package diagnostics

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/vortex/fluid"
)

// FrameStats summarises one sampled step.
type FrameStats struct {
	Step          int     `csv:"step"`
	VortMin       float64 `csv:"vort_min"`
	VortMax       float64 `csv:"vort_max"`
	VortMean      float64 `csv:"vort_mean"`
	VortStd       float64 `csv:"vort_std"`
	VortP95       float64 `csv:"vort_abs_p95"`
	Enstrophy     float64 `csv:"enstrophy"`
	Mass          float64 `csv:"mass"`
	MeanDensity   float64 `csv:"mean_density"`
	MaxSpeed      float64 `csv:"max_speed"`
	InletVelocity float64 `csv:"inlet_velocity"`
	Tracers       int     `csv:"tracers"`
}

// Summarize computes frame statistics from the fields and their vorticity.
// The scratch slice is reused for the |vorticity| quantile when large enough
// and the grown slice is returned.
func Summarize(step int, fl *fluid.Fields, vort *Field, scratch []float64) (FrameStats, []float64) {
	s := FrameStats{Step: step}

	if n := len(vort.Data); n > 0 {
		s.VortMin = floats.Min(vort.Data)
		s.VortMax = floats.Max(vort.Data)
		s.VortMean, s.VortStd = stat.MeanStdDev(vort.Data, nil)
		s.Enstrophy = 0.5 * floats.Dot(vort.Data, vort.Data)

		scratch = slices.Grow(scratch[:0], n)[:n]
		for i, v := range vort.Data {
			scratch[i] = math.Abs(v)
		}
		slices.Sort(scratch)
		s.VortP95 = stat.Quantile(0.95, stat.Empirical, scratch, nil)
	}

	if len(fl.Rho) > 0 {
		s.Mass = floats.Sum(fl.Rho)
		s.MeanDensity = s.Mass / float64(len(fl.Rho))
	}

	var maxSq float64
	for i := range fl.Ux {
		if sq := fl.Ux[i]*fl.Ux[i] + fl.Uy[i]*fl.Uy[i]; sq > maxSq {
			maxSq = sq
		}
	}
	s.MaxSpeed = math.Sqrt(maxSq)
	s.InletVelocity = InletVelocity(fl)

	return s, scratch
}

// InletVelocity is the mean horizontal velocity over the first column.
func InletVelocity(fl *fluid.Fields) float64 {
	if fl.Nx == 0 || fl.Ny == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < fl.Ny; y++ {
		sum += fl.Ux[y*fl.Nx]
	}
	return sum / float64(fl.Ny)
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Float64("vort_min", s.VortMin),
		slog.Float64("vort_max", s.VortMax),
		slog.Float64("vort_abs_p95", s.VortP95),
		slog.Float64("enstrophy", s.Enstrophy),
		slog.Float64("mass", s.Mass),
		slog.Float64("max_speed", s.MaxSpeed),
		slog.Float64("inlet_velocity", s.InletVelocity),
		slog.Int("tracers", s.Tracers),
	)
}

// LogStats logs the frame summary.
func (s FrameStats) LogStats() {
	slog.Info("frame", "stats", s)
}
