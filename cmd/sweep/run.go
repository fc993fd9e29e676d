package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pthm-cable/vortex/config"
	"github.com/pthm-cable/vortex/fluid"
	"github.com/pthm-cable/vortex/sim"
)

// Run status values.
const (
	StatusOK       = "ok"
	StatusUnstable = "unstable"
	StatusError    = "error"
)

// Result is one sweep.csv row.
type Result struct {
	Tau       float64 `csv:"tau"`
	Viscosity float64 `csv:"viscosity"`
	Reynolds  float64 `csv:"reynolds"`
	Seed      int64   `csv:"seed"`
	Steps     int     `csv:"steps"`
	Strouhal  float64 `csv:"strouhal"`
	Enstrophy float64 `csv:"enstrophy"`
	MaxSpeed  float64 `csv:"max_speed"`
	Status    string  `csv:"status"`
	ElapsedS  float64 `csv:"elapsed_s"`
}

// Evaluator runs headless simulations derived from a base config.
type Evaluator struct {
	base  *config.Config
	steps int
	seeds []int64

	mu   sync.Mutex
	runs int
}

// NewEvaluator creates an evaluator running steps timesteps per seed.
func NewEvaluator(base *config.Config, steps int, seeds []int64) *Evaluator {
	return &Evaluator{base: base, steps: steps, seeds: seeds}
}

// Runs returns the number of simulations performed so far.
func (ev *Evaluator) Runs() int {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	return ev.runs
}

// Evaluate runs one simulation per seed at the given tau.
func (ev *Evaluator) Evaluate(tau float64) []Result {
	results := make([]Result, 0, len(ev.seeds))
	for _, seed := range ev.seeds {
		results = append(results, ev.run(tau, seed))
	}
	return results
}

func (ev *Evaluator) run(tau float64, seed int64) (res Result) {
	cfg := *ev.base
	cfg.Fluid.Tau = tau
	cfg.Tracers.Enabled = false

	res = Result{
		Tau:       tau,
		Viscosity: cfg.FluidParams().Viscosity(),
		Seed:      seed,
		Status:    StatusOK,
	}
	start := time.Now()
	defer func() {
		res.ElapsedS = time.Since(start).Seconds()
		ev.mu.Lock()
		ev.runs++
		ev.mu.Unlock()
	}()

	s, err := sim.New(&cfg, sim.Options{Seed: seed})
	if err != nil {
		res.Status = StatusError
		return res
	}
	defer s.Close()

	if err := s.Run(ev.steps); err != nil {
		res.Status = StatusError
		var inst *fluid.InstabilityError
		if errors.As(err, &inst) {
			res.Status = StatusUnstable
		}
	}

	last := s.LastStats()
	res.Steps = s.StepCount()
	res.Enstrophy = last.Enstrophy
	res.MaxSpeed = last.MaxSpeed
	if res.Viscosity > 0 {
		res.Reynolds = last.InletVelocity * cfg.Derived.Diameter / res.Viscosity
	}
	if st, ok := s.Strouhal(); ok && res.Status == StatusOK {
		res.Strouhal = st
	}
	return res
}

// MeanStrouhal averages the Strouhal number over successful runs.
func MeanStrouhal(results []Result) (float64, bool) {
	var sum float64
	var n int
	for _, r := range results {
		if r.Status == StatusOK && r.Strouhal > 0 {
			sum += r.Strouhal
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// TauFromParam maps an unbounded optimizer coordinate onto (0.5, 1).
func TauFromParam(x float64) float64 {
	return 0.5 + 0.5/(1+math.Exp(-x))
}

// ParamFromTau inverts TauFromParam.
func ParamFromTau(tau float64) float64 {
	s := (tau - 0.5) / 0.5
	return math.Log(s / (1 - s))
}

// ParseTaus parses a comma-separated list of relaxation times.
func ParseTaus(s string) ([]float64, error) {
	var taus []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		tau, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing tau %q: %w", field, err)
		}
		if !(tau > 0.5) {
			return nil, fmt.Errorf("tau %v must exceed 0.5", tau)
		}
		taus = append(taus, tau)
	}
	if len(taus) == 0 {
		return nil, errors.New("no tau values given")
	}
	return taus, nil
}
