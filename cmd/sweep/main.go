// Package main runs headless simulations across relaxation times and records
// the wake's Strouhal number for each, optionally searching for the tau that
// reproduces a target Strouhal number.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/vortex/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	tauList := flag.String("taus", "0.52,0.53,0.55,0.6,0.7", "Comma-separated relaxation times to sweep")
	steps := flag.Int("steps", 20000, "Timesteps per run")
	seeds := flag.Int("seeds", 1, "Number of seeds per tau")
	targetSt := flag.Float64("target-st", 0, "Search for the tau matching this Strouhal number (0 = sweep only)")
	maxEvals := flag.Int("max-evals", 20, "Maximum tau evaluations for the Strouhal search")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Keep per-run logging quiet; progress goes to stdout.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()

	taus, err := ParseTaus(*tauList)
	if err != nil {
		log.Fatal(err)
	}

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewEvaluator(baseCfg, *steps, evalSeeds)

	var all []Result
	startTime := time.Now()
	for i, tau := range taus {
		results := evaluator.Evaluate(tau)
		all = append(all, results...)

		elapsed := time.Since(startTime)
		remaining := elapsed / time.Duration(i+1) * time.Duration(len(taus)-i-1)
		st, ok := MeanStrouhal(results)
		fmt.Printf("tau %.4f (%d/%d): St=%s status=%s | elapsed: %s, ETA: %s\n",
			tau, i+1, len(taus), formatSt(st, ok), results[0].Status,
			formatDuration(elapsed), formatDuration(remaining))
	}

	if *targetSt > 0 {
		best, results := calibrate(evaluator, *targetSt, taus, *maxEvals)
		all = append(all, results...)
		fmt.Printf("\nBest tau for St=%.4f: %.5f\n", *targetSt, best)

		bestCfg := *baseCfg
		bestCfg.Fluid.Tau = best
		configOutPath := filepath.Join(*outputDir, "best_config.yaml")
		if err := bestCfg.WriteYAML(configOutPath); err != nil {
			log.Printf("failed to write best config: %v", err)
		} else {
			fmt.Printf("Best config saved to: %s\n", configOutPath)
		}
	}

	csvPath := filepath.Join(*outputDir, "sweep.csv")
	f, err := os.Create(csvPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", csvPath, err)
	}
	defer f.Close()
	if err := gocsv.Marshal(all, f); err != nil {
		log.Fatalf("failed to write %s: %v", csvPath, err)
	}

	fmt.Printf("\n%d runs complete in %s, results in %s\n",
		evaluator.Runs(), formatDuration(time.Since(startTime)), csvPath)
}

// calibrate minimises (St(tau) - target)^2 with Nelder-Mead, starting from
// the first swept tau.
func calibrate(ev *Evaluator, target float64, taus []float64, maxEvals int) (float64, []Result) {
	var results []Result
	bestTau, bestLoss := taus[0], math.Inf(1)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			tau := TauFromParam(x[0])
			rs := ev.Evaluate(tau)
			results = append(results, rs...)

			st, ok := MeanStrouhal(rs)
			loss := 1e6
			if ok {
				loss = (st - target) * (st - target)
			}
			if loss < bestLoss {
				bestTau, bestLoss = tau, loss
			}
			fmt.Printf("search tau %.5f: St=%s loss=%.3g\n", tau, formatSt(st, ok), loss)
			return loss
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0,
	}
	start := []float64{ParamFromTau(min(taus[0], 0.99))}
	if _, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{}); err != nil {
		log.Printf("search ended: %v", err)
	}
	return bestTau, results
}

func formatSt(st float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", st)
}
