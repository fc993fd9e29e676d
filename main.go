package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/vortex/config"
	"github.com/pthm-cable/vortex/render"
	"github.com/pthm-cable/vortex/sim"
	"github.com/pthm-cable/vortex/telemetry"
	"github.com/pthm-cable/vortex/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output frame and perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	gifPath := flag.String("gif", "", "Write an animated vorticity GIF to this path")
	heatmapDir := flag.String("heatmap-dir", "", "Write a PNG vorticity heatmap per sampled frame into this directory")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	snapshotDir := flag.String("snapshot-dir", "", "Write population checkpoints on bookmarks and at the end of the run")
	restorePath := flag.String("restore", "", "Resume from a snapshot JSON file")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = run.steps from config; unlimited in graphical mode)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	cmap := render.NewColormap(cfg.Render.VorticityRange)

	var sinks []sim.Sink
	if *gifPath != "" {
		sinks = append(sinks, render.NewGIFSink(*gifPath, cmap, cfg.Render.Scale, cfg.Render.GIFDelay, cfg.Render.GIFMaxFrames))
	}
	if *heatmapDir != "" {
		hm, err := render.NewHeatmapSink(*heatmapDir, cmap, cfg.Render.Scale)
		if err != nil {
			slog.Error("failed to create heatmap sink", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, hm)
	}

	opts := sim.Options{
		Seed:        *seed,
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		Sinks:       sinks,
		SnapshotDir: *snapshotDir,
	}
	if *restorePath != "" {
		snap, err := telemetry.LoadSnapshot(*restorePath)
		if err != nil {
			slog.Error("failed to load snapshot", "error", err)
			os.Exit(1)
		}
		opts.Restore = snap
	}

	if *headless {
		os.Exit(runHeadless(cfg, opts, *maxSteps))
	}
	os.Exit(runGraphical(cfg, opts, cmap, *maxSteps))
}

func runHeadless(cfg *config.Config, opts sim.Options, maxSteps int) int {
	s, err := sim.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}

	runErr := s.Run(maxSteps)
	if err := s.Close(); err != nil {
		slog.Error("failed to close outputs", "error", err)
	}
	if runErr != nil {
		slog.Error("run aborted", "error", runErr)
		return 1
	}
	return 0
}

func runGraphical(cfg *config.Config, opts sim.Options, cmap *render.Colormap, maxSteps int) int {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Vortex")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	s, err := sim.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 1
	}

	v := viewer.New(s, cmap, cfg.Screen.Width, cfg.Screen.Height)
	s.AddSink(v)

	runErr := v.Run(maxSteps)
	if err := s.Close(); err != nil {
		slog.Error("failed to close outputs", "error", err)
	}
	if runErr != nil {
		slog.Error("run aborted", "error", runErr)
		return 1
	}
	return 0
}
