package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/vortex/config"
	"github.com/pthm-cable/vortex/diagnostics"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Every method must be safe on a nil manager.
	if err := om.WriteFrame(diagnostics.FrameStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Error(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Error(err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should have no directory")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManager_WritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for step := 100; step <= 300; step += 100 {
		if err := om.WriteFrame(diagnostics.FrameStats{Step: step, Enstrophy: 1.5, Tracers: 3}); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	perf := PerfStats{AvgTickDuration: 250 * time.Microsecond, PhasePct: map[string]float64{PhaseSinks: 12.5}}
	if err := om.WritePerf(perf, 300); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkHighSpeed, Step: 200, Description: "fast"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	frames := readLines(t, filepath.Join(dir, "frames.csv"))
	if len(frames) != 4 {
		t.Fatalf("frames.csv has %d lines, want header + 3", len(frames))
	}
	if !strings.HasPrefix(frames[0], "step,vort_min,") {
		t.Errorf("unexpected header %q", frames[0])
	}
	if strings.Count(strings.Join(frames, "\n"), "step,") != 1 {
		t.Error("header written more than once")
	}
	if !strings.HasPrefix(frames[3], "300,") {
		t.Errorf("last row = %q", frames[3])
	}

	perfLines := readLines(t, filepath.Join(dir, "perf.csv"))
	if len(perfLines) != 2 || !strings.Contains(perfLines[0], "sinks_pct") {
		t.Errorf("perf.csv = %q", perfLines)
	}
	if !strings.HasPrefix(perfLines[1], "300,250,") {
		t.Errorf("perf row = %q", perfLines[1])
	}

	bookmarks := readLines(t, filepath.Join(dir, "bookmarks.csv"))
	if len(bookmarks) != 2 || bookmarks[0] != "type,step,description" || bookmarks[1] != "high_speed,200,fast" {
		t.Errorf("bookmarks.csv = %q", bookmarks)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot does not load: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
