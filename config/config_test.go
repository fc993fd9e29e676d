package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Grid.Width != 400 || cfg.Grid.Height != 100 {
		t.Errorf("grid = %dx%d, want 400x100", cfg.Grid.Width, cfg.Grid.Height)
	}
	if cfg.Fluid.Tau != 0.53 || cfg.Fluid.Rho0 != 100 {
		t.Errorf("fluid = %+v", cfg.Fluid)
	}
	if cfg.Derived.CenterX != 100 || cfg.Derived.CenterY != 50 {
		t.Errorf("derived centre = (%v, %v), want (100, 50)", cfg.Derived.CenterX, cfg.Derived.CenterY)
	}
	if cfg.Derived.Diameter != 26 {
		t.Errorf("diameter = %v, want 26", cfg.Derived.Diameter)
	}
	if cfg.Derived.ProbeX != 152 || cfg.Derived.ProbeY != 50 {
		t.Errorf("probe = (%d, %d), want (152, 50)", cfg.Derived.ProbeX, cfg.Derived.ProbeY)
	}

	p := cfg.FluidParams()
	if err := p.Validate(); err != nil {
		t.Errorf("FluidParams().Validate() = %v", err)
	}
	if !p.OpenEdges || p.EastBias != 2.3 {
		t.Errorf("params = %+v", p)
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	doc := []byte(`
grid:
  width: 40
fluid:
  tau: 0.8
obstacle:
  shape: rect
  width: 4
  height: 6
`)
	cfg, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Grid.Width != 40 || cfg.Grid.Height != 100 {
		t.Errorf("grid = %dx%d, want 40x100", cfg.Grid.Width, cfg.Grid.Height)
	}
	if cfg.Fluid.Tau != 0.8 || cfg.Fluid.Rho0 != 100 {
		t.Errorf("fluid = %+v", cfg.Fluid)
	}
	if cfg.Derived.CenterX != 10 || cfg.Derived.Diameter != 6 {
		t.Errorf("derived = %+v", cfg.Derived)
	}

	shape := cfg.Shape()
	if !shape(10, 50) || !shape(8, 47) || shape(12, 50) {
		t.Error("rect shape not centred on (10, 50)")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero width", "grid: {width: 0}"},
		{"negative height", "grid: {height: -1}"},
		{"tau at limit", "fluid: {tau: 0.5}"},
		{"tau below limit", "fluid: {tau: 0.2}"},
		{"negative radius", "obstacle: {radius: -2}"},
		{"unknown shape", "obstacle: {shape: hexagon}"},
		{"rect without size", "obstacle: {shape: rect}"},
		{"zero sample interval", "run: {sample_interval: 0}"},
		{"bad tracers", "tracers: {enabled: true, per_spawn: 0}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse(%q) = %v, want ErrInvalid", tt.doc, err)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Grid.Width = 0
	cfg.Fluid.Tau = 0.4

	err := cfg.Validate()
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if n := len(joined.Unwrap()); n != 2 {
		t.Errorf("got %d errors, want 2: %v", n, err)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("grid: [")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestLoadAndWriteYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, []byte("run: {steps: 12, seed: 7}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.Steps != 12 || cfg.Run.Seed != 7 {
		t.Errorf("run = %+v", cfg.Run)
	}

	out := filepath.Join(dir, "snapshot.yaml")
	if err := cfg.WriteYAML(out); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	if again.Run != cfg.Run || again.Grid != cfg.Grid || again.Obstacle != cfg.Obstacle {
		t.Error("snapshot does not reproduce the configuration")
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestInitAndCfg(t *testing.T) {
	defer func() { global = nil }()

	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Cfg().Grid.Width != 400 {
		t.Errorf("Cfg().Grid.Width = %d", Cfg().Grid.Width)
	}
}
