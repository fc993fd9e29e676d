// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/vortex/fluid"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Fluid     FluidConfig     `yaml:"fluid"`
	Run       RunConfig       `yaml:"run"`
	Obstacle  ObstacleConfig  `yaml:"obstacle"`
	Boundary  BoundaryConfig  `yaml:"boundary"`
	Tracers   TracersConfig   `yaml:"tracers"`
	Probe     ProbeConfig     `yaml:"probe"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Render    RenderConfig    `yaml:"render"`
	Screen    ScreenConfig    `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds lattice dimensions in cells.
type GridConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// FluidConfig holds the physical parameters.
type FluidConfig struct {
	Rho0         float64 `yaml:"rho0"`         // Target average density
	Tau          float64 `yaml:"tau"`          // BGK relaxation time (> 0.5)
	Perturbation float64 `yaml:"perturbation"` // Initial noise amplitude
	EastBias     float64 `yaml:"east_bias"`    // Initial east population before rescaling
}

// RunConfig holds loop control.
type RunConfig struct {
	Steps          int   `yaml:"steps"`
	SampleInterval int   `yaml:"sample_interval"` // Steps between diagnostic frames
	Seed           int64 `yaml:"seed"`            // 0 = time-based
	Workers        int   `yaml:"workers"`         // 0 = GOMAXPROCS
}

// ObstacleConfig describes the solid body. Zero-valued geometry fields fall
// back to defaults derived from the grid.
type ObstacleConfig struct {
	Shape     string  `yaml:"shape"` // circle | rect | airfoil | none
	CenterX   float64 `yaml:"center_x"`
	CenterY   float64 `yaml:"center_y"`
	Radius    float64 `yaml:"radius"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Chord     float64 `yaml:"chord"`
	Thickness float64 `yaml:"thickness"`
	Camber    float64 `yaml:"camber"`
	CamberPos float64 `yaml:"camber_pos"`
}

// Obstacle shapes.
const (
	ShapeCircle  = "circle"
	ShapeRect    = "rect"
	ShapeAirfoil = "airfoil"
	ShapeNone    = "none"
)

// BoundaryConfig holds edge treatment.
type BoundaryConfig struct {
	OpenEdges bool `yaml:"open_edges"`
}

// TracersConfig holds passive tracer particle parameters.
type TracersConfig struct {
	Enabled       bool `yaml:"enabled"`
	SpawnInterval int  `yaml:"spawn_interval"` // Steps between inlet releases
	PerSpawn      int  `yaml:"per_spawn"`      // Particles per release
	MaxAge        int  `yaml:"max_age"`        // Steps before a tracer is dropped
}

// ProbeConfig positions the wake probe relative to the obstacle centre.
type ProbeConfig struct {
	Enabled bool `yaml:"enabled"`
	OffsetX int  `yaml:"offset_x"` // 0 = two diameters downstream
	OffsetY int  `yaml:"offset_y"`
	Window  int  `yaml:"window"` // Samples kept for the spectrum
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow      int `yaml:"perf_window"`
	LogEvery        int `yaml:"log_every"`
	BookmarkHistory int `yaml:"bookmark_history"` // Sampled frames kept for event detection
}

// RenderConfig holds image output parameters.
type RenderConfig struct {
	Scale          int     `yaml:"scale"`
	VorticityRange float64 `yaml:"vorticity_range"` // Colour scale is [-range, range]
	GIFDelay       int     `yaml:"gif_delay"`       // Hundredths of a second per frame
	GIFMaxFrames   int     `yaml:"gif_max_frames"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	CenterX, CenterY float64 // Effective obstacle centre
	Chord            float64 // Effective airfoil chord
	Diameter         float64 // Characteristic obstacle length for the Strouhal number
	ProbeX, ProbeY   int     // Effective probe cell
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse overlays the YAML document data on the embedded defaults, then
// validates the result and computes derived values.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the configuration and recomputes derived values.
// Call it again after changing fields programmatically.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate reports every configuration error found.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Grid.Width <= 0 {
		bad("grid.width must be positive, got %d", c.Grid.Width)
	}
	if c.Grid.Height <= 0 {
		bad("grid.height must be positive, got %d", c.Grid.Height)
	}
	if !(c.Fluid.Rho0 > 0) {
		bad("fluid.rho0 must be positive, got %v", c.Fluid.Rho0)
	}
	if !(c.Fluid.Tau > 0.5) {
		bad("fluid.tau must exceed 0.5, got %v", c.Fluid.Tau)
	}
	if c.Fluid.Perturbation < 0 {
		bad("fluid.perturbation must be non-negative, got %v", c.Fluid.Perturbation)
	}
	if c.Run.Steps < 0 {
		bad("run.steps must be non-negative, got %d", c.Run.Steps)
	}
	if c.Run.SampleInterval <= 0 {
		bad("run.sample_interval must be positive, got %d", c.Run.SampleInterval)
	}
	if c.Run.Workers < 0 {
		bad("run.workers must be non-negative, got %d", c.Run.Workers)
	}

	switch c.Obstacle.Shape {
	case ShapeCircle:
		if c.Obstacle.Radius < 0 {
			bad("obstacle.radius must be non-negative, got %v", c.Obstacle.Radius)
		}
	case ShapeRect:
		if c.Obstacle.Width <= 0 || c.Obstacle.Height <= 0 {
			bad("obstacle.width and obstacle.height must be positive for a rect, got %dx%d", c.Obstacle.Width, c.Obstacle.Height)
		}
	case ShapeAirfoil:
		if c.Obstacle.Chord < 0 {
			bad("obstacle.chord must be non-negative, got %v", c.Obstacle.Chord)
		}
		if c.Obstacle.Thickness <= 0 {
			bad("obstacle.thickness must be positive, got %v", c.Obstacle.Thickness)
		}
	case ShapeNone:
	default:
		bad("obstacle.shape %q is not one of circle, rect, airfoil, none", c.Obstacle.Shape)
	}

	if c.Tracers.Enabled && (c.Tracers.SpawnInterval <= 0 || c.Tracers.PerSpawn <= 0) {
		bad("tracers.spawn_interval and tracers.per_spawn must be positive when tracers are enabled")
	}
	if c.Render.VorticityRange <= 0 {
		bad("render.vorticity_range must be positive, got %v", c.Render.VorticityRange)
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	o := c.Obstacle

	// Obstacle centre defaults to a quarter of the way into the channel
	cx, cy := o.CenterX, o.CenterY
	if cx == 0 {
		cx = float64(c.Grid.Width / 4)
	}
	if cy == 0 {
		cy = float64(c.Grid.Height / 2)
	}
	c.Derived.CenterX = cx
	c.Derived.CenterY = cy

	c.Derived.Chord = o.Chord
	if c.Derived.Chord == 0 {
		c.Derived.Chord = float64(c.Grid.Width) / 4
	}

	switch o.Shape {
	case ShapeCircle:
		c.Derived.Diameter = 2 * o.Radius
	case ShapeRect:
		c.Derived.Diameter = float64(o.Height)
	case ShapeAirfoil:
		c.Derived.Diameter = c.Derived.Chord * o.Thickness
	default:
		c.Derived.Diameter = 0
	}

	offX := c.Probe.OffsetX
	if offX == 0 {
		offX = int(2 * c.Derived.Diameter)
		if o.Shape == ShapeAirfoil {
			offX = int(c.Derived.Chord) + int(c.Derived.Diameter)
		}
	}
	c.Derived.ProbeX = min(max(int(cx)+offX, 0), c.Grid.Width-1)
	c.Derived.ProbeY = min(max(int(cy)+c.Probe.OffsetY, 0), c.Grid.Height-1)
}

// Shape builds the obstacle predicate.
func (c *Config) Shape() fluid.Shape {
	o := c.Obstacle
	d := c.Derived
	switch o.Shape {
	case ShapeCircle:
		return fluid.Circle(d.CenterX, d.CenterY, o.Radius)
	case ShapeRect:
		return fluid.Rect(int(d.CenterX)-o.Width/2, int(d.CenterY)-o.Height/2, o.Width, o.Height)
	case ShapeAirfoil:
		// Leading edge sits on the configured centre.
		return fluid.Airfoil(d.CenterX, d.CenterY, d.Chord, o.Camber, o.CamberPos, o.Thickness)
	default:
		return fluid.NoObstacle
	}
}

// FluidParams converts the configuration into engine parameters.
func (c *Config) FluidParams() fluid.Params {
	return fluid.Params{
		Nx:           c.Grid.Width,
		Ny:           c.Grid.Height,
		Rho0:         c.Fluid.Rho0,
		Tau:          c.Fluid.Tau,
		Perturbation: c.Fluid.Perturbation,
		EastBias:     c.Fluid.EastBias,
		OpenEdges:    c.Boundary.OpenEdges,
		Workers:      c.Run.Workers,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
