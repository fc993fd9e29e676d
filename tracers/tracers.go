// Package tracers advects passive streak particles through the flow so the
// wake can be seen without looking at the vorticity field.
package tracers

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/vortex/fluid"
)

// Position is a tracer location in lattice units.
type Position struct {
	X, Y float64
}

// Tracer holds per-particle bookkeeping.
type Tracer struct {
	Age  int32
	Lane int32 // release slot along the inlet
}

// Config controls release and lifetime.
type Config struct {
	SpawnInterval int // steps between releases
	PerSpawn      int // particles per release, spread over the inlet
	MaxAge        int // steps before a tracer is dropped (0 = no limit)
}

// System owns the tracer entities.
type System struct {
	world  *ecs.World
	mapper *ecs.Map2[Position, Tracer]
	filter *ecs.Filter2[Position, Tracer]

	cfg      Config
	updates  int
	count    int
	toRemove []ecs.Entity
}

// New creates an empty tracer system.
func New(cfg Config) *System {
	world := ecs.NewWorld()
	return &System{
		world:  world,
		mapper: ecs.NewMap2[Position, Tracer](world),
		filter: ecs.NewFilter2[Position, Tracer](world),
		cfg:    cfg,
	}
}

// Count returns the number of live tracers.
func (s *System) Count() int { return s.count }

// Spawn releases one row of tracers just inside the inlet.
func (s *System) Spawn(ny int) {
	n := s.cfg.PerSpawn
	for k := 0; k < n; k++ {
		pos := Position{X: 0.5, Y: (float64(k) + 0.5) * float64(ny) / float64(n)}
		tr := Tracer{Lane: int32(k)}
		s.mapper.NewEntity(&pos, &tr)
		s.count++
	}
}

// Update releases new tracers when due, moves every tracer by the local
// velocity and drops those that left the domain, hit the obstacle or aged out.
func (s *System) Update(fl *fluid.Fields, mask *fluid.Mask) {
	if s.cfg.SpawnInterval > 0 && s.updates%s.cfg.SpawnInterval == 0 {
		s.Spawn(fl.Ny)
	}
	s.updates++

	nx, ny := float64(fl.Nx), float64(fl.Ny)

	// First pass: advect and collect expired entities (must complete before modifying)
	s.toRemove = s.toRemove[:0]
	query := s.filter.Query()
	for query.Next() {
		pos, tr := query.Get()

		ux, uy := Sample(fl, pos.X, pos.Y)
		pos.X += ux
		pos.Y = math.Mod(pos.Y+uy, ny)
		if pos.Y < 0 {
			pos.Y += ny
		}
		tr.Age++

		gone := pos.X < 0 || pos.X >= nx-1 ||
			(s.cfg.MaxAge > 0 && int(tr.Age) > s.cfg.MaxAge) ||
			(mask != nil && mask.Solid(int(pos.X+0.5), int(pos.Y+0.5)%fl.Ny))
		if gone {
			s.toRemove = append(s.toRemove, query.Entity())
		}
	}

	// Second pass: remove entities (query iteration complete)
	for _, e := range s.toRemove {
		s.world.RemoveEntity(e)
		s.count--
	}
}

// Positions appends every tracer position to dst.
func (s *System) Positions(dst []Position) []Position {
	query := s.filter.Query()
	for query.Next() {
		pos, _ := query.Get()
		dst = append(dst, *pos)
	}
	return dst
}

// Sample bilinearly interpolates the velocity at (x, y). x is clamped to the
// grid, y wraps around like the lattice.
func Sample(fl *fluid.Fields, x, y float64) (ux, uy float64) {
	nx, ny := fl.Nx, fl.Ny
	if nx == 0 || ny == 0 {
		return 0, 0
	}
	x = math.Max(0, math.Min(x, float64(nx-1)))
	x0 := int(x)
	x1 := min(x0+1, nx-1)
	fx := x - float64(x0)

	fy0 := math.Floor(y)
	fy := y - fy0
	y0 := ((int(fy0) % ny) + ny) % ny
	y1 := (y0 + 1) % ny

	i00, i10 := y0*nx+x0, y0*nx+x1
	i01, i11 := y1*nx+x0, y1*nx+x1

	lerp2 := func(f []float64) float64 {
		bottom := f[i00]*(1-fx) + f[i10]*fx
		top := f[i01]*(1-fx) + f[i11]*fx
		return bottom*(1-fy) + top*fy
	}
	return lerp2(fl.Ux), lerp2(fl.Uy)
}
