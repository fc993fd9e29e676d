package fluid

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/vortex/lattice"
)

// Populations stores the nine distribution layers of an Nx×Ny grid in
// row-major order. A second set of layers is the streaming target; the two
// are swapped after every stream so no direction ever reads shifted data.
type Populations struct {
	Nx, Ny int
	cur    [lattice.Q][]float64
	next   [lattice.Q][]float64
}

// NewPopulations allocates zeroed populations for the given grid.
func NewPopulations(nx, ny int) *Populations {
	p := &Populations{Nx: nx, Ny: ny}
	n := nx * ny
	for i := range p.cur {
		p.cur[i] = make([]float64, n)
		p.next[i] = make([]float64, n)
	}
	return p
}

// Index returns the linear index of cell (x, y).
func (p *Populations) Index(x, y int) int { return y*p.Nx + x }

// Wrap applies toroidal wrapping to the provided coordinates.
func (p *Populations) Wrap(x, y int) (int, int) {
	x = (x%p.Nx + p.Nx) % p.Nx
	y = (y%p.Ny + p.Ny) % p.Ny
	return x, y
}

// Layer exposes the current values of one direction for direct access.
func (p *Populations) Layer(d lattice.Direction) []float64 { return p.cur[d] }

// At returns population d at cell (x, y).
func (p *Populations) At(x, y int, d lattice.Direction) float64 {
	return p.cur[d][y*p.Nx+x]
}

// Set overwrites population d at cell (x, y).
func (p *Populations) Set(x, y int, d lattice.Direction, v float64) {
	p.cur[d][y*p.Nx+x] = v
}

// Cell gathers the nine populations of cell i.
func (p *Populations) Cell(i int) [lattice.Q]float64 {
	var f [lattice.Q]float64
	for d := range f {
		f[d] = p.cur[d][i]
	}
	return f
}

// SetCell scatters f into the nine layers at cell i.
func (p *Populations) SetCell(i int, f [lattice.Q]float64) {
	for d := range f {
		p.cur[d][i] = f[d]
	}
}

// Density returns the sum of the populations of cell i.
func (p *Populations) Density(i int) float64 {
	var rho float64
	for d := range p.cur {
		rho += p.cur[d][i]
	}
	return rho
}

// Mass returns the total density over the grid.
func (p *Populations) Mass() float64 {
	var m float64
	for d := range p.cur {
		m += floats.Sum(p.cur[d])
	}
	return m
}

// CopyFrom overwrites the current layers with those of src.
// Both must have the same dimensions.
func (p *Populations) CopyFrom(src *Populations) {
	for d := range p.cur {
		copy(p.cur[d], src.cur[d])
	}
}

// swap exchanges the current and streaming layers.
func (p *Populations) swap() {
	p.cur, p.next = p.next, p.cur
}
