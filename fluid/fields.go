package fluid

// Fields holds the macroscopic density and velocity of the last step.
// They are recomputed from the populations every step.
type Fields struct {
	Nx, Ny int
	Rho    []float64
	Ux     []float64
	Uy     []float64
}

// NewFields allocates zeroed fields for the given grid.
func NewFields(nx, ny int) *Fields {
	n := nx * ny
	return &Fields{
		Nx:  nx,
		Ny:  ny,
		Rho: make([]float64, n),
		Ux:  make([]float64, n),
		Uy:  make([]float64, n),
	}
}

// At returns density and velocity at cell (x, y).
func (f *Fields) At(x, y int) (rho, ux, uy float64) {
	i := y*f.Nx + x
	return f.Rho[i], f.Ux[i], f.Uy[i]
}

// Snapshot returns a deep copy.
func (f *Fields) Snapshot() *Fields {
	s := NewFields(f.Nx, f.Ny)
	copy(s.Rho, f.Rho)
	copy(s.Ux, f.Ux)
	copy(s.Uy, f.Uy)
	return s
}
