// Package diagnostics derives read-only quantities from the macroscopic
// fields: vorticity, per-frame statistics and the shedding frequency.
package diagnostics

import "github.com/pthm-cable/vortex/fluid"

// Field is a 2D scalar field in row-major order.
type Field struct {
	W, H int
	Data []float64
}

// NewField allocates a zeroed w×h field.
func NewField(w, h int) *Field {
	return &Field{W: w, H: h, Data: make([]float64, w*h)}
}

// At returns the value at (x, y).
func (f *Field) At(x, y int) float64 { return f.Data[y*f.W+x] }

// Vorticity returns the curl of the velocity over interior cells, using
// central differences:
//
//	curl(x,y) = (uy(x+1,y) - uy(x-1,y)) - (ux(x,y+1) - ux(x,y-1))
//
// Cell (x, y) of the result corresponds to grid cell (x+1, y+1). Grids
// narrower than three cells in either axis yield an empty field.
func Vorticity(fl *fluid.Fields) *Field {
	return VorticityInto(nil, fl)
}

// VorticityInto is Vorticity reusing dst when it has the right shape.
func VorticityInto(dst *Field, fl *fluid.Fields) *Field {
	nx, ny := fl.Nx, fl.Ny
	w, h := max(nx-2, 0), max(ny-2, 0)
	if dst == nil || dst.W != w || dst.H != h {
		dst = NewField(w, h)
	}
	for y := 1; y < ny-1; y++ {
		row := y * nx
		out := dst.Data[(y-1)*w : y*w]
		for x := 1; x < nx-1; x++ {
			i := row + x
			dUydx := fl.Uy[i+1] - fl.Uy[i-1]
			dUxdy := fl.Ux[i+nx] - fl.Ux[i-nx]
			out[x-1] = dUydx - dUxdy
		}
	}
	return dst
}
