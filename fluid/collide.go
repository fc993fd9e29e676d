package fluid

import (
	"math"

	"github.com/pthm-cable/vortex/lattice"
)

// ComputeMoments derives density and velocity over the whole grid from the
// current populations. It returns an *InstabilityError for the first cell
// (in row-major order) with non-positive or non-finite density or
// non-finite velocity.
func (e *Engine) ComputeMoments() error {
	p := e.pop
	fl := e.fields
	nx := p.Nx

	f0 := p.cur[lattice.Rest]
	fN, fNE, fE, fSE := p.cur[lattice.North], p.cur[lattice.NorthEast], p.cur[lattice.East], p.cur[lattice.SouthEast]
	fS, fSW, fW, fNW := p.cur[lattice.South], p.cur[lattice.SouthWest], p.cur[lattice.West], p.cur[lattice.NorthWest]

	e.pool.run(p.Ny, nx, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			e.rowBad[y] = -1
			for i := y * nx; i < (y+1)*nx; i++ {
				rho := f0[i] + fN[i] + fNE[i] + fE[i] + fSE[i] + fS[i] + fSW[i] + fW[i] + fNW[i]
				// Paired sums keep a symmetric cell at exactly zero momentum.
				jx := (fNE[i] + fE[i] + fSE[i]) - (fNW[i] + fW[i] + fSW[i])
				jy := (fN[i] + fNE[i] + fNW[i]) - (fS[i] + fSE[i] + fSW[i])
				ux := jx / rho
				uy := jy / rho

				fl.Rho[i] = rho
				fl.Ux[i] = ux
				fl.Uy[i] = uy

				if e.rowBad[y] < 0 && !(rho > 0 && !math.IsInf(rho, 0) && isFinite(ux) && isFinite(uy)) {
					e.rowBad[y] = i
				}
			}
		}
	})

	for _, i := range e.rowBad {
		if i >= 0 {
			return &InstabilityError{
				Step: e.step,
				X:    i % nx,
				Y:    i / nx,
				Rho:  fl.Rho[i],
				Ux:   fl.Ux[i],
				Uy:   fl.Uy[i],
			}
		}
	}
	return nil
}

// Collide relaxes every cell toward its local equilibrium:
// F <- F - (F - Feq)/tau.
func (e *Engine) Collide() {
	p := e.pop
	fl := e.fields
	nx := p.Nx
	omega := e.params.Omega()

	e.pool.run(p.Ny, nx, func(y0, y1 int) {
		var feq [lattice.Q]float64
		for i := y0 * nx; i < y1*nx; i++ {
			lattice.EquilibriumAll(&feq, fl.Rho[i], fl.Ux[i], fl.Uy[i])
			for d := range feq {
				f := p.cur[d][i]
				p.cur[d][i] = f - omega*(f-feq[d])
			}
		}
	})
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
