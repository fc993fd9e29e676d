package fluid

import "github.com/pthm-cable/vortex/lattice"

// NormalSource produces standard normal samples. *rand.Rand from
// math/rand/v2 satisfies it.
type NormalSource interface {
	NormFloat64() float64
}

// Initialize seeds a rightward flow: every population gets 1 + eps*noise,
// the east population is overwritten with p.EastBias, and each cell is then
// rescaled so its density equals p.Rho0.
func Initialize(pop *Populations, p Params, src NormalSource) {
	n := pop.Nx * pop.Ny
	for i := 0; i < n; i++ {
		var f [lattice.Q]float64
		for d := range f {
			noise := 0.0
			if p.Perturbation != 0 {
				noise = src.NormFloat64()
			}
			f[d] = 1 + p.Perturbation*noise
		}
		f[lattice.East] = p.EastBias

		var rho float64
		for _, v := range f {
			rho += v
		}
		scale := p.Rho0 / rho
		for d := range f {
			f[d] *= scale
		}
		pop.SetCell(i, f)
	}
}

// InitializeEquilibrium sets every cell to the rest equilibrium rho0*w_i.
func InitializeEquilibrium(pop *Populations, rho0 float64) {
	for _, d := range lattice.Directions {
		v := rho0 * lattice.W[d]
		layer := pop.Layer(d)
		for i := range layer {
			layer[i] = v
		}
	}
}
