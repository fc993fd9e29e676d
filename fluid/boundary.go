package fluid

import "github.com/pthm-cable/vortex/lattice"

// CaptureBounceBack stores, for every solid cell, its population vector
// reordered through the opposite-direction table. The captured values are
// written back by ApplyBoundary after the moments have been taken.
func (e *Engine) CaptureBounceBack() {
	p := e.pop
	for k, i := range e.mask.Cells() {
		f := &e.captured[k]
		for d := range f {
			f[d] = p.cur[lattice.Opposite[d]][i]
		}
	}
}

// ApplyBoundary writes the captured bounce-back vectors into the solid cells
// and forces zero velocity there.
//
// The density at solid cells was already taken from the pre-reflection
// populations, so collision at those cells uses that density with u = 0.
// This ordering is kept on purpose; reflection preserves the cell sum, so
// only the velocity differs from a post-reflection evaluation.
func (e *Engine) ApplyBoundary() {
	p := e.pop
	fl := e.fields
	for k, i := range e.mask.Cells() {
		p.SetCell(i, e.captured[k])
		fl.Ux[i] = 0
		fl.Uy[i] = 0
	}
}
