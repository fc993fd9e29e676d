package fluid

import "fmt"

// InstabilityError reports the first cell whose moments became unusable.
// The run cannot continue once it is returned.
type InstabilityError struct {
	Step   int
	X, Y   int
	Rho    float64
	Ux, Uy float64
}

func (e *InstabilityError) Error() string {
	return fmt.Sprintf("fluid: numerical instability at step %d, cell (%d,%d): rho=%v ux=%v uy=%v",
		e.Step, e.X, e.Y, e.Rho, e.Ux, e.Uy)
}
