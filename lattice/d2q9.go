// Package lattice defines the D2Q9 discrete velocity set used by the solver.
package lattice

import (
	"fmt"
	"math"
)

// Q is the number of discrete velocities.
const Q = 9

// Direction indexes one of the nine lattice velocities.
type Direction int

// Fixed direction indexing. Positive y points to higher row indices.
const (
	Rest Direction = iota
	North
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Directions lists every direction in index order.
var Directions = [Q]Direction{Rest, North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// C holds the integer velocity (cx, cy) of each direction.
var C = [Q][2]int{
	Rest:      {0, 0},
	North:     {0, 1},
	NorthEast: {1, 1},
	East:      {1, 0},
	SouthEast: {1, -1},
	South:     {0, -1},
	SouthWest: {-1, -1},
	West:      {-1, 0},
	NorthWest: {-1, 1},
}

// W holds the quadrature weight of each direction.
var W = [Q]float64{
	Rest:      4.0 / 9,
	North:     1.0 / 9,
	NorthEast: 1.0 / 36,
	East:      1.0 / 9,
	SouthEast: 1.0 / 36,
	South:     1.0 / 9,
	SouthWest: 1.0 / 36,
	West:      1.0 / 9,
	NorthWest: 1.0 / 36,
}

// Opposite maps each direction to the one with the negated velocity.
// Bounce-back reads population Opposite[d] into slot d.
var Opposite = [Q]Direction{
	Rest:      Rest,
	North:     South,
	NorthEast: SouthWest,
	East:      West,
	SouthEast: NorthWest,
	South:     North,
	SouthWest: NorthEast,
	West:      East,
	NorthWest: SouthEast,
}

// EastFacing and WestFacing are the directions with cx = +1 and cx = -1.
var (
	EastFacing = [3]Direction{NorthEast, East, SouthEast}
	WestFacing = [3]Direction{SouthWest, West, NorthWest}
)

var names = [Q]string{"rest", "n", "ne", "e", "se", "s", "sw", "w", "nw"}

func (d Direction) String() string {
	if d < 0 || int(d) >= Q {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return names[d]
}

// Cx returns the horizontal velocity component.
func (d Direction) Cx() int { return C[d][0] }

// Cy returns the vertical velocity component.
func (d Direction) Cy() int { return C[d][1] }

// Reflect applies the opposite-direction permutation to a population vector.
func Reflect(f [Q]float64) [Q]float64 {
	var out [Q]float64
	for i := range out {
		out[i] = f[Opposite[i]]
	}
	return out
}

// Equilibrium returns the second-order equilibrium population for direction d.
func Equilibrium(rho, ux, uy float64, d Direction) float64 {
	cu := float64(C[d][0])*ux + float64(C[d][1])*uy
	return rho * W[d] * (1 + 3*cu + 4.5*cu*cu - 1.5*(ux*ux+uy*uy))
}

// EquilibriumAll fills dst with the equilibrium of every direction.
func EquilibriumAll(dst *[Q]float64, rho, ux, uy float64) {
	usq := 1.5 * (ux*ux + uy*uy)
	for i := range dst {
		cu := float64(C[i][0])*ux + float64(C[i][1])*uy
		dst[i] = rho * W[i] * (1 + 3*cu + 4.5*cu*cu - usq)
	}
}

const validateTol = 1e-12

// Validate checks the weight and moment conditions of the velocity set and
// that Opposite is a self-inverse permutation negating every velocity.
func Validate() error {
	var sumW, mx, my, mxx, myy, mxy float64
	for i := 0; i < Q; i++ {
		cx, cy := float64(C[i][0]), float64(C[i][1])
		sumW += W[i]
		mx += W[i] * cx
		my += W[i] * cy
		mxx += W[i] * cx * cx
		myy += W[i] * cy * cy
		mxy += W[i] * cx * cy
	}
	if math.Abs(sumW-1) > validateTol {
		return fmt.Errorf("lattice: weights sum to %v, want 1", sumW)
	}
	if math.Abs(mx) > validateTol || math.Abs(my) > validateTol {
		return fmt.Errorf("lattice: first moment (%v, %v), want zero", mx, my)
	}
	if math.Abs(mxx-1.0/3) > validateTol || math.Abs(myy-1.0/3) > validateTol || math.Abs(mxy) > validateTol {
		return fmt.Errorf("lattice: second moment (%v, %v, %v) is not isotropic", mxx, myy, mxy)
	}

	for i := 0; i < Q; i++ {
		o := Opposite[i]
		if o < 0 || int(o) >= Q {
			return fmt.Errorf("lattice: opposite of %v out of range", Direction(i))
		}
		if Opposite[o] != Direction(i) {
			return fmt.Errorf("lattice: opposite table not self-inverse at %v", Direction(i))
		}
		if C[o][0] != -C[i][0] || C[o][1] != -C[i][1] {
			return fmt.Errorf("lattice: opposite of %v does not negate its velocity", Direction(i))
		}
		if W[o] != W[i] {
			return fmt.Errorf("lattice: opposite of %v has a different weight", Direction(i))
		}
	}
	for _, d := range EastFacing {
		if C[d][0] != 1 {
			return fmt.Errorf("lattice: %v listed as east-facing", d)
		}
	}
	for _, d := range WestFacing {
		if C[d][0] != -1 {
			return fmt.Errorf("lattice: %v listed as west-facing", d)
		}
	}
	return nil
}
