// Package fluid holds the lattice Boltzmann grid state and the per-step
// update pipeline: open edges, streaming, bounce-back, moments, collision.
package fluid

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is wrapped by every error returned from Params.Validate.
var ErrInvalidParams = errors.New("fluid: invalid parameters")

// Params is the immutable physical and numerical setup of one run.
type Params struct {
	Nx, Ny int

	Rho0         float64 // target average density
	Tau          float64 // BGK relaxation time, must exceed 0.5
	Perturbation float64 // amplitude of the initial normal noise
	EastBias     float64 // value written to the east population before rescaling

	// OpenEdges copies the outflow/inflow populations from the neighbouring
	// column before streaming. When false the domain is fully periodic.
	OpenEdges bool

	// Workers bounds the row worker pool (0 = GOMAXPROCS, 1 = sequential).
	Workers int
}

// DefaultParams returns the parameters of the classic cylinder run.
func DefaultParams() Params {
	return Params{
		Nx:           400,
		Ny:           100,
		Rho0:         100,
		Tau:          0.53,
		Perturbation: 0.01,
		EastBias:     2.3,
		OpenEdges:    true,
	}
}

// Validate reports every parameter outside its legal range.
func (p Params) Validate() error {
	var errs []error
	if p.Nx <= 0 {
		errs = append(errs, fmt.Errorf("%w: Nx must be positive, got %d", ErrInvalidParams, p.Nx))
	}
	if p.Ny <= 0 {
		errs = append(errs, fmt.Errorf("%w: Ny must be positive, got %d", ErrInvalidParams, p.Ny))
	}
	if !(p.Rho0 > 0) {
		errs = append(errs, fmt.Errorf("%w: Rho0 must be positive, got %v", ErrInvalidParams, p.Rho0))
	}
	// tau <= 0.5 gives zero or negative viscosity.
	if !(p.Tau > 0.5) {
		errs = append(errs, fmt.Errorf("%w: Tau must exceed 0.5, got %v", ErrInvalidParams, p.Tau))
	}
	if p.Perturbation < 0 {
		errs = append(errs, fmt.Errorf("%w: Perturbation must be non-negative, got %v", ErrInvalidParams, p.Perturbation))
	}
	if p.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: Workers must be non-negative, got %d", ErrInvalidParams, p.Workers))
	}
	return errors.Join(errs...)
}

// Omega is the collision frequency 1/tau.
func (p Params) Omega() float64 { return 1 / p.Tau }

// Viscosity is the kinematic viscosity in lattice units.
func (p Params) Viscosity() float64 { return (p.Tau - 0.5) / 3 }
