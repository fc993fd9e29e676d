package lattice

import (
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestEquilibriumAtRest(t *testing.T) {
	const rho0 = 100.0
	for _, d := range Directions {
		got := Equilibrium(rho0, 0, 0, d)
		want := rho0 * W[d]
		if got != want {
			t.Errorf("Equilibrium(%v, 0, 0, %v) = %v, want %v", rho0, d, got, want)
		}
	}
}

func TestEquilibriumMoments(t *testing.T) {
	tests := []struct {
		name        string
		rho, ux, uy float64
	}{
		{"rest", 1, 0, 0},
		{"rightward", 100, 0.1, 0},
		{"diagonal", 2.5, 0.05, -0.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var feq [Q]float64
			EquilibriumAll(&feq, tt.rho, tt.ux, tt.uy)

			var rho, jx, jy float64
			for i, f := range feq {
				rho += f
				jx += f * float64(C[i][0])
				jy += f * float64(C[i][1])
				if single := Equilibrium(tt.rho, tt.ux, tt.uy, Direction(i)); math.Abs(single-f) > 1e-12 {
					t.Errorf("direction %v: EquilibriumAll=%v Equilibrium=%v", Direction(i), f, single)
				}
			}
			if math.Abs(rho-tt.rho) > 1e-10 {
				t.Errorf("density = %v, want %v", rho, tt.rho)
			}
			if math.Abs(jx-tt.rho*tt.ux) > 1e-10 || math.Abs(jy-tt.rho*tt.uy) > 1e-10 {
				t.Errorf("momentum = (%v, %v), want (%v, %v)", jx, jy, tt.rho*tt.ux, tt.rho*tt.uy)
			}
		})
	}
}

func TestOppositeInvolution(t *testing.T) {
	f := [Q]float64{0.5, 1, 2, 3, 4, 5, 6, 7, 8}
	once := Reflect(f)
	if once == f {
		t.Fatal("Reflect should reorder a vector with distinct entries")
	}
	if twice := Reflect(once); twice != f {
		t.Errorf("Reflect(Reflect(f)) = %v, want %v", twice, f)
	}
	if once[Rest] != f[Rest] {
		t.Errorf("rest population moved: %v", once[Rest])
	}
	if once[East] != f[West] {
		t.Errorf("east slot = %v, want old west %v", once[East], f[West])
	}
}

func TestDirectionString(t *testing.T) {
	if got := NorthEast.String(); got != "ne" {
		t.Errorf("NorthEast.String() = %q", got)
	}
	if got := Direction(12).String(); got != "direction(12)" {
		t.Errorf("Direction(12).String() = %q", got)
	}
	if East.Cx() != 1 || East.Cy() != 0 || SouthWest.Cx() != -1 || SouthWest.Cy() != -1 {
		t.Error("unexpected velocity components")
	}
}
