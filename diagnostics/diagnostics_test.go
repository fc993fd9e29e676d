package diagnostics

import (
	"math"
	"testing"

	"github.com/pthm-cable/vortex/fluid"
)

func TestVorticityOfSolidBodyRotation(t *testing.T) {
	// u = (-omega*y, omega*x) has curl 2*omega per unit spacing; the
	// central differences span two cells, giving 4*omega.
	const nx, ny, omega = 8, 6, 0.01
	fl := fluid.NewFields(nx, ny)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			i := y*nx + x
			fl.Ux[i] = -omega * float64(y)
			fl.Uy[i] = omega * float64(x)
			fl.Rho[i] = 1
		}
	}

	v := Vorticity(fl)
	if v.W != nx-2 || v.H != ny-2 {
		t.Fatalf("field is %dx%d, want %dx%d", v.W, v.H, nx-2, ny-2)
	}
	for i, c := range v.Data {
		if math.Abs(c-4*omega) > 1e-12 {
			t.Fatalf("cell %d: curl = %v, want %v", i, c, 4*omega)
		}
	}
}

func TestVorticityUsesInteriorNeighbours(t *testing.T) {
	const nx, ny = 5, 5
	fl := fluid.NewFields(nx, ny)
	fl.Uy[2*nx+3] = 1 // right neighbour of (2,2)
	fl.Ux[3*nx+2] = 2 // upper neighbour of (2,2)

	v := Vorticity(fl)
	if got := v.At(1, 1); got != 1-2 {
		t.Errorf("curl at grid (2,2) = %v, want -1", got)
	}
	// (3,2) sees uy(4,2)-uy(2,2) = 0.
	if got := v.At(2, 1); got != 0 {
		t.Errorf("curl at grid (3,2) = %v, want 0", got)
	}
}

func TestVorticityTinyGrid(t *testing.T) {
	v := Vorticity(fluid.NewFields(2, 9))
	if v.W != 0 || len(v.Data) != 0 {
		t.Errorf("expected empty field, got %dx%d", v.W, v.H)
	}
}

func TestVorticityIntoReusesBuffer(t *testing.T) {
	fl := fluid.NewFields(6, 6)
	first := Vorticity(fl)
	if again := VorticityInto(first, fl); again != first {
		t.Error("expected buffer reuse for matching shape")
	}
	if other := VorticityInto(first, fluid.NewFields(7, 6)); other == first {
		t.Error("expected a new buffer for a different shape")
	}
}

func TestSummarize(t *testing.T) {
	fl := fluid.NewFields(3, 2)
	for i := range fl.Rho {
		fl.Rho[i] = 2
	}
	fl.Ux[0], fl.Ux[3] = 0.1, 0.3 // first column
	fl.Uy[4] = 0.4

	vort := &Field{W: 4, H: 1, Data: []float64{-1, 0, 1, 2}}
	s, scratch := Summarize(10, fl, vort, nil)

	if s.Step != 10 {
		t.Errorf("Step = %d", s.Step)
	}
	if s.VortMin != -1 || s.VortMax != 2 {
		t.Errorf("min/max = %v/%v", s.VortMin, s.VortMax)
	}
	if math.Abs(s.VortMean-0.5) > 1e-12 {
		t.Errorf("mean = %v, want 0.5", s.VortMean)
	}
	if math.Abs(s.Enstrophy-3) > 1e-12 {
		t.Errorf("enstrophy = %v, want 3", s.Enstrophy)
	}
	if s.VortP95 != 2 {
		t.Errorf("p95 = %v, want 2", s.VortP95)
	}
	if s.Mass != 12 || s.MeanDensity != 2 {
		t.Errorf("mass = %v mean = %v", s.Mass, s.MeanDensity)
	}
	if math.Abs(s.MaxSpeed-0.4) > 1e-12 {
		t.Errorf("max speed = %v, want 0.4", s.MaxSpeed)
	}
	if math.Abs(s.InletVelocity-0.2) > 1e-12 {
		t.Errorf("inlet velocity = %v, want 0.2", s.InletVelocity)
	}
	if len(scratch) != 4 {
		t.Errorf("scratch len = %d, want 4", len(scratch))
	}
	// The vorticity itself must not be reordered.
	if vort.Data[0] != -1 || vort.Data[3] != 2 {
		t.Errorf("vorticity mutated: %v", vort.Data)
	}
}

func TestProbeDominantFrequency(t *testing.T) {
	const freq = 0.02
	p := NewProbe(0, 0, 1000)
	for i := 0; i < 1500; i++ {
		p.Add(0.3 + 0.05*math.Sin(2*math.Pi*freq*float64(i)))
	}

	if p.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", p.Len())
	}
	got, ok := p.DominantFrequency()
	if !ok {
		t.Fatal("expected a dominant frequency")
	}
	if math.Abs(got-freq) > 1e-9 {
		t.Errorf("frequency = %v, want %v", got, freq)
	}

	st, ok := p.Strouhal(26, 0.1)
	if !ok || math.Abs(st-freq*26/0.1) > 1e-6 {
		t.Errorf("Strouhal = %v (%v), want %v", st, ok, freq*26/0.1)
	}
}

func TestProbeNeedsSignal(t *testing.T) {
	p := NewProbe(1, 1, 128)
	if _, ok := p.DominantFrequency(); ok {
		t.Error("empty probe should not report a frequency")
	}
	for i := 0; i < 200; i++ {
		p.Add(1)
	}
	if _, ok := p.DominantFrequency(); ok {
		t.Error("flat signal should not report a frequency")
	}
	if _, ok := p.Strouhal(10, 0); ok {
		t.Error("zero velocity should not report a Strouhal number")
	}
}

func TestProbeRecord(t *testing.T) {
	fl := fluid.NewFields(4, 3)
	fl.Uy[1*4+2] = 0.25

	p := NewProbe(2, 1, 64)
	p.Record(fl)
	outside := NewProbe(9, 9, 64)
	outside.Record(fl)

	if p.Len() != 1 || p.samples[0] != 0.25 {
		t.Errorf("samples = %v", p.samples)
	}
	if outside.Len() != 0 {
		t.Error("probe outside the grid should not record")
	}
}
