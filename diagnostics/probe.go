package diagnostics

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/vortex/fluid"
)

// minProbeSamples is the shortest series worth transforming.
const minProbeSamples = 64

// Probe records the transverse velocity at one cell every step. Vortex
// shedding shows up as the dominant frequency of that signal.
type Probe struct {
	X, Y    int
	window  int
	samples []float64
}

// NewProbe creates a probe at (x, y) that keeps the last window samples.
func NewProbe(x, y, window int) *Probe {
	if window < minProbeSamples {
		window = minProbeSamples
	}
	return &Probe{X: x, Y: y, window: window, samples: make([]float64, 0, 2*window)}
}

// Record appends uy at the probe cell.
func (p *Probe) Record(fl *fluid.Fields) {
	if p.X < 0 || p.X >= fl.Nx || p.Y < 0 || p.Y >= fl.Ny {
		return
	}
	p.Add(fl.Uy[p.Y*fl.Nx+p.X])
}

// Add appends a raw sample.
func (p *Probe) Add(v float64) {
	if len(p.samples) == 2*p.window {
		n := copy(p.samples, p.samples[p.window:])
		p.samples = p.samples[:n]
	}
	p.samples = append(p.samples, v)
}

// Len returns the number of samples in the current window.
func (p *Probe) Len() int {
	return min(len(p.samples), p.window)
}

// DominantFrequency returns the strongest non-zero frequency of the recorded
// signal in cycles per step. ok is false until enough samples exist or when
// the signal is flat.
func (p *Probe) DominantFrequency() (freq float64, ok bool) {
	n := p.Len()
	if n < minProbeSamples {
		return 0, false
	}
	seq := make([]float64, n)
	copy(seq, p.samples[len(p.samples)-n:])
	floats.AddConst(-stat.Mean(seq, nil), seq)

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, seq)

	best, bestAmp := 0, 0.0
	for i := 1; i < len(coeffs); i++ {
		if a := cmplx.Abs(coeffs[i]); a > bestAmp {
			best, bestAmp = i, a
		}
	}
	if best == 0 || bestAmp < 1e-12 {
		return 0, false
	}
	return fft.Freq(best), true
}

// Strouhal returns f·D/U for obstacle diameter d and free-stream speed u.
func (p *Probe) Strouhal(d, u float64) (float64, bool) {
	f, ok := p.DominantFrequency()
	if !ok || u <= 0 || d <= 0 {
		return 0, false
	}
	return f * d / u, true
}
