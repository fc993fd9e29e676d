package fluid

import "math"

// Shape reports whether lattice cell (x, y) is solid.
type Shape func(x, y int) bool

// NoObstacle is a Shape with no solid cells.
func NoObstacle(x, y int) bool { return false }

// Circle is solid where the Euclidean distance to (cx, cy) is below r.
func Circle(cx, cy, r float64) Shape {
	return func(x, y int) bool {
		return math.Hypot(float64(x)-cx, float64(y)-cy) < r
	}
}

// Rect is solid on the half-open box [x0, x0+w) × [y0, y0+h).
func Rect(x0, y0, w, h int) Shape {
	return func(x, y int) bool {
		return x >= x0 && x < x0+w && y >= y0 && y < y0+h
	}
}

// Airfoil is a NACA 4-digit profile with its leading edge at (leadX, midY)
// and the given chord in cells. camber and camberPos are fractions of the
// chord (0.02 and 0.4 for a 2412); thickness is the maximum thickness as a
// fraction of the chord.
func Airfoil(leadX, midY, chord, camber, camberPos, thickness float64) Shape {
	return func(x, y int) bool {
		if chord <= 0 {
			return false
		}
		xn := (float64(x) - leadX) / chord
		if xn < 0 || xn > 1 {
			return false
		}
		yn := (float64(y) - midY) / chord

		var yc, dyc float64
		switch {
		case camber == 0 || camberPos <= 0 || camberPos >= 1:
		case xn < camberPos:
			yc = camber / (camberPos * camberPos) * (2*camberPos*xn - xn*xn)
			dyc = 2 * camber / (camberPos * camberPos) * (camberPos - xn)
		default:
			q := (1 - camberPos) * (1 - camberPos)
			yc = camber / q * ((1 - 2*camberPos) + 2*camberPos*xn - xn*xn)
			dyc = 2 * camber / q * (camberPos - xn)
		}

		yt := 5 * thickness * (0.2969*math.Sqrt(xn) -
			0.1260*xn -
			0.3516*xn*xn +
			0.2843*xn*xn*xn -
			0.1015*xn*xn*xn*xn)
		half := yt * math.Cos(math.Atan(dyc))
		return yn >= yc-half && yn <= yc+half
	}
}

// Mask is the fixed solid/fluid classification of the grid, row-major.
type Mask struct {
	Nx, Ny int
	solid  []bool
	cells  []int // linear indices of solid cells, ascending
}

// NewMask evaluates shape over every cell of an nx×ny grid.
func NewMask(nx, ny int, shape Shape) *Mask {
	if shape == nil {
		shape = NoObstacle
	}
	m := &Mask{Nx: nx, Ny: ny, solid: make([]bool, nx*ny)}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			if shape(x, y) {
				i := y*nx + x
				m.solid[i] = true
				m.cells = append(m.cells, i)
			}
		}
	}
	return m
}

// Solid reports whether (x, y) is inside the obstacle.
// Coordinates outside the grid are fluid.
func (m *Mask) Solid(x, y int) bool {
	if x < 0 || x >= m.Nx || y < 0 || y >= m.Ny {
		return false
	}
	return m.solid[y*m.Nx+x]
}

// SolidAt reports whether linear cell i is inside the obstacle.
func (m *Mask) SolidAt(i int) bool { return m.solid[i] }

// Cells returns the linear indices of all solid cells in ascending order.
// The slice must not be modified.
func (m *Mask) Cells() []int { return m.cells }

// Count returns the number of solid cells.
func (m *Mask) Count() int { return len(m.cells) }

// Bounds returns the inclusive bounding box of the solid cells.
// ok is false for an empty mask.
func (m *Mask) Bounds() (x0, y0, x1, y1 int, ok bool) {
	if len(m.cells) == 0 {
		return 0, 0, 0, 0, false
	}
	x0, y0 = m.Nx, m.Ny
	x1, y1 = -1, -1
	for _, i := range m.cells {
		x, y := i%m.Nx, i/m.Nx
		x0 = min(x0, x)
		y0 = min(y0, y)
		x1 = max(x1, x)
		y1 = max(y1, y)
	}
	return x0, y0, x1, y1, true
}
