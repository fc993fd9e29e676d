package fluid

import "github.com/pthm-cable/vortex/lattice"

// ApplyOpenEdges copies the west-moving populations of the last column from
// the second-to-last one and the east-moving populations of the first column
// from the second one, so that periodic wrap does not carry stale values
// across the inlet and outlet.
func (e *Engine) ApplyOpenEdges() {
	p := e.pop
	nx := p.Nx
	if !e.params.OpenEdges || nx < 2 {
		return
	}
	for y := 0; y < p.Ny; y++ {
		row := y * nx
		for _, d := range lattice.WestFacing {
			layer := p.cur[d]
			layer[row+nx-1] = layer[row+nx-2]
		}
		for _, d := range lattice.EastFacing {
			layer := p.cur[d]
			layer[row] = layer[row+1]
		}
	}
}

// Stream moves every population one step along its velocity with toroidal
// wrap. All nine layers are read from the pre-stream buffer.
func (e *Engine) Stream() {
	p := e.pop
	nx, ny := p.Nx, p.Ny
	e.pool.run(ny, nx, func(y0, y1 int) {
		for d := range p.cur {
			cx, cy := lattice.C[d][0], lattice.C[d][1]
			shiftRows(p.next[d], p.cur[d], nx, ny, cx, cy, y0, y1)
		}
	})
	p.swap()
}

// ShiftLayer writes src circularly shifted by (sx, sy) into dst, so that
// dst(x, y) = src(x-sx, y-sy). dst and src must not alias.
func ShiftLayer(dst, src []float64, nx, ny, sx, sy int) {
	shiftRows(dst, src, nx, ny, sx, sy, 0, ny)
}

func shiftRows(dst, src []float64, nx, ny, sx, sy, y0, y1 int) {
	sx = ((sx % nx) + nx) % nx
	sy = ((sy % ny) + ny) % ny
	for y := y0; y < y1; y++ {
		srcY := y - sy
		if srcY < 0 {
			srcY += ny
		}
		d := dst[y*nx : (y+1)*nx]
		s := src[srcY*nx : (srcY+1)*nx]
		copy(d[sx:], s[:nx-sx])
		copy(d[:sx], s[nx-sx:])
	}
}
