// Package camera provides pan and zoom over the rendered field image.
package camera

// maxMagnify bounds the zoom relative to the whole-field fit.
const maxMagnify = 8

// Camera controls the viewport into the field image. Field coordinates are
// image texels with the origin at the top-left corner, north up.
type Camera struct {
	// Position is the camera center in field coordinates
	X, Y float32

	// Zoom is screen pixels per texel
	Zoom float32

	// Viewport dimensions (screen size of the field area)
	ViewportW, ViewportH float32

	// Field image dimensions in texels
	FieldW, FieldH float32

	// Zoom constraints; MinZoom fits the whole field in the viewport
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole field.
func New(viewportW, viewportH, fieldW, fieldH float32) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		FieldW:    fieldW,
		FieldH:    fieldH,
	}
	c.fitLimits()
	c.Reset()
	return c
}

func (c *Camera) fitLimits() {
	c.MinZoom = min(c.ViewportW/c.FieldW, c.ViewportH/c.FieldH)
	c.MaxZoom = c.MinZoom * maxMagnify
}

// WorldToScreen converts field coordinates to viewport coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = c.ViewportW/2 + (wx-c.X)*c.Zoom
	sy = c.ViewportH/2 + (wy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToWorld converts viewport coordinates to field coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	wx = c.X + (sx-c.ViewportW/2)/c.Zoom
	wy = c.Y + (sy-c.ViewportH/2)/c.Zoom
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with the given radius in
// texels could be visible on screen.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.fitLimits()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the field point under the viewport
// position (sx, sy) fixed, as far as the field bounds allow.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	c.X = wx - (sx-c.ViewportW/2)/c.Zoom
	c.Y = wy - (sy-c.ViewportH/2)/c.Zoom
	c.clampCenter()
}

// Reset shows the whole field again.
func (c *Camera) Reset() {
	c.X = c.FieldW / 2
	c.Y = c.FieldH / 2
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the visible part of the field in field
// coordinates, clipped to the image.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)

	minX = max(c.X-halfW, 0)
	maxX = min(c.X+halfW, c.FieldW)
	minY = max(c.Y-halfH, 0)
	maxY = min(c.Y+halfH, c.FieldH)
	return
}

// clampCenter keeps the view inside the field. An axis that fits entirely
// in the viewport stays centred.
func (c *Camera) clampCenter() {
	c.X = clampAxis(c.X, c.ViewportW/(2*c.Zoom), c.FieldW)
	c.Y = clampAxis(c.Y, c.ViewportH/(2*c.Zoom), c.FieldH)
}

func clampAxis(center, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(center, half, size-half)
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
