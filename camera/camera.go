// Package camera maps the arena's y-up world units onto the screen.
package camera

import "gonum.org/v1/gonum/spatial/r2"

// Camera controls the viewport into the arena.
// World y points up; screen y points down.
type Camera struct {
	// Center is the camera center in world units
	Center r2.Vec

	// Zoom level (1.0 = PixelsPer pixels per world unit)
	Zoom float64

	// PixelsPer is the screen pixels per world unit at zoom 1
	PixelsPer float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Arena dimensions in world units
	WorldW, WorldH float64

	// Zoom constraints
	MinZoom, MaxZoom float64
}

// New creates a camera centered on the arena at zoom 1.
func New(viewportW, viewportH, worldW, worldH, pixelsPer float64) *Camera {
	c := &Camera{
		Center:    r2.Vec{X: worldW / 2, Y: worldH / 2},
		Zoom:      1,
		PixelsPer: pixelsPer,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MaxZoom:   4,
	}
	c.updateMinZoom()
	c.SetZoom(1)
	return c
}

// Scale returns screen pixels per world unit at the current zoom.
func (c *Camera) Scale() float64 {
	return c.PixelsPer * c.Zoom
}

// WorldToScreen converts a world point to screen pixels.
func (c *Camera) WorldToScreen(p r2.Vec) (sx, sy float32) {
	s := c.Scale()
	sx = float32(c.ViewportW/2 + (p.X-c.Center.X)*s)
	sy = float32(c.ViewportH/2 - (p.Y-c.Center.Y)*s)
	return sx, sy
}

// ScreenToWorld converts screen pixels to a world point.
func (c *Camera) ScreenToWorld(sx, sy float32) r2.Vec {
	s := c.Scale()
	return r2.Vec{
		X: c.Center.X + (float64(sx)-c.ViewportW/2)/s,
		Y: c.Center.Y - (float64(sy)-c.ViewportH/2)/s,
	}
}

// IsVisible returns true if a circle at p with the given radius could be on
// screen (conservative check for culling).
func (c *Camera) IsVisible(p r2.Vec, radius float64) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return p.X+radius >= minX && p.X-radius <= maxX &&
		p.Y+radius >= minY && p.Y-radius <= maxY
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.updateMinZoom()
	c.SetZoom(c.Zoom)
}

// updateMinZoom sets the zoom at which the whole arena fits on screen.
// Arenas smaller than the viewport keep zoom 1 as the floor.
func (c *Camera) updateMinZoom() {
	if c.WorldW <= 0 || c.WorldH <= 0 || c.PixelsPer <= 0 {
		c.MinZoom = 0.1
		return
	}
	c.MinZoom = min(c.ViewportW/(c.WorldW*c.PixelsPer), c.ViewportH/(c.WorldH*c.PixelsPer), 1)
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float64) {
	s := c.Scale()
	c.Center.X += dx / s
	c.Center.Y -= dy / s
	c.clampCenter()
}

// Follow moves the center a fraction rate of the way toward p.
func (c *Camera) Follow(p r2.Vec, rate float64) {
	rate = clamp(rate, 0, 1)
	c.Center = r2.Add(c.Center, r2.Scale(rate, r2.Sub(p, c.Center)))
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.Center = r2.Vec{X: c.WorldW / 2, Y: c.WorldH / 2}
	c.SetZoom(1)
}

// VisibleWorldBounds returns the world-unit bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float64) {
	halfW, halfH := c.halfExtents()
	return c.Center.X - halfW, c.Center.Y - halfH, c.Center.X + halfW, c.Center.Y + halfH
}

func (c *Camera) halfExtents() (float64, float64) {
	s := c.Scale()
	return c.ViewportW / (2 * s), c.ViewportH / (2 * s)
}

// clampCenter keeps the view inside the arena, centering on any axis the
// view is wider than.
func (c *Camera) clampCenter() {
	halfW, halfH := c.halfExtents()
	c.Center.X = clampAxis(c.Center.X, halfW, c.WorldW)
	c.Center.Y = clampAxis(c.Center.Y, halfH, c.WorldH)
}

func clampAxis(v, half, size float64) float64 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(v, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
