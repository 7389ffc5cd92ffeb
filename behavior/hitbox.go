package behavior

import "gonum.org/v1/gonum/spatial/r2"

// Hitbox is a named attack region relative to the agent's feet.
// Offset.X points toward the facing direction.
type Hitbox struct {
	Name   string
	Offset r2.Vec
	Radius float64
	Damage float64
	Active bool

	facing float64
	landed bool // at most one hit per activation
}

// Center returns the hitbox center in world space for an agent at pos.
func (h Hitbox) Center(pos r2.Vec) r2.Vec {
	return r2.Vec{X: pos.X + h.Offset.X*h.facing, Y: pos.Y + h.Offset.Y}
}

// Contains reports whether p lies inside the hitbox for an agent at pos.
func (h Hitbox) Contains(pos, p r2.Vec) bool {
	d := r2.Sub(p, h.Center(pos))
	return r2.Dot(d, d) <= h.Radius*h.Radius
}

type hitboxes []Hitbox

func (hs hitboxes) find(name string) *Hitbox {
	for i := range hs {
		if hs[i].Name == name {
			return &hs[i]
		}
	}
	return nil
}

func (hs hitboxes) enable(name string, facing float64) {
	if h := hs.find(name); h != nil {
		h.Active = true
		h.facing = facing
		h.landed = false
	}
}

func (hs hitboxes) disable(name string) {
	if h := hs.find(name); h != nil {
		h.Active = false
	}
}

func (hs hitboxes) disableAll() {
	for i := range hs {
		hs[i].Active = false
	}
}

func (hs hitboxes) anyActive() bool {
	for _, h := range hs {
		if h.Active {
			return true
		}
	}
	return false
}
