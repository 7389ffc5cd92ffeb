// Package systems contains the action-space planner and the arena's ECS systems.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/world"
)

// PhysicsSystem integrates bodies and resolves them against level geometry.
type PhysicsSystem struct {
	filter   *ecs.Filter3[components.Position, components.Velocity, components.Body]
	level    *world.Level
	gravity  float64
	friction float64
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World, level *world.Level, gravity, friction float64) *PhysicsSystem {
	return &PhysicsSystem{
		filter:   ecs.NewFilter3[components.Position, components.Velocity, components.Body](w),
		level:    level,
		gravity:  gravity,
		friction: friction,
	}
}

// contactSkin shrinks the box on the axis not being swept so resting contact
// is not mistaken for penetration.
const contactSkin = 1e-6

// AttachBody creates the body's collision object and adds it to the level space.
func (s *PhysicsSystem) AttachBody(pos *components.Position, body *components.Body) {
	body.Obj = world.NewObject(pos.X-body.W/2, pos.Y, body.W, body.H, world.TagBody)
	s.level.Space().Add(body.Obj)
}

// DetachBody removes the body's collision object from the level space.
func (s *PhysicsSystem) DetachBody(body *components.Body) {
	if body.Obj != nil {
		s.level.Space().Remove(body.Obj)
		body.Obj = nil
	}
}

// Update runs the physics system for one fixed step.
func (s *PhysicsSystem) Update(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		pos, vel, body := query.Get()

		if body.Gravity {
			vel.Y -= s.gravity * dt
		}
		if body.Grounded {
			vel.X *= decay(s.friction, dt)
		}

		// Resolve each axis separately, horizontal first
		pos.X = s.sweepX(pos, vel, body, vel.X*dt)
		SyncBody(pos, body)
		y, landed := s.sweepY(pos, vel, body, vel.Y*dt)
		pos.Y = y
		body.Grounded = landed

		// Keep bodies inside the arena
		pos.X = clampFloat(pos.X, body.W/2, s.level.Width-body.W/2)
		if pos.Y < 0 {
			pos.Y = 0
			vel.Y = 0
			body.Grounded = true
		}

		SyncBody(pos, body)
	}
}

// SyncBody moves the body's collision object to match pos.
func SyncBody(pos *components.Position, body *components.Body) {
	if body.Obj == nil {
		return
	}
	world.MoveObject(body.Obj, pos.X-body.W/2, pos.Y)
}

// sweepX returns the body's x after moving dx, stopped by solids.
// Platforms never block sideways.
func (s *PhysicsSystem) sweepX(pos *components.Position, vel *components.Velocity, body *components.Body, dx float64) float64 {
	x := pos.X + dx
	if dx == 0 || body.Obj == nil {
		return x
	}
	for _, b := range world.Candidates(body.Obj, dx, 0, world.TagSolid) {
		if !overlaps(x-body.W/2, pos.Y+contactSkin, body.W, body.H-2*contactSkin, b.X, b.Y, b.W, b.H) {
			continue
		}
		if dx > 0 {
			x = math.Min(x, b.X-body.W/2)
		} else {
			x = math.Max(x, b.X+b.W+body.W/2)
		}
		vel.X = 0
	}
	return x
}

// sweepY returns the body's y after moving dy and whether it landed.
// Platforms only stop bodies falling onto their top.
func (s *PhysicsSystem) sweepY(pos *components.Position, vel *components.Velocity, body *components.Body, dy float64) (float64, bool) {
	y := pos.Y + dy
	if body.Obj == nil {
		return y, false
	}
	left := pos.X - body.W/2
	landed := false
	for _, b := range world.Candidates(body.Obj, 0, dy, world.TagSolid, world.TagPlatform) {
		if !overlaps(left+contactSkin, y, body.W-2*contactSkin, body.H, b.X, b.Y, b.W, b.H) {
			continue
		}
		top := b.Y + b.H
		if b.Platform && (dy > 0 || pos.Y < top-1e-6) {
			continue
		}
		if dy <= 0 {
			y = math.Max(y, top)
			landed = true
		} else {
			y = math.Min(y, b.Y-body.H)
		}
		vel.Y = 0
	}
	return y, landed
}
