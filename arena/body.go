package arena

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/systems"
)

// body exposes an entity's physics components to machines and the
// teleport service. Components are looked up on every call so the
// adapter stays valid across archetype changes.
type body struct {
	entity ecs.Entity
	mapper *ecs.Map3[components.Position, components.Velocity, components.Body]
}

func (b *body) Position() r2.Vec {
	pos, _, _ := b.mapper.Get(b.entity)
	return pos.Vec()
}

func (b *body) Velocity() r2.Vec {
	_, vel, _ := b.mapper.Get(b.entity)
	return vel.Vec()
}

func (b *body) SetVelocity(v r2.Vec) {
	_, vel, _ := b.mapper.Get(b.entity)
	vel.X, vel.Y = v.X, v.Y
}

func (b *body) Grounded() bool {
	_, _, bd := b.mapper.Get(b.entity)
	return bd.Grounded
}

// Teleport places the feet at dest. Physics decides footing on the next step.
func (b *body) Teleport(dest r2.Vec) {
	pos, vel, bd := b.mapper.Get(b.entity)
	pos.X, pos.Y = dest.X, dest.Y
	vel.Y = 0
	bd.Grounded = false
	systems.SyncBody(pos, bd)
}

// box returns the feet point and the body component.
func (b *body) box() (r2.Vec, *components.Body) {
	pos, _, bd := b.mapper.Get(b.entity)
	return pos.Vec(), bd
}
