package arena

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/behavior"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
)

// DummyID is the dummy's agent ID in events and snapshots.
const DummyID uint32 = 0

// Dummy is the scripted target every agent pursues. It patrols, hops at
// random, parries some hits, reflects some projectiles and swipes at
// agents that stand next to it.
type Dummy struct {
	cfg  config.DummyConfig
	rng  *rand.Rand
	body *body

	health   float64
	dir      float64
	stunLeft float64
	swingIn  float64

	parries  int
	reflects int
	defeats  int
}

func (s *Sim) spawnDummy() *Dummy {
	c := s.cfg.Arena.Dummy
	pos := components.Position{X: c.X, Y: c.Y}
	vel := components.Velocity{}
	bd := components.Body{W: s.cfg.Physics.BodyWidth, H: s.cfg.Physics.BodyHeight, Gravity: true}
	s.physics.AttachBody(&pos, &bd)
	entity := s.bodyMap.NewEntity(&pos, &vel, &bd)

	return &Dummy{
		cfg:     c,
		rng:     s.rng,
		body:    &body{entity: entity, mapper: s.bodyMap},
		health:  c.MaxHealth,
		dir:     1,
		swingIn: c.AttackCooldown,
	}
}

// Update runs the dummy's script for one tick.
func (d *Dummy) Update(dt float64, agents []*Agent) {
	if d.stunLeft > 0 {
		d.stunLeft -= dt
		return
	}

	pos := d.body.Position()
	v := d.body.Velocity()
	switch {
	case pos.X <= d.cfg.PatrolMin:
		d.dir = 1
	case pos.X >= d.cfg.PatrolMax:
		d.dir = -1
	}
	v.X = d.dir * d.cfg.PatrolSpeed
	if d.body.Grounded() && d.rng.Float64() < d.cfg.JumpChance*dt {
		v.Y = d.cfg.JumpForce
	}
	d.body.SetVelocity(v)

	d.swingIn -= dt
	if d.swingIn > 0 {
		return
	}
	d.swingIn = d.cfg.AttackCooldown
	for _, a := range agents {
		if r2.Norm(r2.Sub(a.Position(), pos)) <= d.cfg.AttackRange {
			a.Machine.TakeDamage(d.cfg.AttackDamage, d)
		}
	}
}

// Reflect decides whether an incoming projectile bounces back.
func (d *Dummy) Reflect() bool {
	if d.rng.Float64() >= d.cfg.ReflectChance {
		return false
	}
	d.reflects++
	return true
}

// TakeDamage implements behavior.Combatant. Parried hits cost nothing;
// landed hits may stagger the attacker.
func (d *Dummy) TakeDamage(amount float64, source behavior.Combatant) behavior.Outcome {
	if d.rng.Float64() < d.cfg.ParryChance {
		d.parries++
		return behavior.OutcomeParried
	}

	d.health -= amount
	if d.health <= 0 {
		d.defeats++
		d.health = d.cfg.MaxHealth
	}

	if source != nil && d.rng.Float64() < d.cfg.StunChance {
		dir := r2.Vec{X: 1}
		if l, ok := source.(behavior.Locator); ok && l.Position().X < d.body.Position().X {
			dir.X = -1
		}
		source.NotifyStunned(d.cfg.StunTime, dir, d.cfg.Knockback)
	}
	return behavior.OutcomeDamaged
}

// NotifyParried implements behavior.Combatant.
func (d *Dummy) NotifyParried(behavior.Combatant) {
	d.stunLeft = math.Max(d.stunLeft, d.cfg.StunTime)
	v := d.body.Velocity()
	v.X = 0
	d.body.SetVelocity(v)
}

// NotifyStunned implements behavior.Combatant.
func (d *Dummy) NotifyStunned(duration float64, dir r2.Vec, force float64) {
	d.stunLeft = math.Max(d.stunLeft, duration)
	if force > 0 && r2.Norm(dir) > 0 {
		d.body.SetVelocity(r2.Scale(force, r2.Unit(dir)))
	}
}

// Position implements behavior.Target.
func (d *Dummy) Position() r2.Vec { return d.body.Position() }

// Velocity implements behavior.Target.
func (d *Dummy) Velocity() r2.Vec { return d.body.Velocity() }

// Box returns the feet point and body size.
func (d *Dummy) Box() (r2.Vec, components.Body) {
	p, bd := d.body.box()
	return p, *bd
}

// Tuning returns the dummy's live configuration for interactive tweaking.
func (d *Dummy) Tuning() *config.DummyConfig { return &d.cfg }

// Health returns the dummy's remaining health in its current life.
func (d *Dummy) Health() float64 { return d.health }

// Stunned reports whether the dummy is frozen.
func (d *Dummy) Stunned() bool { return d.stunLeft > 0 }

// Counts returns parries, reflections and defeats so far.
func (d *Dummy) Counts() (parries, reflects, defeats int) {
	return d.parries, d.reflects, d.defeats
}
