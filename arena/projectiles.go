package arena

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/behavior"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/telemetry"
)

// dummyTeam owns reflected projectiles.
const dummyTeam = -1

// shooter launches projectiles for one ranged agent.
type shooter struct {
	sim   *Sim
	owner *Agent
}

// Fire implements behavior.Shooter.
func (sh *shooter) Fire(origin, dir r2.Vec, speed float64) {
	if r2.Norm(dir) == 0 || speed <= 0 {
		return
	}
	s := sh.sim
	pos := components.Position{X: origin.X, Y: origin.Y}
	v := r2.Scale(speed, r2.Unit(dir))
	vel := components.Velocity{X: v.X, Y: v.Y}
	p := components.Projectile{
		Owner:  sh.owner.ID,
		Team:   sh.owner.Team,
		Damage: s.cfg.Ranged.HitDamage,
		TTL:    s.cfg.Ranged.ProjectileTTL,
	}
	s.projMap.NewEntity(&pos, &vel, &p)
}

// ProjectileView is a read-only copy of a projectile for rendering.
type ProjectileView struct {
	Pos, Vel  r2.Vec
	Reflected bool
}

// Projectiles returns every projectile in flight.
func (s *Sim) Projectiles() []ProjectileView {
	var out []ProjectileView
	query := s.projFilter.Query()
	for query.Next() {
		pos, vel, p := query.Get()
		out = append(out, ProjectileView{Pos: pos.Vec(), Vel: vel.Vec(), Reflected: p.Reflected})
	}
	return out
}

// updateProjectiles moves projectiles, resolves hits and reflections,
// then reports what is still flying to every agent.
func (s *Sim) updateProjectiles(dt float64) {
	var dead []ecs.Entity
	query := s.projFilter.Query()
	for query.Next() {
		pos, vel, p := query.Get()
		p.TTL -= dt
		from := pos.Vec()
		v := vel.Vec()
		step := r2.Norm(v) * dt
		if p.TTL <= 0 || step == 0 {
			dead = append(dead, query.Entity())
			continue
		}
		if _, hit := s.level.ProbeLine(from, r2.Unit(v), step); hit {
			dead = append(dead, query.Entity())
			continue
		}
		pos.X += v.X * dt
		pos.Y += v.Y * dt

		if s.strike(pos.Vec(), vel, p) {
			dead = append(dead, query.Entity())
		}
	}
	for _, e := range dead {
		s.projMap.Remove(e)
	}

	query = s.projFilter.Query()
	for query.Next() {
		pos, vel, p := query.Get()
		for _, a := range s.agents {
			a.Machine.NotifyProjectile(pos.Vec(), vel.Vec(), p.Reflected)
		}
	}
}

// strike resolves a projectile at p against whatever it overlaps.
// It returns true when the projectile is spent.
func (s *Sim) strike(p r2.Vec, vel *components.Velocity, proj *components.Projectile) bool {
	if !proj.Reflected {
		feet, bd := s.dummy.body.box()
		if !inBox(p, feet, bd) {
			return false
		}
		if s.dummy.Reflect() {
			vel.X, vel.Y = -vel.X, -vel.Y
			proj.Reflected = true
			proj.Team = dummyTeam
			return false
		}
		owner := s.byID[proj.Owner]
		var source behavior.Combatant
		if owner != nil {
			source = owner.Machine
		}
		if s.dummy.TakeDamage(proj.Damage, source) == behavior.OutcomeDamaged && owner != nil {
			s.record(telemetry.NewHitEvent(s.tick, owner.ID, DummyID, owner.Variant, proj.Damage))
		}
		return true
	}

	for _, a := range s.agents {
		feet, bd := a.body.box()
		if !inBox(p, feet, bd) {
			continue
		}
		if a.Machine.TakeDamage(proj.Damage, s.dummy) == behavior.OutcomeBlocked {
			s.record(telemetry.NewEvent(telemetry.EventBlocked, s.tick, a.ID, a.Variant))
		}
		return true
	}
	return false
}

// inBox reports whether p lies inside a body standing at feet.
func inBox(p, feet r2.Vec, bd *components.Body) bool {
	return p.X >= feet.X-bd.W/2 && p.X <= feet.X+bd.W/2 &&
		p.Y >= feet.Y && p.Y <= feet.Y+bd.H
}
