package arena

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/behavior"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/systems"
	"github.com/pthm-cable/skirmish/telemetry"
	"github.com/pthm-cable/skirmish/teleport"
)

// ErrUnknownVariant is returned for spawn entries naming no agent profile.
var ErrUnknownVariant = errors.New("unknown agent variant")

// Agent is one machine-driven combatant and the services it owns.
type Agent struct {
	ID      uint32
	Team    int
	Variant components.Variant
	Spawn   r2.Vec
	Entity  ecs.Entity

	Machine  *behavior.Machine
	Teleport *teleport.Service
	Planner  *systems.Planner

	body      *body
	fallbacks int
	downs     int
}

// Position returns the agent's feet point.
func (a *Agent) Position() r2.Vec { return a.body.Position() }

// Velocity returns the agent's velocity.
func (a *Agent) Velocity() r2.Vec { return a.body.Velocity() }

// Grounded reports whether the agent stands on something.
func (a *Agent) Grounded() bool { return a.body.Grounded() }

// Box returns the feet point and body size.
func (a *Agent) Box() (r2.Vec, components.Body) {
	p, bd := a.body.box()
	return p, *bd
}

// Downs returns how many times the agent has been knocked out.
func (a *Agent) Downs() int { return a.downs }

// spawnAgent creates the entity, its services and its machine.
func (s *Sim) spawnAgent(sc config.SpawnConfig) (*Agent, error) {
	variant, ok := components.ParseVariant(sc.Variant)
	if !ok || variant == components.VariantDummy {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, sc.Variant)
	}

	id := s.nextID
	s.nextID++

	pos := components.Position{X: sc.X, Y: sc.Y}
	vel := components.Velocity{}
	bd := components.Body{W: s.cfg.Physics.BodyWidth, H: s.cfg.Physics.BodyHeight, Gravity: true}
	tag := components.Agent{ID: id, Team: sc.Team, Variant: variant}
	s.physics.AttachBody(&pos, &bd)
	entity := s.agentMap.NewEntity(&pos, &vel, &bd, &tag)

	logger := s.logger.With("agent", id)
	planner := systems.NewPlanner(s.level, systems.PlannerParamsFrom(s.cfg))
	planner.SetLogger(logger)
	tp := teleport.NewService(teleport.ParamsFrom(s.cfg.Teleport), s.level, s.token, s.clock, sc.Team)
	tp.SetLogger(logger)

	a := &Agent{
		ID:       id,
		Team:     sc.Team,
		Variant:  variant,
		Spawn:    r2.Vec{X: sc.X, Y: sc.Y},
		Entity:   entity,
		Teleport: tp,
		Planner:  planner,
		body:     &body{entity: entity, mapper: s.bodyMap},
	}

	deps := behavior.Deps{
		ID:       id,
		Team:     sc.Team,
		Body:     a.body,
		Target:   s.dummy,
		World:    s.level,
		Planner:  planner,
		Teleport: tp,
		Clock:    s.clock,
		Rand:     rand.New(rand.NewSource(s.seed + int64(id))),
		Signals:  behavior.SignalFunc(s.signal),
		Logger:   logger,
	}

	// Construction errors leave the machine passive; it has logged them.
	switch variant {
	case components.VariantMelee:
		a.Machine, _ = behavior.NewMelee(deps, s.cfg.Melee, s.cfg.Planner)
	case components.VariantRanged:
		deps.Shooter = &shooter{sim: s, owner: a}
		a.Machine, _ = behavior.NewRanged(deps, s.cfg.Ranged, s.cfg.Planner)
	}

	s.agents = append(s.agents, a)
	s.byID[id] = a
	s.lifetime.Register(id, variant, sc.Team, s.tick)
	return a, nil
}

// countFallbacks turns the service's fallback counter into events.
func (s *Sim) countFallbacks(a *Agent) {
	_, fb := a.Teleport.Count()
	for ; a.fallbacks < fb; a.fallbacks++ {
		s.record(telemetry.NewEvent(telemetry.EventFallback, s.tick, a.ID, a.Variant))
	}
}

// reviveDowned respawns agents whose health ran out.
func (s *Sim) reviveDowned() {
	for _, a := range s.agents {
		if a.Machine.Err() != nil || a.Machine.Health() > 0 {
			continue
		}
		a.downs++
		s.logger.Info("agent down",
			"agent", a.ID,
			"variant", a.Variant.String(),
			"tick", s.tick,
			"downs", a.downs,
		)
		a.Machine.Respawn(a.Spawn)
	}
}
