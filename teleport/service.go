package teleport

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/routine"
	"github.com/pthm-cable/skirmish/world"
)

// Mode selects which side of the target a destination is picked on.
type Mode uint8

const (
	// ModeNear tries candidates in configured order.
	ModeNear Mode = iota
	// ModeBehind only uses candidates on the far side of the target.
	ModeBehind
	// ModeSight additionally requires line of sight to the target.
	ModeSight
)

func (m Mode) String() string {
	switch m {
	case ModeNear:
		return "near"
	case ModeBehind:
		return "behind"
	case ModeSight:
		return "sight"
	default:
		return "unknown"
	}
}

// eyeHeight is the height above the feet used for sight checks.
const eyeHeight = 1.0

// Mover is the agent body being relocated.
type Mover interface {
	Position() r2.Vec
	Teleport(dest r2.Vec)
}

// Params holds the service's tuning.
type Params struct {
	Cooldown        float64
	MinDistance     float64
	ChargeTime      float64
	QuickChargeTime float64
	CloseDistance   float64
	GroundProbe     float64
	BodyRadius      float64
	BurstInterval   float64
	Candidates      []r2.Vec
	Fallback        r2.Vec
}

// ParamsFrom converts the teleport config section.
func ParamsFrom(cfg config.TeleportConfig) Params {
	p := Params{
		Cooldown:        cfg.Cooldown,
		MinDistance:     cfg.MinDistance,
		ChargeTime:      cfg.ChargeTime,
		QuickChargeTime: cfg.QuickChargeTime,
		CloseDistance:   cfg.CloseDistance,
		GroundProbe:     cfg.GroundProbe,
		BodyRadius:      cfg.BodyRadius,
		BurstInterval:   cfg.BurstInterval,
		Fallback:        r2.Vec{X: cfg.Fallback.X, Y: cfg.Fallback.Y},
	}
	for _, c := range cfg.Candidates {
		p.Candidates = append(p.Candidates, r2.Vec{X: c.X, Y: c.Y})
	}
	return p
}

// Hooks lets the caller react to the stages of a teleport.
// Any hook may be nil.
type Hooks struct {
	// OnRelocate runs after the body moves. fallback is true when no
	// candidate was safe.
	OnRelocate func(dest r2.Vec, fallback bool)
	// OnFinish runs once after the token is released, whatever the outcome.
	OnFinish func()
}

// Service teleports one agent. Each agent owns its own Service; the Token is shared.
type Service struct {
	params Params
	world  world.Querier
	token  *Token
	clock  Clock
	team   int
	logger *slog.Logger

	teleporting bool
	readyAt     float64
	count       int
	fallbacks   int
}

// NewService creates a teleport service for an agent on team.
func NewService(params Params, q world.Querier, token *Token, clock Clock, team int) *Service {
	return &Service{
		params: params,
		world:  q,
		token:  token,
		clock:  clock,
		team:   team,
		logger: slog.Default(),
	}
}

// SetLogger replaces the service's logger.
func (s *Service) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Params returns the service's tuning.
func (s *Service) Params() Params {
	return s.params
}

// Teleporting reports whether a teleport is in progress.
func (s *Service) Teleporting() bool {
	return s.teleporting
}

// Count returns completed relocations and how many of them used the fallback.
func (s *Service) Count() (total, fallbacks int) {
	return s.count, s.fallbacks
}

// CooldownLeft returns the seconds until the cooldown elapses.
func (s *Service) CooldownLeft() float64 {
	return math.Max(0, s.readyAt-s.clock.Now())
}

// CanTeleport reports whether a teleport over distance is allowed now.
func (s *Service) CanTeleport(distance float64) bool {
	return !s.teleporting && s.clock.Now() >= s.readyAt && distance > s.params.MinDistance
}

// Ready reports whether the cooldown has elapsed, ignoring distance.
// Emergency teleports use this.
func (s *Service) Ready() bool {
	return !s.teleporting && s.clock.Now() >= s.readyAt
}

// TeamBusy reports whether a teammate holds the token.
func (s *Service) TeamBusy() bool {
	return s.token.Busy(s.team, s.clock.Now())
}

// ChargeFor returns the charge delay used for a teleport over distance.
func (s *Service) ChargeFor(distance float64, airborne bool) float64 {
	if airborne || distance < s.params.CloseDistance {
		return s.params.QuickChargeTime
	}
	return s.params.ChargeTime
}

// Destination picks a safe landing spot around target.
// Returns false when no candidate is grounded and clear.
func (s *Service) Destination(self, target r2.Vec, mode Mode) (r2.Vec, bool) {
	return s.destination(self, target, mode, 0)
}

func (s *Service) destination(self, target r2.Vec, mode Mode, rotate int) (r2.Vec, bool) {
	n := len(s.params.Candidates)
	behind := side(self, target) * -1
	for i := 0; i < n; i++ {
		c := s.params.Candidates[(i+rotate)%n]
		if mode == ModeBehind {
			if c.X == 0 {
				continue
			}
			c.X = math.Abs(c.X) * behind
		}
		dest, ok := s.validate(r2.Add(target, c))
		if !ok {
			continue
		}
		if mode == ModeSight && s.world != nil {
			eye := r2.Vec{Y: eyeHeight}
			if !world.LineOfSight(s.world, r2.Add(dest, eye), r2.Add(target, eye)) {
				continue
			}
		}
		return dest, true
	}
	return r2.Vec{}, false
}

// Candidate is one probed landing spot around a target.
type Candidate struct {
	Offset r2.Vec // Requested spot before grounding
	Dest   r2.Vec // Grounded landing point, valid when OK
	OK     bool
}

// Candidates probes every configured offset around target in config order.
func (s *Service) Candidates(target r2.Vec) []Candidate {
	out := make([]Candidate, 0, len(s.params.Candidates))
	for _, c := range s.params.Candidates {
		spot := r2.Add(target, c)
		dest, ok := s.validate(spot)
		out = append(out, Candidate{Offset: spot, Dest: dest, OK: ok})
	}
	return out
}

// validate drops a candidate onto the ground below it and checks it is clear.
func (s *Service) validate(c r2.Vec) (r2.Vec, bool) {
	if s.world == nil {
		return c, true
	}
	origin := r2.Vec{X: c.X, Y: c.Y + 0.5}
	hit, ok := s.world.ProbeLine(origin, r2.Vec{Y: -1}, s.params.GroundProbe)
	if !ok || hit.Normal.Y <= 0 {
		return r2.Vec{}, false
	}
	center := r2.Vec{X: hit.Point.X, Y: hit.Point.Y + s.params.BodyRadius + 0.05}
	if s.world.OverlapRegion(center, s.params.BodyRadius) {
		return r2.Vec{}, false
	}
	return hit.Point, true
}

// Fallback returns the fixed placement beside target on the agent's side.
func (s *Service) Fallback(target, self r2.Vec) r2.Vec {
	return r2.Vec{X: target.X + s.params.Fallback.X*side(self, target), Y: target.Y + s.params.Fallback.Y}
}

// Begin starts a single teleport toward target. It returns false when a
// teleport is already running or a teammate holds the token; the caller
// should reassess next tick.
func (s *Service) Begin(m Mover, target func() r2.Vec, mode Mode, airborne bool, hooks Hooks) (*routine.Routine, bool) {
	lease, ok := s.start()
	if !ok {
		return nil, false
	}
	dist := r2.Norm(r2.Sub(target(), m.Position()))
	charge := s.ChargeFor(dist, airborne)

	r := routine.New("teleport",
		routine.Wait("charge", charge),
		routine.Do("relocate", func() {
			if s.relocate(m, target(), mode, 0, lease, hooks) {
				s.readyAt = s.clock.Now() + s.params.Cooldown
			}
		}),
	)
	r.OnFinish(s.finisher(lease, hooks))
	return r, true
}

// BeginBurst chains count relocations under one token hold.
// Each hop starts from a different candidate.
func (s *Service) BeginBurst(m Mover, target func() r2.Vec, count int, hooks Hooks) (*routine.Routine, bool) {
	if count < 1 {
		return nil, false
	}
	lease, ok := s.start()
	if !ok {
		return nil, false
	}

	steps := make([]routine.Step, 0, 2*count+1)
	for i := 0; i < count; i++ {
		hop := i
		wait := s.params.BurstInterval
		if i == 0 {
			wait = s.params.QuickChargeTime
		}
		mode := ModeNear
		if hop%2 == 1 {
			mode = ModeBehind
		}
		steps = append(steps,
			routine.Wait("charge", wait),
			routine.Do("relocate", func() { s.relocate(m, target(), mode, hop, lease, hooks) }),
		)
	}
	steps = append(steps, routine.Do("cooldown", func() {
		s.readyAt = s.clock.Now() + s.params.Cooldown
	}))

	r := routine.New("burst", steps...)
	r.OnFinish(s.finisher(lease, hooks))
	return r, true
}

func (s *Service) start() (Lease, bool) {
	if s.teleporting {
		return Lease{}, false
	}
	lease, ok := s.token.Acquire(s.team, s.clock.Now())
	if !ok {
		return Lease{}, false
	}
	s.teleporting = true
	return lease, true
}

// relocate moves m while the lease is still held. A hold the token already
// dropped leaves m in place so two teammates never relocate together.
func (s *Service) relocate(m Mover, target r2.Vec, mode Mode, rotate int, lease Lease, hooks Hooks) bool {
	if !s.token.Held(lease, s.clock.Now()) {
		s.logger.Warn("teleport lease lost before relocation",
			"team", s.team,
			"mode", mode.String(),
		)
		return false
	}
	self := m.Position()
	dest, ok := s.destination(self, target, mode, rotate)
	if !ok {
		dest = s.Fallback(target, self)
		s.fallbacks++
		s.logger.Debug("teleport fallback",
			"team", s.team,
			"mode", mode.String(),
			"target_x", target.X, "target_y", target.Y,
		)
	}
	m.Teleport(dest)
	s.count++
	if hooks.OnRelocate != nil {
		hooks.OnRelocate(dest, !ok)
	}
	return true
}

func (s *Service) finisher(lease Lease, hooks Hooks) func() {
	return func() {
		s.token.Release(lease, s.clock.Now())
		s.teleporting = false
		if hooks.OnFinish != nil {
			hooks.OnFinish()
		}
	}
}

// side returns +1 when self is right of target, else -1.
func side(self, target r2.Vec) float64 {
	if self.X > target.X {
		return 1
	}
	return -1
}
