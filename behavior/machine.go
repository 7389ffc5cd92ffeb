package behavior

import (
	"log/slog"
	"math"
	"math/rand"

	bt "github.com/joeycumines/go-behaviortree"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/kinematics"
	"github.com/pthm-cable/skirmish/routine"
	"github.com/pthm-cable/skirmish/systems"
	"github.com/pthm-cable/skirmish/teleport"
	"github.com/pthm-cable/skirmish/world"
)

// eyeHeight is the height above the feet used for sight lines and aiming.
const eyeHeight = 1.0

var inf = math.Inf(1)

// Deps are the collaborators a machine is built from.
type Deps struct {
	ID     uint32
	Team   int
	Body   Body
	Target Target

	World    world.Querier     // nil skips world sampling
	Planner  *systems.Planner  // nil builds a default planner over World
	Teleport *teleport.Service // nil disables teleports
	Clock    teleport.Clock    // nil uses the machine's own tick time
	Rand     Rand              // nil seeds from ID
	Signals  Signals           // optional
	Shooter  Shooter           // ranged only
	Logger   *slog.Logger
}

// Profile is a variant's decision layer on top of the shared skeleton.
type Profile interface {
	Name() string
	// Urgent is evaluated every tick, even while a routine runs.
	Urgent() bt.Node
	// Preempt is evaluated when no routine runs.
	Preempt() bt.Node
	// Update advances profile timers before arbitration.
	Update(dt float64)
	// Neutral may take over a plan-driven tick. Returning false follows the plan.
	Neutral(dt float64) bool
	// OnInterrupt resets profile state after a stun or parry.
	OnInterrupt()
	// OnDamaged observes hits that removed health.
	OnDamaged(source Combatant)
}

type tickClock struct{ t float64 }

func (c *tickClock) Now() float64 { return c.t }

// Machine is one agent's behavior state machine.
// Notify calls and Tick must come from the same goroutine.
type Machine struct {
	id      uint32
	team    int
	body    Body
	target  Target
	world   world.Querier
	planner *systems.Planner
	tp      *teleport.Service
	clock   teleport.Clock
	own     *tickClock
	rng     Rand
	signals Signals
	shooter Shooter
	logger  *slog.Logger

	agent   config.AgentConfig
	planCfg config.PlannerConfig
	profile Profile
	urgent  bt.Node
	preempt bt.Node

	state      State
	active     *routine.Routine
	plan       *systems.Plan
	nextReplan float64
	failures   int
	cooldowns  *Cooldowns
	hitboxes   hitboxes

	health       float64
	invulnerable bool
	graceLeft    float64
	dashLeft     float64
	blocked      bool // a hit was blocked since the current attack began

	holdVel  float64
	holdLeft float64

	threat          bool
	threatWindow    float64
	evasionCooldown float64

	// Measurements refreshed every tick
	pos         r2.Vec
	toTarget    r2.Vec
	dist        float64
	los         bool
	losLost     float64
	grounded    bool
	groundBelow bool
	jumpUsed    bool
	dashUsed    bool

	err error
}

func newMachine(d Deps, agent config.AgentConfig, planCfg config.PlannerConfig) *Machine {
	m := &Machine{
		id:        d.ID,
		team:      d.Team,
		body:      d.Body,
		target:    d.Target,
		world:     d.World,
		planner:   d.Planner,
		tp:        d.Teleport,
		clock:     d.Clock,
		rng:       d.Rand,
		signals:   d.Signals,
		shooter:   d.Shooter,
		logger:    d.Logger,
		agent:     agent,
		planCfg:   planCfg,
		cooldowns: NewCooldowns(),
		health:    agent.MaxHealth,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.clock == nil {
		m.own = &tickClock{}
		m.clock = m.own
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(int64(d.ID) + 1))
	}
	if m.planner == nil {
		m.planner = systems.NewPlanner(d.World, systems.DefaultPlannerParams())
	}

	switch {
	case d.Body == nil:
		m.err = ErrNoBody
	case d.Target == nil:
		m.err = ErrNoTarget
	}
	return m
}

// passive logs a construction error once and reports it.
func (m *Machine) passive(err error) error {
	if err == nil {
		return nil
	}
	m.err = err
	m.logger.Error("agent is passive",
		"agent", m.id,
		"profile", m.profile.Name(),
		"error", err,
	)
	return err
}

// Tick advances the machine by dt seconds.
func (m *Machine) Tick(dt float64) {
	if m.err != nil {
		return
	}
	if m.own != nil {
		m.own.t += dt
	}

	m.measure(dt)
	m.cooldowns.Advance(dt)
	m.graceLeft = math.Max(0, m.graceLeft-dt)
	m.dashLeft = math.Max(0, m.dashLeft-dt)
	if m.holdLeft > 0 {
		v := m.body.Velocity()
		v.X = m.holdVel
		m.body.SetVelocity(v)
		m.holdLeft -= dt
	}
	m.profile.Update(dt)

	m.active.Advance(dt)

	urgent := m.urgent != nil && m.state != Stunned && !m.teleporting()
	fired := urgent && m.evaluate(m.urgent)
	m.threat = false
	if fired || m.active.Active() {
		return
	}

	if m.preempt != nil && m.evaluate(m.preempt) {
		return
	}
	if m.state.Neutral() && !m.profile.Neutral(dt) {
		m.followPlan()
	}
}

func (m *Machine) evaluate(tree bt.Node) bool {
	status, err := tree.Tick()
	if err != nil {
		m.logger.Error("behavior tree failed", "agent", m.id, "error", err)
		return false
	}
	return status == bt.Success
}

// measure refreshes distance, sight and footing.
func (m *Machine) measure(dt float64) {
	m.pos = m.body.Position()
	tgt := m.target.Position()
	m.toTarget = r2.Sub(tgt, m.pos)
	m.dist = r2.Norm(m.toTarget)

	if m.world != nil {
		_, m.grounded = m.world.ProbeGround(m.pos)
		_, m.groundBelow = m.world.ProbeLine(m.pos, r2.Vec{Y: -1}, m.agent.GroundProbe)
		eye := r2.Vec{Y: eyeHeight}
		m.los = world.LineOfSight(m.world, r2.Add(m.pos, eye), r2.Add(tgt, eye))
	} else {
		m.grounded = m.body.Grounded()
		m.groundBelow = true
		m.los = true
	}

	if m.grounded {
		m.jumpUsed = false
		m.dashUsed = false
	}
	if m.los {
		m.losLost = 0
	} else {
		m.losLost += dt
	}
}

// followPlan drives one plan action per tick, replanning when the plan is stale.
func (m *Machine) followPlan() {
	now := m.clock.Now()
	tgt := m.target.Position()
	if m.plan.Stale(tgt, now, m.planCfg.ReplanDistance, m.planCfg.ReplanInterval) {
		if now < m.nextReplan {
			return
		}
		m.nextReplan = now + m.planCfg.ActionDuration
		m.replan(now, tgt)
	}

	a, ok := m.plan.Next()
	if !ok {
		return
	}
	m.execute(a)
}

func (m *Machine) replan(now float64, tgt r2.Vec) {
	initial := kinematics.State{
		Vel:      m.body.Velocity(),
		Grounded: m.grounded,
		JumpUsed: m.jumpUsed || !m.grounded,
		DashUsed: m.dashUsed,
	}
	if m.grounded {
		initial.Vel.Y = 0
	}

	plan, ok := m.planner.FindPlan(m.pos, tgt, initial)
	if !ok {
		m.plan = nil
		m.failures++
		m.signal(SignalPlanFailed)
		m.logger.Debug("no plan",
			"agent", m.id,
			"failures", m.failures,
			"expansions", m.planner.Stats().Expansions,
		)
		return
	}
	plan.Created = now
	m.plan = plan
	m.failures = 0
	m.signal(SignalPlanFound)
}

// execute turns one planned action into a velocity command.
func (m *Machine) execute(a kinematics.Action) {
	v := m.body.Velocity()
	switch a.Kind {
	case kinematics.Walk:
		v.X = a.Dir.X * m.agent.MoveSpeed
		m.setState(Pursuing)
	case kinematics.Jump:
		if m.grounded {
			v.Y = a.Force
			m.jumpUsed = true
		}
		m.setState(Jumping)
	case kinematics.AirControl:
		v.X = approach(v.X, a.Dir.X*a.Force, a.Force*a.Duration)
	case kinematics.EvasionDash:
		if m.dashUsed || !m.cooldowns.Ready(CooldownEvasionDash) {
			return
		}
		v = r2.Scale(a.Force, a.Dir)
		m.dashUsed = true
		m.dashLeft = a.Duration
		m.cooldowns.Arm(CooldownEvasionDash, m.evasionCooldown)
		m.setState(EvasionDashing)
	case kinematics.StepOver:
		m.body.Teleport(r2.Vec{X: m.pos.X, Y: m.pos.Y + a.Force*a.Duration})
		m.setState(StepOver)
	}
	m.body.SetVelocity(v)
}

// start makes r the primary routine, cancelling the previous one.
func (m *Machine) start(r *routine.Routine, s State) {
	m.active.Cancel()
	m.active = r
	m.setState(s)
}

// endRoutine is the common cleanup for routines that end or are cancelled.
func (m *Machine) endRoutine() {
	m.hitboxes.disableAll()
	m.invulnerable = false
	m.holdLeft = 0
	if m.state != Stunned {
		m.setState(Pursuing)
	}
}

// hold keeps the horizontal velocity at vx for d seconds.
func (m *Machine) hold(vx, d float64) {
	m.holdVel = vx
	m.holdLeft = d
	v := m.body.Velocity()
	v.X = vx
	m.body.SetVelocity(v)
}

func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	m.logger.Debug("state change",
		"agent", m.id,
		"from", m.state.String(),
		"to", s.String(),
	)
	m.state = s
}

func (m *Machine) signal(s Signal) {
	if m.signals != nil {
		m.signals.Signal(m.id, s)
	}
}

func (m *Machine) teleporting() bool {
	return m.tp != nil && m.tp.Teleporting()
}

// facing is +1 when the target is to the right, else -1.
func (m *Machine) facing() float64 {
	if m.toTarget.X < 0 {
		return -1
	}
	return 1
}

// TryTeleport starts a teleport toward the target. It returns false when the
// service refuses (cooldown, already teleporting, or a teammate holds the token).
func (m *Machine) TryTeleport(mode teleport.Mode, s State) bool {
	if m.tp == nil || m.err != nil {
		return false
	}
	r, ok := m.tp.Begin(m.body, m.target.Position, mode, !m.grounded, m.teleportHooks())
	if !ok {
		return false
	}
	m.begin(r, s)
	return true
}

// TryBurst chains count teleports under one token hold.
func (m *Machine) TryBurst(count int) bool {
	if m.tp == nil || m.err != nil {
		return false
	}
	r, ok := m.tp.BeginBurst(m.body, m.target.Position, count, m.teleportHooks())
	if !ok {
		return false
	}
	m.begin(r, MultiTeleporting)
	return true
}

func (m *Machine) begin(r *routine.Routine, s State) {
	m.start(r, s)
	m.invulnerable = true
	m.body.SetVelocity(r2.Vec{})
	m.plan = nil
	m.signal(SignalTeleportCharge)
}

func (m *Machine) teleportHooks() teleport.Hooks {
	return teleport.Hooks{
		OnRelocate: func(dest r2.Vec, fallback bool) {
			m.body.SetVelocity(r2.Vec{})
			m.plan = nil
			m.failures = 0
			m.signal(SignalTeleported)
		},
		OnFinish: m.endRoutine,
	}
}

// retreat backs away from the target for the configured time.
func (m *Machine) retreat() bool {
	if !m.cooldowns.Ready(CooldownRetreat) {
		return false
	}
	m.cooldowns.Arm(CooldownRetreat, m.agent.RetreatCooldown)
	r := routine.New("retreat", routine.Wait("retreat", m.agent.RetreatTime)).OnFinish(m.endRoutine)
	m.start(r, Retreating)
	m.hold(-m.facing()*m.agent.MoveSpeed, m.agent.RetreatTime)
	return true
}

// stun forces the Stunned state immediately.
func (m *Machine) stun(duration float64, dir r2.Vec, force float64) {
	m.active.Cancel()
	m.hitboxes.disableAll()
	m.invulnerable = false
	m.holdLeft = 0
	m.plan = nil
	m.body.SetVelocity(r2.Vec{})
	m.profile.OnInterrupt()

	var impulse r2.Vec
	if force > 0 && r2.Norm(dir) > 0 {
		impulse = r2.Scale(force, r2.Unit(dir))
	}
	m.active = routine.New("stun",
		// Knockback lands on the first tick after the interrupt
		routine.Do("knockback", func() {
			if impulse != (r2.Vec{}) {
				m.body.SetVelocity(impulse)
			}
		}),
		routine.Wait("stunned", duration),
		routine.Do("recover", func() {
			m.graceLeft = m.agent.StunGrace
			m.setState(Pursuing)
		}),
	)
	m.setState(Stunned)
}

// TakeDamage implements Combatant.
func (m *Machine) TakeDamage(amount float64, source Combatant) Outcome {
	if m.err != nil {
		return OutcomeIgnored
	}
	if m.Invulnerable() {
		return OutcomeBlocked
	}
	m.health -= amount
	m.profile.OnDamaged(source)
	return OutcomeDamaged
}

// NotifyParried implements Combatant. The machine is stunned for its
// configured stun time and knocked away from source.
func (m *Machine) NotifyParried(source Combatant) {
	if m.err != nil {
		return
	}
	m.signal(SignalParried)
	dir := r2.Vec{X: -m.facing()}
	if l, ok := source.(Locator); ok {
		if d := r2.Sub(m.body.Position(), l.Position()); d.X != 0 {
			dir = r2.Vec{X: math.Copysign(1, d.X)}
		}
	}
	m.stun(m.agent.StunTime, dir, m.agent.Knockback)
}

// NotifyStunned implements Combatant.
func (m *Machine) NotifyStunned(duration float64, dir r2.Vec, force float64) {
	if m.err != nil {
		return
	}
	m.signal(SignalStunned)
	m.stun(duration, dir, force)
}

// NotifyProjectile reports a projectile in flight. Reflected projectiles
// that will pass close within the threat window become a threat.
func (m *Machine) NotifyProjectile(pos, vel r2.Vec, reflected bool) {
	if !reflected || m.err != nil || m.threatWindow <= 0 {
		return
	}
	speedSq := r2.Dot(vel, vel)
	if speedSq == 0 {
		return
	}
	center := r2.Add(m.body.Position(), r2.Vec{Y: eyeHeight * 0.8})
	t := r2.Dot(r2.Sub(center, pos), vel) / speedSq
	if t < 0 || t > m.threatWindow {
		return
	}
	closest := r2.Add(pos, r2.Scale(t, vel))
	if r2.Norm(r2.Sub(center, closest)) > 1 {
		return
	}
	m.threat = true
}

// ReportContact is called by the host when an active hitbox overlaps victim.
// Each activation lands at most once.
func (m *Machine) ReportContact(name string, victim Combatant) Outcome {
	h := m.hitboxes.find(name)
	if h == nil || !h.Active || h.landed {
		return OutcomeIgnored
	}
	h.landed = true

	out := victim.TakeDamage(h.Damage, m)
	switch out {
	case OutcomeDamaged:
		m.signal(SignalHit)
	case OutcomeBlocked:
		m.blocked = true
	case OutcomeParried:
		m.NotifyParried(victim)
	}
	return out
}

// Respawn restores full health at pos and drops whatever the machine was doing.
func (m *Machine) Respawn(pos r2.Vec) {
	if m.err != nil {
		return
	}
	m.active.Cancel()
	m.active = nil
	m.hitboxes.disableAll()
	m.invulnerable = false
	m.holdLeft = 0
	m.plan = nil
	m.failures = 0
	m.health = m.agent.MaxHealth
	m.graceLeft = m.agent.StunGrace
	m.profile.OnInterrupt()
	m.body.Teleport(pos)
	m.body.SetVelocity(r2.Vec{})
	m.setState(Pursuing)
}

// ID returns the agent identifier.
func (m *Machine) ID() uint32 { return m.id }

// Team returns the agent's team.
func (m *Machine) Team() int { return m.team }

// Profile returns the variant name.
func (m *Machine) Profile() string { return m.profile.Name() }

// State returns the current behavior.
func (m *Machine) State() State { return m.state }

// Routine returns the name and step of the active routine, if any.
func (m *Machine) Routine() (name, step string) {
	return m.active.Name(), m.active.Step()
}

// Err returns the construction error that made the machine passive.
func (m *Machine) Err() error { return m.err }

// Health returns remaining health.
func (m *Machine) Health() float64 { return m.health }

// Failures returns consecutive planning failures.
func (m *Machine) Failures() int { return m.failures }

// MaxHealth returns the health restored on respawn.
func (m *Machine) MaxHealth() float64 { return m.agent.MaxHealth }

// FailureThreshold returns the failure count that triggers a teleport.
func (m *Machine) FailureThreshold() int { return m.agent.FailureThreshold }

// LineOfSight reports the sight check from the last tick.
func (m *Machine) LineOfSight() bool { return m.los }

// Eye returns the point sight lines are cast from.
func (m *Machine) Eye() r2.Vec { return r2.Add(m.Position(), r2.Vec{Y: eyeHeight}) }

// Plan returns the current plan, which may be nil.
func (m *Machine) Plan() *systems.Plan { return m.plan }

// Cooldowns exposes the machine's countdowns.
func (m *Machine) Cooldowns() *Cooldowns { return m.cooldowns }

// Ammo returns the rounds left for ranged agents.
func (m *Machine) Ammo() (int, bool) {
	if p, ok := m.profile.(*ranged); ok {
		return p.ammo, true
	}
	return 0, false
}

// Invulnerable reports whether incoming hits are currently blocked.
func (m *Machine) Invulnerable() bool {
	return m.invulnerable || m.graceLeft > 0 || m.dashLeft > 0 || m.teleporting()
}

// Hitboxes returns a snapshot of the attack regions.
func (m *Machine) Hitboxes() []Hitbox {
	out := make([]Hitbox, len(m.hitboxes))
	copy(out, m.hitboxes)
	return out
}

// Position implements Target so agents can fight each other.
func (m *Machine) Position() r2.Vec {
	if m.body == nil {
		return r2.Vec{}
	}
	return m.body.Position()
}

// Velocity implements Target.
func (m *Machine) Velocity() r2.Vec {
	if m.body == nil {
		return r2.Vec{}
	}
	return m.body.Velocity()
}

// approach moves v toward goal by at most step.
func approach(v, goal, step float64) float64 {
	if v < goal {
		return math.Min(v+step, goal)
	}
	return math.Max(v-step, goal)
}
