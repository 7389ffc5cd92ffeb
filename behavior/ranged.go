package behavior

import (
	bt "github.com/joeycumines/go-behaviortree"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/routine"
	"github.com/pthm-cable/skirmish/teleport"
)

const counterHitbox = "counter"

// ranged is the projectile profile.
type ranged struct {
	m   *Machine
	cfg config.RangedConfig

	ammo          int
	reloading     bool
	closeContacts int
	farContacts   int
}

// NewRanged builds a projectile agent. On error the returned machine is
// passive and the error has already been logged.
func NewRanged(d Deps, cfg config.RangedConfig, planCfg config.PlannerConfig) (*Machine, error) {
	m := newMachine(d, cfg.AgentConfig, planCfg)
	p := &ranged{m: m, cfg: cfg, ammo: cfg.Ammo}
	m.profile = p
	m.threatWindow = cfg.DodgeWindow
	m.evasionCooldown = cfg.DodgeCooldown
	m.hitboxes = hitboxes{{
		Name:   counterHitbox,
		Offset: r2.Vec{X: cfg.HitboxRange / 2, Y: eyeHeight * 0.8},
		Radius: cfg.HitboxRange / 2,
		Damage: cfg.HitDamage,
	}}
	m.urgent = p.Urgent()
	m.preempt = p.Preempt()

	if m.err == nil && d.Shooter == nil {
		m.err = ErrNoShooter
	}
	return m, m.passive(m.err)
}

func (p *ranged) Name() string { return "ranged" }

// Urgent lists the reactions that may cut an attack short.
func (p *ranged) Urgent() bt.Node {
	return priority(
		rule(p.swarmed, p.burst),
		rule(p.threatened, p.evadeThreat),
	)
}

// Preempt lists the ranged rules from highest to lowest priority.
func (p *ranged) Preempt() bt.Node {
	return priority(
		rule(p.inMelee, p.meleeResponse),
		rule(p.badPosition, p.reposition),
		rule(p.tooClose, p.m.retreat),
		rule(p.canShoot, p.attack),
	)
}

func (p *ranged) Update(float64) {}

// Neutral holds position while the target is in sight and range.
func (p *ranged) Neutral(float64) bool {
	m := p.m
	if !m.los || m.dist > p.cfg.ShootRange {
		return false
	}
	v := m.body.Velocity()
	v.X = 0
	m.body.SetVelocity(v)
	return true
}

func (p *ranged) OnInterrupt() {}

// OnDamaged counts hits by the range they came from.
func (p *ranged) OnDamaged(Combatant) {
	if p.m.dist <= p.cfg.MeleeRange {
		p.closeContacts++
	} else {
		p.farContacts++
	}
}

func (p *ranged) swarmed() bool {
	m := p.m
	if m.tp == nil || !m.tp.Ready() {
		return false
	}
	return p.closeContacts >= p.cfg.CloseContacts || p.farContacts >= p.cfg.FarContacts
}

func (p *ranged) burst() bool {
	if !p.m.TryBurst(p.cfg.BurstCount) {
		return false
	}
	p.closeContacts = 0
	p.farContacts = 0
	return true
}

func (p *ranged) threatened() bool {
	return p.m.threat
}

// evadeThreat dodges a reflected projectile, or teleports when the dodge is cooling down.
func (p *ranged) evadeThreat() bool {
	m := p.m
	if m.cooldowns.Ready(CooldownDodge) && m.grounded {
		p.dodge()
		return true
	}
	return m.tp != nil && m.tp.Ready() && m.TryTeleport(teleport.ModeNear, Charging)
}

func (p *ranged) dodge() {
	m := p.m
	m.cooldowns.Arm(CooldownDodge, p.cfg.DodgeCooldown)
	r := routine.New("dodge", routine.Wait("dodge", p.cfg.DodgeTime)).OnFinish(m.endRoutine)
	m.start(r, Dodging)
	m.invulnerable = true
	m.hold(-m.facing()*p.cfg.DodgeSpeed, p.cfg.DodgeTime)
	v := m.body.Velocity()
	v.Y = p.cfg.DodgeSpeed * 0.6
	m.body.SetVelocity(v)
	m.signal(SignalDodge)
}

func (p *ranged) inMelee() bool {
	return p.m.dist <= p.cfg.MeleeRange
}

// meleeResponse teleports behind the target by chance, else counter-attacks.
func (p *ranged) meleeResponse() bool {
	m := p.m
	if m.tp != nil && m.tp.Ready() && m.rng.Float64() < p.cfg.BehindChance {
		if m.TryTeleport(teleport.ModeBehind, TeleportBehind) {
			return true
		}
	}
	if !m.cooldowns.Ready(CooldownCounter) {
		return false
	}
	p.counter()
	return true
}

func (p *ranged) counter() {
	m := p.m
	facing := m.facing()
	m.cooldowns.Arm(CooldownCounter, p.cfg.CounterCooldown)
	m.blocked = false
	r := routine.New("counter",
		routine.Step{Name: "wind_up", Wait: p.cfg.CounterWindUp, Run: func() routine.Result {
			m.hitboxes.enable(counterHitbox, facing)
			return routine.Next
		}},
		routine.Step{Name: "active", Wait: p.cfg.CounterActive, Run: func() routine.Result {
			m.hitboxes.disable(counterHitbox)
			return routine.Next
		}},
	).OnFinish(m.endRoutine)
	m.start(r, ComboAttacking)
	m.hold(0, inf)
}

// badPosition holds when sight has been lost for a while or the target is far away.
func (p *ranged) badPosition() bool {
	m := p.m
	if m.tp == nil || !m.tp.Ready() || m.tp.TeamBusy() {
		return false
	}
	return m.losLost >= p.cfg.RepositionDelay || m.dist > p.cfg.FarRange
}

// reposition teleports to a spot with sight of the target, or fakes it.
func (p *ranged) reposition() bool {
	m := p.m
	if m.cooldowns.Ready(CooldownFeint) && m.rng.Float64() < p.cfg.FakeTeleportChance {
		m.cooldowns.Arm(CooldownFeint, p.cfg.FakeTeleportTime+p.cfg.RepositionDelay)
		r := routine.New("fake_teleport", routine.Wait("charge", p.cfg.FakeTeleportTime)).OnFinish(m.endRoutine)
		m.start(r, FakeTeleporting)
		m.hold(0, p.cfg.FakeTeleportTime)
		m.signal(SignalFakeTeleport)
		return true
	}
	return m.TryTeleport(teleport.ModeSight, Charging)
}

func (p *ranged) tooClose() bool {
	m := p.m
	return m.dist < p.cfg.RetreatRange && m.grounded
}

func (p *ranged) canShoot() bool {
	m := p.m
	return m.los && m.dist <= p.cfg.ShootRange && m.cooldowns.Ready(CooldownReload)
}

// attack runs the aim, shoot, reload cycle. Losing sight for longer than the
// grace period ends shooting early and reloads. An interrupted reload keeps
// counting down and refills the magazine once it has run its course.
func (p *ranged) attack() bool {
	m := p.m
	if p.reloading {
		p.ammo = p.cfg.Ammo
		p.reloading = false
	}

	fire := func() routine.Result {
		if p.ammo <= 0 || m.losLost >= p.cfg.LOSGrace {
			return routine.Next
		}
		if m.los {
			p.shoot()
		}
		if p.ammo <= 0 {
			return routine.Next
		}
		return routine.Repeat
	}

	r := routine.New("ranged_attack",
		routine.Do("warn", func() { m.signal(SignalAimWarning) }),
		routine.Wait("aim", p.cfg.AimTime),
		routine.Step{Name: "open_fire", Run: func() routine.Result {
			m.setState(Shooting)
			fire()
			return routine.Next
		}},
		routine.Step{Name: "fire", Wait: p.cfg.FireInterval(), Run: fire},
		routine.Do("reload", func() {
			m.setState(Reloading)
			m.cooldowns.Arm(CooldownReload, p.cfg.ReloadTime)
			p.reloading = true
		}),
		routine.Wait("reloading", p.cfg.ReloadTime),
		routine.Do("reloaded", func() {
			p.ammo = p.cfg.Ammo
			p.reloading = false
		}),
	).OnFinish(m.endRoutine)
	m.start(r, Aiming)
	m.hold(0, inf)
	return true
}

func (p *ranged) shoot() {
	m := p.m
	origin := r2.Add(m.pos, r2.Vec{X: m.facing() * 0.5, Y: eyeHeight})
	aim := r2.Add(m.target.Position(), r2.Vec{Y: eyeHeight * 0.8})
	dir := r2.Sub(aim, origin)
	if r2.Norm(dir) == 0 {
		dir = r2.Vec{X: m.facing()}
	}
	m.shooter.Fire(origin, r2.Unit(dir), p.cfg.ProjectileSpeed)
	p.ammo--
	m.signal(SignalShot)
}
