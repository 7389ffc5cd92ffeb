package behavior

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/routine"
	"github.com/pthm-cable/skirmish/teleport"
)

// melee is the close-combat profile.
type melee struct {
	m   *Machine
	cfg config.MeleeConfig

	rhythm float64 // seconds until the combo rhythm window opens
}

// NewMelee builds a close-combat agent. On error the returned machine is
// passive and the error has already been logged.
func NewMelee(d Deps, cfg config.MeleeConfig, planCfg config.PlannerConfig) (*Machine, error) {
	m := newMachine(d, cfg.AgentConfig, planCfg)
	p := &melee{m: m, cfg: cfg}
	m.profile = p
	m.evasionCooldown = cfg.EvasionCooldown

	hits := max(cfg.ComboHits, 1)
	for i := 0; i < hits; i++ {
		m.hitboxes = append(m.hitboxes, Hitbox{
			Name:   comboHitbox(i),
			Offset: r2.Vec{X: cfg.HitboxRange / 2, Y: eyeHeight * 0.8},
			Radius: cfg.HitboxRange / 2,
			Damage: cfg.HitDamage,
		})
	}
	p.rhythm = p.nextRhythm()
	m.preempt = p.Preempt()

	return m, m.passive(m.err)
}

func comboHitbox(i int) string {
	return fmt.Sprintf("combo_%d", i+1)
}

func (p *melee) Name() string { return "melee" }

func (p *melee) Urgent() bt.Node { return nil }

// Preempt lists the melee rules from highest to lowest priority.
func (p *melee) Preempt() bt.Node {
	return priority(
		rule(p.tooClose, p.evade),
		rule(p.inRange, p.attack),
		rule(p.falling, p.emergencyTeleport),
		rule(p.unreachable, p.teleportNear),
		rule(p.failing, p.failureTeleport),
		rule(p.teleportFaster, p.teleportNear),
	)
}

func (p *melee) Update(dt float64) {
	p.rhythm -= dt
}

func (p *melee) Neutral(float64) bool { return false }

// OnInterrupt keeps a parried attacker from swinging again right away.
func (p *melee) OnInterrupt() {
	p.m.cooldowns.Arm(CooldownMelee, p.cfg.MeleeCooldown)
}

func (p *melee) OnDamaged(Combatant) {}

func (p *melee) nextRhythm() float64 {
	return p.cfg.RhythmInterval + (p.m.rng.Float64()*2-1)*p.cfg.RhythmJitter
}

func (p *melee) tooClose() bool {
	m := p.m
	if m.dist >= p.cfg.CloseRange || !m.grounded {
		return false
	}
	if !m.cooldowns.Ready(CooldownDashBehind) && !m.cooldowns.Ready(CooldownRetreat) {
		return false
	}
	return m.rng.Float64() < p.cfg.CloseChance
}

// evade either dashes through to the far side of the target or backs off.
func (p *melee) evade() bool {
	m := p.m
	dashReady := m.cooldowns.Ready(CooldownDashBehind)
	if dashReady && (!m.cooldowns.Ready(CooldownRetreat) || m.rng.Float64() < p.cfg.DashBehindChance) {
		return p.dashBehind()
	}
	return m.retreat()
}

func (p *melee) dashBehind() bool {
	m := p.m
	dest := m.pos.X + m.toTarget.X + m.facing()*p.cfg.DashBehindDist
	speed := (dest - m.pos.X) / p.cfg.DashTime

	m.cooldowns.Arm(CooldownDashBehind, p.cfg.DashCooldown)
	r := routine.New("dash_behind", routine.Wait("dash", p.cfg.DashTime)).OnFinish(m.endRoutine)
	m.start(r, Dashing)
	m.invulnerable = true
	m.hold(speed, p.cfg.DashTime)
	return true
}

func (p *melee) inRange() bool {
	m := p.m
	return m.dist <= p.cfg.AttackRange && m.grounded && m.cooldowns.Ready(CooldownMelee)
}

// attack feints, or swings a full combo when the rhythm window is open or
// the combo roll succeeds, else a single hit.
func (p *melee) attack() bool {
	m := p.m
	if m.cooldowns.Ready(CooldownFeint) && m.rng.Float64() < p.cfg.FeintChance {
		return p.feint()
	}
	hits := 1
	if p.rhythm <= 0 || m.rng.Float64() < p.cfg.ComboChance {
		hits = max(p.cfg.ComboHits, 1)
		p.rhythm = p.nextRhythm()
	}
	p.combo(hits)
	return true
}

func (p *melee) feint() bool {
	m := p.m
	m.cooldowns.Arm(CooldownFeint, p.cfg.FeintCooldown)
	r := routine.New("feint", routine.Wait("feint", p.cfg.FeintTime)).OnFinish(m.endRoutine)
	m.start(r, Feinting)
	m.hold(0, p.cfg.FeintTime)
	m.signal(SignalFeint)
	return true
}

// combo swings hits times. Each hit opens a cancel window, winds up, turns
// its hitbox on for the active time, then pauses before the next.
func (p *melee) combo(hits int) {
	m := p.m
	facing := m.facing()
	m.blocked = false

	steps := make([]routine.Step, 0, 4*hits+2)
	for i := 0; i < hits; i++ {
		name := comboHitbox(i)
		steps = append(steps,
			routine.Step{Name: "cancel_window", Wait: p.cfg.CancelWindow, Run: func() routine.Result {
				if p.shouldCancel() {
					return routine.Stop
				}
				return routine.Next
			}},
			routine.Step{Name: "wind_up", Wait: p.cfg.WindUp, Run: func() routine.Result {
				m.invulnerable = false
				m.hitboxes.enable(name, facing)
				return routine.Next
			}},
			routine.Step{Name: "active", Wait: p.cfg.ActiveTime, Run: func() routine.Result {
				m.hitboxes.disable(name)
				return routine.Next
			}},
			routine.Wait("recovery_gap", p.cfg.RecoveryGap),
		)
	}
	steps = append(steps,
		routine.Do("recover", func() {
			m.cooldowns.Arm(CooldownMelee, p.cfg.MeleeCooldown)
			m.setState(Recovery)
		}),
		routine.Wait("recovery", p.cfg.RecoveryTime),
	)

	r := routine.New("combo", steps...).OnFinish(func() {
		if m.cooldowns.Ready(CooldownMelee) {
			m.cooldowns.Arm(CooldownMelee, p.cfg.MeleeCooldown)
		}
		m.endRoutine()
	})
	m.start(r, ComboAttacking)
	m.hold(0, inf)
	if hits > 1 {
		m.signal(SignalCombo)
	}
}

// shouldCancel aborts the combo when the target slipped away, a hit was
// blocked, or the random interrupt roll hits.
func (p *melee) shouldCancel() bool {
	m := p.m
	if m.dist > p.cfg.AttackRange*1.5 || m.blocked {
		return true
	}
	return m.rng.Float64() < p.cfg.ComboCancelChance
}

func (p *melee) falling() bool {
	m := p.m
	return !m.grounded && !m.groundBelow && m.tp != nil && m.tp.Ready()
}

func (p *melee) emergencyTeleport() bool {
	return p.m.TryTeleport(teleport.ModeNear, Charging)
}

func (p *melee) unreachable() bool {
	m := p.m
	return m.toTarget.Y > p.cfg.MaxJumpHeight && m.tp != nil && m.tp.CanTeleport(m.dist)
}

func (p *melee) teleportNear() bool {
	return p.m.TryTeleport(teleport.ModeNear, Charging)
}

func (p *melee) failing() bool {
	m := p.m
	return m.failures >= p.cfg.FailureThreshold && m.tp != nil && m.tp.Ready()
}

func (p *melee) failureTeleport() bool {
	p.m.failures = 0
	return p.m.TryTeleport(teleport.ModeNear, Charging)
}

// teleportFaster holds when walking would take much longer than charging a teleport.
func (p *melee) teleportFaster() bool {
	m := p.m
	if m.tp == nil || !m.tp.CanTeleport(m.dist) || p.cfg.MoveSpeed <= 0 {
		return false
	}
	walk := m.dist / p.cfg.MoveSpeed
	return walk > m.tp.ChargeFor(m.dist, !m.grounded)*p.cfg.TeleportTimeScale
}
