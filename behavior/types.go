// Package behavior arbitrates what an agent does each tick: following a
// movement plan, attacking, evading, and teleporting.
package behavior

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r2"
)

// Construction errors. A machine built with one of these stays passive.
var (
	ErrNoTarget  = errors.New("behavior: no target")
	ErrNoBody    = errors.New("behavior: no body")
	ErrNoShooter = errors.New("behavior: ranged agent without a shooter")
)

// State is the machine's current behavior.
type State uint8

const (
	Pursuing State = iota
	Charging
	Dashing
	Recovery
	Stunned
	ComboAttacking
	EvasionDashing
	Retreating
	Jumping
	StepOver
	Feinting
	Aiming
	Shooting
	Reloading
	FakeTeleporting
	MultiTeleporting
	TeleportBehind
	Dodging
)

func (s State) String() string {
	switch s {
	case Pursuing:
		return "pursuing"
	case Charging:
		return "charging"
	case Dashing:
		return "dashing"
	case Recovery:
		return "recovery"
	case Stunned:
		return "stunned"
	case ComboAttacking:
		return "combo_attacking"
	case EvasionDashing:
		return "evasion_dashing"
	case Retreating:
		return "retreating"
	case Jumping:
		return "jumping"
	case StepOver:
		return "step_over"
	case Feinting:
		return "feinting"
	case Aiming:
		return "aiming"
	case Shooting:
		return "shooting"
	case Reloading:
		return "reloading"
	case FakeTeleporting:
		return "fake_teleporting"
	case MultiTeleporting:
		return "multi_teleporting"
	case TeleportBehind:
		return "teleport_behind"
	case Dodging:
		return "dodging"
	default:
		return "unknown"
	}
}

// Neutral reports whether the state is driven by the movement plan.
func (s State) Neutral() bool {
	switch s {
	case Pursuing, Jumping, StepOver, EvasionDashing:
		return true
	default:
		return false
	}
}

// Outcome is the result of a hit landing on a combatant.
type Outcome uint8

const (
	// OutcomeIgnored means the hit did not connect.
	OutcomeIgnored Outcome = iota
	// OutcomeDamaged means health was removed.
	OutcomeDamaged
	// OutcomeBlocked means the victim was invulnerable. The attacker keeps acting.
	OutcomeBlocked
	// OutcomeParried means the victim parried. The attacker is stunned.
	OutcomeParried
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeDamaged:
		return "damaged"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeParried:
		return "parried"
	default:
		return "unknown"
	}
}

// Combatant is anything that can be hit, parried or stunned.
type Combatant interface {
	TakeDamage(amount float64, source Combatant) Outcome
	NotifyParried(source Combatant)
	NotifyStunned(duration float64, dir r2.Vec, force float64)
}

// Locator reports a combatant's feet position.
type Locator interface {
	Position() r2.Vec
}

// Target is what an agent pursues and attacks.
type Target interface {
	Combatant
	Locator
	Velocity() r2.Vec
}

// Body is the physical body a machine steers.
type Body interface {
	Position() r2.Vec
	Velocity() r2.Vec
	SetVelocity(v r2.Vec)
	Teleport(dest r2.Vec)
	Grounded() bool
}

// Shooter launches projectiles for ranged agents.
type Shooter interface {
	Fire(origin, dir r2.Vec, speed float64)
}

// Rand is the source of every random draw. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Signal marks a moment the host may want to show or count.
type Signal uint8

const (
	SignalAimWarning Signal = iota
	SignalTeleportCharge
	SignalTeleported
	SignalFakeTeleport
	SignalFeint
	SignalCombo
	SignalHit
	SignalParried
	SignalStunned
	SignalShot
	SignalDodge
	SignalPlanFailed
	SignalPlanFound
)

func (s Signal) String() string {
	switch s {
	case SignalAimWarning:
		return "aim_warning"
	case SignalTeleportCharge:
		return "teleport_charge"
	case SignalTeleported:
		return "teleported"
	case SignalFakeTeleport:
		return "fake_teleport"
	case SignalFeint:
		return "feint"
	case SignalCombo:
		return "combo"
	case SignalHit:
		return "hit"
	case SignalParried:
		return "parried"
	case SignalStunned:
		return "stunned"
	case SignalShot:
		return "shot"
	case SignalDodge:
		return "dodge"
	case SignalPlanFailed:
		return "plan_failed"
	case SignalPlanFound:
		return "plan_found"
	default:
		return "unknown"
	}
}

// Signals receives notable moments from machines.
type Signals interface {
	Signal(agent uint32, s Signal)
}

// SignalFunc adapts a function to Signals.
type SignalFunc func(agent uint32, s Signal)

// Signal implements Signals.
func (f SignalFunc) Signal(agent uint32, s Signal) { f(agent, s) }
