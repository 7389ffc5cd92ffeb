// Package kinematics models the simplified motion used for action-space planning.
package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind identifies a primitive movement action.
type Kind uint8

const (
	Walk Kind = iota
	Jump
	AirControl
	EvasionDash
	StepOver
)

func (k Kind) String() string {
	switch k {
	case Walk:
		return "walk"
	case Jump:
		return "jump"
	case AirControl:
		return "air_control"
	case EvasionDash:
		return "evasion_dash"
	case StepOver:
		return "step_over"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Action is one primitive movement with a fixed duration.
type Action struct {
	Kind     Kind
	Dir      r2.Vec
	Duration float64
	Force    float64
}

// Valid reports whether the descriptor itself is well formed.
func (a Action) Valid() bool {
	return a.Kind <= StepOver && a.Duration > 0 && a.Force >= 0
}

func (a Action) String() string {
	return fmt.Sprintf("%s(%.2f,%.2f)", a.Kind, a.Dir.X, a.Dir.Y)
}

// State is the kinematic snapshot of one agent.
// Positions are feet points; y points up.
type State struct {
	Pos      r2.Vec
	Vel      r2.Vec
	Grounded bool
	DashUsed bool
	JumpUsed bool
}

// Legal reports whether the action's precondition holds in s.
func Legal(s State, a Action) bool {
	switch a.Kind {
	case Walk, StepOver:
		return s.Grounded
	case Jump:
		return s.Grounded && !s.JumpUsed
	case AirControl:
		return !s.Grounded
	case EvasionDash:
		return !s.DashUsed
	default:
		return false
	}
}

// Step applies a to s and integrates for a.Duration.
// It never resolves collisions; gravity only accumulates while airborne.
func Step(s State, a Action, gravity float64) State {
	dt := a.Duration
	switch a.Kind {
	case Walk:
		s.Pos = r2.Add(s.Pos, r2.Scale(a.Force*dt, a.Dir))
	case Jump:
		if s.Grounded && !s.JumpUsed {
			s.Vel.Y = a.Force
			s.Grounded = false
			s.JumpUsed = true
		}
	case AirControl:
		if !s.Grounded {
			s.Vel.X = approach(s.Vel.X, a.Dir.X*a.Force, a.Force*dt)
		}
	case EvasionDash:
		if !s.DashUsed {
			s.Vel = r2.Scale(a.Force, a.Dir)
			s.DashUsed = true
		}
	case StepOver:
		s.Pos.Y += a.Force * dt
	}

	s.Pos = r2.Add(s.Pos, r2.Scale(dt, s.Vel))
	if !s.Grounded {
		s.Vel.Y -= gravity * dt
	}
	return s
}

// approach moves v toward target by at most maxDelta.
func approach(v, target, maxDelta float64) float64 {
	d := target - v
	if math.Abs(d) <= maxDelta {
		return target
	}
	if d > 0 {
		return v + maxDelta
	}
	return v - maxDelta
}

// Key is the quantized identity of a State used for duplicate detection.
type Key struct {
	PX, PY, VX, VY int32
	Flags          uint8
}

// Quantize rounds position and velocity to the grid and packs the flags.
func Quantize(s State, grid float64) Key {
	q := func(v float64) int32 { return int32(math.Round(v / grid)) }
	var flags uint8
	if s.Grounded {
		flags |= 1
	}
	if s.DashUsed {
		flags |= 2
	}
	if s.JumpUsed {
		flags |= 4
	}
	return Key{PX: q(s.Pos.X), PY: q(s.Pos.Y), VX: q(s.Vel.X), VY: q(s.Vel.Y), Flags: flags}
}
