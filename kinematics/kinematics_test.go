package kinematics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

const gravity = 20.0

var (
	right = r2.Vec{X: 1}
	left  = r2.Vec{X: -1}
)

func TestStepWalk(t *testing.T) {
	s := State{Grounded: true}
	next := Step(s, Action{Kind: Walk, Dir: right, Duration: 0.2, Force: 5}, gravity)

	assert.InDelta(t, 1.0, next.Pos.X, 1e-9)
	assert.Equal(t, 0.0, next.Pos.Y, "grounded walking keeps its height")
	assert.Equal(t, 0.0, next.Vel.Y, "no gravity while grounded")
	assert.True(t, next.Grounded)
	// Input is a value and stays untouched
	assert.Equal(t, 0.0, s.Pos.X)
}

func TestStepJump(t *testing.T) {
	s := State{Grounded: true}
	next := Step(s, Action{Kind: Jump, Dir: r2.Vec{Y: 1}, Duration: 0.2, Force: 8}, gravity)

	assert.False(t, next.Grounded)
	assert.True(t, next.JumpUsed)
	assert.InDelta(t, 1.6, next.Pos.Y, 1e-9)
	assert.InDelta(t, 4.0, next.Vel.Y, 1e-9)

	// A second jump is a no-op apart from integration
	again := Step(next, Action{Kind: Jump, Dir: r2.Vec{Y: 1}, Duration: 0.2, Force: 8}, gravity)
	assert.InDelta(t, 0.0, again.Vel.Y, 1e-9)
	assert.InDelta(t, 2.4, again.Pos.Y, 1e-9)
}

func TestStepAirControlRateLimited(t *testing.T) {
	s := State{Vel: r2.Vec{X: 15}}
	next := Step(s, Action{Kind: AirControl, Dir: right, Duration: 0.2, Force: 5}, gravity)
	assert.InDelta(t, 14.0, next.Vel.X, 1e-9)

	s = State{}
	next = Step(s, Action{Kind: AirControl, Dir: left, Duration: 0.2, Force: 5}, gravity)
	assert.InDelta(t, -1.0, next.Vel.X, 1e-9)

	// Grounded agents ignore air control
	s = State{Grounded: true}
	next = Step(s, Action{Kind: AirControl, Dir: right, Duration: 0.2, Force: 5}, gravity)
	assert.Equal(t, 0.0, next.Vel.X)
}

func TestStepEvasionDashOnce(t *testing.T) {
	s := State{}
	next := Step(s, Action{Kind: EvasionDash, Dir: right, Duration: 0.2, Force: 15}, gravity)
	assert.True(t, next.DashUsed)
	assert.InDelta(t, 3.0, next.Pos.X, 1e-9)

	again := Step(next, Action{Kind: EvasionDash, Dir: left, Duration: 0.2, Force: 15}, gravity)
	assert.InDelta(t, 15.0, again.Vel.X, 1e-9, "a used dash does not redirect")
}

func TestStepOverLifts(t *testing.T) {
	s := State{Grounded: true}
	next := Step(s, Action{Kind: StepOver, Dir: r2.Vec{Y: 1}, Duration: 0.2, Force: 3}, gravity)
	assert.InDelta(t, 0.6, next.Pos.Y, 1e-9)
	assert.True(t, next.Grounded)
}

func TestLegal(t *testing.T) {
	grounded := State{Grounded: true}
	airborne := State{}
	spent := State{JumpUsed: true, DashUsed: true}

	tests := []struct {
		name  string
		state State
		kind  Kind
		want  bool
	}{
		{"walk grounded", grounded, Walk, true},
		{"walk airborne", airborne, Walk, false},
		{"jump grounded", grounded, Jump, true},
		{"jump spent", State{Grounded: true, JumpUsed: true}, Jump, false},
		{"air control airborne", airborne, AirControl, true},
		{"air control grounded", grounded, AirControl, false},
		{"dash fresh", airborne, EvasionDash, true},
		{"dash spent", spent, EvasionDash, false},
		{"step over grounded", grounded, StepOver, true},
		{"step over airborne", airborne, StepOver, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Legal(tt.state, Action{Kind: tt.kind, Duration: 0.2})
			if got != tt.want {
				t.Errorf("Legal(%v) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestQuantize(t *testing.T) {
	a := State{Pos: r2.Vec{X: 1.04, Y: 0.01}, Grounded: true}
	b := State{Pos: r2.Vec{X: 0.96, Y: -0.02}, Grounded: true}
	c := State{Pos: r2.Vec{X: 1.04, Y: 0.01}, Grounded: false}

	assert.Equal(t, Quantize(a, 0.1), Quantize(b, 0.1))
	assert.NotEqual(t, Quantize(a, 0.1), Quantize(c, 0.1), "flags are part of the key")
}

func TestActionValid(t *testing.T) {
	assert.True(t, Action{Kind: Walk, Duration: 0.2, Force: 1}.Valid())
	assert.False(t, Action{Kind: Walk, Duration: 0, Force: 1}.Valid())
	assert.False(t, Action{Kind: Walk, Duration: 0.2, Force: -1}.Valid())
	assert.False(t, Action{Kind: Kind(42), Duration: 0.2}.Valid())
	assert.Equal(t, "evasion_dash", EvasionDash.String())
}
