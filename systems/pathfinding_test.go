package systems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/kinematics"
	"github.com/pthm-cable/skirmish/world"
)

// flatGround is a mock world with walkable ground at groundY everywhere
// and optional solid boxes.
type flatGround struct {
	groundY float64
	boxes   []box
}

type box struct{ x, y, w, h float64 }

func (f *flatGround) ProbeGround(p r2.Vec) (world.Hit, bool) {
	return f.ProbeLine(r2.Vec{X: p.X, Y: p.Y + 0.05}, r2.Vec{Y: -1}, 0.1)
}

func (f *flatGround) ProbeLine(origin, dir r2.Vec, maxDistance float64) (world.Hit, bool) {
	best := math.Inf(1)
	dir = r2.Unit(dir)
	// Ground plane
	if dir.Y < 0 && origin.Y >= f.groundY {
		if t := (origin.Y - f.groundY) / -dir.Y; t <= maxDistance {
			best = t
		}
	}
	// Box tops, straight down only
	if dir.X == 0 && dir.Y < 0 {
		for _, b := range f.boxes {
			top := b.y + b.h
			if origin.X > b.x && origin.X < b.x+b.w && origin.Y >= top {
				if t := origin.Y - top; t <= maxDistance && t < best {
					best = t
				}
			}
		}
	}
	if math.IsInf(best, 1) {
		return world.Hit{}, false
	}
	return world.Hit{Point: r2.Add(origin, r2.Scale(best, dir)), Normal: r2.Vec{Y: 1}, Distance: best}, true
}

func (f *flatGround) OverlapRegion(c r2.Vec, r float64) bool {
	for _, b := range f.boxes {
		cx := clampFloat(c.X, b.x, b.x+b.w)
		cy := clampFloat(c.Y, b.y, b.y+b.h)
		if (c.X-cx)*(c.X-cx)+(c.Y-cy)*(c.Y-cy) < r*r {
			return true
		}
	}
	return false
}

// replay re-applies a plan through the pure step and checks every precondition.
func replay(t *testing.T, p *Plan, initial kinematics.State, gravity float64) kinematics.State {
	t.Helper()
	s := initial
	for i, a := range p.Actions {
		require.Truef(t, kinematics.Legal(s, a), "action %d (%v) illegal in %+v", i, a, s)
		s = kinematics.Step(s, a, gravity)
	}
	return s
}

// replaySettled re-applies a plan through the step and the world settle pass.
// Every action must be legal and every grounded state must stand on something.
func replaySettled(t *testing.T, planner *Planner, w world.Querier, p *Plan, initial kinematics.State) kinematics.State {
	t.Helper()
	s := initial
	for i, a := range p.Actions {
		require.Truef(t, kinematics.Legal(s, a), "action %d (%v) illegal in %+v", i, a, s)
		next, ok := planner.settle(s, kinematics.Step(s, a, planner.Params().Gravity), a.Kind)
		require.Truef(t, ok, "action %d (%v) rejected on replay", i, a)
		if next.Grounded && a.Kind != kinematics.StepOver {
			_, onGround := w.ProbeGround(next.Pos)
			require.Truef(t, onGround, "action %d (%v) left a grounded state in the air at %v", i, a, next.Pos)
		}
		s = next
	}
	return s
}

// TestFindPlanFlatWalk covers the flat-ground scenario: only walks are needed.
func TestFindPlanFlatWalk(t *testing.T) {
	tests := []struct {
		name  string
		world world.Querier
	}{
		{"pure kinematics", nil},
		{"flat world", &flatGround{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			planner := NewPlanner(tc.world, DefaultPlannerParams())
			initial := kinematics.State{Grounded: true}

			plan, ok := planner.FindPlan(r2.Vec{}, r2.Vec{X: 5}, initial)
			require.True(t, ok)
			require.NotNil(t, plan)

			var walked float64
			for _, a := range plan.Actions {
				assert.Equal(t, kinematics.Walk, a.Kind, "no jumps or dashes on flat ground")
				walked += a.Dir.X * a.Force * a.Duration
			}
			assert.GreaterOrEqual(t, walked, 4.5)
			assert.Len(t, plan.Actions, 5)

			end := replay(t, plan, initial, DefaultPlannerParams().Gravity)
			assert.LessOrEqual(t, r2.Norm(r2.Sub(end.Pos, r2.Vec{X: 5})), 0.5)
			assert.InDelta(t, end.Pos.X, plan.End.X, 1e-9)
			assert.InDelta(t, end.Pos.Y, plan.End.Y, 1e-9)
			assert.True(t, planner.Stats().Found)
			assert.LessOrEqual(t, planner.Stats().Expansions, 1000)
		})
	}
}

// TestFindPlanValidity checks preconditions along plans for several targets.
func TestFindPlanValidity(t *testing.T) {
	targets := []r2.Vec{
		{X: -3},
		{X: 2, Y: 1.6},
		{X: 4, Y: 2},
		{X: 0.3},
	}
	params := DefaultPlannerParams()

	for _, target := range targets {
		planner := NewPlanner(nil, params)
		initial := kinematics.State{Grounded: true}
		plan, ok := planner.FindPlan(r2.Vec{}, target, initial)
		if !ok {
			continue
		}
		assert.LessOrEqual(t, len(plan.Actions), params.MaxDepth)
		end := replay(t, plan, initial, params.Gravity)
		assert.LessOrEqualf(t, r2.Norm(r2.Sub(end.Pos, target)), params.SuccessRadius, "target %v", target)
	}
}

// TestFindPlanValidityWithWorld replays world-mode plans through the settle pass.
func TestFindPlanValidityWithWorld(t *testing.T) {
	tests := []struct {
		name   string
		world  *flatGround
		target r2.Vec
	}{
		{"flat", &flatGround{}, r2.Vec{X: 4}},
		{"low block", &flatGround{boxes: []box{{x: 2.5, y: 0, w: 1, h: 0.5}}}, r2.Vec{X: 5}},
		{"onto block", &flatGround{boxes: []box{{x: 2.5, y: 0, w: 2, h: 0.5}}}, r2.Vec{X: 3.5, Y: 0.5}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultPlannerParams()
			params.MaxIterations = 20000
			planner := NewPlanner(tc.world, params)
			initial := kinematics.State{Grounded: true}

			plan, ok := planner.FindPlan(r2.Vec{}, tc.target, initial)
			require.True(t, ok)
			end := replaySettled(t, planner, tc.world, plan, initial)
			assert.LessOrEqual(t, r2.Norm(r2.Sub(end.Pos, tc.target)), params.SuccessRadius)
		})
	}
}

// TestSettleStepOverNeedsLedge rejects lifts with nothing to step onto.
func TestSettleStepOverNeedsLedge(t *testing.T) {
	params := DefaultPlannerParams()
	lift := kinematics.Action{Kind: kinematics.StepOver, Dir: r2.Vec{Y: 1}, Duration: params.ActionDuration, Force: params.StepForce}

	tests := []struct {
		name  string
		world *flatGround
		x     float64
		ok    bool
	}{
		{"open floor", &flatGround{}, 0, false},
		{"ledge ahead", &flatGround{boxes: []box{{x: 2.5, y: 0, w: 1, h: 0.5}}}, 2, true},
		{"ledge behind", &flatGround{boxes: []box{{x: 2.5, y: 0, w: 1, h: 0.5}}}, 4, true},
		{"ledge out of reach", &flatGround{boxes: []box{{x: 2.5, y: 0, w: 1, h: 0.5}}}, 0, false},
		{"ledge too high", &flatGround{boxes: []box{{x: 2.5, y: 0, w: 1, h: 2}}}, 2, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			planner := NewPlanner(tc.world, params)
			s := kinematics.State{Pos: r2.Vec{X: tc.x}, Grounded: true}
			_, ok := planner.settle(s, kinematics.Step(s, lift, params.Gravity), lift.Kind)
			assert.Equal(t, tc.ok, ok)
		})
	}
}

// TestLegalActionsDashOnlyAirborne keeps evasion dashes out of grounded expansions.
func TestLegalActionsDashOnlyAirborne(t *testing.T) {
	planner := NewPlanner(nil, DefaultPlannerParams())
	target := r2.Vec{X: 5}

	kinds := func(s kinematics.State) []kinematics.Kind {
		var out []kinematics.Kind
		for _, a := range planner.legalActions(s, target) {
			out = append(out, a.Kind)
		}
		return out
	}

	assert.NotContains(t, kinds(kinematics.State{Grounded: true}), kinematics.EvasionDash)
	assert.Contains(t, kinds(kinematics.State{}), kinematics.EvasionDash)
	assert.NotContains(t, kinds(kinematics.State{DashUsed: true}), kinematics.EvasionDash)
}

// TestFindPlanAlreadyThere returns an empty plan when the start is within reach.
func TestFindPlanAlreadyThere(t *testing.T) {
	planner := NewPlanner(nil, DefaultPlannerParams())
	plan, ok := planner.FindPlan(r2.Vec{X: 1}, r2.Vec{X: 1.2}, kinematics.State{Grounded: true})
	require.True(t, ok)
	assert.Empty(t, plan.Actions)
	assert.True(t, plan.Done())
}

// TestFindPlanTermination verifies unreachable targets fail within the cap.
func TestFindPlanTermination(t *testing.T) {
	params := DefaultPlannerParams()
	planner := NewPlanner(&flatGround{}, params)

	plan, ok := planner.FindPlan(r2.Vec{}, r2.Vec{X: 3, Y: 50}, kinematics.State{Grounded: true})
	assert.False(t, ok)
	assert.Nil(t, plan)
	assert.LessOrEqual(t, planner.Stats().Expansions, params.MaxIterations)
	assert.False(t, planner.Stats().Found)

	// A tiny cap also terminates
	params.MaxIterations = 3
	planner = NewPlanner(nil, params)
	_, ok = planner.FindPlan(r2.Vec{}, r2.Vec{X: 30}, kinematics.State{Grounded: true})
	assert.False(t, ok)
	assert.Equal(t, 3, planner.Stats().Expansions)
}

// TestFindPlanDepthLimit verifies no plan exceeds the depth limit.
func TestFindPlanDepthLimit(t *testing.T) {
	params := DefaultPlannerParams()
	params.MaxDepth = 3
	params.MaxIterations = 100000
	planner := NewPlanner(&flatGround{}, params)

	_, ok := planner.FindPlan(r2.Vec{}, r2.Vec{X: 8}, kinematics.State{Grounded: true})
	assert.False(t, ok, "8 units needs more than 3 actions")

	plan, ok := planner.FindPlan(r2.Vec{}, r2.Vec{X: 3}, kinematics.State{Grounded: true})
	require.True(t, ok)
	assert.LessOrEqual(t, len(plan.Actions), 3)
}

// TestFindPlanDeterministic verifies identical inputs yield identical plans.
func TestFindPlanDeterministic(t *testing.T) {
	w := &flatGround{boxes: []box{{x: 2.5, y: 0, w: 1, h: 0.5}}}
	a := NewPlanner(w, DefaultPlannerParams())
	b := NewPlanner(w, DefaultPlannerParams())

	initial := kinematics.State{Grounded: true}
	pa, oka := a.FindPlan(r2.Vec{}, r2.Vec{X: 5}, initial)
	pb, okb := b.FindPlan(r2.Vec{}, r2.Vec{X: 5}, initial)

	require.Equal(t, oka, okb)
	if oka {
		assert.Equal(t, pa.Actions, pb.Actions)
	}

	// Reusing the same planner gives the same answer
	pc, okc := a.FindPlan(r2.Vec{}, r2.Vec{X: 5}, initial)
	require.Equal(t, oka, okc)
	if oka {
		assert.Equal(t, pa.Actions, pc.Actions)
	}
}

// TestFindPlanOverObstacle verifies a low block forces a non-walk action.
func TestFindPlanOverObstacle(t *testing.T) {
	w := &flatGround{boxes: []box{{x: 2.5, y: 0, w: 1, h: 0.5}}}
	params := DefaultPlannerParams()
	params.MaxIterations = 20000
	planner := NewPlanner(w, params)

	plan, ok := planner.FindPlan(r2.Vec{}, r2.Vec{X: 5}, kinematics.State{Grounded: true})
	require.True(t, ok)

	allWalks := true
	for _, a := range plan.Actions {
		if a.Kind != kinematics.Walk {
			allWalks = false
		}
	}
	assert.False(t, allWalks, "walking straight through the block is rejected")
}
