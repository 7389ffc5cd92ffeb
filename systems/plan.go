package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/kinematics"
)

// Plan is an ordered action sequence with a cursor.
// A nil *Plan behaves like an exhausted plan.
type Plan struct {
	Actions []kinematics.Action
	Target  r2.Vec  // Target position when the plan was computed
	End     r2.Vec  // Settled position the last action leaves the agent at
	Created float64 // Simulation time when the plan was computed

	cursor int
}

// Next returns the next action and advances the cursor.
func (p *Plan) Next() (kinematics.Action, bool) {
	if p.Done() {
		return kinematics.Action{}, false
	}
	a := p.Actions[p.cursor]
	p.cursor++
	return a, true
}

// Peek returns the next action without consuming it.
func (p *Plan) Peek() (kinematics.Action, bool) {
	if p.Done() {
		return kinematics.Action{}, false
	}
	return p.Actions[p.cursor], true
}

// Done reports whether every action has been consumed.
func (p *Plan) Done() bool {
	return p == nil || p.cursor >= len(p.Actions)
}

// Remaining returns the number of unconsumed actions.
func (p *Plan) Remaining() int {
	if p.Done() {
		return 0
	}
	return len(p.Actions) - p.cursor
}

// Duration returns the planned time left in the unconsumed actions.
func (p *Plan) Duration() float64 {
	if p.Done() {
		return 0
	}
	var total float64
	for _, a := range p.Actions[p.cursor:] {
		total += a.Duration
	}
	return total
}

// Stale reports whether the plan should be recomputed.
// A plan is stale if:
// - every action has been consumed
// - the target is more than moveThreshold from the plan's end point
// - the plan is older than maxAge seconds
func (p *Plan) Stale(target r2.Vec, now, moveThreshold, maxAge float64) bool {
	if p.Done() {
		return true
	}
	if maxAge > 0 && now-p.Created > maxAge {
		return true
	}
	return distanceSq(target, p.End) > moveThreshold*moveThreshold
}

// Trace replays the unconsumed actions from s without collisions and
// returns the start point followed by the end point of every action.
func (p *Plan) Trace(s kinematics.State, gravity float64) []r2.Vec {
	points := []r2.Vec{s.Pos}
	if p.Done() {
		return points
	}
	for _, a := range p.Actions[p.cursor:] {
		s = kinematics.Step(s, a, gravity)
		points = append(points, s.Pos)
	}
	return points
}
