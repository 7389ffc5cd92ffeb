package systems

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/kinematics"
	"github.com/pthm-cable/skirmish/world"
)

// PlannerParams holds tunable parameters for the action-space search.
type PlannerParams struct {
	SuccessRadius  float64
	MaxIterations  int
	MaxDepth       int
	GridSize       float64
	ActionDuration float64
	Gravity        float64

	// Forces for each primitive action
	WalkForce float64
	JumpForce float64
	AirForce  float64
	DashForce float64
	StepForce float64

	// World settle pass
	LandTolerance float64
	BodyRadius    float64 // 0 disables overlap rejection
}

// DefaultPlannerParams returns the stock search limits.
func DefaultPlannerParams() PlannerParams {
	return PlannerParams{
		SuccessRadius:  0.5,
		MaxIterations:  1000,
		MaxDepth:       20,
		GridSize:       0.1,
		ActionDuration: 0.2,
		Gravity:        20,
		WalkForce:      5,
		JumpForce:      8,
		AirForce:       5,
		DashForce:      15,
		StepForce:      3,
		LandTolerance:  0.05,
		BodyRadius:     0.4,
	}
}

// PlannerParamsFrom builds search parameters from loaded configuration.
func PlannerParamsFrom(cfg *config.Config) PlannerParams {
	return PlannerParams{
		SuccessRadius:  cfg.Planner.SuccessRadius,
		MaxIterations:  cfg.Planner.MaxIterations,
		MaxDepth:       cfg.Planner.MaxDepth,
		GridSize:       cfg.Planner.GridSize,
		ActionDuration: cfg.Planner.ActionDuration,
		Gravity:        cfg.Physics.Gravity,
		WalkForce:      cfg.Planner.WalkForce,
		JumpForce:      cfg.Planner.JumpForce,
		AirForce:       cfg.Planner.AirForce,
		DashForce:      cfg.Planner.DashForce,
		StepForce:      cfg.Planner.StepForce,
		LandTolerance:  cfg.Planner.LandTolerance,
		BodyRadius:     cfg.Teleport.BodyRadius,
	}
}

// SearchStats describes the most recent search.
type SearchStats struct {
	Expansions int
	Visited    int
	Depth      int
	Found      bool
}

// searchNode is one BFS entry. Sequences are rebuilt through parent links.
type searchNode struct {
	state  kinematics.State
	action kinematics.Action
	parent int32
	depth  int32
}

// Planner finds short action sequences that bring an agent near a target.
// A Planner is owned by one agent and is not safe for concurrent use.
type Planner struct {
	world  world.Querier
	params PlannerParams
	logger *slog.Logger

	// Reusable data structures (cleared between searches)
	nodes   []searchNode
	visited map[kinematics.Key]struct{}
	actions []kinematics.Action

	stats SearchStats
}

// NewPlanner creates a planner. A nil querier plans with pure kinematics only.
func NewPlanner(q world.Querier, params PlannerParams) *Planner {
	return &Planner{
		world:   q,
		params:  params,
		logger:  slog.Default(),
		nodes:   make([]searchNode, 0, 256),
		visited: make(map[kinematics.Key]struct{}, 256),
	}
}

// SetLogger replaces the planner's logger.
func (p *Planner) SetLogger(l *slog.Logger) {
	p.logger = l
}

// Params returns the planner's parameters.
func (p *Planner) Params() PlannerParams {
	return p.params
}

// Stats returns statistics for the last FindPlan call.
func (p *Planner) Stats() SearchStats {
	return p.stats
}

// FindPlan runs a bounded breadth-first search from initial (placed at start).
// Returns nil, false when the queue empties or the expansion cap is hit.
func (p *Planner) FindPlan(start, target r2.Vec, initial kinematics.State) (*Plan, bool) {
	initial.Pos = start

	p.nodes = p.nodes[:0]
	for k := range p.visited {
		delete(p.visited, k)
	}
	p.stats = SearchStats{}

	p.nodes = append(p.nodes, searchNode{state: initial, parent: -1})
	p.visited[kinematics.Quantize(initial, p.params.GridSize)] = struct{}{}

	radiusSq := p.params.SuccessRadius * p.params.SuccessRadius
	for head := 0; head < len(p.nodes); head++ {
		if p.stats.Expansions >= p.params.MaxIterations {
			p.stats.Visited = len(p.visited)
			p.logger.Warn("plan search hit expansion cap",
				"expansions", p.stats.Expansions,
				"visited", p.stats.Visited,
				"start_x", start.X, "start_y", start.Y,
				"target_x", target.X, "target_y", target.Y,
			)
			return nil, false
		}
		p.stats.Expansions++

		n := p.nodes[head]
		if distanceSq(n.state.Pos, target) <= radiusSq {
			p.stats.Found = true
			p.stats.Depth = int(n.depth)
			p.stats.Visited = len(p.visited)
			return &Plan{Actions: p.reconstruct(head), Target: target, End: n.state.Pos}, true
		}
		if int(n.depth) >= p.params.MaxDepth {
			continue
		}

		for _, a := range p.legalActions(n.state, target) {
			next, ok := p.settle(n.state, kinematics.Step(n.state, a, p.params.Gravity), a.Kind)
			if !ok {
				continue
			}
			key := kinematics.Quantize(next, p.params.GridSize)
			if _, seen := p.visited[key]; seen {
				continue
			}
			p.visited[key] = struct{}{}
			p.nodes = append(p.nodes, searchNode{
				state:  next,
				action: a,
				parent: int32(head),
				depth:  n.depth + 1,
			})
		}
	}

	p.stats.Visited = len(p.visited)
	return nil, false
}

// legalActions lists successors in a fixed order, toward-target direction first.
func (p *Planner) legalActions(s kinematics.State, target r2.Vec) []kinematics.Action {
	toward, away := r2.Vec{X: 1}, r2.Vec{X: -1}
	if target.X < s.Pos.X {
		toward, away = away, toward
	}
	up := r2.Vec{Y: 1}
	dur := p.params.ActionDuration

	p.actions = p.actions[:0]
	if s.Grounded {
		p.actions = append(p.actions,
			kinematics.Action{Kind: kinematics.Walk, Dir: toward, Duration: dur, Force: p.params.WalkForce},
			kinematics.Action{Kind: kinematics.Walk, Dir: away, Duration: dur, Force: p.params.WalkForce},
		)
		if !s.JumpUsed {
			p.actions = append(p.actions, kinematics.Action{Kind: kinematics.Jump, Dir: up, Duration: dur, Force: p.params.JumpForce})
		}
		p.actions = append(p.actions, kinematics.Action{Kind: kinematics.StepOver, Dir: up, Duration: dur, Force: p.params.StepForce})
		return p.actions
	}

	p.actions = append(p.actions,
		kinematics.Action{Kind: kinematics.AirControl, Dir: toward, Duration: dur, Force: p.params.AirForce},
		kinematics.Action{Kind: kinematics.AirControl, Dir: away, Duration: dur, Force: p.params.AirForce},
	)
	// Dashes extend jumps; grounded dashing is left to the reactive layer
	if !s.DashUsed {
		p.actions = append(p.actions,
			kinematics.Action{Kind: kinematics.EvasionDash, Dir: toward, Duration: dur, Force: p.params.DashForce},
			kinematics.Action{Kind: kinematics.EvasionDash, Dir: away, Duration: dur, Force: p.params.DashForce},
		)
	}
	return p.actions
}

// settle samples the world after a pure step: landing, snapping onto
// nearby ground, walking off ledges, and rejecting overlaps.
// A step-over keeps its lift so the following walk can land on the ledge,
// and is only accepted when such a ledge exists.
func (p *Planner) settle(prev, next kinematics.State, kind kinematics.Kind) (kinematics.State, bool) {
	if p.world == nil {
		return next, true
	}

	down := r2.Vec{Y: -1}
	switch {
	case kind == kinematics.StepOver:
		if !p.ledgeNear(prev.Pos, next.Pos) {
			return next, false
		}
	case next.Grounded:
		snap := p.params.StepForce*p.params.ActionDuration + p.params.LandTolerance
		if hit, ok := p.world.ProbeGround(next.Pos); ok {
			next.Pos.Y = hit.Point.Y
		} else if hit, ok := p.world.ProbeLine(next.Pos, down, snap); ok {
			next.Pos.Y = hit.Point.Y
		} else {
			next.Grounded = false
		}
	case next.Vel.Y <= 0:
		from := r2.Vec{X: next.Pos.X, Y: prev.Pos.Y}
		drop := prev.Pos.Y - next.Pos.Y + p.params.LandTolerance
		if drop > 0 {
			if hit, ok := p.world.ProbeLine(from, down, drop); ok {
				next.Pos.Y = hit.Point.Y
				next.Vel = r2.Vec{}
				next.Grounded = true
			}
		}
	}

	if p.params.BodyRadius > 0 {
		center := r2.Vec{X: next.Pos.X, Y: next.Pos.Y + p.params.BodyRadius + p.params.LandTolerance}
		if p.world.OverlapRegion(center, p.params.BodyRadius) {
			return next, false
		}
	}
	return next, true
}

// ledgeNear reports whether ground higher than from lies within the lift
// below lifted, directly underneath or one walk to either side.
func (p *Planner) ledgeNear(from, lifted r2.Vec) bool {
	down := r2.Vec{Y: -1}
	reach := p.params.WalkForce * p.params.ActionDuration
	depth := lifted.Y - from.Y + p.params.LandTolerance
	for _, dx := range [...]float64{0, reach, -reach} {
		origin := r2.Vec{X: lifted.X + dx, Y: lifted.Y}
		if hit, ok := p.world.ProbeLine(origin, down, depth); ok && hit.Point.Y > from.Y+p.params.LandTolerance {
			return true
		}
	}
	return false
}

// reconstruct walks parent links back to the root.
func (p *Planner) reconstruct(idx int) []kinematics.Action {
	depth := p.nodes[idx].depth
	actions := make([]kinematics.Action, depth)
	for i := idx; p.nodes[i].parent >= 0; i = int(p.nodes[i].parent) {
		depth--
		actions[depth] = p.nodes[i].action
	}
	return actions
}
