package game

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// pickSlack widens agent boxes for mouse picking, in world units.
const pickSlack = 0.3

// agentAt returns the ID of the agent whose box contains p, or 0.
func (g *Game) agentAt(p r2.Vec) uint32 {
	for _, a := range g.sim.Agents() {
		feet, bd := a.Box()
		if p.X >= feet.X-bd.W/2-pickSlack && p.X <= feet.X+bd.W/2+pickSlack &&
			p.Y >= feet.Y-pickSlack && p.Y <= feet.Y+bd.H+pickSlack {
			return a.ID
		}
	}
	return 0
}

// selectNext cycles the selection through agents in spawn order.
func (g *Game) selectNext() {
	agents := g.sim.Agents()
	if len(agents) == 0 {
		return
	}
	for i, a := range agents {
		if a.ID == g.selected {
			g.selected = agents[(i+1)%len(agents)].ID
			return
		}
	}
	g.selected = agents[0].ID
}
