package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/kinematics"
	"github.com/pthm-cable/skirmish/ui"
)

var (
	planColor      = rl.Color{R: 120, G: 220, B: 255, A: 180}
	hitboxIdle     = rl.Color{R: 255, G: 255, B: 255, A: 60}
	hitboxLive     = rl.Color{R: 255, G: 80, B: 60, A: 140}
	sightClear     = rl.Color{R: 120, G: 255, B: 120, A: 120}
	sightBlocked   = rl.Color{R: 255, G: 120, B: 120, A: 120}
	candidateOK    = rl.Color{R: 120, G: 255, B: 180, A: 200}
	candidateBad   = rl.Color{R: 255, G: 90, B: 90, A: 160}
	collisionColor = rl.Color{R: 200, G: 200, B: 100, A: 140}
	gridColor      = rl.Color{R: 255, G: 255, B: 255, A: 18}
)

// drawActiveOverlays renders every enabled world-space overlay.
// State labels are drawn with the agents.
func (g *Game) drawActiveOverlays() {
	for _, id := range g.overlays.EnabledOverlays() {
		switch id {
		case ui.OverlayBroadphase:
			g.drawBroadphase()
		case ui.OverlayPlans:
			g.drawPlans()
		case ui.OverlayHitboxes:
			g.drawHitboxes()
		case ui.OverlaySightLines:
			g.drawSightLines()
		case ui.OverlayTeleport:
			g.drawTeleportCandidates()
		case ui.OverlayCollisionBoxes:
			g.drawCollisionBoxes()
		}
	}
}

// drawPlans traces each agent's remaining actions without collisions.
func (g *Game) drawPlans() {
	gravity := g.cfg.Physics.Gravity
	for _, a := range g.sim.Agents() {
		plan := a.Machine.Plan()
		if plan.Done() {
			continue
		}
		start := kinematics.State{Pos: a.Position(), Vel: a.Velocity(), Grounded: a.Grounded()}
		points := plan.Trace(start, gravity)
		for i := 1; i < len(points); i++ {
			rl.DrawLineEx(g.screen(points[i-1]), g.screen(points[i]), 2, planColor)
			rl.DrawCircleV(g.screen(points[i]), 3, planColor)
		}
		g.drawRing(plan.Target, 6, planColor)
	}
}

// drawHitboxes outlines every hitbox, filling the active ones.
func (g *Game) drawHitboxes() {
	scale := float32(g.camera.Scale())
	for _, a := range g.sim.Agents() {
		pos := a.Position()
		for _, h := range a.Machine.Hitboxes() {
			c := g.screen(h.Center(pos))
			r := float32(h.Radius) * scale
			if h.Active {
				rl.DrawCircleV(c, r, hitboxLive)
			} else {
				rl.DrawCircleLines(int32(c.X), int32(c.Y), r, hitboxIdle)
			}
		}
	}
}

// drawSightLines shows each agent's last line-of-sight result to the dummy.
func (g *Game) drawSightLines() {
	target := r2.Add(g.sim.Dummy().Position(), r2.Vec{Y: 1})
	for _, a := range g.sim.Agents() {
		color := sightBlocked
		if a.Machine.LineOfSight() {
			color = sightClear
		}
		rl.DrawLineV(g.screen(a.Machine.Eye()), g.screen(target), color)
	}
}

// drawTeleportCandidates probes the selected agent's landing spots around
// the dummy, or the first agent's when nothing is selected.
func (g *Game) drawTeleportCandidates() {
	a := g.sim.Agent(g.selected)
	if a == nil {
		agents := g.sim.Agents()
		if len(agents) == 0 {
			return
		}
		a = agents[0]
	}

	radius := float32(a.Teleport.Params().BodyRadius * g.camera.Scale())
	for _, c := range a.Teleport.Candidates(g.sim.Dummy().Position()) {
		if !c.OK {
			g.drawCross(c.Offset, candidateBad)
			continue
		}
		rl.DrawLineV(g.screen(c.Offset), g.screen(c.Dest), candidateOK)
		g.drawRing(r2.Add(c.Dest, r2.Vec{Y: a.Teleport.Params().BodyRadius}), radius, candidateOK)
	}
}

func (g *Game) drawRing(p r2.Vec, radius float32, color rl.Color) {
	c := g.screen(p)
	rl.DrawCircleLines(int32(c.X), int32(c.Y), radius, color)
}

func (g *Game) drawCross(p r2.Vec, color rl.Color) {
	c := g.screen(p)
	const s = 4
	rl.DrawLineV(rl.Vector2{X: c.X - s, Y: c.Y - s}, rl.Vector2{X: c.X + s, Y: c.Y + s}, color)
	rl.DrawLineV(rl.Vector2{X: c.X - s, Y: c.Y + s}, rl.Vector2{X: c.X + s, Y: c.Y - s}, color)
}

// drawCollisionBoxes outlines the dummy and every agent body.
func (g *Game) drawCollisionBoxes() {
	feet, bd := g.sim.Dummy().Box()
	rl.DrawRectangleLinesEx(g.bodyRect(feet, bd), 1, collisionColor)
	for _, a := range g.sim.Agents() {
		feet, bd := a.Box()
		rl.DrawRectangleLinesEx(g.bodyRect(feet, bd), 1, collisionColor)
	}
}

// drawBroadphase draws the collision space's cell grid over the visible area.
func (g *Game) drawBroadphase() {
	cell := float64(g.cfg.Arena.CellSize)
	minX, minY, maxX, maxY := g.camera.VisibleWorldBounds()
	minX = math.Max(0, math.Floor(minX/cell)*cell)
	minY = math.Max(0, math.Floor(minY/cell)*cell)
	maxX = math.Min(g.sim.Level().Width, maxX)
	maxY = math.Min(math.Ceil(g.sim.Level().Height), maxY)
	for x := minX; x <= maxX; x += cell {
		rl.DrawLineV(g.screen(r2.Vec{X: x, Y: minY}), g.screen(r2.Vec{X: x, Y: maxY}), gridColor)
	}
	for y := minY; y <= maxY; y += cell {
		rl.DrawLineV(g.screen(r2.Vec{X: minX, Y: y}), g.screen(r2.Vec{X: maxX, Y: y}), gridColor)
	}
}
