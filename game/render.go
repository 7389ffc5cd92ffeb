package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/telemetry"
	"github.com/pthm-cable/skirmish/ui"
)

var (
	backgroundColor = rl.Color{R: 18, G: 20, B: 26, A: 255}
	solidColor      = rl.Color{R: 70, G: 76, B: 88, A: 255}
	platformColor   = rl.Color{R: 110, G: 96, B: 70, A: 255}
	projectileColor = rl.Color{R: 250, G: 220, B: 120, A: 255}
	reflectedColor  = rl.Color{R: 240, G: 90, B: 90, A: 255}
	selectionColor  = rl.Color{R: 255, G: 255, B: 255, A: 200}
)

// Draw renders the arena and the UI.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	g.drawLevel()
	g.drawActiveOverlays()
	g.drawDummy()
	g.drawAgents()
	g.drawProjectiles()
	g.drawUI()

	rl.EndDrawing()
}

// worldRect converts a box whose bottom-left corner is at (x, y) to screen space.
func (g *Game) worldRect(x, y, w, h float64) rl.Rectangle {
	sx, sy := g.camera.WorldToScreen(r2.Vec{X: x, Y: y + h})
	s := float32(g.camera.Scale())
	return rl.Rectangle{X: sx, Y: sy, Width: float32(w) * s, Height: float32(h) * s}
}

// bodyRect converts a body standing at feet to screen space.
func (g *Game) bodyRect(feet r2.Vec, bd components.Body) rl.Rectangle {
	return g.worldRect(feet.X-bd.W/2, feet.Y, bd.W, bd.H)
}

func (g *Game) screen(p r2.Vec) rl.Vector2 {
	x, y := g.camera.WorldToScreen(p)
	return rl.Vector2{X: x, Y: y}
}

func (g *Game) drawLevel() {
	for _, b := range g.sim.Level().Blocks() {
		color := solidColor
		if b.Platform {
			color = platformColor
		}
		rl.DrawRectangleRec(g.worldRect(b.X, b.Y, b.W, b.H), color)
	}
}

func (g *Game) drawDummy() {
	d := g.sim.Dummy()
	feet, bd := d.Box()
	r := g.bodyRect(feet, bd)
	color := g.theme.Dummy
	if d.Stunned() {
		color = rl.Orange
	}
	rl.DrawRectangleRec(r, color)
	rl.DrawRectangleLinesEx(r, 1, rl.Black)
}

func (g *Game) drawAgents() {
	labels := g.overlays.IsEnabled(ui.OverlayStateLabels)

	for _, a := range g.sim.Agents() {
		feet, bd := a.Box()
		if !g.camera.IsVisible(feet, bd.H) {
			continue
		}
		r := g.bodyRect(feet, bd)
		m := a.Machine

		color := g.theme.TeamColor(a.Team)
		if m.Invulnerable() {
			color = rl.Fade(color, 0.45)
		}
		rl.DrawRectangleRec(r, color)
		if a.Variant == components.VariantRanged {
			rl.DrawRectangleLinesEx(r, 2, rl.RayWhite)
		}
		if a.ID == g.selected {
			rl.DrawRectangleLinesEx(rl.Rectangle{X: r.X - 3, Y: r.Y - 3, Width: r.Width + 6, Height: r.Height + 6}, 1, selectionColor)
		}

		g.widgets.DrawHealthBar(int32(r.X), int32(r.Y)-8, int32(r.Width), 4, float32(m.Health()), float32(m.MaxHealth()))

		if labels {
			name, step := m.Routine()
			text := m.State().String()
			if name != "" {
				text = fmt.Sprintf("%s %s/%s", text, name, step)
			}
			rl.DrawText(text, int32(r.X), int32(r.Y)-22, 10, rl.LightGray)
		}
	}
}

func (g *Game) drawProjectiles() {
	radius := float32(0.12 * g.camera.Scale())
	for _, p := range g.sim.Projectiles() {
		if !g.camera.IsVisible(p.Pos, 0.12) {
			continue
		}
		color := projectileColor
		if p.Reflected {
			color = reflectedColor
		}
		rl.DrawCircleV(g.screen(p.Pos), radius, color)
	}
}

func (g *Game) drawUI() {
	d := g.sim.Dummy()
	state := ""
	if d.Stunned() {
		state = "stunned"
	}
	g.hud.Draw(ui.HUDData{
		Title:       "Skirmish",
		Agents:      len(g.sim.Agents()),
		Projectiles: len(g.sim.Projectiles()),
		Tick:        g.sim.Tick(),
		SimTime:     g.sim.Time(),
		Speed:       g.stepsPerUpdate,
		FPS:         rl.GetFPS(),
		Paused:      g.paused,
		DummyHealth: float32(d.Health()),
		DummyMax:    float32(d.Tuning().MaxHealth),
		DummyState:  state,
	})

	y := g.controls.Draw(g.overlays)
	if g.controls.IsVisible() {
		y += 10
	}
	g.tuning.draw(10, y)

	if a := g.sim.Agent(g.selected); a != nil {
		g.inspector.Draw(g.agentView(a))
	} else if g.showPerf {
		g.perfPanel.Draw(g.sim.Perf().Stats(), telemetry.Phases())
	}

	g.hud.DrawControls(int32(g.screenHeight),
		"SPACE: Pause | N: Step | < >: Speed | Click/Tab: Select | F: Follow | O: Overlays | F2: Tuning | F3: Perf | Home: Reset view")
}

// agentView copies what the inspector shows out of a.
func (g *Game) agentView(a *arena.Agent) *ui.AgentView {
	m := a.Machine
	name, step := m.Routine()
	v := &ui.AgentView{
		ID:           a.ID,
		Team:         a.Team,
		Variant:      a.Variant.String(),
		State:        m.State().String(),
		Routine:      name,
		Step:         step,
		Health:       m.Health(),
		MaxHealth:    m.MaxHealth(),
		Invulnerable: m.Invulnerable(),
		Failures:     m.Failures(),
		MaxFailures:  m.FailureThreshold(),
		Downs:        a.Downs(),
	}

	if plan := m.Plan(); !plan.Done() {
		v.PlanActions = plan.Remaining()
		v.PlanTime = plan.Duration()
		if next, ok := plan.Peek(); ok {
			v.NextAction = next.String()
		}
	}

	cds := m.Cooldowns()
	for _, name := range cds.Active() {
		v.Cooldowns = append(v.Cooldowns, ui.Cooldown{Name: name, Left: cds.Left(name)})
	}
	v.Ammo, v.HasAmmo = m.Ammo()

	v.TeleportCooldown = a.Teleport.CooldownLeft()
	v.Teleports, v.Fallbacks = a.Teleport.Count()

	if ls := g.sim.Lifetime().Get(a.ID); ls != nil {
		v.Hits = ls.Hits
		v.Damage = ls.DamageDealt
	}
	return v
}
