package game

import rl "github.com/gen2brain/raylib-go/raylib"

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if g.paused && rl.IsKeyPressed(rl.KeyN) {
		g.singleStep = true
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyO) {
		g.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.showPerf = !g.showPerf
	}
	if rl.IsKeyPressed(rl.KeyF2) {
		g.tuning.visible = !g.tuning.visible
	}
	g.handleOverlayKeys()

	g.handleSelection()
	g.handleCameraInput()
}

// handleOverlayKeys toggles overlays bound to keys pressed this frame.
func (g *Game) handleOverlayKeys() {
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := g.overlays.HandleKeyPress(key); ok {
			g.logger.Debug("overlay toggled", "overlay", string(id), "enabled", on)
		}
	}
}

// handleSelection picks agents with the mouse or cycles them with Tab.
func (g *Game) handleSelection() {
	if rl.IsKeyPressed(rl.KeyTab) {
		g.selectNext()
	}
	if rl.IsKeyPressed(rl.KeyF) && g.selected != 0 {
		g.following = !g.following
	}
	if rl.IsKeyPressed(rl.KeyBackspace) {
		g.selected = 0
		g.following = false
	}

	if rl.IsMouseButtonPressed(rl.MouseLeftButton) && !g.tuning.contains(rl.GetMousePosition()) {
		m := rl.GetMousePosition()
		g.selected = g.agentAt(g.camera.ScreenToWorld(m.X, m.Y))
		if g.selected == 0 {
			g.following = false
		}
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(float64(w), float64(h))
	g.perfPanel.SetPosition(int32(w)-260, 10)
	g.inspector.SetPosition(int32(w)-g.inspector.Width()-10, 10)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed in screen pixels per frame
	const panSpeed = 8.0

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
		g.following = false
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
		g.following = false
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
		g.following = false
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
		g.following = false
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + float64(wheel)*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
		g.following = false
	}
}
