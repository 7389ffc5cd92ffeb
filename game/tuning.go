package game

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/skirmish/config"
)

const (
	tuningWidth  = 220
	tuningHeight = 250
)

// tuningPanel edits the dummy's live configuration with raygui sliders.
type tuningPanel struct {
	cfg      *config.DummyConfig
	defaults config.DummyConfig
	visible  bool
	bounds   rl.Rectangle
}

func newTuningPanel(cfg *config.DummyConfig) *tuningPanel {
	return &tuningPanel{cfg: cfg, defaults: *cfg}
}

// contains reports whether p lies over the visible panel.
func (t *tuningPanel) contains(p rl.Vector2) bool {
	return t.visible && rl.CheckCollisionPointRec(p, t.bounds)
}

func (t *tuningPanel) draw(x, y int32) {
	if !t.visible {
		return
	}
	t.bounds = rl.Rectangle{X: float32(x), Y: float32(y), Width: tuningWidth, Height: tuningHeight}
	rl.DrawRectangleRec(t.bounds, rl.Color{R: 20, G: 25, B: 30, A: 240})
	rl.DrawRectangleLinesEx(t.bounds, 1, rl.Color{R: 60, G: 70, B: 80, A: 255})

	px := float32(x) + 10
	py := float32(y) + 10
	rl.DrawText("Dummy Tuning", int32(px), int32(py), 16, rl.White)
	py += 26

	slider := func(label string, v *float64, min, max float32) {
		rl.DrawText(fmt.Sprintf("%s: %.2f", label, *v), int32(px), int32(py), 12, rl.LightGray)
		py += 14
		*v = float64(gui.SliderBar(
			rl.Rectangle{X: px, Y: py, Width: tuningWidth - 20, Height: 14},
			"", "",
			float32(*v), min, max,
		))
		py += 22
	}

	slider("Parry chance", &t.cfg.ParryChance, 0, 1)
	slider("Reflect chance", &t.cfg.ReflectChance, 0, 1)
	slider("Stun chance", &t.cfg.StunChance, 0, 1)
	slider("Patrol speed", &t.cfg.PatrolSpeed, 0, 8)
	slider("Jump chance", &t.cfg.JumpChance, 0, 2)

	if gui.Button(rl.Rectangle{X: px, Y: py, Width: 95, Height: 24}, "Passive") {
		t.cfg.ParryChance, t.cfg.ReflectChance, t.cfg.StunChance = 0, 0, 0
		t.cfg.PatrolSpeed, t.cfg.JumpChance = 0, 0
	}
	if gui.Button(rl.Rectangle{X: px + 105, Y: py, Width: 95, Height: 24}, "Defaults") {
		d := t.defaults
		t.cfg.ParryChance, t.cfg.ReflectChance, t.cfg.StunChance = d.ParryChance, d.ReflectChance, d.StunChance
		t.cfg.PatrolSpeed, t.cfg.JumpChance = d.PatrolSpeed, d.JumpChance
	}
}
