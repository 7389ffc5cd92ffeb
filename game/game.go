// Package game is the interactive raylib viewer around an arena.Sim.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/camera"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/ui"
)

// maxStepsPerUpdate caps the fast-forward speed.
const maxStepsPerUpdate = 10

// Options configures a new Game.
type Options struct {
	Seed           int64
	Config         *config.Config // nil uses config.Cfg()
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	PauseAtTick    int32 // 0 never pauses on its own
	Logger         *slog.Logger
}

// Game drives one arena and, unless headless, draws it.
type Game struct {
	sim    *arena.Sim
	cfg    *config.Config
	logger *slog.Logger

	headless       bool
	paused         bool
	stepsPerUpdate int
	singleStep     bool
	pauseAt        int32

	camera    *camera.Camera
	following bool
	selected  uint32 // 0 when nothing is selected

	overlays  *ui.OverlayRegistry
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	perfPanel *ui.PerfPanel
	inspector *ui.Inspector
	tuning    *tuningPanel
	widgets   *ui.Renderer
	theme     ui.Theme
	showPerf  bool

	screenWidth, screenHeight float32
}

// NewGameWithOptions builds the arena. Graphical mode expects the raylib
// window to be open already.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sim, err := arena.New(arena.Options{
		Seed:           opts.Seed,
		Config:         cfg,
		StatsWindowSec: opts.StatsWindowSec,
		LogStats:       opts.LogStats,
		OutputDir:      opts.OutputDir,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating arena: %w", err)
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		sim:            sim,
		cfg:            cfg,
		logger:         logger,
		headless:       opts.Headless,
		stepsPerUpdate: steps,
		pauseAt:        opts.PauseAtTick,
	}
	if g.headless {
		return g, nil
	}

	g.screenWidth = cfg.Derived.ScreenW32
	g.screenHeight = cfg.Derived.ScreenH32
	g.camera = camera.New(
		float64(g.screenWidth), float64(g.screenHeight),
		cfg.Arena.Width, cfg.Arena.Height,
		cfg.Screen.PixelsPer,
	)
	g.overlays = ui.NewOverlayRegistry()
	g.hud = ui.NewHUD()
	g.controls = ui.NewControlsPanel(10, 125, 220)
	g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-260, 10)
	g.inspector = ui.NewInspector(int32(g.screenWidth)-290, 10, 280)
	g.tuning = newTuningPanel(sim.Dummy().Tuning())
	g.widgets = ui.NewRenderer()
	g.theme = g.widgets.Theme
	return g, nil
}

// Update handles input and advances the arena for one frame.
func (g *Game) Update() {
	g.handleInput()

	if !g.paused || g.singleStep {
		steps := g.stepsPerUpdate
		if g.singleStep {
			steps = 1
		}
		for i := 0; i < steps; i++ {
			g.sim.Step()
			if g.pauseAt > 0 && g.sim.Tick() >= g.pauseAt {
				g.paused = true
				g.pauseAt = 0
				g.logger.Info("paused at replay tick", "tick", g.sim.Tick())
				break
			}
		}
		g.singleStep = false
	}

	if g.following {
		if a := g.sim.Agent(g.selected); a != nil {
			g.camera.Follow(a.Position(), 0.1)
		}
	}
	g.sim.Perf().RecordFrame()
}

// UpdateHeadless advances the arena without touching raylib.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.sim.Step()
	}
}

// Tick returns the arena tick.
func (g *Game) Tick() int32 {
	return g.sim.Tick()
}

// Sim returns the arena being driven.
func (g *Game) Sim() *arena.Sim {
	return g.sim
}

// Unload flushes output files.
func (g *Game) Unload() {
	if err := g.sim.Close(); err != nil {
		g.logger.Error("failed to close arena", "error", err)
	}
}
