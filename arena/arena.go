// Package arena hosts agents, a scripted target dummy and projectiles in one
// level and steps them at the fixed physics rate. It has no graphics
// dependency so headless runs and the tuner can drive it directly.
package arena

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/components"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/systems"
	"github.com/pthm-cable/skirmish/telemetry"
	"github.com/pthm-cable/skirmish/teleport"
	"github.com/pthm-cable/skirmish/world"
)

// bookmarkHistory is how many windows the bookmark detector compares against.
const bookmarkHistory = 10

// Options configures a new Sim.
type Options struct {
	Seed           int64
	Config         *config.Config // nil uses config.Cfg()
	StatsWindowSec float64        // 0 uses telemetry.stats_window
	LogStats       bool           // log window stats and bookmarks via slog
	OutputDir      string         // empty disables CSV output
	StatsCallback  func(telemetry.WindowStats)
	Logger         *slog.Logger
}

// Sim is one running arena.
type Sim struct {
	cfg    *config.Config
	logger *slog.Logger
	seed   int64
	rng    *rand.Rand

	world   *ecs.World
	level   *world.Level
	physics *systems.PhysicsSystem
	token   *teleport.Token
	clock   teleport.Clock

	bodyMap     *ecs.Map3[components.Position, components.Velocity, components.Body]
	agentMap    *ecs.Map4[components.Position, components.Velocity, components.Body, components.Agent]
	agentFilter *ecs.Filter4[components.Position, components.Velocity, components.Body, components.Agent]
	projMap     *ecs.Map3[components.Position, components.Velocity, components.Projectile]
	projFilter  *ecs.Filter3[components.Position, components.Velocity, components.Projectile]

	agents []*Agent
	byID   map[uint32]*Agent
	dummy  *Dummy
	nextID uint32

	tick int32
	time float64

	collector     *telemetry.Collector
	lifetime      *telemetry.LifetimeTracker
	bookmarks     *telemetry.BookmarkDetector
	perf          *telemetry.PerfCollector
	output        *telemetry.OutputManager
	runID         uuid.UUID
	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

// New builds the level, the dummy and every configured agent.
func New(opts Options) (*Sim, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	level, err := world.Build(cfg.Arena)
	if err != nil {
		return nil, fmt.Errorf("building level: %w", err)
	}

	w := ecs.NewWorld()
	s := &Sim{
		cfg:           cfg,
		logger:        logger,
		seed:          opts.Seed,
		rng:           rand.New(rand.NewSource(opts.Seed)),
		world:         w,
		level:         level,
		physics:       systems.NewPhysicsSystem(w, level, cfg.Physics.Gravity, cfg.Physics.Friction),
		token:         teleport.NewToken(cfg.Teleport.ReleaseDelay, cfg.Teleport.MaxHold),
		bodyMap:       ecs.NewMap3[components.Position, components.Velocity, components.Body](w),
		agentMap:      ecs.NewMap4[components.Position, components.Velocity, components.Body, components.Agent](w),
		agentFilter:   ecs.NewFilter4[components.Position, components.Velocity, components.Body, components.Agent](w),
		projMap:       ecs.NewMap3[components.Position, components.Velocity, components.Projectile](w),
		projFilter:    ecs.NewFilter3[components.Position, components.Velocity, components.Projectile](w),
		byID:          make(map[uint32]*Agent),
		nextID:        1,
		lifetime:      telemetry.NewLifetimeTracker(),
		bookmarks:     telemetry.NewBookmarkDetector(bookmarkHistory),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		runID:         uuid.New(),
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	s.clock = teleport.ClockFunc(func() float64 { return s.time })

	window := opts.StatsWindowSec
	if window <= 0 {
		window = cfg.Telemetry.StatsWindow
	}
	s.collector = telemetry.NewCollector(window, cfg.Physics.DT)

	s.output, err = telemetry.NewOutputManager(opts.OutputDir, s.runID)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.output.Close()
		return nil, fmt.Errorf("writing config: %w", err)
	}

	s.dummy = s.spawnDummy()
	for i, sc := range cfg.Arena.Agents {
		if _, err := s.spawnAgent(sc); err != nil {
			s.output.Close()
			return nil, fmt.Errorf("agent %d: %w", i, err)
		}
	}

	s.logger.Info("arena ready",
		"run", s.runID.String(),
		"seed", s.seed,
		"agents", len(s.agents),
		"solids", len(level.Blocks()),
	)
	return s, nil
}

// Step advances the arena by one physics tick.
func (s *Sim) Step() {
	dt := s.cfg.Physics.DT
	s.perf.StartTick()
	s.tick++
	s.time += dt

	s.perf.StartPhase(telemetry.PhaseBehavior)
	for _, a := range s.agents {
		a.Machine.Tick(dt)
		s.countFallbacks(a)
	}

	s.perf.StartPhase(telemetry.PhaseDummy)
	s.dummy.Update(dt, s.agents)

	s.perf.StartPhase(telemetry.PhasePhysics)
	s.physics.Update(dt)

	s.perf.StartPhase(telemetry.PhaseCombat)
	s.resolveHitboxes()
	s.reviveDowned()

	s.perf.StartPhase(telemetry.PhaseProjectiles)
	s.updateProjectiles(dt)

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()

	s.perf.EndTick()
}

// Close writes the per-agent ledger and closes output files.
func (s *Sim) Close() error {
	for _, a := range s.agents {
		s.lifetime.UpdateAliveTime(a.ID, s.tick, s.cfg.Physics.DT)
	}
	return errors.Join(
		s.output.WriteAgents(s.lifetime.All()),
		s.output.Close(),
	)
}

// Tick returns the number of steps taken.
func (s *Sim) Tick() int32 { return s.tick }

// Time returns simulated seconds.
func (s *Sim) Time() float64 { return s.time }

// Config returns the configuration the arena was built from.
func (s *Sim) Config() *config.Config { return s.cfg }

// Level returns the arena geometry.
func (s *Sim) Level() *world.Level { return s.level }

// Agents returns the agents in spawn order.
func (s *Sim) Agents() []*Agent { return s.agents }

// Agent returns the agent with the given ID, or nil.
func (s *Sim) Agent(id uint32) *Agent { return s.byID[id] }

// Dummy returns the scripted target.
func (s *Sim) Dummy() *Dummy { return s.dummy }

// Perf returns the tick timing collector.
func (s *Sim) Perf() *telemetry.PerfCollector { return s.perf }

// Lifetime returns the per-agent ledger.
func (s *Sim) Lifetime() *telemetry.LifetimeTracker { return s.lifetime }

// RunID identifies this run's output.
func (s *Sim) RunID() uuid.UUID { return s.runID }

// OutputDir returns the run's output directory, or "" when output is off.
func (s *Sim) OutputDir() string { return s.output.Dir() }

// Token returns the shared teleport token.
func (s *Sim) Token() *teleport.Token { return s.token }

// center returns the middle of a body whose feet are at pos.
func center(pos r2.Vec, body *components.Body) r2.Vec {
	return r2.Vec{X: pos.X, Y: pos.Y + body.H/2}
}

// closestPoint returns the point of a body's box nearest to p.
func closestPoint(p, feet r2.Vec, body *components.Body) r2.Vec {
	return r2.Vec{
		X: clamp(p.X, feet.X-body.W/2, feet.X+body.W/2),
		Y: clamp(p.Y, feet.Y, feet.Y+body.H),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
