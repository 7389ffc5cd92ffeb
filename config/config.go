// Package config provides configuration loading and access for the arena and its agents.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by Validate for out-of-range tuning values.
var ErrInvalid = errors.New("invalid config")

// Config holds all tuning parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Planner   PlannerConfig   `yaml:"planner"`
	Melee     MeleeConfig     `yaml:"melee"`
	Ranged    RangedConfig    `yaml:"ranged"`
	Teleport  TeleportConfig  `yaml:"teleport"`
	Arena     ArenaConfig     `yaml:"arena"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the graphical viewer.
type ScreenConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	TargetFPS int     `yaml:"target_fps"`
	PixelsPer float64 `yaml:"pixels_per_unit"` // World unit to screen pixel scale
}

// PhysicsConfig holds the arena's physics step parameters.
type PhysicsConfig struct {
	DT         float64 `yaml:"dt"`
	Gravity    float64 `yaml:"gravity"`
	BodyWidth  float64 `yaml:"body_width"`
	BodyHeight float64 `yaml:"body_height"`
	Friction   float64 `yaml:"friction"` // Horizontal velocity retained per second while grounded
}

// PlannerConfig holds action-space search parameters.
type PlannerConfig struct {
	SuccessRadius  float64 `yaml:"success_radius"`
	MaxIterations  int     `yaml:"max_iterations"`
	MaxDepth       int     `yaml:"max_depth"`
	GridSize       float64 `yaml:"grid_size"`       // Visited-set quantization step
	ActionDuration float64 `yaml:"action_duration"` // Seconds covered by one planned action
	WalkForce      float64 `yaml:"walk_force"`
	JumpForce      float64 `yaml:"jump_force"`
	AirForce       float64 `yaml:"air_force"`
	DashForce      float64 `yaml:"dash_force"`
	StepForce      float64 `yaml:"step_force"`
	LandTolerance  float64 `yaml:"land_tolerance"`
	ReplanDistance float64 `yaml:"replan_distance"` // Target movement that invalidates a plan
	ReplanInterval float64 `yaml:"replan_interval"` // Max plan age in seconds
}

// AgentConfig holds the tuning shared by both agent variants.
type AgentConfig struct {
	MaxHealth        float64 `yaml:"max_health"`
	MoveSpeed        float64 `yaml:"move_speed"`
	StunTime         float64 `yaml:"stun_time"`
	StunGrace        float64 `yaml:"stun_grace"` // Invulnerable window after a stun ends
	Knockback        float64 `yaml:"knockback"`
	FailureThreshold int     `yaml:"failure_threshold"`
	GroundProbe      float64 `yaml:"ground_probe"`
	RetreatRange     float64 `yaml:"retreat_range"`
	RetreatTime      float64 `yaml:"retreat_time"`
	RetreatCooldown  float64 `yaml:"retreat_cooldown"`
	HitDamage        float64 `yaml:"hit_damage"`
	HitboxRange      float64 `yaml:"hitbox_range"`
}

// MeleeConfig holds the close-combat agent profile.
type MeleeConfig struct {
	AgentConfig `yaml:",inline"`

	AttackRange       float64 `yaml:"attack_range"`
	CloseRange        float64 `yaml:"close_range"`
	CloseChance       float64 `yaml:"close_chance"`      // Chance to react when the target is too close
	DashBehindChance  float64 `yaml:"dash_behind_chance"` // Dash-behind vs retreat split
	DashBehindDist    float64 `yaml:"dash_behind_distance"`
	DashCooldown      float64 `yaml:"dash_cooldown"`
	DashTime          float64 `yaml:"dash_time"`
	EvasionCooldown   float64 `yaml:"evasion_cooldown"`
	FeintChance       float64 `yaml:"feint_chance"`
	FeintTime         float64 `yaml:"feint_time"`
	FeintCooldown     float64 `yaml:"feint_cooldown"`
	ComboChance       float64 `yaml:"combo_chance"`
	ComboHits         int     `yaml:"combo_hits"`
	ComboCancelChance float64 `yaml:"combo_cancel_chance"`
	CancelWindow      float64 `yaml:"cancel_window"`
	WindUp            float64 `yaml:"wind_up"`
	ActiveTime        float64 `yaml:"active_time"`
	RecoveryGap       float64 `yaml:"recovery_gap"`
	RecoveryTime      float64 `yaml:"recovery_time"`
	MeleeCooldown     float64 `yaml:"melee_cooldown"`
	RhythmInterval    float64 `yaml:"rhythm_interval"`
	RhythmJitter      float64 `yaml:"rhythm_jitter"`
	MaxJumpHeight     float64 `yaml:"max_jump_height"`
	TeleportTimeScale float64 `yaml:"teleport_time_scale"` // Teleport wins when walking takes this many times longer
}

// RangedConfig holds the projectile agent profile.
type RangedConfig struct {
	AgentConfig `yaml:",inline"`

	ShootRange         float64 `yaml:"shoot_range"`
	MeleeRange         float64 `yaml:"melee_range"`
	FarRange           float64 `yaml:"far_range"`
	AimTime            float64 `yaml:"aim_time"`
	FireRate           float64 `yaml:"fire_rate"`
	Ammo               int     `yaml:"ammo"`
	ReloadTime         float64 `yaml:"reload_time"`
	LOSGrace           float64 `yaml:"los_grace"`
	ProjectileSpeed    float64 `yaml:"projectile_speed"`
	ProjectileTTL      float64 `yaml:"projectile_ttl"`
	CloseContacts      int     `yaml:"close_contacts"`
	FarContacts        int     `yaml:"far_contacts"`
	BurstCount         int     `yaml:"burst_count"`
	DodgeWindow        float64 `yaml:"dodge_window"`
	DodgeCooldown      float64 `yaml:"dodge_cooldown"`
	DodgeTime          float64 `yaml:"dodge_time"`
	DodgeSpeed         float64 `yaml:"dodge_speed"`
	BehindChance       float64 `yaml:"behind_chance"`
	CounterCooldown    float64 `yaml:"counter_cooldown"`
	CounterWindUp      float64 `yaml:"counter_wind_up"`
	CounterActive      float64 `yaml:"counter_active"`
	RepositionDelay    float64 `yaml:"reposition_delay"`
	FakeTeleportChance float64 `yaml:"fake_teleport_chance"`
	FakeTeleportTime   float64 `yaml:"fake_teleport_time"`
}

// FireInterval returns the seconds between shots in a volley.
func (c RangedConfig) FireInterval() float64 {
	return 1 / c.FireRate
}

// Offset is a candidate teleport destination relative to the target.
type Offset struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// TeleportConfig holds the teleportation service parameters.
type TeleportConfig struct {
	Cooldown        float64  `yaml:"cooldown"`
	MinDistance     float64  `yaml:"min_distance"`
	ChargeTime      float64  `yaml:"charge_time"`
	QuickChargeTime float64  `yaml:"quick_charge_time"`
	CloseDistance   float64  `yaml:"close_distance"`
	GroundProbe     float64  `yaml:"ground_probe"`
	BodyRadius      float64  `yaml:"body_radius"`
	ReleaseDelay    float64  `yaml:"release_delay"`
	MaxHold         float64  `yaml:"max_hold"`
	BurstInterval   float64  `yaml:"burst_interval"`
	Candidates      []Offset `yaml:"candidates"`
	Fallback        Offset   `yaml:"fallback"`
}

// Solid is an axis-aligned block of level geometry.
type Solid struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	W    float64 `yaml:"w"`
	H    float64 `yaml:"h"`
	Kind string  `yaml:"kind"` // "solid" or "platform"
}

// SpawnConfig places one agent in the arena.
type SpawnConfig struct {
	Variant string  `yaml:"variant"` // "melee" or "ranged"
	Team    int     `yaml:"team"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
}

// DummyConfig holds the scripted target's behavior.
type DummyConfig struct {
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	PatrolSpeed    float64 `yaml:"patrol_speed"`
	PatrolMin      float64 `yaml:"patrol_min"`
	PatrolMax      float64 `yaml:"patrol_max"`
	JumpChance     float64 `yaml:"jump_chance"` // Per second
	JumpForce      float64 `yaml:"jump_force"`
	ParryChance    float64 `yaml:"parry_chance"`
	ReflectChance  float64 `yaml:"reflect_chance"`
	StunChance     float64 `yaml:"stun_chance"`
	StunTime       float64 `yaml:"stun_time"`
	MaxHealth      float64 `yaml:"max_health"`
	AttackRange    float64 `yaml:"attack_range"`
	AttackDamage   float64 `yaml:"attack_damage"`
	AttackCooldown float64 `yaml:"attack_cooldown"`
	Knockback      float64 `yaml:"knockback"`
}

// ArenaConfig describes the level and its occupants.
type ArenaConfig struct {
	Width    float64       `yaml:"width"`
	Height   float64       `yaml:"height"`
	CellSize int           `yaml:"cell_size"`
	Solids   []Solid       `yaml:"solids"`
	Agents   []SpawnConfig `yaml:"agents"`
	Dummy    DummyConfig   `yaml:"dummy"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"`
	PerfWindow  int     `yaml:"perf_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Refresh validates c and recomputes derived values after in-place edits.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// Validate reports the first tuning value that would break the planner or the timers.
func (c *Config) Validate() error {
	switch {
	case c.Physics.DT <= 0:
		return fmt.Errorf("%w: physics.dt must be positive", ErrInvalid)
	case c.Planner.ActionDuration <= 0:
		return fmt.Errorf("%w: planner.action_duration must be positive", ErrInvalid)
	case c.Planner.GridSize <= 0:
		return fmt.Errorf("%w: planner.grid_size must be positive", ErrInvalid)
	case c.Planner.MaxIterations < 1 || c.Planner.MaxDepth < 1:
		return fmt.Errorf("%w: planner limits must be at least 1", ErrInvalid)
	case c.Ranged.FireRate <= 0:
		return fmt.Errorf("%w: ranged.fire_rate must be positive", ErrInvalid)
	case c.Arena.CellSize < 1:
		return fmt.Errorf("%w: arena.cell_size must be at least 1", ErrInvalid)
	}

	// A hold shorter than a charge lets the token lapse mid-teleport (0 disables auto-release)
	tp := c.Teleport
	if tp.MaxHold > 0 {
		burst := tp.QuickChargeTime + float64(c.Ranged.BurstCount-1)*tp.BurstInterval
		switch {
		case tp.MaxHold <= tp.ChargeTime:
			return fmt.Errorf("%w: teleport.max_hold %.2f must exceed charge_time %.2f", ErrInvalid, tp.MaxHold, tp.ChargeTime)
		case tp.MaxHold <= burst:
			return fmt.Errorf("%w: teleport.max_hold %.2f must exceed a %d-hop burst (%.2f)", ErrInvalid, tp.MaxHold, c.Ranged.BurstCount, burst)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	// Fall back to a single safe spot beside the target when no candidates are given
	if len(c.Teleport.Candidates) == 0 {
		c.Teleport.Candidates = []Offset{{X: -c.Teleport.Fallback.X, Y: c.Teleport.Fallback.Y}, c.Teleport.Fallback}
	}
}

// Clone returns a deep copy suitable for per-run mutation.
func (c *Config) Clone() *Config {
	out := *c
	out.Teleport.Candidates = append([]Offset(nil), c.Teleport.Candidates...)
	out.Arena.Solids = append([]Solid(nil), c.Arena.Solids...)
	out.Arena.Agents = append([]SpawnConfig(nil), c.Arena.Agents...)
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
