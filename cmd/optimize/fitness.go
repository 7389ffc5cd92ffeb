package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pthm-cable/skirmish/arena"
	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/telemetry"
)

// FitnessEvaluator runs headless arenas and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64
	logger      *slog.Logger

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
	lastDPM     float64 // damage per sim-minute from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 10.0,
		logger:      slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// LastDamageRate returns the mean damage per sim-minute from the most
// recent evaluation.
func (fe *FitnessEvaluator) LastDamageRate() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastDPM
}

// runResult holds the results from a single arena run.
type runResult struct {
	simSeconds  float64
	maxHealth   float64
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
}

type seedResult struct {
	fitness float64
	quality float64
	dpm     float64
	err     error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// A parameter set the config rejects scores +Inf.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			result, err := fe.runArena(x, s)
			if err != nil {
				results[idx] = seedResult{err: err}
				return
			}
			quality := computeQuality(result.windowStats, result.maxHealth)
			dpm := damagePerMinute(result)
			results[idx] = seedResult{
				fitness: computeFitness(dpm, quality),
				quality: quality,
				dpm:     dpm,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalQuality, totalDPM float64
	for _, r := range results {
		if r.err != nil {
			fe.logger.Warn("evaluation rejected", "error", r.err)
			return math.Inf(1)
		}
		totalFitness += r.fitness
		totalQuality += r.quality
		totalDPM += r.dpm
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.lastDPM = totalDPM / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runArena executes a single headless arena for maxTicks.
func (fe *FitnessEvaluator) runArena(x []float64, seed int64) (*runResult, error) {
	cfg := fe.baseConfig.Clone()
	if err := fe.params.ApplyToConfig(cfg, x); err != nil {
		return nil, err
	}

	result := &runResult{maxHealth: math.Max(cfg.Melee.MaxHealth, cfg.Ranged.MaxHealth)}
	sim, err := arena.New(arena.Options{
		Seed:           seed,
		Config:         cfg,
		StatsWindowSec: fe.statsWindow,
		Logger:         fe.logger,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windowStats = append(result.windowStats, stats)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seed %d: %w", seed, err)
	}

	for sim.Tick() < fe.maxTicks {
		sim.Step()
	}
	result.simSeconds = sim.Time()
	if err := sim.Close(); err != nil {
		return nil, fmt.Errorf("seed %d: %w", seed, err)
	}
	return result, nil
}

// damagePerMinute sums window damage over the simulated time.
func damagePerMinute(r *runResult) float64 {
	if r.simSeconds <= 0 {
		return 0
	}
	var damage float64
	for _, w := range r.windowStats {
		damage += w.Damage
	}
	return damage / (r.simSeconds / 60)
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: -(damagePerMinute × (0.5 + 0.5 × quality))
// Damage dominates; quality scales it down for agents that get there by
// failing to plan or leaning on the walk fallback.
func computeFitness(dpm, quality float64) float64 {
	return -(dpm * (0.5 + 0.5*quality))
}

// Quality component weights.
const (
	qualityWeightPlanning = 0.35
	qualityWeightTeleport = 0.25
	qualityWeightHealth   = 0.20
	qualityWeightPressure = 0.20

	qualityWarmupWindows = 1 // skip first N windows (warmup)
)

// computeQuality computes behavior quality in [0, 1] from window stats.
func computeQuality(windows []telemetry.WindowStats, maxHealth float64) float64 {
	if len(windows) <= qualityWarmupWindows || maxHealth <= 0 {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	var planSum, teleSum, healthSum float64
	var planCount, teleCount, healthCount int
	damage := make([]float64, 0, len(valid))

	for _, w := range valid {
		if w.Agents == 0 {
			continue
		}
		damage = append(damage, w.Damage)

		// 1. Planning reliability
		if w.PlansFound+w.PlanFailures > 0 {
			planSum += 1 - w.PlanFailRate
			planCount++
		}

		// 2. Teleports that actually land
		if w.Teleports+w.Fallbacks > 0 {
			teleSum += 1 - w.FallbackRate
			teleCount++
		}

		// 3. Agents staying healthy while attacking
		healthSum += clamp01(w.HealthP50 / maxHealth)
		healthCount++
	}

	if healthCount == 0 {
		return 0
	}

	planScore := 0.0
	if planCount > 0 {
		planScore = planSum / float64(planCount)
	}
	teleScore := 1.0
	if teleCount > 0 {
		teleScore = teleSum / float64(teleCount)
	}
	healthScore := healthSum / float64(healthCount)

	// 4. Steady pressure (low CV of per-window damage)
	pressureScore := 0.0
	if len(damage) >= 2 {
		c := cv(damage)
		pressureScore = math.Exp(-c * c)
	}

	quality := qualityWeightPlanning*planScore +
		qualityWeightTeleport*teleScore +
		qualityWeightHealth*healthScore +
		qualityWeightPressure*pressureScore

	return clamp01(quality)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}
	var sqDiff float64
	for _, v := range values {
		d := v - mean
		sqDiff += d * d
	}
	return math.Sqrt(sqDiff/n) / mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
