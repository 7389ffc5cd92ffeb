package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Agents alive at window end
	Agents int `csv:"agents"`

	// Planning
	PlansFound   int     `csv:"plans_found"`
	PlanFailures int     `csv:"plan_failures"`
	PlanFailRate float64 `csv:"plan_fail_rate"`

	// Teleports
	TeleportCharges int     `csv:"teleport_charges"`
	Teleports       int     `csv:"teleports"`
	Fallbacks       int     `csv:"fallbacks"`
	FallbackRate    float64 `csv:"fallback_rate"`
	FakeTeleports   int     `csv:"fake_teleports"`

	// Combat
	Combos      int     `csv:"combos"`
	Feints      int     `csv:"feints"`
	Hits        int     `csv:"hits"`
	Blocked     int     `csv:"blocked"`
	Parries     int     `csv:"parries"`
	Stuns       int     `csv:"stuns"`
	Shots       int     `csv:"shots"`
	Dodges      int     `csv:"dodges"`
	AimWarnings int     `csv:"aim_warnings"`
	Damage      float64 `csv:"damage"`

	// Health distribution (sampled at window end)
	HealthMean float64 `csv:"health_mean"`
	HealthP10  float64 `csv:"health_p10"`
	HealthP50  float64 `csv:"health_p50"`
	HealthP90  float64 `csv:"health_p90"`

	// Consecutive planning failures across agents at window end
	FailuresMean float64 `csv:"failures_mean"`
	FailuresMax  int     `csv:"failures_max"`
}

// Summarize returns the mean and the 10th, 50th and 90th empirical percentiles.
// An empty slice yields zeros.
func Summarize(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("plans_found", s.PlansFound),
		slog.Int("plan_failures", s.PlanFailures),
		slog.Float64("plan_fail_rate", s.PlanFailRate),
		slog.Int("teleport_charges", s.TeleportCharges),
		slog.Int("teleports", s.Teleports),
		slog.Int("fallbacks", s.Fallbacks),
		slog.Float64("fallback_rate", s.FallbackRate),
		slog.Int("fake_teleports", s.FakeTeleports),
		slog.Int("combos", s.Combos),
		slog.Int("feints", s.Feints),
		slog.Int("hits", s.Hits),
		slog.Int("blocked", s.Blocked),
		slog.Int("parries", s.Parries),
		slog.Int("stuns", s.Stuns),
		slog.Int("shots", s.Shots),
		slog.Int("dodges", s.Dodges),
		slog.Int("aim_warnings", s.AimWarnings),
		slog.Float64("damage", s.Damage),
		slog.Float64("health_mean", s.HealthMean),
		slog.Float64("health_p10", s.HealthP10),
		slog.Float64("health_p50", s.HealthP50),
		slog.Float64("health_p90", s.HealthP90),
		slog.Float64("failures_mean", s.FailuresMean),
		slog.Int("failures_max", s.FailuresMax),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
