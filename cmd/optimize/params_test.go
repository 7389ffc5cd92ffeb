package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/telemetry"
)

func TestDefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	assert.InDeltaSlice(t, pv.DefaultVector(), pv.ExtractFromConfig(cfg), 1e-9)
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	assert.InDeltaSlice(t, raw, pv.Denormalize(pv.Normalize(raw)), 1e-9)
}

func TestApplyToConfigClamps(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	values := make([]float64, pv.Dim())
	for i := range values {
		values[i] = 1e6
	}
	require.NoError(t, pv.ApplyToConfig(cfg, values))

	for i, v := range pv.ExtractFromConfig(cfg) {
		assert.Equal(t, pv.Specs[i].Max, v, pv.Specs[i].Name)
	}
	assert.NoError(t, cfg.Validate(), "clamped values stay valid")
}

func TestComputeQuality(t *testing.T) {
	steady := telemetry.WindowStats{
		Agents: 2, PlansFound: 10, Teleports: 2,
		Damage: 30, HealthP50: 100,
	}
	flaky := telemetry.WindowStats{
		Agents: 2, PlansFound: 2, PlanFailures: 8, PlanFailRate: 0.8,
		Teleports: 1, Fallbacks: 3, FallbackRate: 0.75,
		Damage: 30, HealthP50: 20,
	}

	tests := []struct {
		name    string
		windows []telemetry.WindowStats
		min     float64
		max     float64
	}{
		{"only warmup", []telemetry.WindowStats{steady}, 0, 0},
		{"steady", []telemetry.WindowStats{steady, steady, steady, steady}, 0.95, 1},
		{"flaky", []telemetry.WindowStats{flaky, flaky, flaky, flaky}, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := computeQuality(tt.windows, 100)
			assert.GreaterOrEqual(t, q, tt.min)
			assert.LessOrEqual(t, q, tt.max)
		})
	}
}

func TestComputeFitnessPrefersDamage(t *testing.T) {
	assert.Less(t, computeFitness(60, 0.5), computeFitness(30, 0.5))
	assert.Less(t, computeFitness(60, 1), computeFitness(60, 0))
}
