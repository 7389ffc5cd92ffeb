package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Planner.SuccessRadius)
	assert.Equal(t, 1000, cfg.Planner.MaxIterations)
	assert.Equal(t, 20, cfg.Planner.MaxDepth)
	assert.Equal(t, 0.1, cfg.Planner.GridSize)
	assert.Equal(t, 3, cfg.Melee.ComboHits)
	assert.Equal(t, 100.0, cfg.Melee.MaxHealth, "inline agent section should decode")
	assert.NotEmpty(t, cfg.Teleport.Candidates)
	assert.NotEmpty(t, cfg.Arena.Solids)
	assert.InDelta(t, 0.25, cfg.Ranged.FireInterval(), 1e-9)
	assert.Equal(t, float32(cfg.Screen.Width), cfg.Derived.ScreenW32)
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	overlay := []byte("planner:\n  max_depth: 8\nmelee:\n  combo_hits: 5\n")
	require.NoError(t, os.WriteFile(path, overlay, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Planner.MaxDepth)
	assert.Equal(t, 5, cfg.Melee.ComboHits)
	// Untouched fields keep their defaults
	assert.Equal(t, 1000, cfg.Planner.MaxIterations)
	assert.Equal(t, 1.5, cfg.Melee.AttackRange)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"malformed yaml", "planner: [", false},
		{"zero dt", "physics:\n  dt: 0\n", true},
		{"zero grid", "planner:\n  grid_size: 0\n", true},
		{"zero fire rate", "ranged:\n  fire_rate: 0\n", true},
		{"hold shorter than charge", "teleport:\n  max_hold: 0.5\n", true},
		{"hold shorter than burst", "teleport:\n  max_hold: 0.8\nranged:\n  burst_count: 4\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid))
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestCloneIsolatesSlices(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	clone := cfg.Clone()
	clone.Teleport.Candidates[0].X = 99
	clone.Arena.Solids[0].W = 1

	assert.NotEqual(t, 99.0, cfg.Teleport.Candidates[0].X)
	assert.NotEqual(t, 1.0, cfg.Arena.Solids[0].W)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Melee.FeintChance = 0.42

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.42, loaded.Melee.FeintChance)
}

func TestRefresh(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Screen.Width = 800
	require.NoError(t, cfg.Refresh())
	assert.Equal(t, float32(800), cfg.Derived.ScreenW32)

	cfg.Ranged.FireRate = 0
	assert.ErrorIs(t, cfg.Refresh(), ErrInvalid)
}

func TestValidateMaxHold(t *testing.T) {
	tests := []struct {
		name    string
		maxHold float64
		bursts  int
		valid   bool
	}{
		{"defaults", 5, 3, true},
		{"auto-release disabled", 0, 3, true},
		{"equal to charge", 0.6, 1, false},
		{"covers charge and burst", 0.7, 3, true},
		{"burst runs past the hold", 0.7, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			cfg.Teleport.ChargeTime = 0.6
			cfg.Teleport.QuickChargeTime = 0.25
			cfg.Teleport.BurstInterval = 0.2
			cfg.Teleport.MaxHold = tt.maxHold
			cfg.Ranged.BurstCount = tt.bursts

			err = cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}
