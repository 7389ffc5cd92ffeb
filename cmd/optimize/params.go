// Package main provides CMA-ES tuning of agent behavior parameters against
// the headless arena.
package main

import (
	"github.com/pthm-cable/skirmish/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Defaults mirror defaults.yaml.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Melee
			{Name: "melee_feint_chance", Path: "melee.feint_chance", Min: 0, Max: 0.5, Default: 0.15},
			{Name: "melee_combo_chance", Path: "melee.combo_chance", Min: 0, Max: 1, Default: 0.6},
			{Name: "melee_close_chance", Path: "melee.close_chance", Min: 0, Max: 1, Default: 0.4},
			{Name: "melee_dash_behind_chance", Path: "melee.dash_behind_chance", Min: 0, Max: 1, Default: 0.5},
			{Name: "melee_rhythm_interval", Path: "melee.rhythm_interval", Min: 1, Max: 5, Default: 2.5},
			{Name: "melee_teleport_time_scale", Path: "melee.teleport_time_scale", Min: 1, Max: 5, Default: 2.5},
			// Ranged
			{Name: "ranged_aim_time", Path: "ranged.aim_time", Min: 0.1, Max: 1.5, Default: 0.5},
			{Name: "ranged_fire_rate", Path: "ranged.fire_rate", Min: 1, Max: 8, Default: 4},
			{Name: "ranged_shoot_range", Path: "ranged.shoot_range", Min: 6, Max: 20, Default: 12},
			// Teleport
			{Name: "teleport_cooldown", Path: "teleport.cooldown", Min: 1, Max: 10, Default: 4},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// fields returns pointers to the tuned config fields in Specs order.
func (pv *ParamVector) fields(cfg *config.Config) []*float64 {
	return []*float64{
		&cfg.Melee.FeintChance,
		&cfg.Melee.ComboChance,
		&cfg.Melee.CloseChance,
		&cfg.Melee.DashBehindChance,
		&cfg.Melee.RhythmInterval,
		&cfg.Melee.TeleportTimeScale,
		&cfg.Ranged.AimTime,
		&cfg.Ranged.FireRate,
		&cfg.Ranged.ShootRange,
		&cfg.Teleport.Cooldown,
	}
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	for i, f := range pv.fields(cfg) {
		*f = clamped[i]
	}
	return cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	fields := pv.fields(cfg)
	v := make([]float64, len(fields))
	for i, f := range fields {
		v[i] = *f
	}
	return v
}
