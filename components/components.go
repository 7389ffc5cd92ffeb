// Package components defines ECS components for the arena.
package components

import (
	"github.com/solarlune/resolv"
	"gonum.org/v1/gonum/spatial/r2"
)

// Position is an entity's feet point in world units (y up).
type Position struct {
	X, Y float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Velocity is an entity's velocity in world units per second.
type Velocity struct {
	X, Y float64
}

// Vec returns the velocity as a vector.
func (v Velocity) Vec() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// Body is a collidable box whose bottom-center sits on Position.
type Body struct {
	W, H     float64
	Grounded bool
	Gravity  bool // false for kinematic bodies
	Obj      *resolv.Object
}

// Variant selects an agent's controller.
type Variant uint8

const (
	VariantMelee Variant = iota
	VariantRanged
	VariantDummy
)

func (v Variant) String() string {
	switch v {
	case VariantMelee:
		return "melee"
	case VariantRanged:
		return "ranged"
	case VariantDummy:
		return "dummy"
	default:
		return "unknown"
	}
}

// ParseVariant maps a config name to a Variant.
func ParseVariant(s string) (Variant, bool) {
	switch s {
	case "melee":
		return VariantMelee, true
	case "ranged":
		return VariantRanged, true
	case "dummy":
		return VariantDummy, true
	}
	return 0, false
}

// Agent tags an entity driven by a behavior controller.
type Agent struct {
	ID      uint32
	Team    int
	Variant Variant
}

// Projectile is a bolt fired by a ranged agent.
type Projectile struct {
	Owner     uint32
	Team      int
	Damage    float64
	TTL       float64
	Reflected bool
}
