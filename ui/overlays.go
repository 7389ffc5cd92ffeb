package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Arena overlay IDs.
const (
	OverlayPlans          OverlayID = "plans"
	OverlayHitboxes       OverlayID = "hitboxes"
	OverlaySightLines     OverlayID = "sight_lines"
	OverlayTeleport       OverlayID = "teleport_candidates"
	OverlayStateLabels    OverlayID = "state_labels"
	OverlayCollisionBoxes OverlayID = "collision_boxes"
	OverlayBroadphase     OverlayID = "broadphase"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "P")
	Category    string      // Grouping ("ai" or "debug")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
	Default     bool        // Enabled at startup
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the arena overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayStateLabels,
		Name:        "State Labels",
		Description: "Show each agent's state and routine step",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "ai",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayPlans,
		Name:        "Plans",
		Description: "Trace the remaining planned actions",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "ai",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlaySightLines,
		Name:        "Sight Lines",
		Description: "Line of sight from ranged agents to the target",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "ai",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayTeleport,
		Name:        "Teleport Spots",
		Description: "Probe landing candidates around the target",
		Key:         rl.KeyT,
		KeyLabel:    "T",
		Category:    "ai",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayHitboxes,
		Name:        "Hitboxes",
		Description: "Show attack hitboxes, active ones filled",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    "debug",
		Default:     true,
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayCollisionBoxes,
		Name:        "Collision Boxes",
		Description: "Show body boxes",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "debug",
	})
	r.Register(OverlayDescriptor{
		ID:          OverlayBroadphase,
		Name:        "Broadphase Grid",
		Description: "Show the collision space cells",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.SetEnabled(id, !r.enabled[id])
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}
	r.enabled[id] = enabled
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress toggles the overlay bound to key.
// Returns the overlay ID, its new state and whether a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			return desc.ID, r.Toggle(desc.ID), true
		}
	}
	return "", false, false
}

// EnabledOverlays returns the enabled overlay IDs in registration order.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var result []OverlayID
	for _, desc := range r.descriptors {
		if r.enabled[desc.ID] {
			result = append(result, desc.ID)
		}
	}
	return result
}
