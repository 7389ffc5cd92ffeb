package telemetry

import (
	"sort"

	"github.com/pthm-cable/skirmish/components"
)

// LifetimeStats tracks one agent's totals over the run.
type LifetimeStats struct {
	ID        uint32  `csv:"agent"`
	Variant   string  `csv:"variant"`
	Team      int     `csv:"team"`
	SpawnTick int32   `csv:"spawn_tick"`
	AliveSec  float64 `csv:"alive_sec"`

	PlansFound   int `csv:"plans_found"`
	PlanFailures int `csv:"plan_failures"`
	Teleports    int `csv:"teleports"`
	Fallbacks    int `csv:"fallbacks"`

	Combos      int     `csv:"combos"`
	Hits        int     `csv:"hits"`
	DamageDealt float64 `csv:"damage_dealt"`
	Parried     int     `csv:"parried"`
	Stunned     int     `csv:"stunned"`
	Shots       int     `csv:"shots"`
	Dodges      int     `csv:"dodges"`
}

// LifetimeTracker manages per-agent lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a newly spawned agent.
func (lt *LifetimeTracker) Register(id uint32, variant components.Variant, team int, spawnTick int32) {
	lt.stats[id] = &LifetimeStats{
		ID:        id,
		Variant:   variant.String(),
		Team:      team,
		SpawnTick: spawnTick,
	}
}

// Get returns the lifetime stats for an agent, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Record adds an event to its agent's totals. Events for unknown agents are dropped.
func (lt *LifetimeTracker) Record(e Event) {
	s := lt.stats[e.AgentID]
	if s == nil {
		return
	}
	switch e.Type {
	case EventPlanFound:
		s.PlansFound++
	case EventPlanFailed:
		s.PlanFailures++
	case EventTeleport:
		s.Teleports++
	case EventFallback:
		s.Fallbacks++
	case EventCombo:
		s.Combos++
	case EventHit:
		s.Hits++
		s.DamageDealt += e.Amount
	case EventParried:
		s.Parried++
	case EventStunned:
		s.Stunned++
	case EventShot:
		s.Shots++
	case EventDodge:
		s.Dodges++
	}
}

// UpdateAliveTime updates the alive time based on current tick.
func (lt *LifetimeTracker) UpdateAliveTime(id uint32, currentTick int32, dt float64) {
	if s := lt.stats[id]; s != nil {
		s.AliveSec = float64(currentTick-s.SpawnTick) * dt
	}
}

// All returns every tracked agent ordered by ID.
func (lt *LifetimeTracker) All() []LifetimeStats {
	out := make([]LifetimeStats, 0, len(lt.stats))
	for _, s := range lt.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of tracked agents.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
