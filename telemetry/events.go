// Package telemetry provides arena decision tracking: windowed stats,
// per-agent ledgers, bookmarks and snapshots.
package telemetry

import "github.com/pthm-cable/skirmish/components"

// EventType identifies telemetry events.
type EventType uint8

const (
	EventPlanFound EventType = iota
	EventPlanFailed
	EventTeleportCharge
	EventTeleport
	EventFallback
	EventFakeTeleport
	EventCombo
	EventFeint
	EventHit
	EventBlocked
	EventParried
	EventStunned
	EventShot
	EventDodge
	EventAimWarning

	numEventTypes
)

func (t EventType) String() string {
	switch t {
	case EventPlanFound:
		return "plan_found"
	case EventPlanFailed:
		return "plan_failed"
	case EventTeleportCharge:
		return "teleport_charge"
	case EventTeleport:
		return "teleport"
	case EventFallback:
		return "fallback"
	case EventFakeTeleport:
		return "fake_teleport"
	case EventCombo:
		return "combo"
	case EventFeint:
		return "feint"
	case EventHit:
		return "hit"
	case EventBlocked:
		return "blocked"
	case EventParried:
		return "parried"
	case EventStunned:
		return "stunned"
	case EventShot:
		return "shot"
	case EventDodge:
		return "dodge"
	case EventAimWarning:
		return "aim_warning"
	default:
		return "unknown"
	}
}

// Event represents a single telemetry event.
type Event struct {
	Type    EventType
	Tick    int32
	AgentID uint32
	Variant components.Variant

	// Optional fields depending on event type
	TargetID uint32  // for hit events
	Amount   float64 // damage dealt
}

// NewEvent creates an event with no target.
func NewEvent(t EventType, tick int32, agentID uint32, variant components.Variant) Event {
	return Event{
		Type:    t,
		Tick:    tick,
		AgentID: agentID,
		Variant: variant,
	}
}

// NewHitEvent creates an event for a hit that removed health.
func NewHitEvent(tick int32, attackerID, victimID uint32, variant components.Variant, damage float64) Event {
	return Event{
		Type:     EventHit,
		Tick:     tick,
		AgentID:  attackerID,
		Variant:  variant,
		TargetID: victimID,
		Amount:   damage,
	}
}
