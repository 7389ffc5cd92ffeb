package telemetry

import "github.com/pthm-cable/skirmish/components"

// AgentSample is one agent's state at the end of a window.
type AgentSample struct {
	ID       uint32
	Variant  components.Variant
	Health   float64
	Failures int
}

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	counts [numEventTypes]int
	damage float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record counts an event in the current window.
func (c *Collector) Record(e Event) {
	if e.Type >= numEventTypes {
		return
	}
	c.counts[e.Type]++
	if e.Type == EventHit {
		c.damage += e.Amount
	}
}

// Count returns how many events of type t the current window holds.
func (c *Collector) Count(t EventType) int {
	if t >= numEventTypes {
		return 0
	}
	return c.counts[t]
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, agents []AgentSample) WindowStats {
	n := c.counts

	var planRate, fallbackRate float64
	if attempts := n[EventPlanFound] + n[EventPlanFailed]; attempts > 0 {
		planRate = float64(n[EventPlanFailed]) / float64(attempts)
	}
	if n[EventTeleport] > 0 {
		fallbackRate = float64(n[EventFallback]) / float64(n[EventTeleport])
	}

	health := make([]float64, 0, len(agents))
	var failSum, failMax int
	for _, a := range agents {
		health = append(health, a.Health)
		failSum += a.Failures
		failMax = max(failMax, a.Failures)
	}
	hMean, hP10, hP50, hP90 := Summarize(health)
	var failMean float64
	if len(agents) > 0 {
		failMean = float64(failSum) / float64(len(agents))
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Agents: len(agents),

		PlansFound:   n[EventPlanFound],
		PlanFailures: n[EventPlanFailed],
		PlanFailRate: planRate,

		TeleportCharges: n[EventTeleportCharge],
		Teleports:       n[EventTeleport],
		Fallbacks:       n[EventFallback],
		FallbackRate:    fallbackRate,
		FakeTeleports:   n[EventFakeTeleport],

		Combos:      n[EventCombo],
		Feints:      n[EventFeint],
		Hits:        n[EventHit],
		Blocked:     n[EventBlocked],
		Parries:     n[EventParried],
		Stuns:       n[EventStunned],
		Shots:       n[EventShot],
		Dodges:      n[EventDodge],
		AimWarnings: n[EventAimWarning],
		Damage:      c.damage,

		HealthMean: hMean,
		HealthP10:  hP10,
		HealthP50:  hP50,
		HealthP90:  hP90,

		FailuresMean: failMean,
		FailuresMax:  failMax,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.counts = [numEventTypes]int{}
	c.damage = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
