package arena

import (
	"github.com/pthm-cable/skirmish/behavior"
	"github.com/pthm-cable/skirmish/telemetry"
)

// signalEvents maps machine signals onto telemetry events. Hits are
// recorded by the combat phase, which knows the damage.
var signalEvents = map[behavior.Signal]telemetry.EventType{
	behavior.SignalAimWarning:     telemetry.EventAimWarning,
	behavior.SignalTeleportCharge: telemetry.EventTeleportCharge,
	behavior.SignalTeleported:     telemetry.EventTeleport,
	behavior.SignalFakeTeleport:   telemetry.EventFakeTeleport,
	behavior.SignalFeint:          telemetry.EventFeint,
	behavior.SignalCombo:          telemetry.EventCombo,
	behavior.SignalParried:        telemetry.EventParried,
	behavior.SignalStunned:        telemetry.EventStunned,
	behavior.SignalShot:           telemetry.EventShot,
	behavior.SignalDodge:          telemetry.EventDodge,
	behavior.SignalPlanFailed:     telemetry.EventPlanFailed,
	behavior.SignalPlanFound:      telemetry.EventPlanFound,
}

// signal is the behavior.Signals sink shared by every machine.
func (s *Sim) signal(agent uint32, sig behavior.Signal) {
	t, ok := signalEvents[sig]
	if !ok {
		return
	}
	a := s.byID[agent]
	if a == nil {
		return
	}
	s.record(telemetry.NewEvent(t, s.tick, agent, a.Variant))
}

func (s *Sim) record(e telemetry.Event) {
	s.collector.Record(e)
	s.lifetime.Record(e)
}

// flushTelemetry closes the stats window when it is due and handles bookmarks.
func (s *Sim) flushTelemetry() {
	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	samples := make([]telemetry.AgentSample, 0, len(s.agents))
	for _, a := range s.agents {
		samples = append(samples, telemetry.AgentSample{
			ID:       a.ID,
			Variant:  a.Variant,
			Health:   a.Machine.Health(),
			Failures: a.Machine.Failures(),
		})
		s.lifetime.UpdateAliveTime(a.ID, s.tick, s.cfg.Physics.DT)
	}

	stats := s.collector.Flush(s.tick, samples)
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := s.output.WriteTelemetry(stats); err != nil {
		s.logger.Error("failed to write telemetry", "error", err)
	}
	if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		s.logger.Error("failed to write perf", "error", err)
	}

	for _, bm := range s.bookmarks.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			s.logger.Error("failed to write bookmark", "error", err)
		}
		s.saveSnapshot(&bm)
	}
}

// saveSnapshot writes the current state next to the run's CSV files.
func (s *Sim) saveSnapshot(bookmark *telemetry.Bookmark) {
	if s.output == nil {
		return
	}
	path, err := s.output.WriteSnapshot(s.Snapshot(bookmark))
	if err != nil {
		s.logger.Error("failed to save snapshot", "error", err)
		return
	}
	s.logger.Info("snapshot saved", "path", path, "tick", s.tick)
}

// Snapshot captures every agent's observable state.
func (s *Sim) Snapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	snap := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RunID:       s.runID.String(),
		RNGSeed:     s.seed,
		ArenaWidth:  s.level.Width,
		ArenaHeight: s.level.Height,
		Tick:        s.tick,
		Bookmark:    bookmark,
	}

	query := s.agentFilter.Query()
	for query.Next() {
		pos, vel, _, tag := query.Get()
		a := s.byID[tag.ID]
		if a == nil {
			continue
		}
		m := a.Machine
		name, step := m.Routine()
		snap.Agents = append(snap.Agents, telemetry.AgentState{
			ID:        tag.ID,
			Variant:   tag.Variant.String(),
			Team:      tag.Team,
			X:         pos.X,
			Y:         pos.Y,
			VelX:      vel.X,
			VelY:      vel.Y,
			State:     m.State().String(),
			Routine:   name,
			Step:      step,
			Health:    m.Health(),
			Failures:  m.Failures(),
			Cooldowns: m.Cooldowns().Active(),
			Lifetime:  s.lifetime.Get(tag.ID),
		})
	}
	return snap
}
