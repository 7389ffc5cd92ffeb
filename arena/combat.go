package arena

import (
	"github.com/pthm-cable/skirmish/behavior"
	"github.com/pthm-cable/skirmish/telemetry"
)

// resolveHitboxes reports every active hitbox that overlaps the dummy.
// Machines ignore repeat contacts within one activation.
func (s *Sim) resolveHitboxes() {
	feet, bd := s.dummy.body.box()
	for _, a := range s.agents {
		pos := a.Position()
		for _, h := range a.Machine.Hitboxes() {
			if !h.Active {
				continue
			}
			if !h.Contains(pos, closestPoint(h.Center(pos), feet, bd)) {
				continue
			}
			switch a.Machine.ReportContact(h.Name, s.dummy) {
			case behavior.OutcomeDamaged:
				s.record(telemetry.NewHitEvent(s.tick, a.ID, DummyID, a.Variant, h.Damage))
			case behavior.OutcomeBlocked:
				s.record(telemetry.NewEvent(telemetry.EventBlocked, s.tick, a.ID, a.Variant))
			}
		}
	}
}
