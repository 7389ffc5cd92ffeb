package telemetry

import (
	"math"
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePhysics)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseBehavior)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhasePhysics]; !ok {
		t.Error("expected physics phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseBehavior]; !ok {
		t.Error("expected behavior phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePhysics)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

// stepClock advances only when told to.
type stepClock struct{ t time.Time }

func (c *stepClock) Now() time.Time { return c.t }

func (c *stepClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)
	clk := &stepClock{t: time.Unix(0, 0)}
	pc.now = clk.Now

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		clk.Advance(10 * time.Millisecond)
		pc.StartPhase("slow")
		clk.Advance(30 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if got := stats.PhasePct["fast"]; math.Abs(got-25) > 1e-6 {
		t.Errorf("expected fast phase at 25%%, got %v%%", got)
	}
	if got := stats.PhasePct["slow"]; math.Abs(got-75) > 1e-6 {
		t.Errorf("expected slow phase at 75%%, got %v%%", got)
	}
	if stats.AvgTickDuration != 40*time.Millisecond {
		t.Errorf("expected 40ms ticks, got %v", stats.AvgTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// First call establishes baseline
	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond) // ~60fps frame time
	// Second call measures duration
	pc.RecordFrame()

	stats := pc.Stats()

	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}

	if stats.FPS <= 0 {
		t.Error("expected positive FPS")
	}

	// Sleeps only overshoot, so a 16ms frame never reports much above 60 FPS
	if stats.FPS > 65 {
		t.Errorf("expected FPS at most ~60 with 16ms frame time, got %v", stats.FPS)
	}
}

func TestPerfCollector_TickSpread(t *testing.T) {
	pc := NewPerfCollector(20)

	for i := 0; i < 20; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseBehavior)
		if i == 19 {
			time.Sleep(2 * time.Millisecond)
		}
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.MinTickDuration > stats.P95TickDuration || stats.P95TickDuration > stats.MaxTickDuration {
		t.Errorf("expected min <= p95 <= max, got %v %v %v",
			stats.MinTickDuration, stats.P95TickDuration, stats.MaxTickDuration)
	}
	if stats.MaxTickDuration < 2*time.Millisecond {
		t.Errorf("expected the slow tick to set the max, got %v", stats.MaxTickDuration)
	}

	rec := stats.ToCSV(600)
	if rec.WindowEnd != 600 || rec.MaxTickUS < 2000 {
		t.Errorf("unexpected csv record %+v", rec)
	}
}
