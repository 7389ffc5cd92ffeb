package routine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutineRunsStepsInOrder(t *testing.T) {
	var trace []string
	r := New("combo",
		Do("start", func() { trace = append(trace, "start") }),
		Step{Name: "windup", Wait: 0.25, Run: func() Result {
			trace = append(trace, "hit")
			return Next
		}},
		Wait("recover", 0.2),
	)

	r.Advance(0.1)
	assert.Equal(t, []string{"start"}, trace)
	assert.Equal(t, "windup", r.Step())

	r.Advance(0.2)
	assert.Equal(t, []string{"start", "hit"}, trace)
	assert.Equal(t, "recover", r.Step())
	assert.True(t, r.Active())

	r.Advance(0.2)
	assert.False(t, r.Active())
}

func TestRoutineRepeat(t *testing.T) {
	shots := 0
	r := New("fire", Step{Name: "shot", Wait: 0.25, Run: func() Result {
		shots++
		if shots == 3 {
			return Next
		}
		return Repeat
	}})

	// One long tick can cover several waits
	r.Advance(0.5)
	assert.Equal(t, 2, shots)
	r.Advance(0.25)
	assert.Equal(t, 3, shots)
	r.Advance(0)
	assert.False(t, r.Active())
}

func TestRoutineZeroWaitRepeatYields(t *testing.T) {
	polls := 0
	r := New("poll", Step{Name: "poll", Run: func() Result {
		polls++
		return Repeat
	}})
	r.Advance(1)
	r.Advance(1)
	assert.Equal(t, 2, polls)
	assert.True(t, r.Active())
}

func TestRoutineCleanupOnce(t *testing.T) {
	tests := []struct {
		name string
		run  func(r *Routine)
	}{
		{"complete", func(r *Routine) { r.Advance(10) }},
		{"cancel", func(r *Routine) { r.Cancel() }},
		{"cancel twice", func(r *Routine) { r.Cancel(); r.Cancel() }},
		{"stop", func(r *Routine) {}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			steps := []Step{Wait("a", 1), Wait("b", 1)}
			if tc.name == "stop" {
				steps = []Step{{Name: "stop", Run: func() Result { return Stop }}, Wait("never", 1)}
			}
			r := New(tc.name, steps...).OnFinish(func() { calls++ })
			tc.run(r)
			r.Advance(10)
			r.Cancel()
			if calls != 1 {
				t.Errorf("cleanup calls = %d, want 1", calls)
			}
			assert.False(t, r.Active())
		})
	}
}

func TestRoutineCancelFromStep(t *testing.T) {
	var r *Routine
	after := false
	r = New("self", Do("cancel", func() { r.Cancel() }), Do("after", func() { after = true }))
	r.Advance(0)
	assert.False(t, r.Active())
	assert.False(t, after)
}

func TestNilRoutine(t *testing.T) {
	var r *Routine
	assert.False(t, r.Active())
	assert.Empty(t, r.Name())
	assert.Empty(t, r.Step())
	r.Advance(1)
	r.Cancel()
}
