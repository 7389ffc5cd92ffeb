// Package routine runs timed, resumable behaviors that advance once per tick.
package routine

// Result tells the routine what to do after a step runs.
type Result uint8

const (
	// Next moves on to the following step.
	Next Result = iota
	// Repeat keeps the current step and runs it again after its wait.
	Repeat
	// Stop ends the routine early. Cleanup still runs.
	Stop
)

// Step is one stage of a routine: wait, then run.
type Step struct {
	Name string
	Wait float64
	// Run is called once the wait has elapsed. A nil Run behaves as Next.
	Run func() Result
}

// Routine is a cancellable sequence of steps.
// A nil *Routine is never active.
type Routine struct {
	name    string
	steps   []Step
	index   int
	elapsed float64
	done    bool

	cleanup func()
}

// New creates a routine from its steps.
func New(name string, steps ...Step) *Routine {
	return &Routine{name: name, steps: steps}
}

// Wait returns a step that only waits.
func Wait(name string, d float64) Step {
	return Step{Name: name, Wait: d}
}

// Do returns a step that runs fn immediately and moves on.
func Do(name string, fn func()) Step {
	return Step{Name: name, Run: func() Result {
		fn()
		return Next
	}}
}

// OnFinish sets a hook that runs exactly once when the routine completes,
// stops or is cancelled.
func (r *Routine) OnFinish(fn func()) *Routine {
	r.cleanup = fn
	return r
}

// Name returns the routine's name.
func (r *Routine) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// Step returns the name of the current step.
func (r *Routine) Step() string {
	if !r.Active() {
		return ""
	}
	return r.steps[r.index].Name
}

// Active reports whether the routine still has work to do.
func (r *Routine) Active() bool {
	return r != nil && !r.done
}

// Advance moves the routine forward by dt seconds.
// Steps whose waits fit inside dt run in the same call.
func (r *Routine) Advance(dt float64) {
	if !r.Active() {
		return
	}
	r.elapsed += dt
	for !r.done {
		if r.index >= len(r.steps) {
			r.finish()
			return
		}
		s := r.steps[r.index]
		if r.elapsed < s.Wait {
			return
		}
		r.elapsed -= s.Wait

		result := Next
		if s.Run != nil {
			result = s.Run()
		}
		if r.done {
			// Cancelled from inside Run
			return
		}
		switch result {
		case Next:
			r.index++
		case Repeat:
			if s.Wait <= 0 {
				// Zero-wait repeats yield to the next tick
				r.elapsed = 0
				return
			}
		case Stop:
			r.finish()
			return
		}
	}
}

// Cancel stops the routine and runs its cleanup. Cancelling twice is a no-op.
func (r *Routine) Cancel() {
	if !r.Active() {
		return
	}
	r.finish()
}

func (r *Routine) finish() {
	r.done = true
	if r.cleanup != nil {
		fn := r.cleanup
		r.cleanup = nil
		fn()
	}
}
