// Package teleport relocates agents near their targets and arbitrates
// teleports between teammates.
package teleport

import "log/slog"

// Clock reports simulation time in seconds.
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() float64

// Now implements Clock.
func (f ClockFunc) Now() float64 { return f() }

// Lease identifies one successful Acquire.
type Lease struct {
	Team int
	gen  uint64
}

type hold struct {
	gen       uint64
	acquired  float64
	releaseAt float64 // negative while held
}

// Token allows at most one teleport per team at a time.
// Holds are timestamped: a holder that never releases is dropped after maxHold,
// and a released token stays busy for releaseDelay.
// Token is shared by every agent of an arena and is not safe for concurrent use.
type Token struct {
	releaseDelay float64
	maxHold      float64
	gen          uint64
	holds        map[int]*hold
	logger       *slog.Logger
}

// NewToken creates a token.
func NewToken(releaseDelay, maxHold float64) *Token {
	return &Token{
		releaseDelay: releaseDelay,
		maxHold:      maxHold,
		holds:        make(map[int]*hold),
		logger:       slog.Default(),
	}
}

// Acquire takes the team's token. It fails while the token is busy.
func (t *Token) Acquire(team int, now float64) (Lease, bool) {
	if t.Busy(team, now) {
		return Lease{}, false
	}
	t.gen++
	t.holds[team] = &hold{gen: t.gen, acquired: now, releaseAt: -1}
	return Lease{Team: team, gen: t.gen}, true
}

// Release gives the token back. The team stays busy for the release delay.
// Releasing a lease that has already expired or been replaced does nothing.
func (t *Token) Release(l Lease, now float64) {
	h, ok := t.holds[l.Team]
	if !ok || h.gen != l.gen || h.releaseAt >= 0 {
		return
	}
	h.releaseAt = now + t.releaseDelay
}

// Busy reports whether a teammate holds the token or released it very recently.
func (t *Token) Busy(team int, now float64) bool {
	h, ok := t.holds[team]
	if !ok {
		return false
	}
	if h.releaseAt >= 0 {
		if now < h.releaseAt {
			return true
		}
		delete(t.holds, team)
		return false
	}
	if t.maxHold > 0 && now-h.acquired >= t.maxHold {
		t.logger.Warn("teleport token auto-released",
			"team", team,
			"held_for", now-h.acquired,
		)
		delete(t.holds, team)
		return false
	}
	return true
}

// Held reports whether the lease is still the team's current, unreleased hold.
func (t *Token) Held(l Lease, now float64) bool {
	if !t.Busy(l.Team, now) {
		return false
	}
	h := t.holds[l.Team]
	return h.gen == l.gen && h.releaseAt < 0
}
