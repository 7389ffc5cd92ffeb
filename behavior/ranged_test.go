package behavior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/world"
)

// flatWorld is an endless floor at y=0. blocked cuts every sideways sight line.
type flatWorld struct {
	blocked bool
}

var up = r2.Vec{Y: 1}

func (w *flatWorld) ProbeGround(p r2.Vec) (world.Hit, bool) {
	if math.Abs(p.Y) > 0.05 {
		return world.Hit{}, false
	}
	return world.Hit{Point: r2.Vec{X: p.X}, Normal: up}, true
}

func (w *flatWorld) ProbeLine(origin, dir r2.Vec, maxDistance float64) (world.Hit, bool) {
	if dir.X == 0 && dir.Y < 0 {
		if origin.Y < 0 || origin.Y > maxDistance {
			return world.Hit{}, false
		}
		return world.Hit{Point: r2.Vec{X: origin.X}, Normal: up, Distance: origin.Y}, true
	}
	if w.blocked {
		return world.Hit{Point: origin}, true
	}
	return world.Hit{}, false
}

func (w *flatWorld) OverlapRegion(r2.Vec, float64) bool { return false }

type recordShooter struct{ shots int }

func (s *recordShooter) Fire(r2.Vec, r2.Vec, float64) { s.shots++ }

func newRangedFixture(t *testing.T, targetPos r2.Vec) (*fixture, *flatWorld, *recordShooter) {
	t.Helper()
	return newRangedFixtureRoll(t, targetPos, 0.99, nil)
}

// newRangedFixtureRoll builds a ranged agent whose every random roll returns roll.
// A nil world is an open floor.
func newRangedFixtureRoll(t *testing.T, targetPos r2.Vec, roll float64, w *flatWorld) (*fixture, *flatWorld, *recordShooter) {
	t.Helper()
	cfg := loadConfig(t)
	if w == nil {
		w = &flatWorld{}
	}
	shooter := &recordShooter{}
	f := newFixture(t, cfg, w, targetPos)

	d := f.deps(w)
	d.Shooter = shooter
	d.Rand = fixedRand{v: roll}
	m, err := NewRanged(d, cfg.Ranged, cfg.Planner)
	require.NoError(t, err)
	f.m = m
	return f, w, shooter
}

func TestRangedAimThenShoot(t *testing.T) {
	f, _, shooter := newRangedFixture(t, r2.Vec{X: 8})

	f.tick(1)
	require.Equal(t, Aiming, f.m.State())
	assert.Zero(t, shooter.shots, "no shot during the aim")

	f.tickUntil(t, 20, func() bool { return f.m.State() == Shooting })
	assert.Equal(t, 1, f.signals.count(SignalAimWarning))
	assert.Equal(t, 1, shooter.shots, "first shot right after the aim")

	f.tickUntil(t, 40, func() bool { return f.m.State() == Reloading })
	assert.Equal(t, f.cfg.Ranged.Ammo, shooter.shots, "magazine emptied")
}

// TestRangedEarlyReload covers losing sight mid-volley.
func TestRangedEarlyReload(t *testing.T) {
	f, w, shooter := newRangedFixture(t, r2.Vec{X: 8})
	f.tick(1)
	f.tickUntil(t, 20, func() bool { return f.m.State() == Shooting })

	w.blocked = true
	f.tickUntil(t, 20, func() bool { return f.m.State() == Reloading })
	assert.Equal(t, 1, shooter.shots, "no shots without sight")
	ammo, ok := f.m.Ammo()
	require.True(t, ok)
	assert.Less(t, ammo, f.cfg.Ranged.Ammo, "reloading before the magazine is empty")

	f.tickUntil(t, 40, func() bool {
		n, _ := f.m.Ammo()
		return n == f.cfg.Ranged.Ammo
	})
}

// TestRangedInterruptedReload covers a stun landing mid-reload.
func TestRangedInterruptedReload(t *testing.T) {
	f, _, _ := newRangedFixture(t, r2.Vec{X: 8})
	f.tick(1)
	f.tickUntil(t, 60, func() bool { return f.m.State() == Reloading })
	require.False(t, f.m.Cooldowns().Ready(CooldownReload))

	f.m.NotifyStunned(0.5, r2.Vec{X: -1}, 0)
	require.Equal(t, Stunned, f.m.State())
	ammo, _ := f.m.Ammo()
	assert.Zero(t, ammo, "magazine still empty")

	f.tickUntil(t, 60, func() bool { return f.m.State() == Aiming })
	assert.True(t, f.m.Cooldowns().Ready(CooldownReload), "no aiming before the reload has run")
	ammo, _ = f.m.Ammo()
	assert.Equal(t, f.cfg.Ranged.Ammo, ammo, "reload finished during the stun")
}

func TestRangedDodgesReflectedProjectile(t *testing.T) {
	f, _, _ := newRangedFixture(t, r2.Vec{X: 8})
	f.tick(1)
	require.Equal(t, Aiming, f.m.State())

	// Heading straight for the agent, 0.3s out
	pos, vel := r2.Vec{X: 3, Y: 0.8}, r2.Vec{X: -10}

	f.m.NotifyProjectile(pos, vel, false)
	f.tick(1)
	assert.Equal(t, Aiming, f.m.State(), "own shots are not a threat")

	f.m.NotifyProjectile(pos, vel, true)
	f.tick(1)
	assert.Equal(t, Dodging, f.m.State())
	assert.True(t, f.m.Invulnerable())
	assert.Greater(t, f.body.vel.Y, 0.0)
	assert.Less(t, f.body.vel.X, 0.0, "dodges away from the target")
	assert.False(t, f.m.Cooldowns().Ready(CooldownDodge))
	assert.Equal(t, 1, f.signals.count(SignalDodge))
}

func TestRangedIgnoresMissingProjectile(t *testing.T) {
	f, _, _ := newRangedFixture(t, r2.Vec{X: 8})
	f.tick(1)

	tests := []struct {
		name     string
		pos, vel r2.Vec
	}{
		{"moving away", r2.Vec{X: 3, Y: 0.8}, r2.Vec{X: 10}},
		{"passes overhead", r2.Vec{X: 3, Y: 4}, r2.Vec{X: -10}},
		{"too far out", r2.Vec{X: 30, Y: 0.8}, r2.Vec{X: -10}},
		{"stationary", r2.Vec{X: 0.5, Y: 0.8}, r2.Vec{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f.m.NotifyProjectile(tc.pos, tc.vel, true)
			assert.False(t, f.m.threat)
		})
	}
}

func TestRangedSwarmedBursts(t *testing.T) {
	f, _, _ := newRangedFixture(t, r2.Vec{X: 1})

	f.tick(1)
	require.Equal(t, ComboAttacking, f.m.State(), "counter-attacks in melee range")

	for i := 0; i < f.cfg.Ranged.CloseContacts; i++ {
		require.Equal(t, OutcomeDamaged, f.m.TakeDamage(1, f.target))
	}

	f.tick(1)
	require.Equal(t, MultiTeleporting, f.m.State())
	p := f.m.profile.(*ranged)
	assert.Zero(t, p.closeContacts, "counters reset")
	assert.True(t, f.token.Busy(0, f.clock.t))

	f.tickUntil(t, 40, func() bool { return !f.tp.Teleporting() })
	assert.Len(t, f.body.teleports, f.cfg.Ranged.BurstCount)
	assert.Equal(t, f.cfg.Ranged.BurstCount, f.signals.count(SignalTeleported))
	assert.Equal(t, 1, f.signals.count(SignalTeleportCharge), "one charge for the whole burst")
}

func TestRangedFarContacts(t *testing.T) {
	f, _, _ := newRangedFixture(t, r2.Vec{X: 8})
	f.tick(1)

	for i := 0; i < f.cfg.Ranged.FarContacts-1; i++ {
		f.m.TakeDamage(1, f.target)
	}
	p := f.m.profile.(*ranged)
	assert.Equal(t, f.cfg.Ranged.FarContacts-1, p.farContacts)
	assert.Zero(t, p.closeContacts)

	f.tick(1)
	assert.NotEqual(t, MultiTeleporting, f.m.State(), "below the far threshold")
}

// TestRangedMeleeResponse covers the two answers to a target in melee range.
func TestRangedMeleeResponse(t *testing.T) {
	tests := []struct {
		name  string
		roll  float64
		state State
	}{
		{"teleports behind", 0, TeleportBehind},
		{"counter-attacks", 0.99, ComboAttacking},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, _, _ := newRangedFixtureRoll(t, r2.Vec{X: 1}, tc.roll, nil)
			f.tick(1)
			require.Equal(t, tc.state, f.m.State())
			assert.Equal(t, tc.state == TeleportBehind, f.tp.Teleporting())
		})
	}

	f, _, _ := newRangedFixtureRoll(t, r2.Vec{X: 1}, 0, nil)
	f.tick(1)
	f.tickUntil(t, 40, func() bool { return len(f.body.teleports) > 0 })
	assert.Greater(t, f.body.teleports[0].X, f.target.pos.X, "lands on the far side")
}

// TestRangedReposition covers losing sight long enough to relocate.
func TestRangedReposition(t *testing.T) {
	f, _, _ := newRangedFixtureRoll(t, r2.Vec{X: 8}, 0.99, &flatWorld{blocked: true})

	f.tick(1)
	assert.NotEqual(t, Aiming, f.m.State(), "no aim without sight")

	f.tickUntil(t, 60, func() bool { return f.m.State() == Charging })
	assert.GreaterOrEqual(t, f.m.losLost, f.cfg.Ranged.RepositionDelay)
	assert.True(t, f.tp.Teleporting())
	assert.Zero(t, f.signals.count(SignalFakeTeleport))
}

// TestRangedFakeTeleport covers the feinted reposition and the real one after it.
func TestRangedFakeTeleport(t *testing.T) {
	f, _, _ := newRangedFixtureRoll(t, r2.Vec{X: 8}, 0, &flatWorld{blocked: true})

	f.tickUntil(t, 60, func() bool { return f.m.State() == FakeTeleporting })
	assert.Equal(t, 1, f.signals.count(SignalFakeTeleport))
	assert.False(t, f.tp.Teleporting(), "a feint holds no token")
	assert.False(t, f.m.Cooldowns().Ready(CooldownFeint))
	assert.Equal(t, 0.0, f.body.vel.X)

	f.tickUntil(t, 40, func() bool { return f.m.State() == Charging })
	assert.Equal(t, 1, f.signals.count(SignalFakeTeleport), "the next attempt is real")
	assert.True(t, f.tp.Teleporting())
}

// TestRangedRetreatsWhenClose covers a target inside the retreat range but outside melee range.
func TestRangedRetreatsWhenClose(t *testing.T) {
	f, _, _ := newRangedFixture(t, r2.Vec{X: 3})

	f.tick(1)
	assert.Equal(t, Retreating, f.m.State())
	assert.Less(t, f.body.vel.X, 0.0, "backs away from the target")
	assert.False(t, f.m.Cooldowns().Ready(CooldownRetreat))
}

func TestRangedHoldsPositionInSight(t *testing.T) {
	f, w, _ := newRangedFixture(t, r2.Vec{X: 8})
	f.body.vel = r2.Vec{X: 3, Y: -1}

	f.m.measure(0)
	assert.True(t, f.m.profile.Neutral(dt))
	assert.Equal(t, r2.Vec{Y: -1}, f.body.vel)

	w.blocked = true
	f.m.measure(dt)
	assert.False(t, f.m.profile.Neutral(dt), "follows the plan without sight")
}
