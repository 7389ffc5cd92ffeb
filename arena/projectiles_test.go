package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
)

func rangedOnly(c *config.Config) {
	calmDummy(c)
	c.Arena.Agents = []config.SpawnConfig{{Variant: "ranged", X: 44, Y: 3}}
}

func TestProjectileHitsDummy(t *testing.T) {
	s := newTestSim(t, rangedOnly, Options{})
	a := s.Agents()[0]
	dt := s.Config().Physics.DT

	(&shooter{sim: s, owner: a}).Fire(r2.Vec{X: 20, Y: 1.8}, r2.Vec{X: 1}, 14)
	require.Len(t, s.Projectiles(), 1)

	for i := 0; i < 30; i++ {
		s.updateProjectiles(dt)
	}

	assert.Empty(t, s.Projectiles())
	assert.Equal(t, s.Config().Arena.Dummy.MaxHealth-s.Config().Ranged.HitDamage, s.Dummy().Health())
	assert.Equal(t, 1, s.Lifetime().Get(a.ID).Hits)
}

func TestProjectileReflected(t *testing.T) {
	s := newTestSim(t, func(c *config.Config) {
		rangedOnly(c)
		c.Arena.Dummy.ReflectChance = 1
	}, Options{})
	dt := s.Config().Physics.DT

	(&shooter{sim: s, owner: s.Agents()[0]}).Fire(r2.Vec{X: 20, Y: 1.8}, r2.Vec{X: 1}, 14)

	var reflected *ProjectileView
	for i := 0; i < 30 && reflected == nil; i++ {
		s.updateProjectiles(dt)
		for _, p := range s.Projectiles() {
			if p.Reflected {
				reflected = &p
			}
		}
	}

	require.NotNil(t, reflected)
	assert.Less(t, reflected.Vel.X, 0.0)
	assert.Equal(t, s.Config().Arena.Dummy.MaxHealth, s.Dummy().Health())
	_, reflects, _ := s.Dummy().Counts()
	assert.Equal(t, 1, reflects)
}

func TestProjectileStoppedBySolid(t *testing.T) {
	s := newTestSim(t, rangedOnly, Options{})
	dt := s.Config().Physics.DT

	// The wall block at x 38..42 sits between the shot and the dummy.
	(&shooter{sim: s, owner: s.Agents()[0]}).Fire(r2.Vec{X: 43, Y: 2}, r2.Vec{X: -1}, 14)
	for i := 0; i < 10; i++ {
		s.updateProjectiles(dt)
	}

	assert.Empty(t, s.Projectiles())
	assert.Equal(t, s.Config().Arena.Dummy.MaxHealth, s.Dummy().Health())
}

func TestProjectileExpires(t *testing.T) {
	s := newTestSim(t, func(c *config.Config) {
		rangedOnly(c)
		c.Ranged.ProjectileTTL = 0.1
	}, Options{})
	dt := s.Config().Physics.DT

	(&shooter{sim: s, owner: s.Agents()[0]}).Fire(r2.Vec{X: 30, Y: 10}, r2.Vec{X: 0, Y: 1}, 1)
	for i := 0; i < 10; i++ {
		s.updateProjectiles(dt)
	}
	assert.Empty(t, s.Projectiles())
}
