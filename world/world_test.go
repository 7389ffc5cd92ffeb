package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
)

// testLevel builds a floor with its surface at y=1, a wall and a one-way platform.
func testLevel(t *testing.T) *Level {
	t.Helper()
	l := NewLevel(40, 20, 2)
	_, err := l.Add(0, 0, 40, 1, false)
	require.NoError(t, err)
	_, err = l.Add(20, 1, 1, 10, false)
	require.NoError(t, err)
	_, err = l.Add(5, 5, 4, 0.5, true)
	require.NoError(t, err)
	return l
}

func TestProbeGround(t *testing.T) {
	l := testLevel(t)

	tests := []struct {
		name  string
		p     r2.Vec
		want  bool
		wantY float64
	}{
		{"standing on floor", r2.Vec{X: 3, Y: 1}, true, 1},
		{"slightly sunk", r2.Vec{X: 3, Y: 0.98}, true, 1},
		{"in the air", r2.Vec{X: 3, Y: 2}, false, 0},
		{"on platform", r2.Vec{X: 6, Y: 5.5}, true, 5.5},
		{"under platform", r2.Vec{X: 6, Y: 4.9}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := l.ProbeGround(tt.p)
			require.Equal(t, tt.want, ok)
			if ok {
				assert.InDelta(t, tt.wantY, hit.Point.Y, 1e-9)
				assert.Equal(t, r2.Vec{Y: 1}, hit.Normal)
			}
		})
	}
}

func TestProbeLine(t *testing.T) {
	l := testLevel(t)

	// Horizontal ray hits the wall's left face
	hit, ok := l.ProbeLine(r2.Vec{X: 10, Y: 3}, r2.Vec{X: 1}, 50)
	require.True(t, ok)
	assert.InDelta(t, 10.0, hit.Distance, 1e-9)
	assert.Equal(t, r2.Vec{X: -1}, hit.Normal)

	// Too short to reach
	_, ok = l.ProbeLine(r2.Vec{X: 10, Y: 3}, r2.Vec{X: 1}, 5)
	assert.False(t, ok)

	// Upward through a one-way platform
	_, ok = l.ProbeLine(r2.Vec{X: 6, Y: 2}, r2.Vec{Y: 1}, 10)
	assert.False(t, ok)

	// Downward onto the platform
	hit, ok = l.ProbeLine(r2.Vec{X: 6, Y: 9}, r2.Vec{Y: -1}, 10)
	require.True(t, ok)
	assert.InDelta(t, 5.5, hit.Point.Y, 1e-9)

	// Zero direction never hits
	_, ok = l.ProbeLine(r2.Vec{X: 6, Y: 9}, r2.Vec{}, 10)
	assert.False(t, ok)
}

func TestOverlapRegion(t *testing.T) {
	l := testLevel(t)

	assert.True(t, l.OverlapRegion(r2.Vec{X: 20.5, Y: 5}, 0.3), "inside wall")
	assert.True(t, l.OverlapRegion(r2.Vec{X: 19.8, Y: 5}, 0.3), "touching wall face")
	assert.False(t, l.OverlapRegion(r2.Vec{X: 15, Y: 5}, 0.4), "open air")
	assert.False(t, l.OverlapRegion(r2.Vec{X: 6, Y: 5.2}, 0.4), "platforms do not overlap")
}

func TestLineOfSight(t *testing.T) {
	l := testLevel(t)

	assert.True(t, LineOfSight(l, r2.Vec{X: 2, Y: 3}, r2.Vec{X: 15, Y: 3}))
	assert.False(t, LineOfSight(l, r2.Vec{X: 15, Y: 3}, r2.Vec{X: 25, Y: 3}))
	assert.True(t, LineOfSight(l, r2.Vec{X: 2, Y: 3}, r2.Vec{X: 2, Y: 3}))
}

func TestBuild(t *testing.T) {
	cfg := config.ArenaConfig{
		Width: 20, Height: 10, CellSize: 2,
		Solids: []config.Solid{
			{X: 0, Y: 0, W: 20, H: 1, Kind: "solid"},
			{X: 4, Y: 4, W: 3, H: 0.5, Kind: "platform"},
		},
	}
	l, err := Build(cfg)
	require.NoError(t, err)
	require.Len(t, l.Blocks(), 2)
	assert.True(t, l.Blocks()[1].Platform)
	assert.True(t, l.Blocks()[0].Object().HasTags(TagSolid))

	cfg.Solids = append(cfg.Solids, config.Solid{X: 1, Y: 1, W: 0, H: 1})
	_, err = Build(cfg)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestCandidates(t *testing.T) {
	l := testLevel(t)
	body := NewObject(2.6, 1, 0.8, 1.6, TagBody)
	l.Space().Add(body)

	tests := []struct {
		name   string
		x      float64
		dx, dy float64
		tags   []string
		want   int // blocks found
	}{
		{"floor below at cell start", 4.0, 0, -0.01, []string{TagSolid}, 1},
		{"floor below near cell end", 5.9, 0, -0.01, []string{TagSolid}, 1},
		{"floor below straddling cells", 3.7, 0, -0.01, []string{TagSolid}, 1},
		{"platform filtered out", 6.0, 0, -0.01, []string{TagPlatform}, 0},
		{"wall ahead", 19.1, 0.2, 0, []string{TagSolid}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			MoveObject(body, tt.x, 1)
			assert.InDelta(t, tt.x, ObjectPosition(body).X, 1e-9)
			assert.Len(t, Candidates(body, tt.dx, tt.dy, tt.tags...), tt.want)
		})
	}
}
