// Package world answers geometric questions about the level for planners and behaviors.
package world

import (
	"errors"
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/solarlune/resolv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/skirmish/config"
)

// Tags attached to level objects in the resolv space.
const (
	TagSolid    = "solid"
	TagPlatform = "platform"
	TagBody     = "body"
)

// PixelsPerUnit scales world units onto the integer grid the resolv space works in.
// resolv rounds checks to whole pixels, so geometry is never handed to it unscaled.
const PixelsPerUnit = 32

// ErrDegenerate is returned for blocks without positive extent.
var ErrDegenerate = errors.New("block must have positive width and height")

// Hit describes where a probe met the level.
type Hit struct {
	Point    r2.Vec
	Normal   r2.Vec
	Distance float64
}

// Querier is the read-only view of the level used by the core.
type Querier interface {
	// ProbeGround reports the walkable surface directly under p, if any.
	ProbeGround(p r2.Vec) (Hit, bool)
	// ProbeLine casts a ray and returns the first blocking surface within maxDistance.
	ProbeLine(origin, dir r2.Vec, maxDistance float64) (Hit, bool)
	// OverlapRegion reports whether a circle intersects solid geometry.
	OverlapRegion(center r2.Vec, radius float64) bool
}

// Block is one axis-aligned piece of level geometry.
type Block struct {
	X, Y, W, H float64
	Platform   bool

	obj  *resolv.Object
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (b *Block) Bounds() rtreego.Rect {
	return b.rect
}

// Object returns the block's collision object.
func (b *Block) Object() *resolv.Object {
	return b.obj
}

// Level stores solids in a resolv space and indexes them in an R-tree for queries.
type Level struct {
	Width, Height float64

	space  *resolv.Space
	index  *rtreego.Rtree
	blocks []*Block

	// Skin is the distance above and below a point that still counts as standing.
	Skin float64
}

// NewLevel creates an empty level covering [0,width]x[0,height].
// cellSize is the broad-phase cell edge in world units.
func NewLevel(width, height float64, cellSize int) *Level {
	cell := cellSize * PixelsPerUnit
	cols := int(math.Ceil(width / float64(cellSize)))
	rows := int(math.Ceil(height / float64(cellSize)))
	return &Level{
		Width:  width,
		Height: height,
		space:  resolv.NewSpace(cols*cell, rows*cell, cell, cell),
		index:  rtreego.NewTree(2, 4, 16),
		Skin:   0.05,
	}
}

// NewObject creates a collision object for a box whose bottom-left corner is at (x, y).
func NewObject(x, y, w, h float64, tags ...string) *resolv.Object {
	return resolv.NewObject(x*PixelsPerUnit, y*PixelsPerUnit, w*PixelsPerUnit, h*PixelsPerUnit, tags...)
}

// MoveObject places obj's bottom-left corner at (x, y) and refreshes its cells.
func MoveObject(obj *resolv.Object, x, y float64) {
	obj.X = x * PixelsPerUnit
	obj.Y = y * PixelsPerUnit
	obj.Update()
}

// ObjectPosition returns obj's bottom-left corner in world units.
func ObjectPosition(obj *resolv.Object) r2.Vec {
	return r2.Vec{X: obj.X / PixelsPerUnit, Y: obj.Y / PixelsPerUnit}
}

// Candidates returns the level blocks sharing a cell with obj moved by (dx, dy)
// world units and carrying one of tags. Callers do the exact overlap test.
func Candidates(obj *resolv.Object, dx, dy float64, tags ...string) []*Block {
	c := obj.Check(dx*PixelsPerUnit, dy*PixelsPerUnit, tags...)
	if c == nil {
		return nil
	}
	blocks := make([]*Block, 0, len(c.Objects))
	for _, o := range c.Objects {
		if b, ok := o.Data.(*Block); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// Build creates a level from the arena configuration.
func Build(cfg config.ArenaConfig) (*Level, error) {
	l := NewLevel(cfg.Width, cfg.Height, cfg.CellSize)
	for i, s := range cfg.Solids {
		if _, err := l.Add(s.X, s.Y, s.W, s.H, s.Kind == TagPlatform); err != nil {
			return nil, fmt.Errorf("solid %d: %w", i, err)
		}
	}
	return l, nil
}

// Add inserts a block. Platforms only block from above.
func (l *Level) Add(x, y, w, h float64, platform bool) (*Block, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrDegenerate
	}
	rect, err := rtreego.NewRectFromPoints(rtreego.Point{x, y}, rtreego.Point{x + w, y + h})
	if err != nil {
		return nil, fmt.Errorf("indexing block: %w", err)
	}

	tag := TagSolid
	if platform {
		tag = TagPlatform
	}
	b := &Block{X: x, Y: y, W: w, H: h, Platform: platform, rect: rect}
	b.obj = NewObject(x, y, w, h, tag)
	b.obj.Data = b
	l.space.Add(b.obj)
	l.index.Insert(b)
	l.blocks = append(l.blocks, b)
	return b, nil
}

// Space returns the collision space shared with the physics step.
func (l *Level) Space() *resolv.Space {
	return l.space
}

// Blocks returns all level geometry in insertion order.
func (l *Level) Blocks() []*Block {
	return l.blocks
}

// ProbeGround implements Querier.
func (l *Level) ProbeGround(p r2.Vec) (Hit, bool) {
	origin := r2.Vec{X: p.X, Y: p.Y + l.Skin}
	return l.ProbeLine(origin, r2.Vec{Y: -1}, 2*l.Skin)
}

// ProbeLine implements Querier.
func (l *Level) ProbeLine(origin, dir r2.Vec, maxDistance float64) (Hit, bool) {
	if maxDistance <= 0 || r2.Norm(dir) == 0 {
		return Hit{}, false
	}
	dir = r2.Unit(dir)
	end := r2.Add(origin, r2.Scale(maxDistance, dir))

	bb, err := rtreego.NewRectFromPoints(rtreego.Point{origin.X, origin.Y}, rtreego.Point{end.X, end.Y})
	if err != nil {
		return Hit{}, false
	}

	best := Hit{Distance: math.Inf(1)}
	found := false
	for _, s := range l.index.SearchIntersect(bb) {
		b := s.(*Block)
		t, normal, ok := rayBox(origin, dir, b, maxDistance)
		if !ok || t >= best.Distance {
			continue
		}
		// Platforms are one-way: only a downward ray landing on the top face counts
		if b.Platform && !(dir.Y < 0 && normal.Y > 0) {
			continue
		}
		best = Hit{Point: r2.Add(origin, r2.Scale(t, dir)), Normal: normal, Distance: t}
		found = true
	}
	return best, found
}

// OverlapRegion implements Querier. Platforms never overlap.
func (l *Level) OverlapRegion(center r2.Vec, radius float64) bool {
	bb := rtreego.Point{center.X, center.Y}.ToRect(radius)
	for _, s := range l.index.SearchIntersect(bb) {
		b := s.(*Block)
		if b.Platform {
			continue
		}
		cx := clamp(center.X, b.X, b.X+b.W)
		cy := clamp(center.Y, b.Y, b.Y+b.H)
		dx, dy := center.X-cx, center.Y-cy
		if dx*dx+dy*dy < radius*radius {
			return true
		}
	}
	return false
}

// LineOfSight reports whether nothing solid lies between a and b.
func LineOfSight(q Querier, a, b r2.Vec) bool {
	d := r2.Sub(b, a)
	dist := r2.Norm(d)
	if dist == 0 {
		return true
	}
	_, hit := q.ProbeLine(a, d, dist)
	return !hit
}

// rayBox intersects a unit-direction ray with a block using the slab method.
func rayBox(o, d r2.Vec, b *Block, maxT float64) (float64, r2.Vec, bool) {
	tx0, tx1, ok := slab(o.X, d.X, b.X, b.X+b.W)
	if !ok {
		return 0, r2.Vec{}, false
	}
	ty0, ty1, ok := slab(o.Y, d.Y, b.Y, b.Y+b.H)
	if !ok {
		return 0, r2.Vec{}, false
	}

	enter := math.Max(tx0, ty0)
	exit := math.Min(tx1, ty1)
	if enter > exit || exit < 0 || enter > maxT {
		return 0, r2.Vec{}, false
	}

	var normal r2.Vec
	if tx0 > ty0 {
		normal.X = -math.Copysign(1, d.X)
	} else {
		normal.Y = -math.Copysign(1, d.Y)
	}
	if enter < 0 {
		// Origin inside the block
		return 0, normal, true
	}
	return enter, normal, true
}

func slab(o, d, lo, hi float64) (float64, float64, bool) {
	if math.Abs(d) < 1e-12 {
		if o < lo || o > hi {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}
	t0 := (lo - o) / d
	t1 := (hi - o) / d
	if t0 > t1 {
		t0, t1 = t1, t0
	}
	return t0, t1, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
