package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// 64x32 arena at 26 px/unit (1664x832) is larger than a 1280x720 viewport.
func newTestCamera() *Camera {
	return New(1280, 720, 64, 32, 26)
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestNew(t *testing.T) {
	cam := newTestCamera()

	if cam.Center != (r2.Vec{X: 32, Y: 16}) {
		t.Errorf("expected camera at (32, 16), got %v", cam.Center)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
	if cam.MinZoom >= 1 {
		t.Errorf("expected min zoom below 1 for a large arena, got %f", cam.MinZoom)
	}
	if !near(cam.MinZoom, 1280.0/1664) {
		t.Errorf("expected min zoom to fit the arena width, got %f", cam.MinZoom)
	}
}

func TestWorldToScreenYUp(t *testing.T) {
	cam := newTestCamera()

	sx, sy := cam.WorldToScreen(cam.Center)
	if !near(float64(sx), 640) || !near(float64(sy), 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}

	// One unit up is 26 pixels toward the top of the screen
	_, above := cam.WorldToScreen(r2.Vec{X: 32, Y: 17})
	if !near(float64(above), 334) {
		t.Errorf("expected y=334 one unit above center, got %f", above)
	}

	right, _ := cam.WorldToScreen(r2.Vec{X: 33, Y: 16})
	if !near(float64(right), 666) {
		t.Errorf("expected x=666 one unit right of center, got %f", right)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := newTestCamera()
	cam.SetZoom(1.5)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	}

	for _, tc := range testCases {
		p := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(p)
		if !near(float64(sx), float64(tc.sx)) || !near(float64(sy), float64(tc.sy)) {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, p, sx, sy)
		}
	}
}

func TestPanClampsToArena(t *testing.T) {
	cam := newTestCamera()

	cam.Pan(-1e6, 0)
	minX, _, _, _ := cam.VisibleWorldBounds()
	if !near(minX, 0) {
		t.Errorf("expected left edge clamped to 0, got %f", minX)
	}

	// Dragging down the screen moves the view up the world
	cam.Reset()
	cam.Pan(0, -26)
	if !near(cam.Center.Y, 17) {
		t.Errorf("expected center y 17, got %f", cam.Center.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := newTestCamera()

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}

	cam.SetZoom(0.01)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}

	// Fully zoomed out the whole arena fits
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if maxX-minX < 64-0.01 || maxY-minY < 32-0.01 {
		t.Errorf("expected whole arena visible, got width %f", maxX-minX)
	}
}

func TestFollow(t *testing.T) {
	cam := newTestCamera()
	cam.SetZoom(2)

	cam.Follow(r2.Vec{X: 38, Y: 16}, 0.5)
	if !near(cam.Center.X, 35) {
		t.Errorf("expected halfway to the target, got %f", cam.Center.X)
	}

	cam.Follow(r2.Vec{X: 38, Y: 16}, 5)
	if !near(cam.Center.X, 38) {
		t.Errorf("expected rate clamped to 1, got %f", cam.Center.X)
	}
}

func TestIsVisible(t *testing.T) {
	cam := newTestCamera()
	cam.SetZoom(2)

	tests := []struct {
		name   string
		p      r2.Vec
		radius float64
		want   bool
	}{
		{"center", cam.Center, 0, true},
		{"far left", r2.Vec{X: 0, Y: 16}, 0.5, false},
		{"edge with radius", r2.Vec{X: 32 + 640/52.0 + 0.4, Y: 16}, 0.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cam.IsVisible(tt.p, tt.radius); got != tt.want {
				t.Errorf("IsVisible(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestResize(t *testing.T) {
	cam := newTestCamera()
	oldMin := cam.MinZoom

	cam.Resize(2560, 1440)
	if cam.MinZoom <= oldMin {
		t.Errorf("expected larger viewport to raise min zoom, got %f <= %f", cam.MinZoom, oldMin)
	}
	if cam.Zoom < cam.MinZoom {
		t.Errorf("zoom %f below min %f after resize", cam.Zoom, cam.MinZoom)
	}
}

func TestSmallArenaKeepsUnitZoom(t *testing.T) {
	// 48x24 at 26 px/unit already fits a 1280x720 viewport
	cam := New(1280, 720, 48, 24, 26)
	if cam.MinZoom != 1 || cam.Zoom != 1 {
		t.Errorf("expected min zoom and zoom 1, got %f and %f", cam.MinZoom, cam.Zoom)
	}
	minX, _, maxX, _ := cam.VisibleWorldBounds()
	if maxX-minX < 48 {
		t.Errorf("expected whole arena visible, got width %f", maxX-minX)
	}
}
