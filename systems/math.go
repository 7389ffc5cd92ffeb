package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// distanceSq returns the squared distance between two points.
func distanceSq(a, b r2.Vec) float64 {
	d := r2.Sub(a, b)
	return r2.Dot(d, d)
}

// clampFloat clamps v between minVal and maxVal.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// overlaps reports whether two half-open boxes intersect.
func overlaps(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax < bx+bw && bx < ax+aw && ay < by+bh && by < ay+ah
}

// decay returns the fraction of a quantity retained after dt seconds
// when retainPerSec remains after one second.
func decay(retainPerSec, dt float64) float64 {
	if retainPerSec <= 0 {
		return 0
	}
	return math.Pow(retainPerSec, dt)
}
