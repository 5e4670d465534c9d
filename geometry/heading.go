package geometry

import "math"

// WrapHeading wraps deg into [0, 360).
func WrapHeading(deg float64) float64 {
	w := math.Mod(deg, 360)
	if w < 0 {
		w += 360
	}
	return w
}

// HeadingDiff returns a-b normalized to (-180, 180].
func HeadingDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// LowPassHeading blends next into prev at rate alpha in [0,1], taking
// the shortest angular path.
func LowPassHeading(prev, next, alpha float64) float64 {
	return WrapHeading(prev + HeadingDiff(next, prev)*alpha)
}

// Bearing returns the plan-frame bearing from a to b in [0,360), using
// the same convention as HeadingPoint: 0 points toward -y, 90 toward +x.
func Bearing(a, b Point2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	deg := math.Atan2(dx, -dy) * 180 / math.Pi
	return WrapHeading(deg)
}
