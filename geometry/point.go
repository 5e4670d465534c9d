// Package geometry implements the 2D primitives the positioning and
// routing layers build on: points in the plan frame, heading
// arithmetic, and point-to-segment projection.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point2 is a position in meters, plan-frame (origin top-left, +x
// right, +y down).
type Point2 struct {
	X, Y float64
}

func (p Point2) orb() orb.Point { return orb.Point{p.X, p.Y} }

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point2) float64 {
	return planar.Distance(a.orb(), b.orb())
}

// Sub returns a - b.
func Sub(a, b Point2) Point2 {
	return Point2{a.X - b.X, a.Y - b.Y}
}

// Add returns a + b.
func Add(a, b Point2) Point2 {
	return Point2{a.X + b.X, a.Y + b.Y}
}

// Scale returns p scaled by s.
func Scale(p Point2, s float64) Point2 {
	return Point2{p.X * s, p.Y * s}
}

// HeadingPoint returns the displacement of length meters in the
// direction of headingDeg, where 0 degrees points toward -y ("up" on
// the plan) and +90 degrees points toward +x.
func HeadingPoint(headingDeg, meters float64) Point2 {
	rad := headingDeg * math.Pi / 180
	return Point2{X: math.Sin(rad) * meters, Y: -math.Cos(rad) * meters}
}
