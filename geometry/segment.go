package geometry

import "math"

// degenerateSegmentLenSq is the squared-length floor below which a
// segment is treated as a point (mirrors the dimension-constraint
// degeneracy guard the teacher engine applies to zero-length walls).
const degenerateSegmentLenSq = 1e-9

// Projection is the result of projecting a point onto a segment.
type Projection struct {
	T float64 // fraction along [a,b], clamped to [0,1]
	Q Point2  // the projected point
	D float64 // distance from p to q
}

// ProjectPointToSegment projects p onto segment a-b.
func ProjectPointToSegment(p, a, b Point2) Projection {
	abx := b.X - a.X
	aby := b.Y - a.Y
	lenSq := abx*abx + aby*aby

	var t float64
	if lenSq > degenerateSegmentLenSq {
		t = ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	q := Point2{X: a.X + t*abx, Y: a.Y + t*aby}
	d := math.Hypot(p.X-q.X, p.Y-q.Y)
	return Projection{T: t, Q: q, D: d}
}
