package navigate

import "indoornav/geometry"

// RouteProgress is the result of projecting a pose onto the active
// route's polyline.
type RouteProgress struct {
	AlongMeters  float64
	Closest      geometry.Point2
	DistanceMeters float64
	SegmentIndex int
	T            float64
}

// ComputeProgress projects p onto every segment of polyline and
// returns the closest one, with AlongMeters measured from the start
// of the route to the projected point.
func ComputeProgress(polyline []geometry.Point2, p geometry.Point2) RouteProgress {
	if len(polyline) < 2 {
		if len(polyline) == 1 {
			return RouteProgress{Closest: polyline[0], DistanceMeters: geometry.Distance(polyline[0], p)}
		}
		return RouteProgress{}
	}

	cumulative := make([]float64, len(polyline))
	for i := 1; i < len(polyline); i++ {
		cumulative[i] = cumulative[i-1] + geometry.Distance(polyline[i-1], polyline[i])
	}

	best := RouteProgress{DistanceMeters: -1}
	for i := 0; i < len(polyline)-1; i++ {
		proj := geometry.ProjectPointToSegment(p, polyline[i], polyline[i+1])
		if best.DistanceMeters < 0 || proj.D < best.DistanceMeters {
			segLen := geometry.Distance(polyline[i], polyline[i+1])
			best = RouteProgress{
				AlongMeters:    cumulative[i] + proj.T*segLen,
				Closest:        proj.Q,
				DistanceMeters: proj.D,
				SegmentIndex:   i,
				T:              proj.T,
			}
		}
	}
	return best
}

// NextManeuver returns the first maneuver whose DistanceFromStartMeters
// exceeds along+0.5, along with the distance remaining to it, or nil
// if none remains.
func NextManeuver(maneuvers []Maneuver, along float64) (*Maneuver, float64) {
	for i := range maneuvers {
		if maneuvers[i].DistanceFromStartMeters > along+0.5 {
			m := maneuvers[i]
			return &m, m.DistanceFromStartMeters - along
		}
	}
	return nil, 0
}
