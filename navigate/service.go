package navigate

import (
	"time"

	"indoornav/geometry"
	"indoornav/snap"
	"indoornav/storemap"
)

// RerouteConfig tunes off-route detection and reroute throttling.
type RerouteConfig struct {
	OffRouteMeters float64
	PersistMs      int
}

const recalcThrottle = 1500 * time.Millisecond

// historyCapacity bounds the ring of recently computed routes, per
// the positioning service's equivalent bounded-path-buffer idea
// (fusion.FusionPipeline keeps no such history, but the teacher's
// replay tooling in binlog/ keeps a small ring of recent frames for
// debugging -- the same shape here, sized for a handful of reroutes).
const historyCapacity = 5

// Route is a computed path plus its derived maneuvers.
type Route struct {
	DestinationID string
	Path          *storemap.PathResult
	Maneuvers     []Maneuver
	ComputedAt    time.Time
}

// State is the observable snapshot a UI layer polls or is pushed.
type State struct {
	Route           *Route
	OffRoute        bool
	NextManeuver    *Maneuver
	DistanceToNext  float64
	NextInstruction string
}

// Service tracks an active route: recalculation on destination/map
// change, progress tracking on every pose update, and reroute
// scheduling on sustained deviation.
type Service struct {
	enabled       bool
	sm            *storemap.StoreMap
	destinationID string
	reroute       RerouteConfig

	route *Route
	history []Route

	offRoute         bool
	offRouteSince    time.Time
	hasOffRouteSince bool
	lastRecalc       time.Time
	hasLastRecalc    bool
}

// New constructs an idle navigation service.
func New() *Service {
	return &Service{reroute: RerouteConfig{OffRouteMeters: 5, PersistMs: 3000}}
}

// SetMap installs the graph and, if a destination is already set,
// recalculates.
func (s *Service) SetMap(sm *storemap.StoreMap, current geometry.Point2, now time.Time) {
	s.sm = sm
	if s.enabled && s.destinationID != "" {
		s.recalc(current, now)
	}
}

// SetReroute updates the off-route/persist thresholds.
func (s *Service) SetReroute(cfg RerouteConfig) { s.reroute = cfg }

// SetEnabled toggles navigation; enabling with a destination already
// selected triggers an immediate recalc.
func (s *Service) SetEnabled(enabled bool, current geometry.Point2, now time.Time) {
	s.enabled = enabled
	if enabled && s.destinationID != "" {
		s.recalc(current, now)
	}
	if !enabled {
		s.route = nil
		s.offRoute = false
	}
}

// SetDestination selects a destination node id and recalculates if
// navigation is enabled.
func (s *Service) SetDestination(nodeID string, current geometry.Point2, now time.Time) {
	s.destinationID = nodeID
	if s.enabled {
		s.recalc(current, now)
	}
}

// recalc runs routing from current to the destination, builds
// maneuvers, stores the result as the current route, and appends it
// to history.
func (s *Service) recalc(current geometry.Point2, now time.Time) {
	s.lastRecalc = now
	s.hasLastRecalc = true
	s.offRoute = false
	s.hasOffRouteSince = false

	if s.sm == nil || s.destinationID == "" {
		s.route = nil
		return
	}

	snapRes := snap.ToGraph(s.sm, current, nil, snap.DefaultOptions())
	var source storemap.SnapSource
	source.Point = [2]float64{current.X, current.Y}
	if snapRes.Edge != nil {
		source.Edge = &[2]string{snapRes.Edge.From, snapRes.Edge.To}
	}

	pathResult, err := s.sm.ShortestPathFromPoint(source, s.destinationID)
	if err != nil || pathResult == nil {
		s.route = nil
		return
	}

	polyline := make([]geometry.Point2, len(pathResult.Points))
	for i, pt := range pathResult.Points {
		polyline[i] = geometry.Point2{X: pt[0], Y: pt[1]}
	}

	route := Route{
		DestinationID: s.destinationID,
		Path:          pathResult,
		Maneuvers:     BuildManeuvers(polyline),
		ComputedAt:    now,
	}
	s.route = &route
	s.pushHistory(route)
}

func (s *Service) pushHistory(r Route) {
	s.history = append(s.history, r)
	if len(s.history) > historyCapacity {
		s.history = s.history[len(s.history)-historyCapacity:]
	}
}

// CurrentRoute returns the active route, or nil if none is set.
func (s *Service) CurrentRoute() *Route { return s.route }

// History returns a copy of the last up-to-5 computed routes, most
// recent last.
func (s *Service) History() []Route {
	out := make([]Route, len(s.history))
	copy(out, s.history)
	return out
}

// UpdatePosition runs progress tracking for the current pose and
// evaluates off-route/reroute scheduling; returns the observable state.
func (s *Service) UpdatePosition(current geometry.Point2, now time.Time) State {
	if s.route == nil {
		return State{OffRoute: false, NextInstruction: FormatNextInstruction(nil, 0)}
	}

	polyline := make([]geometry.Point2, len(s.route.Path.Points))
	for i, pt := range s.route.Path.Points {
		polyline[i] = geometry.Point2{X: pt[0], Y: pt[1]}
	}
	progress := ComputeProgress(polyline, current)

	next, distToNext := NextManeuver(s.route.Maneuvers, progress.AlongMeters)

	if progress.DistanceMeters > s.reroute.OffRouteMeters {
		if !s.hasOffRouteSince {
			s.offRouteSince = now
			s.hasOffRouteSince = true
		}
		s.offRoute = true
		age := now.Sub(s.offRouteSince)
		throttleOK := !s.hasLastRecalc || now.Sub(s.lastRecalc) >= recalcThrottle
		if age >= time.Duration(s.reroute.PersistMs)*time.Millisecond && throttleOK {
			s.recalc(current, now)
			return s.UpdatePosition(current, now)
		}
	} else {
		s.offRoute = false
		s.hasOffRouteSince = false
	}

	return State{
		Route:           s.route,
		OffRoute:        s.offRoute,
		NextManeuver:    next,
		DistanceToNext:  distToNext,
		NextInstruction: FormatNextInstruction(next, distToNext),
	}
}
