// Package snap projects a free 2D position onto the nearest walkable
// edge of a storemap.StoreMap, with corridor stickiness between
// consecutive calls and an optional hard clamp for relocalization.
// It is grounded on fusion/dim_constrain.go's wall-distance scoring,
// generalized from a single nearest-wall lookup into a full
// graph-edge candidate scan with a previous-edge bias.
package snap

import (
	"math"

	"indoornav/geometry"
	"indoornav/storemap"
)

// Options configures a snap call. Zero value is not usable directly;
// use DefaultOptions as a base.
type Options struct {
	MaxSnapMeters       float64
	SwitchPenaltyMeters float64
	HardClamp           bool
}

// DefaultOptions matches the spec's stated defaults.
func DefaultOptions() Options {
	return Options{MaxSnapMeters: 1.75, SwitchPenaltyMeters: 0.35, HardClamp: false}
}

// EdgeRef identifies a chosen edge by endpoint ids.
type EdgeRef struct {
	From, To string
}

// Equal reports whether two edge refs name the same edge in either
// orientation.
func (e EdgeRef) Equal(o EdgeRef) bool {
	return (e.From == o.From && e.To == o.To) || (e.From == o.To && e.To == o.From)
}

// sharesEndpoint reports whether e and o touch a common node.
func (e EdgeRef) sharesEndpoint(o EdgeRef) bool {
	return e.From == o.From || e.From == o.To || e.To == o.From || e.To == o.To
}

// Result is the outcome of a snap call.
type Result struct {
	Snapped  geometry.Point2
	Distance float64
	Edge     *EdgeRef
	T        float64
}

const endpointSharePenalty = 0.08

// candidate is an internal scoring record for one edge.
type candidate struct {
	edge     EdgeRef
	proj     geometry.Projection
	score    float64
	distance float64
}

// ToGraph snaps p onto the nearest usable edge of sm, applying
// corridor stickiness relative to previousEdge and, when opts.HardClamp
// is set, restricting relocalization to edges connected to the
// previous one unless the point has clearly moved across a wall.
func ToGraph(sm *storemap.StoreMap, p geometry.Point2, previousEdge *EdgeRef, opts Options) Result {
	var all []candidate
	var connected []candidate

	for _, e := range sm.Edges {
		if !usable(e) {
			continue
		}
		from, ok1 := sm.Node(e.From)
		to, ok2 := sm.Node(e.To)
		if !ok1 || !ok2 {
			continue
		}
		ref := EdgeRef{From: e.From, To: e.To}
		proj := geometry.ProjectPointToSegment(p, geometry.Point2{X: from.X, Y: from.Y}, geometry.Point2{X: to.X, Y: to.Y})

		penalty := opts.SwitchPenaltyMeters
		if previousEdge != nil {
			if ref.Equal(*previousEdge) {
				penalty = 0
			} else if ref.sharesEndpoint(*previousEdge) {
				penalty = endpointSharePenalty
			}
		} else {
			penalty = 0
		}

		c := candidate{edge: ref, proj: proj, score: proj.D + penalty, distance: proj.D}
		all = append(all, c)
		if previousEdge != nil && ref.sharesEndpoint(*previousEdge) {
			connected = append(connected, c)
		}
	}

	if len(all) == 0 {
		return Result{Snapped: p, Distance: math.Inf(1), Edge: nil, T: 0}
	}

	globalBest := bestOf(all)

	if opts.HardClamp && previousEdge != nil && len(connected) > 0 {
		connBest := bestOf(connected)
		relocalize := connBest.distance > 2.25*opts.MaxSnapMeters && globalBest.distance+0.2 < connBest.distance
		chosen := connBest
		if relocalize {
			chosen = globalBest
		}
		return Result{Snapped: chosen.proj.Q, Distance: chosen.distance, Edge: &EdgeRef{From: chosen.edge.From, To: chosen.edge.To}, T: chosen.proj.T}
	}

	if opts.HardClamp {
		return Result{Snapped: globalBest.proj.Q, Distance: globalBest.distance, Edge: &EdgeRef{From: globalBest.edge.From, To: globalBest.edge.To}, T: globalBest.proj.T}
	}

	if globalBest.distance > opts.MaxSnapMeters {
		return Result{Snapped: p, Distance: globalBest.distance, Edge: &EdgeRef{From: globalBest.edge.From, To: globalBest.edge.To}, T: globalBest.proj.T}
	}

	return Result{Snapped: globalBest.proj.Q, Distance: globalBest.distance, Edge: &EdgeRef{From: globalBest.edge.From, To: globalBest.edge.To}, T: globalBest.proj.T}
}

// bestOf returns the candidate with the lowest score, breaking ties
// by the earliest entry in cs.
func bestOf(cs []candidate) candidate {
	best := cs[0]
	for _, c := range cs[1:] {
		if c.score < best.score {
			best = c
		}
	}
	return best
}

// usable reports whether an edge is eligible as a snap candidate: it
// must have a positive length or be bidirectional (one-way edges are
// still walkable, just in one direction -- snapping does not care
// about direction, only routing does).
func usable(e storemap.Edge) bool {
	return e.Distance > 0 || e.Bidirectional
}

// NearestNodeID returns the id of the closest node to p among those
// matching types (or all nodes if types is empty).
func NearestNodeID(sm *storemap.StoreMap, p geometry.Point2, types ...storemap.NodeType) (string, bool) {
	return sm.NearestNode([2]float64{p.X, p.Y}, types...)
}
