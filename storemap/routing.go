package storemap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// PathResult is a computed route: node ids visited (excluding the
// virtual start), the full polyline including the free start point,
// and its total length.
type PathResult struct {
	NodeIDs      []string
	Points       [][2]float64
	LengthMeters float64
}

// SnapSource is the subset of a snap-to-graph result routing needs to
// anchor the virtual start node: either the chosen edge's endpoints,
// or none (free point, connect to nearest node instead).
type SnapSource struct {
	Point [2]float64
	Edge  *[2]string // (from, to) of the snapped edge, or nil
}

// ShortestPathFromPoint builds a virtual start node wired into the
// graph at start, runs Dijkstra to endNodeID, and reconstructs the
// polyline. Each call builds a fresh working graph from sm.Edges and
// adds the virtual start node and its edges to it; the graph built at
// Load time is not reused.
func (sm *StoreMap) ShortestPathFromPoint(start SnapSource, endNodeID string) (*PathResult, error) {
	if _, ok := sm.nodesByID[endNodeID]; !ok {
		return nil, fmt.Errorf("storemap: unknown destination node %q", endNodeID)
	}

	virtualID := int64(len(sm.nodeOrder)) // one past every real node index
	g := simple.NewWeightedDirectedGraph(0, math.Inf(1))

	// Copy every real node and edge into the working graph.
	for id, idx := range sm.nodeIndex {
		_ = id
		g.AddNode(simpleNode(idx))
	}
	for _, e := range sm.Edges {
		fi := sm.nodeIndex[e.From]
		ti := sm.nodeIndex[e.To]
		g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(fi), T: simpleNode(ti), W: e.Distance})
		if e.Bidirectional {
			g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(ti), T: simpleNode(fi), W: e.Distance})
		}
	}

	g.AddNode(simpleNode(virtualID))

	if start.Edge != nil {
		a, b := start.Edge[0], start.Edge[1]
		if an, ok := sm.nodesByID[a]; ok {
			d := euclid(start.Point[0], start.Point[1], an.X, an.Y)
			ai := sm.nodeIndex[a]
			g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(virtualID), T: simpleNode(ai), W: d})
			g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(ai), T: simpleNode(virtualID), W: d})
		}
		if bn, ok := sm.nodesByID[b]; ok {
			d := euclid(start.Point[0], start.Point[1], bn.X, bn.Y)
			bi := sm.nodeIndex[b]
			g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(virtualID), T: simpleNode(bi), W: d})
			g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(bi), T: simpleNode(virtualID), W: d})
		}
	} else {
		nearestID, nearestDist := "", math.Inf(1)
		for _, id := range sm.nodeOrder {
			n := sm.nodesByID[id]
			d := euclid(start.Point[0], start.Point[1], n.X, n.Y)
			if d < nearestDist {
				nearestDist = d
				nearestID = id
			}
		}
		if nearestID != "" {
			ni := sm.nodeIndex[nearestID]
			g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(virtualID), T: simpleNode(ni), W: nearestDist})
			g.SetWeightedEdge(simple.WeightedEdge{F: simpleNode(ni), T: simpleNode(virtualID), W: nearestDist})
		}
	}

	shortest := path.DijkstraFrom(simpleNode(virtualID), g)
	endIdx := sm.nodeIndex[endNodeID]
	nodes, weight := shortest.To(endIdx)
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, nil // unreachable
	}

	result := &PathResult{
		Points: [][2]float64{{start.Point[0], start.Point[1]}},
	}
	for _, n := range nodes {
		idx := n.ID()
		if idx == virtualID {
			continue
		}
		id := sm.indexNode[idx]
		result.NodeIDs = append(result.NodeIDs, id)
		nd := sm.nodesByID[id]
		result.Points = append(result.Points, [2]float64{nd.X, nd.Y})
	}

	var length float64
	for i := 1; i < len(result.Points); i++ {
		length += euclid(result.Points[i-1][0], result.Points[i-1][1], result.Points[i][0], result.Points[i][1])
	}
	result.LengthMeters = length

	return result, nil
}

// NearestNode returns the id of the closest node to p among those
// matching types (or all nodes if types is empty), by Euclidean
// distance.
func (sm *StoreMap) NearestNode(p [2]float64, types ...NodeType) (string, bool) {
	candidates := sm.NodesByType(types...)
	best, bestDist := "", math.Inf(1)
	for _, n := range candidates {
		d := euclid(p[0], p[1], n.X, n.Y)
		if d < bestDist {
			bestDist = d
			best = n.ID
		}
	}
	return best, best != ""
}
