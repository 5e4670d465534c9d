package storemap

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/simple"
)

// rawNode/rawEdge/rawAnchor mirror the wire JSON shape one-for-one so
// that unmarshalling can apply defaults (bidirectional=true,
// confidence absent) before converting into the typed model.
type rawNode struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Floor     int     `json:"floor"`
	Type      string  `json:"type"`
	SectionID string  `json:"sectionId,omitempty"`
}

type rawEdge struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	Distance      *float64 `json:"distance,omitempty"`
	Bidirectional *bool    `json:"bidirectional,omitempty"`
}

type rawAnchor struct {
	BSSID      string   `json:"bssid"`
	Label      string   `json:"label"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Floor      int      `json:"floor"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type rawStoreMap struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	GridSize float64     `json:"gridSize"`
	Nodes    []rawNode   `json:"nodes"`
	Edges    []rawEdge   `json:"edges"`
	Anchors  []rawAnchor `json:"anchors"`
}

// StoreMap is the read-only graph asset shared across positioning,
// snap-to-graph, routing, and Wi-Fi fix. Once loaded it is never
// mutated -- every consumer treats it as a shared-read value.
type StoreMap struct {
	ID       string
	Label    string
	GridSize float64

	nodesByID map[string]Node
	nodeOrder []string // discovery order, used for deterministic routing tie-breaks

	Edges   []Edge
	Anchors []Anchor

	graph     *simple.WeightedDirectedGraph
	nodeIndex map[string]int64
	indexNode map[int64]string
}

// Load parses a graph asset per the documented JSON shape, silently
// dropping edges that reference unknown node ids, and builds a
// weighted directed adjacency graph. ShortestPathFromPoint does not
// use that graph; it builds its own working copy on every call.
func Load(data []byte) (*StoreMap, error) {
	var raw rawStoreMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("storemap: decode: %w", err)
	}
	if raw.GridSize <= 0 {
		return nil, fmt.Errorf("storemap: gridSize must be positive, got %v", raw.GridSize)
	}

	sm := &StoreMap{
		ID:        raw.ID,
		Label:     raw.Label,
		GridSize:  raw.GridSize,
		nodesByID: make(map[string]Node, len(raw.Nodes)),
		nodeIndex: make(map[string]int64, len(raw.Nodes)),
		indexNode: make(map[int64]string, len(raw.Nodes)),
	}

	sm.graph = simple.NewWeightedDirectedGraph(0, math.Inf(1))

	for i, rn := range raw.Nodes {
		if _, dup := sm.nodesByID[rn.ID]; dup {
			return nil, fmt.Errorf("storemap: duplicate node id %q", rn.ID)
		}
		n := Node{
			ID:        rn.ID,
			Label:     rn.Label,
			X:         rn.X,
			Y:         rn.Y,
			Floor:     rn.Floor,
			Type:      NodeType(rn.Type),
			SectionID: rn.SectionID,
		}
		sm.nodesByID[rn.ID] = n
		sm.nodeOrder = append(sm.nodeOrder, rn.ID)

		idx := int64(i)
		sm.nodeIndex[rn.ID] = idx
		sm.indexNode[idx] = rn.ID
		sm.graph.AddNode(simpleNode(idx))
	}

	for _, re := range raw.Edges {
		from, ok1 := sm.nodesByID[re.From]
		to, ok2 := sm.nodesByID[re.To]
		if !ok1 || !ok2 {
			continue // edges referring to unknown nodes are silently ignored
		}

		bidir := true
		if re.Bidirectional != nil {
			bidir = *re.Bidirectional
		}

		dist := euclid(from.X, from.Y, to.X, to.Y)
		if re.Distance != nil {
			dist = *re.Distance
		}

		sm.Edges = append(sm.Edges, Edge{From: re.From, To: re.To, Distance: dist, Bidirectional: bidir})
		sm.addWeightedEdge(re.From, re.To, dist)
		if bidir {
			sm.addWeightedEdge(re.To, re.From, dist)
		}
	}

	for _, ra := range raw.Anchors {
		a := Anchor{
			BSSID:  NormalizeBSSID(ra.BSSID),
			Label:  ra.Label,
			X:      ra.X,
			Y:      ra.Y,
			Floor:  ra.Floor,
			Source: AnchorSource(ra.Source),
		}
		if ra.Confidence != nil {
			a.Confidence = *ra.Confidence
			a.HasConf = true
		}
		sm.Anchors = append(sm.Anchors, a)
	}

	return sm, nil
}

func (sm *StoreMap) addWeightedEdge(fromID, toID string, dist float64) {
	f := simpleNode(sm.nodeIndex[fromID])
	t := simpleNode(sm.nodeIndex[toID])
	sm.graph.SetWeightedEdge(simple.WeightedEdge{F: f, T: t, W: dist})
}

func euclid(ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	return math.Hypot(dx, dy)
}

// simpleNode adapts an int64 id into a gonum graph.Node.
type simpleNode int64

func (n simpleNode) ID() int64 { return int64(n) }

// Node returns the node with id, and whether it exists.
func (sm *StoreMap) Node(id string) (Node, bool) {
	n, ok := sm.nodesByID[id]
	return n, ok
}

// Nodes returns all nodes in discovery order.
func (sm *StoreMap) Nodes() []Node {
	out := make([]Node, 0, len(sm.nodeOrder))
	for _, id := range sm.nodeOrder {
		out = append(out, sm.nodesByID[id])
	}
	return out
}

// NodesByType returns nodes whose Type is in types, or all nodes if
// types is empty.
func (sm *StoreMap) NodesByType(types ...NodeType) []Node {
	if len(types) == 0 {
		return sm.Nodes()
	}
	allowed := make(map[NodeType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}
	var out []Node
	for _, id := range sm.nodeOrder {
		n := sm.nodesByID[id]
		if allowed[n.Type] {
			out = append(out, n)
		}
	}
	return out
}
