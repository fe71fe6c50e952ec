package route

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

type edgeKey struct{ a, b int64 }

func keyOf(a, b int64) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Network is the endpoint graph of a corridor. It owns its segments and
// therefore every station and charger; each simulation works on its own
// clone. A Network is not safe for concurrent use.
type Network struct {
	segments  []*Segment
	segIndex  map[string]int
	endpoints []Endpoint
	nodes     map[Endpoint]int64
	edges     map[edgeKey]*Segment
	g         *simple.WeightedUndirectedGraph

	trees  map[int64]path.Shortest
	routes map[[2]Endpoint]*Route
}

// NewNetwork builds the endpoint graph. Segments joining the same pair of
// endpoints are rejected.
func NewNetwork(segments []*Segment) (*Network, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("network: no segments")
	}
	n := &Network{
		segIndex: make(map[string]int, len(segments)),
		nodes:    make(map[Endpoint]int64),
		edges:    make(map[edgeKey]*Segment, len(segments)),
		g:        simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		trees:    make(map[int64]path.Shortest),
		routes:   make(map[[2]Endpoint]*Route),
	}
	for i, seg := range segments {
		if _, dup := n.segIndex[seg.ID]; dup {
			return nil, fmt.Errorf("network: duplicate segment %s", seg.ID)
		}
		a, b := n.node(seg.Start), n.node(seg.End)
		k := keyOf(a, b)
		if other, dup := n.edges[k]; dup {
			return nil, fmt.Errorf("network: segments %s and %s join the same endpoints", other.ID, seg.ID)
		}
		n.segIndex[seg.ID] = i
		n.edges[k] = seg
		n.segments = append(n.segments, seg)
		n.g.SetWeightedEdge(n.g.NewWeightedEdge(simple.Node(a), simple.Node(b), seg.LengthKm))
	}
	return n, nil
}

func (n *Network) node(e Endpoint) int64 {
	if id, ok := n.nodes[e]; ok {
		return id
	}
	id := int64(len(n.endpoints))
	n.nodes[e] = id
	n.endpoints = append(n.endpoints, e)
	return id
}

// Segments returns the segments in declaration order.
func (n *Network) Segments() []*Segment { return n.segments }

// SegmentIndex returns the position of the segment or -1.
func (n *Network) SegmentIndex(id string) int {
	if i, ok := n.segIndex[id]; ok {
		return i
	}
	return -1
}

// Endpoints returns the endpoints in order of first appearance.
func (n *Network) Endpoints() []Endpoint { return n.endpoints }

func (n *Network) tree(from int64) path.Shortest {
	if t, ok := n.trees[from]; ok {
		return t
	}
	t := path.DijkstraFrom(simple.Node(from), n.g)
	n.trees[from] = t
	return t
}

func (n *Network) pathSegments(from, to Endpoint) ([]*Segment, error) {
	a, ok := n.nodes[from]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, from)
	}
	b, ok := n.nodes[to]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, to)
	}
	if a == b {
		return nil, fmt.Errorf("no route from %s to itself", from)
	}
	nodes, _ := n.tree(a).To(b)
	if len(nodes) < 2 {
		return nil, fmt.Errorf("no route from %s to %s", from, to)
	}
	segs := make([]*Segment, 0, len(nodes)-1)
	for i := 1; i < len(nodes); i++ {
		segs = append(segs, n.edges[keyOf(nodes[i-1].ID(), nodes[i].ID())])
	}
	return segs, nil
}

// ShortestRoute returns the shortest route between two endpoints. Routes are
// cached, so every car driving the same pair shares one Route and therefore
// the same stations.
func (n *Network) ShortestRoute(from, to Endpoint) (*Route, error) {
	k := [2]Endpoint{from, to}
	if r, ok := n.routes[k]; ok {
		return r, nil
	}
	segs, err := n.pathSegments(from, to)
	if err != nil {
		return nil, err
	}
	r, err := Concat(from, segs...)
	if err != nil {
		return nil, err
	}
	n.routes[k] = r
	return r, nil
}

// RandomRoute draws a route biased by traffic volume. The start endpoint is
// weighted by the traffic of its adjacent segments and the end endpoint by
// the product of the traffic shares along the shortest path. Direction is
// then flipped with probability one half.
func (n *Network) RandomRoute(rng *rand.Rand) (*Route, error) {
	share := n.trafficShares()
	startWeights := make([]float64, len(n.endpoints))
	for _, seg := range n.segments {
		startWeights[n.nodes[seg.Start]] += share[seg.ID]
		startWeights[n.nodes[seg.End]] += share[seg.ID]
	}
	start := pickWeighted(rng, startWeights)

	endWeights := make([]float64, len(n.endpoints))
	var reachable []int
	sum := 0.0
	for i, e := range n.endpoints {
		if i == start {
			continue
		}
		segs, err := n.pathSegments(n.endpoints[start], e)
		if err != nil {
			continue
		}
		reachable = append(reachable, i)
		w := 1.0
		for _, s := range segs {
			w *= share[s.ID]
		}
		endWeights[i] = w
		sum += w
	}
	if len(reachable) == 0 {
		return nil, fmt.Errorf("network: no reachable endpoint from %s", n.endpoints[start])
	}
	if sum == 0 {
		for _, i := range reachable {
			endWeights[i] = 1
		}
	}
	end := pickWeighted(rng, endWeights)
	from, to := n.endpoints[start], n.endpoints[end]
	if rng.Float64() > 0.5 {
		from, to = to, from
	}
	return n.ShortestRoute(from, to)
}

func (n *Network) trafficShares() map[string]float64 {
	total := 0.0
	for _, s := range n.segments {
		total += s.TrafficWeight
	}
	out := make(map[string]float64, len(n.segments))
	for _, s := range n.segments {
		if total > 0 {
			out[s.ID] = s.TrafficWeight / total
		} else {
			out[s.ID] = 1 / float64(len(n.segments))
		}
	}
	return out
}

// pickWeighted returns an index drawn proportionally to weights, or a
// uniform index when every weight is zero.
func pickWeighted(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	r := rng.Float64() * total
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		r -= w
		if r <= 0 {
			return i
		}
	}
	return last
}

// Clone deep-copies the network including every station.
func (n *Network) Clone() *Network {
	segs := make([]*Segment, len(n.segments))
	for i, s := range n.segments {
		segs[i] = s.Clone()
	}
	out, err := NewNetwork(segs)
	if err != nil {
		// segments were validated when n was built
		panic(err)
	}
	return out
}

// ChargersInUse returns occupied chargers per segment.
func (n *Network) ChargersInUse() []int {
	out := make([]int, len(n.segments))
	for i, s := range n.segments {
		out[i] = s.ChargersInUse()
	}
	return out
}

// Waiting returns queued cars per segment.
func (n *Network) Waiting() []int {
	out := make([]int, len(n.segments))
	for i, s := range n.segments {
		out[i] = s.Waiting()
	}
	return out
}
