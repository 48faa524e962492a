// Package graph holds the in-memory weighted road network and its builder.
package graph

import (
	"log"

	"ride-routing-service/internal/domain"
)

type edgeKey struct {
	from, to domain.NodeRef
}

type node struct {
	point     domain.Point
	neighbors map[domain.NodeRef]float64 // travel time in seconds per outgoing edge
}

// Graph is a directed, time-weighted adjacency structure over road
// junctions. Each directed edge may carry the intermediate shape points
// of the underlying road segment so rendered routes follow the road
// geometry instead of straight chords.
//
// Graph is not safe for concurrent mutation; the owning engine builds a
// fresh instance per fetch and swaps it in under a write lock.
type Graph struct {
	nodes  map[domain.NodeRef]*node
	shapes map[edgeKey][]domain.Point
	arcs   int
}

func New() *Graph {
	return &Graph{
		nodes:  make(map[domain.NodeRef]*node),
		shapes: make(map[edgeKey][]domain.Point),
	}
}

// AddNode inserts a node. Re-adding an existing ref is a no-op and does
// not overwrite its point.
func (g *Graph) AddNode(ref domain.NodeRef, pt domain.Point) {
	if _, ok := g.nodes[ref]; ok {
		return
	}
	g.nodes[ref] = &node{point: pt, neighbors: make(map[domain.NodeRef]float64)}
}

// AddEdge sets the directed travel time from->to, overwriting any prior
// weight. If either endpoint is absent the edge is dropped with a warning.
// shape, when non-nil, is the full polyline from->to including both
// endpoints. Two-way roads call AddEdge twice, once per direction.
func (g *Graph) AddEdge(from, to domain.NodeRef, seconds float64, shape []domain.Point) {
	src, ok := g.nodes[from]
	if !ok {
		log.Printf("graph: dropping edge %s->%s: unknown source node", from, to)
		return
	}
	if _, ok := g.nodes[to]; !ok {
		log.Printf("graph: dropping edge %s->%s: unknown target node", from, to)
		return
	}

	if _, exists := src.neighbors[to]; !exists {
		g.arcs++
	}
	src.neighbors[to] = seconds

	if shape != nil {
		g.shapes[edgeKey{from, to}] = shape
	}
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) ArcCount() int { return g.arcs }

// Point returns the coordinates of ref.
func (g *Graph) Point(ref domain.NodeRef) (domain.Point, bool) {
	n, ok := g.nodes[ref]
	if !ok {
		return domain.Point{}, false
	}
	return n.point, true
}

// Neighbors returns the outgoing adjacency of ref keyed by target node,
// valued in seconds. Callers must treat the map as read-only.
func (g *Graph) Neighbors(ref domain.NodeRef) map[domain.NodeRef]float64 {
	n, ok := g.nodes[ref]
	if !ok {
		return nil
	}
	return n.neighbors
}

// Shape returns the stored polyline for the directed edge from->to
// (both endpoints included), or nil when no geometry was recorded.
func (g *Graph) Shape(from, to domain.NodeRef) []domain.Point {
	return g.shapes[edgeKey{from, to}]
}

// ForEachNode visits every node. Iteration order is map order and
// therefore unspecified.
func (g *Graph) ForEachNode(fn func(ref domain.NodeRef, pt domain.Point, outDegree int)) {
	for ref, n := range g.nodes {
		fn(ref, n.point, len(n.neighbors))
	}
}

// AvgOutDegree is arcs per node; a quality signal for sparse fetches.
func (g *Graph) AvgOutDegree() float64 {
	if len(g.nodes) == 0 {
		return 0
	}
	return float64(g.arcs) / float64(len(g.nodes))
}

// Prune removes every node outside the largest weakly-connected
// component, along with all edges and shapes referencing them. Isolated
// nodes never survive. It returns the number of nodes removed.
//
// Pathfinding over a pruned graph reports "no path" promptly instead of
// exhausting disconnected components.
func (g *Graph) Prune() int {
	if len(g.nodes) == 0 {
		return 0
	}

	// Undirected adjacency view for reachability.
	undirected := make(map[domain.NodeRef][]domain.NodeRef, len(g.nodes))
	for ref, n := range g.nodes {
		for to := range n.neighbors {
			undirected[ref] = append(undirected[ref], to)
			undirected[to] = append(undirected[to], ref)
		}
	}

	visited := make(map[domain.NodeRef]bool, len(g.nodes))
	var largest []domain.NodeRef

	for seed := range g.nodes {
		if visited[seed] {
			continue
		}

		component := []domain.NodeRef{seed}
		visited[seed] = true
		for i := 0; i < len(component); i++ {
			for _, next := range undirected[component[i]] {
				if !visited[next] {
					visited[next] = true
					component = append(component, next)
				}
			}
		}

		// A lone node with no edges is never a usable component.
		if len(component) == 1 && len(g.nodes[seed].neighbors) == 0 {
			continue
		}

		if len(component) > len(largest) {
			largest = component
		}
	}

	keep := make(map[domain.NodeRef]bool, len(largest))
	for _, ref := range largest {
		keep[ref] = true
	}

	removed := 0
	for ref, n := range g.nodes {
		if !keep[ref] {
			g.arcs -= len(n.neighbors)
			delete(g.nodes, ref)
			removed++
		}
	}

	for key := range g.shapes {
		if !keep[key.from] || !keep[key.to] {
			delete(g.shapes, key)
		}
	}

	return removed
}
