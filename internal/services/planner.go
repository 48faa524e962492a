package services

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/geo"
	"ride-routing-service/internal/graph"
)

// PathResult is a single shortest-path computation over the graph.
// Distance is accounted over the expanded polyline, not the sparse node
// path, since intermediate shape points add real distance.
type PathResult struct {
	Path            []domain.NodeRef
	Polyline        []domain.Point
	DistanceMeters  float64
	DurationSeconds float64
}

// PathPlanner computes lowest-travel-time paths over a graph snapshot.
// It only reads the graph; an abandoned computation cannot corrupt it.
type PathPlanner struct {
	g *graph.Graph
}

func NewPathPlanner(g *graph.Graph) *PathPlanner {
	return &PathPlanner{g: g}
}

// Cancellation is polled between frontier pops; the search is otherwise
// CPU-bound and never blocks.
const cancelCheckInterval = 128

// ShortestPath runs Dijkstra from origin to destination over
// time-weighted directed edges, terminating early once the destination
// is settled. Among equal-cost paths the choice follows heap order and
// may vary between runs; the total cost is deterministic.
func (p *PathPlanner) ShortestPath(ctx context.Context, origin, destination domain.NodeRef) (*PathResult, error) {
	if _, ok := p.g.Point(origin); !ok {
		return nil, fmt.Errorf("shortest path: origin %s: %w", origin, domain.ErrNoNodeFound)
	}
	if _, ok := p.g.Point(destination); !ok {
		return nil, fmt.Errorf("shortest path: destination %s: %w", destination, domain.ErrNoNodeFound)
	}

	items := map[domain.NodeRef]*frontierItem{
		origin: {ref: origin, cost: 0, index: -1},
	}
	preds := make(map[domain.NodeRef]domain.NodeRef)
	settled := make(map[domain.NodeRef]bool)

	pq := make(frontier, 0)
	heap.Init(&pq)
	heap.Push(&pq, items[origin])

	pops := 0
	found := false

	for pq.Len() > 0 {
		current := heap.Pop(&pq).(*frontierItem)

		pops++
		if pops%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if current.ref == destination {
			found = true
			break
		}
		settled[current.ref] = true

		for next, seconds := range p.g.Neighbors(current.ref) {
			if settled[next] || math.IsInf(seconds, 1) {
				continue
			}

			tentative := current.cost + seconds
			existing, seen := items[next]
			if !seen {
				item := &frontierItem{ref: next, cost: tentative, index: -1}
				items[next] = item
				preds[next] = current.ref
				heap.Push(&pq, item)
			} else if tentative < existing.cost {
				pq.update(existing, tentative)
				preds[next] = current.ref
			}
		}
	}

	if !found {
		return nil, fmt.Errorf("shortest path %s -> %s: %w", origin, destination, domain.ErrNoPathFound)
	}

	path := reconstruct(preds, origin, destination)
	polyline := p.expand(path)

	distance := 0.0
	for i := 1; i < len(polyline); i++ {
		distance += geo.Distance(polyline[i-1], polyline[i])
	}

	return &PathResult{
		Path:            path,
		Polyline:        polyline,
		DistanceMeters:  distance,
		DurationSeconds: items[destination].cost,
	}, nil
}

// reconstruct walks predecessor links from destination back to origin.
func reconstruct(preds map[domain.NodeRef]domain.NodeRef, origin, destination domain.NodeRef) []domain.NodeRef {
	path := []domain.NodeRef{destination}
	for ref := destination; ref != origin; {
		prev, ok := preds[ref]
		if !ok {
			break
		}
		path = append(path, prev)
		ref = prev
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// expand replaces each node pair with the full road-segment polyline
// connecting them, so the route follows the road shape rather than a
// straight chord between junctions.
func (p *PathPlanner) expand(path []domain.NodeRef) []domain.Point {
	polyline := make([]domain.Point, 0, len(path))

	for i, ref := range path {
		pt, ok := p.g.Point(ref)
		if !ok {
			continue
		}

		if i == 0 {
			polyline = append(polyline, pt)
			continue
		}

		if shape := p.g.Shape(path[i-1], ref); len(shape) > 1 {
			polyline = append(polyline, shape[1:]...)
		} else {
			polyline = append(polyline, pt)
		}
	}

	return polyline
}
