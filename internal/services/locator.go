package services

import (
	"fmt"
	"math"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/geo"
	"ride-routing-service/internal/graph"
)

// Expansion stops once the search radius spans half Earth's
// circumference; at that point every node has been considered.
const maxSearchRadiusMeters = 20_037_500.0

// NearestNodeLocator maps an arbitrary coordinate onto a usable graph
// node. It prefers connected nodes within the search radius, expanding
// the radius geometrically before falling back to the absolute nearest
// node regardless of connectivity.
type NearestNodeLocator struct {
	g *graph.Graph
}

func NewNearestNodeLocator(g *graph.Graph) *NearestNodeLocator {
	return &NearestNodeLocator{g: g}
}

// Nearest resolves p to a graph node. It fails with ErrNoNodeFound only
// when the graph is empty. Equal-distance candidates resolve to
// whichever node iteration yields first; the choice is intentionally
// nondeterministic across runs.
func (l *NearestNodeLocator) Nearest(p domain.Point, initialRadiusMeters float64) (domain.NodeRef, error) {
	if l.g.NodeCount() == 0 {
		return domain.NodeRef{}, fmt.Errorf("nearest node to (%.5f, %.5f): %w", p.Lat, p.Lon, domain.ErrNoNodeFound)
	}

	if initialRadiusMeters <= 0 {
		initialRadiusMeters = 500
	}

	for radius := initialRadiusMeters; radius <= maxSearchRadiusMeters; radius *= 2 {
		if ref, ok := l.nearestWithin(p, radius, true); ok {
			return ref, nil
		}
	}

	// Absolute last resort: nearest node by straight-line distance,
	// connectivity ignored, so a non-empty graph always yields a result.
	ref, _ := l.nearestWithin(p, math.Inf(1), false)
	return ref, nil
}

func (l *NearestNodeLocator) nearestWithin(p domain.Point, radius float64, requireConnected bool) (domain.NodeRef, bool) {
	var (
		best     domain.NodeRef
		bestDist = math.Inf(1)
		found    bool
	)

	l.g.ForEachNode(func(ref domain.NodeRef, pt domain.Point, outDegree int) {
		if requireConnected && outDegree == 0 {
			return
		}

		d := geo.Distance(p, pt)
		if d <= radius && d < bestDist {
			best = ref
			bestDist = d
			found = true
		}
	})

	return best, found
}
