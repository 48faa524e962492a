package services

import (
	"errors"
	"testing"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/graph"
)

// offsetPoint moves roughly north by the given meters.
func offsetPoint(base domain.Point, meters float64) domain.Point {
	return domain.Point{Lat: base.Lat + meters/111_195.0, Lon: base.Lon}
}

func TestNearestPrefersConnectedNode(t *testing.T) {
	base := domain.Point{Lat: 13.6195, Lon: 123.1814}

	g := graph.New()
	deadEnd := domain.ProviderRef(1)
	near := domain.ProviderRef(2)
	far := domain.ProviderRef(3)

	// deadEnd is closest but has no outgoing edges.
	g.AddNode(deadEnd, offsetPoint(base, 10))
	g.AddNode(near, offsetPoint(base, 200))
	g.AddNode(far, offsetPoint(base, 900))
	g.AddEdge(near, far, 30, nil)
	g.AddEdge(far, near, 30, nil)
	g.AddEdge(far, deadEnd, 30, nil)

	got, err := NewNearestNodeLocator(g).Nearest(base, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != near {
		t.Fatalf("Nearest = %v, want connected node %v", got, near)
	}
}

func TestNearestExpandsRadius(t *testing.T) {
	base := domain.Point{Lat: 13.6195, Lon: 123.1814}

	g := graph.New()
	remote := domain.ProviderRef(1)
	other := domain.ProviderRef(2)
	g.AddNode(remote, offsetPoint(base, 8000))
	g.AddNode(other, offsetPoint(base, 9000))
	g.AddEdge(remote, other, 30, nil)

	got, err := NewNearestNodeLocator(g).Nearest(base, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != remote {
		t.Fatalf("Nearest = %v, want %v after radius expansion", got, remote)
	}
}

func TestNearestLastResortIgnoresConnectivity(t *testing.T) {
	base := domain.Point{Lat: 13.6195, Lon: 123.1814}

	g := graph.New()
	lone := domain.ProviderRef(1)
	g.AddNode(lone, offsetPoint(base, 50))

	got, err := NewNearestNodeLocator(g).Nearest(base, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != lone {
		t.Fatalf("Nearest = %v, want last-resort node %v", got, lone)
	}
}

func TestNearestEmptyGraph(t *testing.T) {
	_, err := NewNearestNodeLocator(graph.New()).Nearest(domain.Point{Lat: 1, Lon: 1}, 100)
	if !errors.Is(err, domain.ErrNoNodeFound) {
		t.Fatalf("err = %v, want ErrNoNodeFound", err)
	}
}
