package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"ride-routing-service/internal/adapters/cache"
	"ride-routing-service/internal/adapters/overpass"
	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/geo"
	"ride-routing-service/internal/ports"
)

const metersPerDegreeLat = 6_371_000.0 * math.Pi / 180

var (
	rideOrigin = domain.Point{Lat: 13.6195, Lon: 123.1814}
	// 1200m due north of rideOrigin.
	rideDestination = domain.Point{Lat: 13.6195 + 1200/metersPerDegreeLat, Lon: 123.1814}
)

// twoNodePrimaryRoad is a single primary-class segment (60 km/h default)
// between the test origin and destination.
func twoNodePrimaryRoad() *ports.RoadData {
	return &ports.RoadData{
		Nodes: []ports.NodeRecord{
			{ID: 1, Lat: rideOrigin.Lat, Lon: rideOrigin.Lon},
			{ID: 2, Lat: rideDestination.Lat, Lon: rideDestination.Lon},
		},
		Ways: []ports.WayRecord{
			{ID: 10, NodeIDs: []int64{1, 2}, Tags: map[string]string{"highway": "primary"}},
		},
	}
}

func newTestEngine(t *testing.T, provider ports.MapDataProvider, cfg EngineConfig) *RouteEngine {
	t.Helper()
	c := cache.NewMemoryPayloadCache(time.Hour)
	t.Cleanup(c.Close)
	return NewRouteEngine(provider, c, cfg)
}

func TestPlanRouteAlongPrimaryRoad(t *testing.T) {
	provider := overpass.NewStaticProvider(twoNodePrimaryRoad())
	engine := newTestEngine(t, provider, EngineConfig{})

	route, err := engine.PlanRoute(context.Background(), rideOrigin, rideDestination, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if route.Degraded {
		t.Fatalf("route unexpectedly degraded: %s", route.DegradedReason)
	}
	if math.Abs(route.DistanceMeters-1200) > 2 {
		t.Fatalf("distance = %v, want ~1200", route.DistanceMeters)
	}
	if math.Abs(route.DurationSeconds-72) > 1 {
		t.Fatalf("duration = %v, want ~72s (1200m at 60 km/h)", route.DurationSeconds)
	}

	table := DefaultFareTable()
	wantFare := table.BaseFare + (1.2-table.BaseDistanceKm)*table.PerKmRate
	if math.Abs(route.Fare-wantFare) > 0.1 {
		t.Fatalf("fare = %v, want ~%v", route.Fare, wantFare)
	}

	if len(route.Path) < 4 || !route.Path[0].IsSynthetic() || !route.Path[len(route.Path)-1].IsSynthetic() {
		t.Fatalf("path %v must be bracketed by synthetic endpoint refs", route.Path)
	}
}

func TestPlanRouteIdenticalEndpoints(t *testing.T) {
	provider := overpass.NewStaticProvider(twoNodePrimaryRoad())
	engine := newTestEngine(t, provider, EngineConfig{})

	route, err := engine.PlanRoute(context.Background(), rideOrigin, rideOrigin, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if route.DistanceMeters != 0 || route.DurationSeconds != 0 {
		t.Fatalf("distance=%v duration=%v, want zeros", route.DistanceMeters, route.DurationSeconds)
	}
	if route.Fare != DefaultFareTable().MinimumFare {
		t.Fatalf("fare = %v, want minimum fare", route.Fare)
	}
	if provider.Calls() != 0 {
		t.Fatalf("zero-length trip fetched the network %d times", provider.Calls())
	}
}

func TestPlanRouteUnreachableDestinationFallsBack(t *testing.T) {
	// Every node has an outgoing arc, so both endpoints snap to
	// connected junctions, but the one-way arcs point the wrong way and
	// no directed path from origin to destination exists.
	data := &ports.RoadData{
		Nodes: []ports.NodeRecord{
			{ID: 1, Lat: rideOrigin.Lat, Lon: rideOrigin.Lon},
			{ID: 2, Lat: rideDestination.Lat, Lon: rideDestination.Lon},
			{ID: 3, Lat: rideOrigin.Lat, Lon: rideOrigin.Lon + 0.01},
		},
		Ways: []ports.WayRecord{
			{ID: 10, NodeIDs: []int64{1, 3}, Tags: map[string]string{"highway": "primary", "oneway": "yes"}},
			{ID: 11, NodeIDs: []int64{2, 1}, Tags: map[string]string{"highway": "primary", "oneway": "yes"}},
		},
	}

	provider := overpass.NewStaticProvider(data)
	engine := newTestEngine(t, provider, EngineConfig{})

	route, err := engine.PlanRoute(context.Background(), rideOrigin, rideDestination, 500)
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}

	if !route.Degraded {
		t.Fatal("route must be flagged degraded")
	}
	if route.DegradedReason == "" {
		t.Fatal("degraded route must carry a reason")
	}

	want := geo.Distance(rideOrigin, rideDestination)
	if math.Abs(route.DistanceMeters-want) > 1 {
		t.Fatalf("distance = %v, want straight-line %v", route.DistanceMeters, want)
	}
}

func TestPlanRouteNetworkDownGridPolicy(t *testing.T) {
	provider := &overpass.StaticProvider{Err: domain.ErrNetworkUnavailable}
	engine := newTestEngine(t, provider, EngineConfig{Fallback: FallbackGrid})

	route, err := engine.PlanRoute(context.Background(), rideOrigin, rideDestination, 500)
	if err != nil {
		t.Fatalf("grid policy must recover, got: %v", err)
	}

	if !route.Degraded {
		t.Fatal("synthetic-grid route must be flagged degraded")
	}
	if len(route.Polyline) < 2 {
		t.Fatalf("polyline = %v, want a routable result", route.Polyline)
	}
	if route.DistanceMeters < 1000 {
		t.Fatalf("distance = %v, want at least the straight-line span", route.DistanceMeters)
	}
}

func TestPlanRouteNetworkDownErrorPolicy(t *testing.T) {
	provider := &overpass.StaticProvider{Err: domain.ErrNetworkUnavailable}
	engine := newTestEngine(t, provider, EngineConfig{Fallback: FallbackError})

	_, err := engine.PlanRoute(context.Background(), rideOrigin, rideDestination, 500)
	if !errors.Is(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("err = %v, want ErrNetworkUnavailable", err)
	}

	var stageErr *domain.RoutingError
	if !errors.As(err, &stageErr) || stageErr.Stage != "fetch" {
		t.Fatalf("err = %v, want fetch-stage RoutingError", err)
	}
}

func TestPlanRouteInvalidCoordinates(t *testing.T) {
	provider := overpass.NewStaticProvider(twoNodePrimaryRoad())
	engine := newTestEngine(t, provider, EngineConfig{})

	cases := []domain.Point{
		{Lat: math.NaN(), Lon: 123.18},
		{Lat: 13.62, Lon: 181.0},
		{Lat: -91.0, Lon: 0},
	}

	for _, p := range cases {
		_, err := engine.PlanRoute(context.Background(), p, rideDestination, 500)
		if !errors.Is(err, domain.ErrInvalidCoordinates) {
			t.Errorf("PlanRoute(origin=%v): err = %v, want ErrInvalidCoordinates", p, err)
		}
	}

	if provider.Calls() != 0 {
		t.Fatalf("invalid coordinates reached the network (%d calls)", provider.Calls())
	}
}

func TestPlanRouteGeofence(t *testing.T) {
	provider := overpass.NewStaticProvider(twoNodePrimaryRoad())
	engine := newTestEngine(t, provider, EngineConfig{
		Geofence: Geofence{Center: rideOrigin, RadiusMeters: 10_000},
	})

	outside := domain.Point{Lat: 51.5074, Lon: -0.1278}
	_, err := engine.PlanRoute(context.Background(), rideOrigin, outside, 500)
	if !errors.Is(err, domain.ErrInvalidCoordinates) {
		t.Fatalf("err = %v, want ErrInvalidCoordinates for out-of-geofence point", err)
	}
}

func TestPlanRouteReusesCoveredFetch(t *testing.T) {
	provider := overpass.NewStaticProvider(twoNodePrimaryRoad())
	engine := newTestEngine(t, provider, EngineConfig{})

	ctx := context.Background()
	if _, err := engine.PlanRoute(ctx, rideOrigin, rideDestination, 500); err != nil {
		t.Fatalf("first plan: %v", err)
	}
	if _, err := engine.PlanRoute(ctx, rideOrigin, rideDestination, 500); err != nil {
		t.Fatalf("second plan: %v", err)
	}

	if provider.Calls() != 1 {
		t.Fatalf("provider calls = %d, want 1 (covered area must be reused)", provider.Calls())
	}
}

func TestPlanRoutePayloadCacheSharedAcrossEngines(t *testing.T) {
	shared := cache.NewMemoryPayloadCache(time.Hour)
	defer shared.Close()

	ctx := context.Background()

	first := overpass.NewStaticProvider(twoNodePrimaryRoad())
	engineA := NewRouteEngine(first, shared, EngineConfig{})
	if _, err := engineA.PlanRoute(ctx, rideOrigin, rideDestination, 500); err != nil {
		t.Fatalf("engine A: %v", err)
	}

	// Engine B's provider is dead; it must be served from the cache.
	second := &overpass.StaticProvider{Err: domain.ErrNetworkUnavailable}
	engineB := NewRouteEngine(second, shared, EngineConfig{Fallback: FallbackError})

	route, err := engineB.PlanRoute(ctx, rideOrigin, rideDestination, 500)
	if err != nil {
		t.Fatalf("engine B should hit the payload cache: %v", err)
	}
	if route.Degraded {
		t.Fatal("cache-served route must not be degraded")
	}
}

func TestPlanRouteRemoteRegionDegrades(t *testing.T) {
	// The destination's region was pruned as disconnected, so its nearest
	// surviving node is tens of kilometers away. The engine must refuse
	// the absurd snap and estimate straight-line.
	data := twoNodePrimaryRoad()
	farLat := rideOrigin.Lat + 0.9 // ~100km north
	data.Nodes = append(data.Nodes,
		ports.NodeRecord{ID: 3, Lat: farLat, Lon: rideOrigin.Lon},
		ports.NodeRecord{ID: 4, Lat: farLat + 1200/metersPerDegreeLat, Lon: rideOrigin.Lon},
	)
	// The far pair is smaller than the near pair only by tie; make the
	// near component strictly larger so pruning keeps it.
	data.Nodes = append(data.Nodes, ports.NodeRecord{ID: 5, Lat: rideOrigin.Lat, Lon: rideOrigin.Lon + 0.01})
	data.Ways = append(data.Ways,
		ports.WayRecord{ID: 11, NodeIDs: []int64{3, 4}, Tags: map[string]string{"highway": "primary"}},
		ports.WayRecord{ID: 12, NodeIDs: []int64{2, 5}, Tags: map[string]string{"highway": "primary"}},
	)

	provider := overpass.NewStaticProvider(data)
	engine := newTestEngine(t, provider, EngineConfig{})

	farDestination := domain.Point{Lat: farLat, Lon: rideOrigin.Lon}
	route, err := engine.PlanRoute(context.Background(), rideOrigin, farDestination, 500)
	if err != nil {
		t.Fatalf("must not error: %v", err)
	}
	if !route.Degraded {
		t.Fatal("snap to a pruned-away region must degrade to straight-line")
	}
}
