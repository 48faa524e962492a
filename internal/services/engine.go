package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"ride-routing-service/internal/adapters/overpass"
	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/geo"
	"ride-routing-service/internal/graph"
	"ride-routing-service/internal/platform/obs"
	"ride-routing-service/internal/ports"
)

// FallbackPolicy decides what happens when the map-data fetch exhausts
// its retries.
type FallbackPolicy string

const (
	// FallbackGrid substitutes a synthetic lattice around the fetch
	// center so routing degrades instead of failing.
	FallbackGrid FallbackPolicy = "grid"
	// FallbackError propagates the network failure to the caller.
	FallbackError FallbackPolicy = "error"
)

// Geofence bounds the service's operating area. A zero radius disables it.
type Geofence struct {
	Center       domain.Point
	RadiusMeters float64
}

// EngineConfig collects the routing constants. Every value here is
// deployment configuration, not law.
type EngineConfig struct {
	SearchRadiusMeters float64 // default node-search and fetch margin
	MaxSnapMeters      float64 // beyond this, a matched node is treated as "no nearby road"
	GridSpacingMeters  float64 // synthetic fallback lattice spacing
	AverageSpeedKmh    float64 // assumed speed for straight-line estimates
	Fallback           FallbackPolicy
	Fare               FareTable
	Speeds             graph.SpeedTable
	Geofence           Geofence
}

func (c *EngineConfig) applyDefaults() {
	if c.SearchRadiusMeters <= 0 {
		c.SearchRadiusMeters = 500
	}
	if c.MaxSnapMeters <= 0 {
		c.MaxSnapMeters = 5000
	}
	if c.GridSpacingMeters <= 0 {
		c.GridSpacingMeters = 250
	}
	if c.AverageSpeedKmh <= 0 {
		c.AverageSpeedKmh = graph.CityAverageKmh
	}
	if c.Fallback == "" {
		c.Fallback = FallbackGrid
	}
	if c.Fare == (FareTable{}) {
		c.Fare = DefaultFareTable()
	}
	if c.Speeds == nil {
		c.Speeds = graph.DefaultSpeeds()
	}
}

type fetchArea struct {
	center       domain.Point
	radiusMeters float64
}

// cacheKey quantizes the fetch center (~100m buckets) and radius (km)
// so nearby repeat requests share a payload cache entry.
func cacheKey(center domain.Point, radiusMeters float64) string {
	return fmt.Sprintf("%.3f:%.3f:%.0fkm", center.Lat, center.Lon, math.Ceil(radiusMeters/1000))
}

// PlannedRoute is a RouteResult plus the node path that produced it.
// Synthetic refs bracket the provider node ids, so injected endpoints
// can never be confused with real junctions.
type PlannedRoute struct {
	domain.RouteResult
	Path []domain.NodeRef
}

// RouteEngine owns the road graph and runs the routing pipeline:
// validate, ensure network, locate endpoints, plan path, price.
//
// The graph is mutated only during a fetch/build cycle: a new graph is
// built off to the side and swapped in under the write lock, so queries
// never observe a mid-rebuild network.
type RouteEngine struct {
	provider ports.MapDataProvider
	cache    ports.PayloadCache // optional; nil disables payload memoization
	cfg      EngineConfig

	mu        sync.RWMutex
	graph     *graph.Graph
	synthetic bool // current graph is a fallback lattice
	last      *fetchArea
}

func NewRouteEngine(provider ports.MapDataProvider, cache ports.PayloadCache, cfg EngineConfig) *RouteEngine {
	cfg.applyDefaults()
	return &RouteEngine{
		provider: provider,
		cache:    cache,
		cfg:      cfg,
		graph:    graph.New(),
	}
}

// PlanRoute computes a road-following route between two coordinates, or
// a degraded straight-line estimate when the network cannot serve one.
func (e *RouteEngine) PlanRoute(ctx context.Context, origin, destination domain.Point, searchRadiusMeters float64) (_ *PlannedRoute, err error) {
	defer obs.Time(ctx, "engine.PlanRoute")(&err)

	if err := e.validate(origin); err != nil {
		return nil, domain.StageError("validate", fmt.Errorf("origin: %w", err))
	}
	if err := e.validate(destination); err != nil {
		return nil, domain.StageError("validate", fmt.Errorf("destination: %w", err))
	}

	if searchRadiusMeters <= 0 {
		searchRadiusMeters = e.cfg.SearchRadiusMeters
	}

	// A zero-length trip needs no network at all.
	if origin == destination {
		return &PlannedRoute{
			RouteResult: domain.RouteResult{
				Polyline:        []domain.Point{origin, destination},
				DistanceMeters:  0,
				DurationSeconds: 0,
				Fare:            e.cfg.Fare.Estimate(0),
			},
			Path: []domain.NodeRef{domain.SyntheticRef("origin"), domain.SyntheticRef("destination")},
		}, nil
	}

	synthetic, reason, err := e.ensureNetwork(ctx, origin, destination, searchRadiusMeters)
	if err != nil {
		return nil, domain.StageError("fetch", err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	locator := NewNearestNodeLocator(e.graph)

	originNode, err := locator.Nearest(origin, searchRadiusMeters)
	if err != nil {
		return nil, domain.StageError("locate", fmt.Errorf("origin: %w", err))
	}
	destinationNode, err := locator.Nearest(destination, searchRadiusMeters)
	if err != nil {
		return nil, domain.StageError("locate", fmt.Errorf("destination: %w", err))
	}

	// A match miles from the requested point means the network has no
	// road there (e.g. the area was pruned as disconnected). Snapping to
	// it would produce an absurd detour; estimate straight-line instead.
	if e.snapTooFar(origin, originNode) || e.snapTooFar(destination, destinationNode) {
		return e.straightLine(origin, destination, "no road network near endpoint; straight-line estimate"), nil
	}

	planner := NewPathPlanner(e.graph)

	path, err := planner.ShortestPath(ctx, originNode, destinationNode)
	switch {
	case errors.Is(err, domain.ErrNoPathFound):
		return e.straightLine(origin, destination, "no road path between endpoints; straight-line estimate"), nil
	case err != nil:
		return nil, domain.StageError("plan", err)
	}

	route := e.assemble(origin, destination, path)
	route.Degraded = synthetic
	route.DegradedReason = reason
	return route, nil
}

func (e *RouteEngine) validate(p domain.Point) error {
	if !p.Valid() {
		return fmt.Errorf("%w: (%v, %v)", domain.ErrInvalidCoordinates, p.Lat, p.Lon)
	}
	if e.cfg.Geofence.RadiusMeters > 0 {
		if geo.Distance(p, e.cfg.Geofence.Center) > e.cfg.Geofence.RadiusMeters {
			return fmt.Errorf("%w: (%v, %v) outside operating area", domain.ErrInvalidCoordinates, p.Lat, p.Lon)
		}
	}
	return nil
}

// ensureNetwork makes the graph cover both endpoints: reuse the current
// snapshot when the last fetch already covers the area, else rebuild
// from the payload cache or a fresh fetch. A successful fetch fully
// replaces the graph, never merges. It reports whether the resulting
// network is synthetic and why.
func (e *RouteEngine) ensureNetwork(ctx context.Context, origin, destination domain.Point, searchRadiusMeters float64) (synthetic bool, reason string, err error) {
	center := geo.Midpoint(origin, destination)
	radius := geo.Distance(origin, destination)/2 + searchRadiusMeters

	e.mu.RLock()
	if e.covered(center, radius) {
		synthetic, reason = e.synthetic, e.syntheticReason()
		e.mu.RUnlock()
		return synthetic, reason, nil
	}
	e.mu.RUnlock()

	key := cacheKey(center, radius)

	data, fromCache := e.cachedPayload(ctx, key)
	if !fromCache {
		data, err = e.provider.FetchRoadNetwork(ctx, center, radius)
		switch {
		case errors.Is(err, domain.ErrNetworkUnavailable):
			if e.cfg.Fallback != FallbackGrid {
				return false, "", err
			}
			log.Printf("engine: map data unavailable, substituting synthetic grid: %v", err)
			return true, "map data unavailable; routing over synthetic grid", e.swap(overpass.FallbackGrid(center, radius, e.cfg.GridSpacingMeters), center, radius, true)
		case err != nil:
			return false, "", err
		}

		if e.cache != nil {
			if err := e.cache.Put(ctx, key, data); err != nil {
				log.Printf("payload cache write failed: %v", err)
			}
		}
	}

	if err := e.swap(data, center, radius, false); err != nil {
		return false, "", err
	}

	// A fetch that yields no usable roads leaves routing just as stuck
	// as a failed one; apply the same policy.
	e.mu.RLock()
	empty := e.graph.NodeCount() == 0
	e.mu.RUnlock()

	if empty && e.cfg.Fallback == FallbackGrid {
		log.Printf("engine: fetched area has no usable roads, substituting synthetic grid")
		return true, "no usable roads in area; routing over synthetic grid", e.swap(overpass.FallbackGrid(center, radius, e.cfg.GridSpacingMeters), center, radius, true)
	}

	return false, "", nil
}

// snapTooFar reports whether the matched node is outside the usable
// snapping distance. Callers must hold at least the read lock.
func (e *RouteEngine) snapTooFar(p domain.Point, ref domain.NodeRef) bool {
	pt, ok := e.graph.Point(ref)
	if !ok {
		return true
	}
	return geo.Distance(p, pt) > e.cfg.MaxSnapMeters
}

// covered reports whether the last fetched area already contains the
// requested one. Callers must hold at least the read lock.
func (e *RouteEngine) covered(center domain.Point, radiusMeters float64) bool {
	if e.last == nil {
		return false
	}
	return geo.Distance(center, e.last.center)+radiusMeters <= e.last.radiusMeters
}

func (e *RouteEngine) syntheticReason() string {
	if e.synthetic {
		return "map data unavailable; routing over synthetic grid"
	}
	return ""
}

func (e *RouteEngine) cachedPayload(ctx context.Context, key string) (*ports.RoadData, bool) {
	if e.cache == nil {
		return nil, false
	}

	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Printf("payload cache read failed: %v", err)
		return nil, false
	}
	return data, ok
}

// swap builds a fresh graph from the payload and replaces the snapshot
// under the write lock. In-flight queries keep reading the old graph
// until they finish.
func (e *RouteEngine) swap(data *ports.RoadData, center domain.Point, radiusMeters float64, synthetic bool) error {
	g := graph.Build(data, e.cfg.Speeds)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = g
	e.synthetic = synthetic
	e.last = &fetchArea{center: center, radiusMeters: radiusMeters}
	return nil
}

// straightLine is the degraded two-point route used when no graph path
// exists: distance by great circle, duration at the configured average
// speed.
func (e *RouteEngine) straightLine(origin, destination domain.Point, reason string) *PlannedRoute {
	distance := geo.Distance(origin, destination)
	duration := distance / (e.cfg.AverageSpeedKmh / 3.6)

	return &PlannedRoute{
		RouteResult: domain.RouteResult{
			Polyline:        []domain.Point{origin, destination},
			DistanceMeters:  distance,
			DurationSeconds: duration,
			Fare:            e.cfg.Fare.Estimate(distance / 1000),
			Degraded:        true,
			DegradedReason:  reason,
		},
		Path: []domain.NodeRef{domain.SyntheticRef("origin"), domain.SyntheticRef("destination")},
	}
}

// assemble brackets the road path with approach and egress legs from the
// requested coordinates to their matched junctions, costed at the
// configured average speed.
func (e *RouteEngine) assemble(origin, destination domain.Point, path *PathResult) *PlannedRoute {
	avgMps := e.cfg.AverageSpeedKmh / 3.6

	polyline := make([]domain.Point, 0, len(path.Polyline)+2)
	distance := path.DistanceMeters
	duration := path.DurationSeconds

	polyline = append(polyline, origin)
	if first := path.Polyline[0]; first != origin {
		leg := geo.Distance(origin, first)
		distance += leg
		duration += leg / avgMps
	}
	polyline = append(polyline, path.Polyline...)
	if last := path.Polyline[len(path.Polyline)-1]; last != destination {
		leg := geo.Distance(last, destination)
		distance += leg
		duration += leg / avgMps
	}
	polyline = append(polyline, destination)

	refs := make([]domain.NodeRef, 0, len(path.Path)+2)
	refs = append(refs, domain.SyntheticRef("origin"))
	refs = append(refs, path.Path...)
	refs = append(refs, domain.SyntheticRef("destination"))

	return &PlannedRoute{
		RouteResult: domain.RouteResult{
			Polyline:        polyline,
			DistanceMeters:  distance,
			DurationSeconds: duration,
			Fare:            e.cfg.Fare.Estimate(distance / 1000),
		},
		Path: refs,
	}
}
