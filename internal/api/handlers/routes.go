package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"ride-routing-service/internal/api/dto"
	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/services"
)

// RoutePlanner is the slice of the routing engine the handlers depend on.
type RoutePlanner interface {
	PlanRoute(ctx context.Context, origin, destination domain.Point, searchRadiusMeters float64) (*services.PlannedRoute, error)
}

// RouteHandler exposes route planning endpoints.
type RouteHandler struct {
	Planner RoutePlanner
}

// Plan computes a priced route between two coordinates.
func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	route, ok := h.plan(w, r)
	if !ok {
		return
	}

	res := dto.RouteResponse{
		Polyline:        make([][]float64, 0, len(route.Polyline)),
		Path:            make([]string, 0, len(route.Path)),
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Fare:            route.Fare,
		Degraded:        route.Degraded,
		DegradedReason:  route.DegradedReason,
	}
	for _, p := range route.Polyline {
		res.Polyline = append(res.Polyline, p.CoordsToList())
	}
	for _, ref := range route.Path {
		res.Path = append(res.Path, ref.String())
	}

	writeJSON(w, r, http.StatusOK, res)
}

// PlanGeoJSON computes the same route but responds with a GeoJSON
// FeatureCollection, ready to drop onto a map client.
func (h *RouteHandler) PlanGeoJSON(w http.ResponseWriter, r *http.Request) {
	route, ok := h.plan(w, r)
	if !ok {
		return
	}

	line := make(orb.LineString, 0, len(route.Polyline))
	for _, p := range route.Polyline {
		line = append(line, orb.Point{p.Lon, p.Lat})
	}

	routeFeature := geojson.NewFeature(line)
	routeFeature.Properties = geojson.Properties{
		"distance_meters":  route.DistanceMeters,
		"duration_seconds": route.DurationSeconds,
		"fare":             route.Fare,
		"degraded":         route.Degraded,
	}
	if route.DegradedReason != "" {
		routeFeature.Properties["degraded_reason"] = route.DegradedReason
	}

	origin, destination := route.Endpoints()

	originFeature := geojson.NewFeature(orb.Point{origin.Lon, origin.Lat})
	originFeature.Properties = geojson.Properties{"role": "origin"}

	destinationFeature := geojson.NewFeature(orb.Point{destination.Lon, destination.Lat})
	destinationFeature.Properties = geojson.Properties{"role": "destination"}

	fc := geojson.NewFeatureCollection()
	fc.Append(routeFeature)
	fc.Append(originFeature)
	fc.Append(destinationFeature)

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

// plan decodes the request, runs the engine and handles the error
// mapping shared by both response shapes.
func (h *RouteHandler) plan(w http.ResponseWriter, r *http.Request) (*services.PlannedRoute, bool) {
	var req dto.RouteRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return nil, false
	}

	origin := domain.Point{Lat: req.Origin.Lat, Lon: req.Origin.Lon}
	destination := domain.Point{Lat: req.Destination.Lat, Lon: req.Destination.Lon}

	route, err := h.Planner.PlanRoute(r.Context(), origin, destination, req.SearchRadiusMeters)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCoordinates):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrNoNodeFound):
			writeError(w, r, http.StatusNotFound, "no road network near the requested coordinates")
		case errors.Is(err, domain.ErrNetworkUnavailable):
			writeError(w, r, http.StatusBadGateway, "map data provider unavailable")
		default:
			log.Printf("plan route failed: %v", err)
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return nil, false
	}

	return route, true
}
