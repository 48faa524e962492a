package domain

// RouteResult is the output of a route computation.
// It is derived planning data, recomputed per request and never stored.
// A degraded result was produced by the straight-line fallback instead of
// true road-following pathfinding; DegradedReason explains why.
type RouteResult struct {
	Polyline        []Point
	DistanceMeters  float64
	DurationSeconds float64
	Fare            float64
	Degraded        bool
	DegradedReason  string
}

// Origin and destination of the polyline, for callers that submit the
// route (ride-creation consumers) without walking the full geometry.
func (r *RouteResult) Endpoints() (origin, destination Point) {
	if len(r.Polyline) == 0 {
		return Point{}, Point{}
	}
	return r.Polyline[0], r.Polyline[len(r.Polyline)-1]
}
