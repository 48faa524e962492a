package dto

// LatLng is a WGS84 coordinate pair as it appears on the wire.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type RouteRequest struct {
	Origin             LatLng  `json:"origin"`
	Destination        LatLng  `json:"destination"`
	SearchRadiusMeters float64 `json:"search_radius_meters"`
}

type RouteResponse struct {
	// Polyline is a list of [lon, lat] pairs, GeoJSON axis order.
	Polyline        [][]float64 `json:"polyline"`
	Path            []string    `json:"path"`
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	Fare            float64     `json:"fare"`
	Degraded        bool        `json:"degraded"`
	DegradedReason  string      `json:"degraded_reason,omitempty"`
}
