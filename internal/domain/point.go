package domain

import "math"

// Immutable geographic coordinates (WGS84 degrees).
type Point struct {
	Lat float64
	Lon float64
}

// Valid reports whether both coordinates are finite and inside the
// WGS84 range. It does not check the operating geofence; that is a
// service-level policy.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) {
		return false
	}
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Return coordinates as [lon, lat] for external API compatibility.
func (p Point) CoordsToList() []float64 { return []float64{p.Lon, p.Lat} }
