// Package geo provides great-circle math over WGS84 coordinates.
package geo

import (
	"math"

	"ride-routing-service/internal/domain"
)

const earthRadiusMeters = 6_371_000.0

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// Distance returns the haversine great-circle distance in meters.
func Distance(a, b domain.Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Bearing returns the initial compass bearing from a to b in degrees [0, 360).
func Bearing(a, b domain.Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := toDegrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// Midpoint returns the coordinate halfway along the great circle from a to b.
func Midpoint(a, b domain.Point) domain.Point {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	lon1 := toRadians(a.Lon)
	dLon := toRadians(b.Lon - a.Lon)

	bx := math.Cos(lat2) * math.Cos(dLon)
	by := math.Cos(lat2) * math.Sin(dLon)

	lat := math.Atan2(
		math.Sin(lat1)+math.Sin(lat2),
		math.Sqrt((math.Cos(lat1)+bx)*(math.Cos(lat1)+bx)+by*by),
	)
	lon := lon1 + math.Atan2(by, math.Cos(lat1)+bx)

	return domain.Point{Lat: toDegrees(lat), Lon: math.Mod(toDegrees(lon)+540, 360) - 180}
}

// Turn buckets a heading change for narration. It never affects path cost.
type Turn int

const (
	TurnStraight Turn = iota
	TurnSlightLeft
	TurnLeft
	TurnSharpLeft
	TurnSlightRight
	TurnRight
	TurnSharpRight
	TurnUTurn
)

func (t Turn) String() string {
	switch t {
	case TurnStraight:
		return "straight"
	case TurnSlightLeft:
		return "slight-left"
	case TurnLeft:
		return "left"
	case TurnSharpLeft:
		return "sharp-left"
	case TurnSlightRight:
		return "slight-right"
	case TurnRight:
		return "right"
	case TurnSharpRight:
		return "sharp-right"
	case TurnUTurn:
		return "u-turn"
	default:
		return "unknown"
	}
}

// ClassifyTurn buckets the signed heading change from bearingIn to
// bearingOut, normalized to (-180, 180]. Thresholds: <15 straight,
// 15-45 slight, 45-135 turn, 135-165 sharp, >=165 u-turn.
func ClassifyTurn(bearingIn, bearingOut float64) Turn {
	diff := math.Mod(bearingOut-bearingIn+540, 360) - 180
	if diff == -180 {
		diff = 180
	}

	abs := math.Abs(diff)
	switch {
	case abs < 15:
		return TurnStraight
	case abs >= 165:
		return TurnUTurn
	case abs < 45:
		if diff < 0 {
			return TurnSlightLeft
		}
		return TurnSlightRight
	case abs < 135:
		if diff < 0 {
			return TurnLeft
		}
		return TurnRight
	default:
		if diff < 0 {
			return TurnSharpLeft
		}
		return TurnSharpRight
	}
}
