package services

// FareTable holds the deterministic distance-to-fare pricing constants.
// All values are configuration; there is no hidden state.
type FareTable struct {
	BaseFare       float64 // flat charge covering the first BaseDistanceKm
	BaseDistanceKm float64
	PerKmRate      float64 // per km beyond BaseDistanceKm
	MinimumFare    float64 // floor applied after the distance formula
}

// DefaultFareTable returns the standard city tariff.
func DefaultFareTable() FareTable {
	return FareTable{
		BaseFare:       40.0,
		BaseDistanceKm: 1.0,
		PerKmRate:      13.5,
		MinimumFare:    40.0,
	}
}

// Estimate maps a trip distance to a fare. Monotonic in distance.
func (t FareTable) Estimate(distanceKm float64) float64 {
	fare := t.BaseFare
	if distanceKm > t.BaseDistanceKm {
		fare += (distanceKm - t.BaseDistanceKm) * t.PerKmRate
	}
	if fare < t.MinimumFare {
		fare = t.MinimumFare
	}
	return fare
}
