package overpass

import (
	"math"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/ports"
)

const metersPerDegreeLat = 6_371_000.0 * math.Pi / 180

// FallbackGrid builds a synthetic square lattice of two-way residential
// roads around center, used when the map-data provider is unavailable so
// pathfinding degrades gracefully instead of becoming unusable.
//
// Node and way ids are local to the payload; the graph built from it
// fully replaces the previous network, so they cannot collide with
// provider ids.
func FallbackGrid(center domain.Point, radiusMeters, spacingMeters float64) *ports.RoadData {
	if spacingMeters <= 0 {
		spacingMeters = 250
	}

	half := int(radiusMeters / spacingMeters)
	if half < 1 {
		half = 1
	}
	side := 2*half + 1

	dLat := spacingMeters / metersPerDegreeLat
	dLon := spacingMeters / (metersPerDegreeLat * math.Cos(center.Lat*math.Pi/180))

	data := &ports.RoadData{
		Nodes: make([]ports.NodeRecord, 0, side*side),
		Ways:  make([]ports.WayRecord, 0, 2*side),
	}

	nodeID := func(row, col int) int64 {
		return int64(row*side + col + 1)
	}

	for row := 0; row < side; row++ {
		for col := 0; col < side; col++ {
			data.Nodes = append(data.Nodes, ports.NodeRecord{
				ID:  nodeID(row, col),
				Lat: center.Lat + float64(row-half)*dLat,
				Lon: center.Lon + float64(col-half)*dLon,
			})
		}
	}

	tags := map[string]string{"highway": "residential"}

	wayID := int64(1)
	for row := 0; row < side; row++ {
		ids := make([]int64, side)
		for col := 0; col < side; col++ {
			ids[col] = nodeID(row, col)
		}
		data.Ways = append(data.Ways, ports.WayRecord{ID: wayID, NodeIDs: ids, Tags: tags})
		wayID++
	}
	for col := 0; col < side; col++ {
		ids := make([]int64, side)
		for row := 0; row < side; row++ {
			ids[row] = nodeID(row, col)
		}
		data.Ways = append(data.Ways, ports.WayRecord{ID: wayID, NodeIDs: ids, Tags: tags})
		wayID++
	}

	return data
}
