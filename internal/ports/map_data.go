package ports

import (
	"context"

	"ride-routing-service/internal/domain"
)

// NodeRecord is a provider node: an id and its coordinates.
type NodeRecord struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WayRecord is a provider road segment: an ordered node-id centerline
// plus its tag map (highway class, oneway, maxspeed, ...).
type WayRecord struct {
	ID      int64             `json:"id"`
	NodeIDs []int64           `json:"nodes"`
	Tags    map[string]string `json:"tags"`
}

// RoadData is the raw payload of one map-data fetch. It is the unit the
// payload caches store and the graph builder consumes.
type RoadData struct {
	Nodes []NodeRecord `json:"nodes"`
	Ways  []WayRecord  `json:"ways"`
}

// Contract for fetching raw road-network data around a center point.
type MapDataProvider interface {
	// FetchRoadNetwork returns the road segments within radiusMeters of
	// center. Exhausted retries surface domain.ErrNetworkUnavailable;
	// undecodable responses surface domain.ErrMalformedPayload.
	FetchRoadNetwork(ctx context.Context, center domain.Point, radiusMeters float64) (*RoadData, error)
}
