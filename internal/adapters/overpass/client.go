// Package overpass fetches raw road-network data from an Overpass-style
// map-data API.
package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/platform/obs"
	"ride-routing-service/internal/platform/retry"
	"ride-routing-service/internal/ports"
)

const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// Client implements ports.MapDataProvider against an Overpass endpoint.
//
// It coordinates query construction, bounded-timeout HTTP calls with
// retry/backoff, and payload decoding. Network exhaustion and malformed
// payloads surface as distinct errors so the caller's fallback policy
// can tell a dead provider from a broken one.
//
// The client is safe for concurrent use.
type Client struct {
	session  *http.Client
	endpoint string
	policy   retry.Policy
}

func NewClient(endpoint string, timeout time.Duration, policy retry.Policy) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("overpass endpoint is empty")
	}
	if timeout <= 0 {
		timeout = 25 * time.Second
	}

	return &Client{
		session:  &http.Client{Timeout: timeout},
		endpoint: endpoint,
		policy:   policy,
	}, nil
}

type overpassElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat,omitempty"`
	Lon   float64           `json:"lon,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// buildQuery renders the Overpass QL for all highway-tagged ways within
// radiusMeters of center, recursing into their member nodes.
func buildQuery(center domain.Point, radiusMeters float64) string {
	return fmt.Sprintf(
		`[out:json][timeout:25];(way["highway"](around:%.0f,%.6f,%.6f);>;);out body;`,
		radiusMeters, center.Lat, center.Lon,
	)
}

// FetchRoadNetwork requests the road segments around center and decodes
// them into provider-shaped records.
func (c *Client) FetchRoadNetwork(ctx context.Context, center domain.Point, radiusMeters float64) (_ *ports.RoadData, err error) {
	defer obs.Time(ctx, "overpass.FetchRoadNetwork")(&err)

	query := buildQuery(center, radiusMeters)
	form := url.Values{"data": {query}}.Encode()

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("overpass fetch exhausted retries: %w (%v)", domain.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w (%v)", domain.ErrMalformedPayload, err)
	}

	data := &ports.RoadData{}
	for _, el := range decoded.Elements {
		switch el.Type {
		case "node":
			data.Nodes = append(data.Nodes, ports.NodeRecord{ID: el.ID, Lat: el.Lat, Lon: el.Lon})
		case "way":
			data.Ways = append(data.Ways, ports.WayRecord{ID: el.ID, NodeIDs: el.Nodes, Tags: el.Tags})
		}
	}

	// An empty area is a valid answer; the engine decides whether an
	// empty network warrants its fallback policy.
	return data, nil
}
