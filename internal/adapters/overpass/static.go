package overpass

import (
	"context"
	"sync"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/ports"
)

// StaticProvider serves a fixed payload, optionally failing a number of
// times first. Used in tests and offline demos.
type StaticProvider struct {
	Data       *ports.RoadData
	Err        error // returned while FailFirst calls remain, or always if Data is nil
	FailFirst  int
	mu         sync.Mutex
	fetchCalls int
}

func NewStaticProvider(data *ports.RoadData) *StaticProvider {
	return &StaticProvider{Data: data}
}

func (p *StaticProvider) FetchRoadNetwork(ctx context.Context, center domain.Point, radiusMeters float64) (*ports.RoadData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fetchCalls++

	if p.Err != nil && (p.Data == nil || p.fetchCalls <= p.FailFirst) {
		return nil, p.Err
	}
	if p.Data == nil {
		return nil, domain.ErrNetworkUnavailable
	}
	return p.Data, nil
}

// Calls reports how many fetches were issued.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetchCalls
}
