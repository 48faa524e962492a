// Package cache provides payload caches for fetched road-network data.
package cache

import (
	"context"
	"sync"
	"time"

	"ride-routing-service/internal/ports"
)

type memoryItem struct {
	data      *ports.RoadData
	expiresAt time.Time
}

// MemoryPayloadCache is a thread-safe in-process TTL cache. Expired
// entries read as misses and are swept by a background goroutine.
type MemoryPayloadCache struct {
	items map[string]memoryItem
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
}

func NewMemoryPayloadCache(ttl time.Duration) *MemoryPayloadCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := &MemoryPayloadCache{
		items: make(map[string]memoryItem),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *MemoryPayloadCache) Get(ctx context.Context, key string) (*ports.RoadData, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[key]
	if !ok || c.now().After(item.expiresAt) {
		return nil, false, nil
	}
	return item.data, true, nil
}

func (c *MemoryPayloadCache) Put(ctx context.Context, key string, data *ports.RoadData) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = memoryItem{data: data, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Close stops the background sweeper.
func (c *MemoryPayloadCache) Close() {
	close(c.stop)
}

func (c *MemoryPayloadCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryPayloadCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}
