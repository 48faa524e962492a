package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ride-routing-service/internal/ports"
)

// RedisPayloadCache stores fetched payloads in Redis with a TTL, for
// deployments where multiple router instances share one map-data quota.
type RedisPayloadCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisPayloadCache(client *redis.Client, ttl time.Duration) *RedisPayloadCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisPayloadCache{client: client, ttl: ttl, prefix: "roadnet:"}
}

func (c *RedisPayloadCache) Get(ctx context.Context, key string) (*ports.RoadData, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis payload cache get %q: %w", key, err)
	}

	var data ports.RoadData
	if err := json.Unmarshal(raw, &data); err != nil {
		// A corrupt entry is treated as a miss so the fetch path can
		// overwrite it.
		return nil, false, nil
	}
	return &data, true, nil
}

func (c *RedisPayloadCache) Put(ctx context.Context, key string, data *ports.RoadData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("redis payload cache marshal %q: %w", key, err)
	}

	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis payload cache put %q: %w", key, err)
	}
	return nil
}
