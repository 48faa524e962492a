package ports

import "context"

// Contract for memoizing fetched road-network payloads.
// Entry lifetime (TTL) is owned by the implementation; a stale entry is
// reported as a miss, never returned.
type PayloadCache interface {
	// Get returns the cached payload for key, and whether it was found live.
	Get(ctx context.Context, key string) (*RoadData, bool, error)

	// Put stores the payload under key, replacing any prior entry.
	Put(ctx context.Context, key string, data *RoadData) error
}
