package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ride-routing-service/internal/platform/obs"
	"ride-routing-service/internal/ports"
)

// SQLPayloadCache is a postgres-backed cache for fetched road-network
// payloads. Entries older than the TTL read as misses; Put upserts.
type SQLPayloadCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLPayloadCache(db *sql.DB, ttl time.Duration) *SQLPayloadCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SQLPayloadCache{DB: db, TTL: ttl}
}

// InitSchema creates the cache table if it does not exist.
func (s *SQLPayloadCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("payload cache: db is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS road_network_cache (
		cache_key  TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init payload cache schema: %w", err)
	}
	return nil
}

func (s *SQLPayloadCache) Get(ctx context.Context, key string) (_ *ports.RoadData, _ bool, err error) {
	defer obs.Time(ctx, "payload.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("payload cache: db is nil")
	}
	if key == "" {
		return nil, false, errors.New("get payload cache: key must not be empty")
	}

	q := `
	SELECT payload
	FROM road_network_cache
	WHERE cache_key = $1
	  AND fetched_at > $2;
	`

	cutoff := time.Now().Add(-s.TTL)

	var raw []byte
	if err := s.DB.QueryRowContext(ctx, q, key, cutoff).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get payload cache: query road_network_cache: %w", err)
	}

	var data ports.RoadData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, false, fmt.Errorf("get payload cache: unmarshal payload: %w", err)
	}

	return &data, true, nil
}

func (s *SQLPayloadCache) Put(ctx context.Context, key string, data *ports.RoadData) error {
	if s.DB == nil {
		return errors.New("payload cache: db is nil")
	}
	if key == "" {
		return errors.New("insert payload cache: key must not be empty")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("insert payload cache: marshal payload: %w", err)
	}

	q := `
	INSERT INTO road_network_cache (cache_key, payload, fetched_at)
	VALUES ($1, $2, now())
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		fetched_at = EXCLUDED.fetched_at;
	`

	if _, err := s.DB.ExecContext(ctx, q, key, raw); err != nil {
		return fmt.Errorf("insert payload cache key=%q: %w", key, err)
	}
	return nil
}
