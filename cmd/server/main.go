package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"ride-routing-service/internal/adapters/cache"
	"ride-routing-service/internal/adapters/overpass"
	"ride-routing-service/internal/api"
	"ride-routing-service/internal/config"
	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/platform/db"
	"ride-routing-service/internal/platform/retry"
	"ride-routing-service/internal/ports"
	"ride-routing-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Overpass, payload caches) behind ports and
// starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	payloadCache, closeCache, err := newPayloadCache(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	policy := retry.NewPolicy(cfg.RetryAttempts, cfg.RetryBaseDelay)
	provider, err := overpass.NewClient(cfg.OverpassURL, cfg.HTTPTimeout, policy)
	if err != nil {
		log.Fatal(err)
	}

	engine := services.NewRouteEngine(provider, payloadCache, services.EngineConfig{
		SearchRadiusMeters: cfg.SearchRadiusMeters,
		MaxSnapMeters:      cfg.MaxSnapMeters,
		GridSpacingMeters:  cfg.GridSpacingMeters,
		AverageSpeedKmh:    cfg.AverageSpeedKmh,
		Fallback:           services.FallbackPolicy(cfg.FallbackPolicy),
		Fare: services.FareTable{
			BaseFare:       cfg.BaseFare,
			BaseDistanceKm: cfg.BaseDistanceKm,
			PerKmRate:      cfg.PerKmRate,
			MinimumFare:    cfg.MinimumFare,
		},
		Geofence: services.Geofence{
			Center:       domain.Point{Lat: cfg.GeofenceLat, Lon: cfg.GeofenceLon},
			RadiusMeters: cfg.GeofenceRadiusMeters,
		},
	})

	router := api.NewRouter(engine)

	// Write timeout leaves room for a cold-cache Overpass fetch plus the
	// graph build.
	log.Printf("Server listening addr=:%s cache=%s fallback=%s", cfg.Port, cfg.CacheBackend, cfg.FallbackPolicy)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// newPayloadCache builds the configured payload cache backend and a
// cleanup function for it.
func newPayloadCache(cfg *config.Config) (ports.PayloadCache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		c := cache.NewRedisPayloadCache(client, cfg.CacheTTL)
		return c, func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewSQLPayloadCache(pool, cfg.CacheTTL)
		if err := c.InitSchema(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return c, func() { _ = pool.Close() }, nil

	default:
		c := cache.NewMemoryPayloadCache(cfg.CacheTTL)
		return c, c.Close, nil
	}
}
