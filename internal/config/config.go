// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port string
	Env  string

	OverpassURL    string
	HTTPTimeout    time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration

	CacheBackend string // memory | redis | postgres
	CacheTTL     time.Duration
	RedisAddr    string
	DatabaseURL  string

	FallbackPolicy     string // grid | error
	SearchRadiusMeters float64
	MaxSnapMeters      float64
	GridSpacingMeters  float64
	AverageSpeedKmh    float64

	BaseFare       float64
	BaseDistanceKm float64
	PerKmRate      float64
	MinimumFare    float64

	GeofenceLat          float64
	GeofenceLon          float64
	GeofenceRadiusMeters float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port: Get("PORT", "8080"),
		Env:  Get("ENV", "development"),

		OverpassURL:    Get("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		HTTPTimeout:    getDurationEnv("HTTP_TIMEOUT_SECONDS", 30),
		RetryAttempts:  getIntEnv("RETRY_ATTEMPTS", 3),
		RetryBaseDelay: getDurationEnv("RETRY_BASE_DELAY_SECONDS", 1),

		CacheBackend: Get("CACHE_BACKEND", "memory"),
		CacheTTL:     getDurationEnv("CACHE_TTL_SECONDS", 1800),
		RedisAddr:    Get("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:  Get("DATABASE_URL", ""),

		FallbackPolicy:     Get("FALLBACK_POLICY", "grid"),
		SearchRadiusMeters: getFloatEnv("SEARCH_RADIUS_METERS", 500),
		MaxSnapMeters:      getFloatEnv("MAX_SNAP_METERS", 5000),
		GridSpacingMeters:  getFloatEnv("GRID_SPACING_METERS", 250),
		AverageSpeedKmh:    getFloatEnv("AVERAGE_SPEED_KMH", 30),

		BaseFare:       getFloatEnv("FARE_BASE", 40),
		BaseDistanceKm: getFloatEnv("FARE_BASE_DISTANCE_KM", 1),
		PerKmRate:      getFloatEnv("FARE_PER_KM", 13.5),
		MinimumFare:    getFloatEnv("FARE_MINIMUM", 40),

		GeofenceLat:          getFloatEnv("GEOFENCE_LAT", 0),
		GeofenceLon:          getFloatEnv("GEOFENCE_LON", 0),
		GeofenceRadiusMeters: getFloatEnv("GEOFENCE_RADIUS_METERS", 0),
	}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that required configuration is consistent.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "memory", "redis":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CACHE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want memory, redis or postgres)", c.CacheBackend)
	}

	switch c.FallbackPolicy {
	case "grid", "error":
	default:
		return fmt.Errorf("unknown FALLBACK_POLICY %q (want grid or error)", c.FallbackPolicy)
	}

	return nil
}

// Get returns the environment variable value or the fallback when unset.
func Get(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDurationEnv(key string, defaultSeconds int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Duration(defaultSeconds) * time.Second
}
