package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ride-routing-service/internal/adapters/cache"
	"ride-routing-service/internal/adapters/overpass"
	"ride-routing-service/internal/config"
	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/geo"
	"ride-routing-service/internal/platform/db"
	"ride-routing-service/internal/platform/retry"
	"ride-routing-service/internal/services"
)

// routetool plans a single route from the command line and prints
// turn-by-turn narration. With -init-schema it instead prepares the
// postgres payload cache table and exits.
func main() {
	var (
		fromFlag   = flag.String("from", "", "origin as \"lat,lon\"")
		toFlag     = flag.String("to", "", "destination as \"lat,lon\"")
		radiusFlag = flag.Float64("radius", 0, "node search radius in meters (0 uses the default)")
		initSchema = flag.Bool("init-schema", false, "initialize the postgres payload cache schema and exit")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg := config.Load()

	if *initSchema {
		if err := initCacheSchema(cfg); err != nil {
			log.Fatal(err)
		}
		fmt.Println("payload cache schema ready")
		return
	}

	origin, err := parsePoint(*fromFlag)
	if err != nil {
		log.Fatalf("-from: %v", err)
	}
	destination, err := parsePoint(*toFlag)
	if err != nil {
		log.Fatalf("-to: %v", err)
	}

	route, err := planOnce(cfg, origin, destination, *radiusFlag)
	if err != nil {
		log.Fatal(err)
	}

	printRoute(route)
}

func initCacheSchema(cfg *config.Config) error {
	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required for -init-schema")
	}

	pool, err := db.Open(databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	return cache.NewSQLPayloadCache(pool, cfg.CacheTTL).InitSchema(context.Background())
}

func planOnce(cfg *config.Config, origin, destination domain.Point, radius float64) (*services.PlannedRoute, error) {
	policy := retry.NewPolicy(cfg.RetryAttempts, cfg.RetryBaseDelay)
	provider, err := overpass.NewClient(cfg.OverpassURL, cfg.HTTPTimeout, policy)
	if err != nil {
		return nil, err
	}

	payloadCache := cache.NewMemoryPayloadCache(cfg.CacheTTL)
	defer payloadCache.Close()

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
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return engine.PlanRoute(ctx, origin, destination, radius)
}

func printRoute(route *services.PlannedRoute) {
	fmt.Printf("distance: %.0f m\n", route.DistanceMeters)
	fmt.Printf("duration: %.0f s\n", route.DurationSeconds)
	fmt.Printf("fare:     %.2f\n", route.Fare)
	if route.Degraded {
		fmt.Printf("degraded: %s\n", route.DegradedReason)
	}
	fmt.Println()

	for _, step := range narrate(route.Polyline) {
		fmt.Println(step)
	}
}

// narrate folds the polyline into turn instructions: consecutive
// straight segments merge into one "continue" step.
func narrate(polyline []domain.Point) []string {
	if len(polyline) < 2 {
		return nil
	}

	steps := []string{"depart"}
	legMeters := geo.Distance(polyline[0], polyline[1])

	for i := 1; i < len(polyline)-1; i++ {
		in := geo.Bearing(polyline[i-1], polyline[i])
		out := geo.Bearing(polyline[i], polyline[i+1])
		segment := geo.Distance(polyline[i], polyline[i+1])

		turn := geo.ClassifyTurn(in, out)
		if turn == geo.TurnStraight {
			legMeters += segment
			continue
		}

		steps = append(steps, fmt.Sprintf("continue for %.0f m, then %s", legMeters, turn))
		legMeters = segment
	}

	steps = append(steps, fmt.Sprintf("continue for %.0f m, then arrive", legMeters))
	return steps
}

func parsePoint(s string) (domain.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Point{}, fmt.Errorf("want \"lat,lon\", got %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("bad latitude %q: %w", parts[0], err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Point{}, fmt.Errorf("bad longitude %q: %w", parts[1], err)
	}

	p := domain.Point{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.Point{}, fmt.Errorf("coordinates out of range: %s", s)
	}
	return p, nil
}
