package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"ride-routing-service/internal/api/handlers"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(planner handlers.RoutePlanner) http.Handler {
	r := mux.NewRouter()

	routeHandler := &handlers.RouteHandler{Planner: planner}

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.HandleFunc("/routes", routeHandler.Plan).Methods(http.MethodPost)
	r.HandleFunc("/routes/geojson", routeHandler.PlanGeoJSON).Methods(http.MethodPost)

	r.Use(requestIDMiddleware)

	return loggingMiddleware(r)
}
