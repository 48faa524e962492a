package domain

import (
	"errors"
	"fmt"
)

// Routing failure taxonomy. Callers branch on these with errors.Is.
var (
	// ErrNetworkUnavailable means the map-data fetch exhausted its retries.
	ErrNetworkUnavailable = errors.New("map data network unavailable")

	// ErrMalformedPayload means the provider answered but the payload
	// could not be decoded. Kept distinct from ErrNetworkUnavailable so
	// the fetcher can tell a dead provider from a broken one.
	ErrMalformedPayload = errors.New("malformed map data payload")

	// ErrNoNodeFound means the graph is empty or uninitialized; fatal to
	// the routing request.
	ErrNoNodeFound = errors.New("no usable graph node found")

	// ErrNoPathFound means the destination is unreachable from the origin
	// in the connectivity-pruned graph. Recovered locally via the
	// straight-line fallback.
	ErrNoPathFound = errors.New("no path between nodes")

	// ErrInvalidCoordinates rejects NaN/out-of-range coordinates or points
	// outside the operating geofence, before any network or graph work.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// RoutingError wraps a failure with the pipeline stage it occurred in,
// so callers can decide whether to retry, fall back, or abort.
type RoutingError struct {
	Stage string // "validate", "fetch", "locate", "plan"
	Err   error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing stage %s: %v", e.Stage, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// StageError tags err with the stage it failed in.
func StageError(stage string, err error) error {
	return &RoutingError{Stage: stage, Err: err}
}
