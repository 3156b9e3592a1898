package types

import "errors"

// Sentinel errors for the core API. Callers match with errors.Is; the serve
// layer maps them onto wire error codes.
var (
	// ErrInvalidInput rejects a mutation before anything is stored: unknown
	// echo type, negative weight, or a malformed filter value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound reports an unknown echo id on Get or Retrieve.
	ErrNotFound = errors.New("echo not found")

	// ErrPersistence reports a snapshot sink failure. It is isolated to the
	// snapshot service and never surfaces from store operations.
	ErrPersistence = errors.New("persistence failure")
)
