package models

import "errors"

// Sentinel errors for the handler-boundary taxonomy. Handlers map these to
// HTTP status codes; anything else becomes a 500 with the fault's description.
var (
	// ErrNotFound marks an unknown symbol (no recent price history) or an
	// unrecognized mock news source.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable marks an upstream transport failure or a feature whose
	// API credential is not configured.
	ErrUnavailable = errors.New("service unavailable")
)
