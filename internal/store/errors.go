package store

import "errors"

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned for ids that are not well-formed UUIDs.
	ErrInvalidID = errors.New("invalid id")

	// ErrNotConfigured is returned by callers that need persistence when
	// no database is configured.
	ErrNotConfigured = errors.New("database not configured")
)
