package interfaces

import "errors"

var (
	// ErrNotFound is returned when no document matches, including when a
	// guarded update finds its guard no longer holds.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
)
