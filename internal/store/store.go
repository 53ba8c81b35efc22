// Package store holds the persistent key-value backends for the booking collection.
// Every backend stores opaque bytes under a single string key; a missing key reads as (nil, nil).
package store

import "errors"

var (
	ErrNilClient = errors.New("store client is nil")
	ErrClosed    = errors.New("store is closed")

	// ErrCorrupt marks a stored value that cannot be decoded.
	ErrCorrupt = errors.New("stored value is corrupt")
)
