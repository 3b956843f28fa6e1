package artifactcache

import "errors"

// Sentinel errors for cache operations.
var (
	// ErrNotFound is returned when a key does not exist in the cache or has expired.
	ErrNotFound = errors.New("artifactcache: entry not found")

	// ErrClosed is returned when an operation is attempted on a closed cache.
	ErrClosed = errors.New("artifactcache: closed")

	// ErrMarshal is returned when value serialization fails.
	ErrMarshal = errors.New("artifactcache: failed to marshal value")

	// ErrUnmarshal is returned when value deserialization fails.
	ErrUnmarshal = errors.New("artifactcache: failed to unmarshal value")

	// ErrIO is returned when a non-memory backend fails at the transport
	// level. Callers can treat it as transient and retry or degrade to a miss.
	ErrIO = errors.New("artifactcache: backend i/o failure")
)
