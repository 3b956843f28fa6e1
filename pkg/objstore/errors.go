package objstore

import "errors"

// Sentinel errors for object storage operations.
var (
	// ErrInvalidConfig is returned when required configuration is missing.
	ErrInvalidConfig = errors.New("objstore: invalid config")

	// ErrPut is returned when an upload fails. Always transient from the
	// engine's point of view: publishing is best-effort.
	ErrPut = errors.New("objstore: put failed")
)
