package encoder

import "errors"

// Sentinel errors for encoding.
var (
	// ErrEncoding is returned when the render tree cannot be turned into
	// artifact bytes (bad color, undrawable layer, PNG failure).
	ErrEncoding = errors.New("encoder: encoding failed")

	// ErrGeometry is returned when the canvas dimensions fall outside
	// the allowed bounds. Checked before any buffer is allocated.
	ErrGeometry = errors.New("encoder: geometry out of bounds")

	// ErrAssetNotFound is returned when an image layer references an
	// asset the configured source cannot supply.
	ErrAssetNotFound = errors.New("encoder: asset not found")
)
