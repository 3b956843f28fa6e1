package ogimage

import (
	"errors"

	"github.com/cloud-shuttle/ogimage/pkg/encoder"
	"github.com/cloud-shuttle/ogimage/pkg/template"
)

// ErrCancelled is returned when a render was cancelled or timed out
// before producing an outcome — either the caller's context expired
// while waiting, or the leader's render exceeded the configured timeout.
var ErrCancelled = errors.New("ogimage: render cancelled")

// IsBadInput reports whether err was caused by the request itself
// (unknown template, malformed document, out-of-bounds geometry, missing
// asset) rather than a transient condition. Callers should surface bad
// input to the user instead of retrying.
func IsBadInput(err error) bool {
	return errors.Is(err, template.ErrNotFound) ||
		errors.Is(err, template.ErrParse) ||
		errors.Is(err, template.ErrBind) ||
		errors.Is(err, encoder.ErrGeometry) ||
		errors.Is(err, encoder.ErrAssetNotFound)
}
