package template

import "errors"

// Sentinel errors for template loading and binding. All of them indicate
// bad input (unknown template or malformed document), never a transient
// condition.
var (
	// ErrNotFound is returned when no source can supply the template id.
	ErrNotFound = errors.New("template: not found")

	// ErrParse is returned when a template document is not valid YAML or
	// declares an unknown layer type or transform.
	ErrParse = errors.New("template: parse failed")

	// ErrBind is returned when placeholder expansion fails.
	ErrBind = errors.New("template: binding failed")
)
