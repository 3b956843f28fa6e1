package ogimage

import (
	"strconv"
	"time"

	"github.com/cloud-shuttle/ogimage/pkg/cachekey"
)

// Request describes one artifact to render. It is immutable once
// constructed: two requests with identical field values produce identical
// cache keys regardless of how they were built.
type Request struct {
	// Template is the template identifier ("simple", "banner", or any id
	// served by a configured source).
	Template string

	// Title and Description are the main text parameters.
	Title       string
	Description string

	// Width and Height override the template's canvas size when
	// positive. Standard OG dimensions are 1200x630.
	Width  int
	Height int

	// Background, Foreground, and Accent are hex colors. Empty values
	// fall back to the template's defaults.
	Background string
	Foreground string
	Accent     string

	// Logo is an asset reference for templates with an image layer.
	Logo string

	// Extra carries additional template parameters by name.
	Extra map[string]string

	// TTL controls how long the rendered artifact stays cached.
	// Zero uses the engine default. TTL is a caching directive, not a
	// render parameter, so it does not contribute to the cache key.
	TTL time.Duration
}

// key derives the request's cache key in the image namespace.
func (r Request) key() cachekey.Key {
	b := cachekey.New("image").
		Str("template", r.Template).
		Str("title", r.Title).
		Str("description", r.Description).
		Int("width", r.Width).
		Int("height", r.Height).
		Str("background", r.Background).
		Str("foreground", r.Foreground).
		Str("accent", r.Accent).
		Str("logo", r.Logo)

	for k, v := range r.Extra {
		b.Str("extra."+k, v)
	}

	return b.Sum()
}

// params flattens the request into the parameter map templates bind
// against. Extra entries cannot shadow the named fields.
func (r Request) params() map[string]string {
	p := make(map[string]string, len(r.Extra)+9)
	for k, v := range r.Extra {
		p[k] = v
	}

	p["Title"] = r.Title
	p["Description"] = r.Description
	p["Background"] = r.Background
	p["Foreground"] = r.Foreground
	p["Accent"] = r.Accent
	p["Logo"] = r.Logo
	p["Width"] = strconv.Itoa(r.Width)
	p["Height"] = strconv.Itoa(r.Height)

	return p
}
