package template

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
)

//go:embed templates/*.yaml
var builtinFS embed.FS

// Source supplies raw template documents by id.
type Source interface {
	// Load returns the raw template document for id, or ErrNotFound
	// when the id is unknown to this source. Sources that fetch over a
	// network must honor ctx so a hung fetch cannot outlive its render.
	Load(ctx context.Context, id string) ([]byte, error)
}

// FSSource loads template documents named "<id>.yaml" from a filesystem.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a Source backed by fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// Load reads "<id>.yaml" from the filesystem. Ids that would escape the
// filesystem root are treated as unknown.
func (s *FSSource) Load(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := id + ".yaml"
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return nil, fmt.Errorf("template: load %q: %w", id, err)
	}

	return data, nil
}

// builtinSource serves the embedded templates ("simple", "banner").
func builtinSource() *FSSource {
	sub, err := fs.Sub(builtinFS, "templates")
	if err != nil {
		// The embedded tree always contains templates/; this cannot
		// fail at runtime.
		panic(err)
	}
	return NewFSSource(sub)
}

var _ Source = (*FSSource)(nil)
