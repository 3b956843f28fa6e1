package template

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Renderer loads a named template document, binds parameters into its
// placeholders, and produces a render [Tree].
//
// Binding is deterministic and total for well-formed templates: the same
// (template, params) pair always yields the same tree. Parameter values
// are data, never structure — the document is parsed as YAML first and
// placeholders are expanded per string field afterwards, so no parameter
// value can alter the document's shape.
type Renderer struct {
	sources []Source
	policy  *bluemonday.Policy
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithSource adds a template source. Sources are consulted in the order
// they were added, before the embedded builtins.
func WithSource(s Source) RendererOption {
	return func(r *Renderer) {
		r.sources = append(r.sources, s)
	}
}

// NewRenderer creates a Renderer. With no options it serves only the
// embedded builtin templates.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{
		policy: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sources = append(r.sources, builtinSource())
	return r
}

// Render loads templateID, binds params into it, and returns the tree.
// Missing params expand to the empty string; layers whose text or asset
// reference binds to empty are pruned from the tree. Cancelling ctx
// aborts the load; binding itself is CPU-only and runs to completion.
func (r *Renderer) Render(ctx context.Context, templateID string, params map[string]string) (*Tree, error) {
	raw, err := r.load(ctx, templateID)
	if err != nil {
		return nil, err
	}

	var tree Tree
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: template %q: %w", ErrParse, templateID, err)
	}

	data := r.sanitize(params)
	if err := bindTree(&tree, data); err != nil {
		return nil, fmt.Errorf("template %q: %w", templateID, err)
	}

	return &tree, nil
}

// load tries each source in order and returns the first hit.
func (r *Renderer) load(ctx context.Context, templateID string) ([]byte, error) {
	for _, s := range r.sources {
		raw, err := s.Load(ctx, templateID)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, templateID)
}

// sanitize strips markup from parameter values. Titles and descriptions
// usually come straight from query strings; whatever survives the strict
// policy is plain text.
func (r *Renderer) sanitize(params map[string]string) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = html.UnescapeString(r.policy.Sanitize(v))
	}
	return out
}

// bindTree expands placeholders in every string field, applies text
// transforms, validates layer types, and prunes layers that bound to
// nothing.
func bindTree(tree *Tree, data map[string]string) error {
	var err error
	if tree.Background.Color, err = expand(tree.Background.Color, data); err != nil {
		return err
	}
	if g := tree.Background.Gradient; g != nil {
		if g.From, err = expand(g.From, data); err != nil {
			return err
		}
		if g.To, err = expand(g.To, data); err != nil {
			return err
		}
	}

	bound := tree.Layers[:0]
	for i := range tree.Layers {
		l := tree.Layers[i]

		switch l.Type {
		case LayerText, LayerRect, LayerImage:
		default:
			return fmt.Errorf("%w: unknown layer type %q", ErrParse, l.Type)
		}

		if l.Text, err = expand(l.Text, data); err != nil {
			return err
		}
		if l.Color, err = expand(l.Color, data); err != nil {
			return err
		}
		if l.Ref, err = expand(l.Ref, data); err != nil {
			return err
		}
		if l.Text, err = applyTransform(l.Text, l.Transform); err != nil {
			return err
		}

		// A text layer without text or an image layer without an asset
		// reference renders to nothing; drop it here so the encoder only
		// sees drawable layers.
		if (l.Type == LayerText && l.Text == "") || (l.Type == LayerImage && l.Ref == "") {
			continue
		}

		bound = append(bound, l)
	}
	tree.Layers = bound

	return nil
}

// expand runs text/template over a single string field. Fields without
// placeholders pass through untouched.
func expand(s string, data map[string]string) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	t, err := texttemplate.New("field").Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBind, err)
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBind, err)
	}

	return buf.String(), nil
}

// applyTransform applies the layer's case transform to bound text.
func applyTransform(s, transform string) (string, error) {
	switch transform {
	case "":
		return s, nil
	case "upper":
		return cases.Upper(language.Und).String(s), nil
	case "lower":
		return cases.Lower(language.Und).String(s), nil
	case "title":
		return cases.Title(language.Und).String(s), nil
	default:
		return "", fmt.Errorf("%w: unknown transform %q", ErrParse, transform)
	}
}
