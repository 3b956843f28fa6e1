package template

// Layer types understood by the encoder.
const (
	LayerText  = "text"
	LayerRect  = "rect"
	LayerImage = "image"
)

// Tree is the intermediate representation between template binding and
// final encoding: a canvas with a background and an ordered list of
// layers. It is produced by [Renderer.Render], consumed by the encoder,
// and never cached — only final artifact bytes are.
type Tree struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Background Background `yaml:"background"`
	Layers     []Layer    `yaml:"layers"`
}

// Background fills the canvas with either a solid color or a two-stop
// linear gradient. Gradient takes precedence when both are set.
type Background struct {
	Color    string    `yaml:"color,omitempty"`
	Gradient *Gradient `yaml:"gradient,omitempty"`
}

// Gradient is a two-stop linear gradient, horizontal by default.
type Gradient struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Vertical bool   `yaml:"vertical,omitempty"`
}

// Layer is one drawable element. Type selects which fields apply:
// text layers use Text/Size/Color/MaxWidth/MaxLines/Transform, rect
// layers use the geometry plus Color, image layers use Ref plus the
// geometry. Coordinates are in pixels from the top-left corner.
type Layer struct {
	Type string `yaml:"type"`

	X int `yaml:"x"`
	Y int `yaml:"y"`
	W int `yaml:"w,omitempty"`
	H int `yaml:"h,omitempty"`

	// Text layer fields.
	Text      string `yaml:"text,omitempty"`
	Size      int    `yaml:"size,omitempty"`
	Color     string `yaml:"color,omitempty"`
	MaxWidth  int    `yaml:"max_width,omitempty"`
	MaxLines  int    `yaml:"max_lines,omitempty"`
	Transform string `yaml:"transform,omitempty"` // upper, lower, title

	// Image layer asset reference, resolved by the encoder.
	Ref string `yaml:"ref,omitempty"`
}
