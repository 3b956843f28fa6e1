package encoder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // register JPEG decoding for image layer assets
	"image/png"
	"io/fs"

	xdraw "golang.org/x/image/draw"

	"github.com/cloud-shuttle/ogimage/pkg/template"
)

// Canvas bounds, in pixels per axis. Checked before any buffer is
// allocated so a hostile width can never trigger a huge allocation.
const (
	MinDimension = 1
	MaxDimension = 4096
)

// Encoder rasterizes a render tree into PNG bytes.
type Encoder struct {
	opts *options
}

// New creates an Encoder.
func New(opts ...Option) *Encoder {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Encoder{opts: o}
}

// Encode walks the tree and produces the final artifact bytes.
// Geometry is validated first; layers are drawn in document order.
func (e *Encoder) Encode(tree *template.Tree) ([]byte, error) {
	if err := validateGeometry(tree.Width, tree.Height); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, tree.Width, tree.Height))

	if err := fillBackground(img, tree.Background); err != nil {
		return nil, err
	}

	for i, l := range tree.Layers {
		var err error
		switch l.Type {
		case template.LayerRect:
			err = e.drawRect(img, l)
		case template.LayerText:
			err = e.drawText(img, l)
		case template.LayerImage:
			err = e.drawImage(img, l)
		default:
			err = fmt.Errorf("%w: layer %d has unknown type %q", ErrEncoding, i, l.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: e.opts.compression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	return buf.Bytes(), nil
}

// validateGeometry rejects dimensions outside [MinDimension, MaxDimension].
func validateGeometry(width, height int) error {
	if width < MinDimension || width > MaxDimension {
		return fmt.Errorf("%w: width %d not within [%d, %d]", ErrGeometry, width, MinDimension, MaxDimension)
	}
	if height < MinDimension || height > MaxDimension {
		return fmt.Errorf("%w: height %d not within [%d, %d]", ErrGeometry, height, MinDimension, MaxDimension)
	}
	return nil
}

// fillBackground paints the whole canvas. Gradient wins over solid color;
// with neither configured the canvas is white.
func fillBackground(img *image.RGBA, bg template.Background) error {
	if g := bg.Gradient; g != nil {
		return fillGradient(img, g)
	}

	c := color.Color(color.White)
	if bg.Color != "" {
		parsed, err := parseColor(bg.Color)
		if err != nil {
			return err
		}
		c = parsed
	}

	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}

// fillGradient paints a two-stop linear gradient, interpolating per row
// (vertical) or per column (horizontal).
func fillGradient(img *image.RGBA, g *template.Gradient) error {
	from, err := parseColor(g.From)
	if err != nil {
		return err
	}
	to, err := parseColor(g.To)
	if err != nil {
		return err
	}

	b := img.Bounds()
	if g.Vertical {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			c := lerpColor(from, to, float64(y-b.Min.Y)/float64(max(b.Dy()-1, 1)))
			row := image.Rect(b.Min.X, y, b.Max.X, y+1)
			draw.Draw(img, row, image.NewUniform(c), image.Point{}, draw.Src)
		}
		return nil
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		c := lerpColor(from, to, float64(x-b.Min.X)/float64(max(b.Dx()-1, 1)))
		col := image.Rect(x, b.Min.Y, x+1, b.Max.Y)
		draw.Draw(img, col, image.NewUniform(c), image.Point{}, draw.Src)
	}
	return nil
}

// drawRect fills the layer's rectangle with its color.
func (e *Encoder) drawRect(img *image.RGBA, l template.Layer) error {
	c, err := parseColor(l.Color)
	if err != nil {
		return err
	}

	rect := image.Rect(l.X, l.Y, l.X+l.W, l.Y+l.H).Intersect(img.Bounds())
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Over)
	return nil
}

// drawImage decodes the referenced asset and scales it into the layer's
// rectangle. W/H of zero keep the asset's natural size.
func (e *Encoder) drawImage(img *image.RGBA, l template.Layer) error {
	if e.opts.assets == nil {
		return fmt.Errorf("%w: %q (no asset source configured)", ErrAssetNotFound, l.Ref)
	}

	data, err := fs.ReadFile(e.opts.assets, l.Ref)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrAssetNotFound, l.Ref)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: decode asset %q: %w", ErrEncoding, l.Ref, err)
	}

	w, h := l.W, l.H
	if w <= 0 {
		w = src.Bounds().Dx()
	}
	if h <= 0 {
		h = src.Bounds().Dy()
	}

	dst := image.Rect(l.X, l.Y, l.X+w, l.Y+h)
	xdraw.ApproxBiLinear.Scale(img, dst, src, src.Bounds(), draw.Over, nil)
	return nil
}
