package encoder

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"unicode/utf8"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/cloud-shuttle/ogimage/pkg/template"
)

// Base glyph metrics of basicfont.Face7x13. Text is rasterized at the
// base size and scaled to the layer's requested size.
const (
	baseAdvance = 7
	baseHeight  = 13
	baseAscent  = 11
)

const defaultTextSize = 16

// drawText renders a text layer: wrap, truncate, rasterize each line at
// base size, then scale into place. X/Y are the top-left corner of the
// first line.
func (e *Encoder) drawText(img *image.RGBA, l template.Layer) error {
	c := color.Color(color.White)
	if l.Color != "" {
		parsed, err := parseColor(l.Color)
		if err != nil {
			return err
		}
		c = parsed
	}

	size := l.Size
	if size <= 0 {
		size = defaultTextSize
	}
	scale := float64(size) / baseHeight

	maxChars := 0
	if l.MaxWidth > 0 {
		maxChars = int(float64(l.MaxWidth) / (baseAdvance * scale))
	}

	lines := wrapText(l.Text, maxChars, l.MaxLines)
	lineHeight := size + size/4

	for i, line := range lines {
		if line == "" {
			continue
		}

		src := rasterizeLine(line, c)
		w := int(float64(src.Bounds().Dx()) * scale)
		top := l.Y + i*lineHeight
		dst := image.Rect(l.X, top, l.X+w, top+size)
		xdraw.ApproxBiLinear.Scale(img, dst, src, src.Bounds(), draw.Over, nil)
	}

	return nil
}

// rasterizeLine draws one line of text at base size onto a transparent
// image exactly wide enough to hold it.
func rasterizeLine(s string, c color.Color) *image.RGBA {
	w := baseAdvance * utf8.RuneCountInString(s)
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), baseHeight))

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(0, baseAscent),
	}
	d.DrawString(s)

	return img
}

// wrapText greedily wraps s into lines of at most maxChars runes
// (0 = no wrapping). With maxLines > 0 the output is truncated and the
// last line gains an ellipsis. Words longer than a line are split.
func wrapText(s string, maxChars, maxLines int) []string {
	if maxChars <= 0 {
		return []string{s}
	}

	var lines []string
	var line strings.Builder
	lineLen := 0

	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineLen = 0
	}

	for _, word := range strings.Fields(s) {
		wordLen := utf8.RuneCountInString(word)

		// Split words that cannot fit on any line.
		for wordLen > maxChars {
			if lineLen > 0 {
				flush()
			}
			runes := []rune(word)
			line.WriteString(string(runes[:maxChars]))
			lineLen = maxChars
			flush()
			word = string(runes[maxChars:])
			wordLen = utf8.RuneCountInString(word)
		}
		if wordLen == 0 {
			continue
		}

		sep := 0
		if lineLen > 0 {
			sep = 1
		}
		if lineLen+sep+wordLen > maxChars {
			flush()
			sep = 0
		}
		if sep == 1 {
			line.WriteByte(' ')
			lineLen++
		}
		line.WriteString(word)
		lineLen += wordLen
	}
	if lineLen > 0 {
		flush()
	}

	if len(lines) == 0 {
		return []string{""}
	}

	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
		lines[maxLines-1] = truncateWithEllipsis(lines[maxLines-1], maxChars)
	}

	return lines
}

// truncateWithEllipsis appends "…" to a line, dropping the final rune
// first if the line is already full.
func truncateWithEllipsis(line string, maxChars int) string {
	runes := []rune(line)
	if len(runes) >= maxChars && len(runes) > 0 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// parseColor parses #rgb, #rrggbb, and #rrggbbaa hex colors.
func parseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: color %q must start with '#'", ErrEncoding, s)
	}

	var r, g, b, a uint8
	a = 0xff
	switch len(hex) {
	case 3:
		var err error
		if r, err = hexNibble(hex[0]); err != nil {
			return color.NRGBA{}, badColor(s)
		}
		if g, err = hexNibble(hex[1]); err != nil {
			return color.NRGBA{}, badColor(s)
		}
		if b, err = hexNibble(hex[2]); err != nil {
			return color.NRGBA{}, badColor(s)
		}
		r, g, b = r*0x11, g*0x11, b*0x11
	case 8:
		var err error
		if a, err = hexByte(hex[6], hex[7]); err != nil {
			return color.NRGBA{}, badColor(s)
		}
		fallthrough
	case 6:
		var err error
		if r, err = hexByte(hex[0], hex[1]); err != nil {
			return color.NRGBA{}, badColor(s)
		}
		if g, err = hexByte(hex[2], hex[3]); err != nil {
			return color.NRGBA{}, badColor(s)
		}
		if b, err = hexByte(hex[4], hex[5]); err != nil {
			return color.NRGBA{}, badColor(s)
		}
	default:
		return color.NRGBA{}, badColor(s)
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

func badColor(s string) error {
	return fmt.Errorf("%w: invalid color %q", ErrEncoding, s)
}

func hexNibble(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("invalid hex digit %q", c)
}

func hexByte(hi, lo byte) (uint8, error) {
	h, err := hexNibble(hi)
	if err != nil {
		return 0, err
	}
	l, err := hexNibble(lo)
	if err != nil {
		return 0, err
	}
	return h<<4 | l, nil
}

// lerpColor interpolates between two colors at t in [0, 1].
func lerpColor(from, to color.NRGBA, t float64) color.NRGBA {
	lerp := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return color.NRGBA{
		R: lerp(from.R, to.R),
		G: lerp(from.G, to.G),
		B: lerp(from.B, to.B),
		A: lerp(from.A, to.A),
	}
}
