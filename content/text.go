// Package content provides the capture.Node implementations: text laid out
// with an OpenType face and decoded images scaled to the viewport.
package content

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextStyle controls how a TextNode is laid out.
type TextStyle struct {
	FontSize   float64 // pixels
	Foreground color.RGBA
	Background color.RGBA // zero value is transparent, matching a DOM capture without background
	// LineHeight is a multiple of the face height. Zero means 1.2.
	LineHeight float64
	// Margin is the horizontal padding on each side, as a fraction of the width.
	Margin float64
	// FontData is a TTF/OTF file. Nil selects Go Regular.
	FontData []byte
}

func DefaultTextStyle() TextStyle {
	return TextStyle{
		FontSize:   72,
		Foreground: color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff},
		LineHeight: 1.2,
		Margin:     0.08,
	}
}

// TextNode rasterizes a block of text, word wrapped and centered in the viewport.
type TextNode struct {
	text  string
	style TextStyle
	font  *opentype.Font
}

func NewTextNode(text string, style TextStyle) (*TextNode, error) {
	data := style.FontData
	if data == nil {
		data = goregular.TTF
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if style.FontSize <= 0 {
		return nil, fmt.Errorf("font size must be positive, got %v", style.FontSize)
	}
	if style.LineHeight <= 0 {
		style.LineHeight = 1.2
	}
	return &TextNode{text: text, style: style, font: f}, nil
}

func (n *TextNode) Text() string {
	return n.text
}

// Rasterize implements capture.Node. A face is created per call because
// font.Face values are not safe for concurrent use.
func (n *TextNode) Rasterize(ctx context.Context, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	face, err := opentype.NewFace(n.font, &opentype.FaceOptions{
		Size:    n.style.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	defer face.Close()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if n.style.Background.A != 0 {
		draw.Draw(img, img.Bounds(), image.NewUniform(n.style.Background), image.Point{}, draw.Src)
	}

	margin := int(float64(width) * n.style.Margin)
	lines := wrapText(face, n.text, fixed.I(width-2*margin))

	metrics := face.Metrics()
	lineHeight := fixed.Int26_6(float64(metrics.Height) * n.style.LineHeight)
	blockHeight := lineHeight * fixed.Int26_6(len(lines))
	top := (fixed.I(height) - blockHeight) / 2

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(n.style.Foreground),
		Face: face,
	}
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		adv := d.MeasureString(line)
		d.Dot = fixed.Point26_6{
			X: (fixed.I(width) - adv) / 2,
			Y: top + lineHeight*fixed.Int26_6(i) + metrics.Ascent,
		}
		d.DrawString(line)
	}
	return img, nil
}

// wrapText breaks text into lines no wider than maxWidth. Explicit newlines
// start a new paragraph; a single word wider than maxWidth gets its own line.
func wrapText(face font.Face, text string, maxWidth fixed.Int26_6) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			candidate := line + " " + w
			if font.MeasureString(face, candidate) > maxWidth {
				lines = append(lines, line)
				line = w
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}
