package content

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	xdraw "golang.org/x/image/draw"

	// Blank imports for image decoders so image.Decode can handle them.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Fit selects how an image is mapped onto the viewport.
type Fit int

const (
	// FitCover fills the viewport and crops the overflow, like CSS object-fit: cover.
	FitCover Fit = iota
	// FitContain letterboxes the whole image inside the viewport.
	FitContain
	// FitStretch ignores the aspect ratio.
	FitStretch
)

func ParseFit(s string) (Fit, error) {
	switch s {
	case "", "cover":
		return FitCover, nil
	case "contain":
		return FitContain, nil
	case "stretch":
		return FitStretch, nil
	default:
		return FitCover, fmt.Errorf("unknown fit %q", s)
	}
}

// ImageNode rasterizes a decoded image at the viewport size.
type ImageNode struct {
	src image.Image
	fit Fit
}

func NewImageNode(src image.Image, fit Fit) (*ImageNode, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("image is empty")
	}
	return &ImageNode{src: src, fit: fit}, nil
}

func LoadImageFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return DecodeImage(data)
}

func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Rasterize implements capture.Node.
func (n *ImageNode) Rasterize(ctx context.Context, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, fitRect(n.src.Bounds(), dst.Bounds(), n.fit), n.src, n.src.Bounds(), xdraw.Over, nil)
	return dst, nil
}

// fitRect returns the destination rectangle for src inside dst.
func fitRect(src, dst image.Rectangle, fit Fit) image.Rectangle {
	if fit == FitStretch {
		return dst
	}
	sw, sh := float64(src.Dx()), float64(src.Dy())
	dw, dh := float64(dst.Dx()), float64(dst.Dy())
	scale := dw / sw
	if fit == FitCover && sh*scale < dh || fit == FitContain && sh*scale > dh {
		scale = dh / sh
	}
	w, h := int(sw*scale+0.5), int(sh*scale+0.5)
	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}
