package content

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/richinsley/gobulge/capture"
	"github.com/richinsley/gobulge/messages"
)

// FromReplacement builds the node a validated message asks for. Fields left
// empty in r fall back to base.
func FromReplacement(r messages.Replacement, base TextStyle) (capture.Node, error) {
	if !r.HasText {
		img, err := DecodeImage(r.Image)
		if err != nil {
			return nil, err
		}
		fit, err := ParseFit(r.Fit)
		if err != nil {
			return nil, err
		}
		return NewImageNode(img, fit)
	}

	style := base
	if r.FontSize > 0 {
		style.FontSize = r.FontSize
	}
	if r.Foreground != "" {
		c, err := ParseHexColor(r.Foreground)
		if err != nil {
			return nil, fmt.Errorf("foreground: %w", err)
		}
		style.Foreground = c
	}
	if r.Background != "" {
		c, err := ParseHexColor(r.Background)
		if err != nil {
			return nil, fmt.Errorf("background: %w", err)
		}
		style.Background = c
	}
	return NewTextNode(r.Text, style)
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
