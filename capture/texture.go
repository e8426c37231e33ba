package capture

import (
	"context"
	"image"
)

// Node is a piece of visual content that can be rasterized at a given size.
// Rasterize runs off the render thread and must not touch GL state.
type Node interface {
	Rasterize(ctx context.Context, width, height int) (*image.RGBA, error)
}

// Texture is an immutable snapshot of a rasterized Node. A new capture
// replaces the whole Texture; Image must never be written after install.
type Texture struct {
	Image   *image.RGBA
	Width   int
	Height  int
	Version uint64
}

// State of the capture pipeline.
type State int

const (
	Idle State = iota
	Capturing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Capturing:
		return "capturing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats counts capture outcomes since the service was created.
type Stats struct {
	Requested int
	Installed int
	Stale     int
	Failed    int
}
