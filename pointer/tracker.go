// Package pointer smooths raw pointer input into the value fed to the
// displacement shader.
package pointer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultAlpha is the fraction of the remaining distance covered per frame.
const DefaultAlpha = 0.1

// Sample is a raw pointer coordinate normalized to [-1,1] on both axes.
// Valid is false when no new sample arrived since the previous frame (for
// example the cursor left the window).
type Sample struct {
	X, Y  float32
	Valid bool
}

// At returns a valid sample at (x, y).
func At(x, y float32) Sample {
	return Sample{X: x, Y: y, Valid: true}
}

// Tracker is a single-pole low-pass filter over pointer samples. It starts at
// (0,0) and is only reset by constructing a new Tracker.
type Tracker struct {
	alpha    float32
	raw      mgl32.Vec2
	smoothed mgl32.Vec2
}

func NewTracker(alpha float32) (*Tracker, error) {
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("smoothing alpha must be in (0,1), got %v", alpha)
	}
	return &Tracker{alpha: alpha}, nil
}

// Tick advances the filter by one frame. An invalid sample holds the last
// known raw position. Call exactly once per rendered frame.
func (t *Tracker) Tick(s Sample) mgl32.Vec2 {
	if s.Valid {
		t.raw = mgl32.Vec2{s.X, s.Y}
	}
	t.smoothed = t.smoothed.Add(t.raw.Sub(t.smoothed).Mul(t.alpha))
	return t.smoothed
}

// Value is the current smoothed pointer.
func (t *Tracker) Value() mgl32.Vec2 {
	return t.smoothed
}

// Raw is the last raw pointer the filter is converging on.
func (t *Tracker) Raw() mgl32.Vec2 {
	return t.raw
}
