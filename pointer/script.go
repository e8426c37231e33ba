package pointer

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Waypoint is a pointer target reached after Duration seconds of easing.
type Waypoint struct {
	X, Y     float32
	Duration float32
	Ease     ease.TweenFunc
}

// Script replays a looping path of eased pointer moves. Record mode uses it in
// place of a physical mouse.
type Script struct {
	points []Waypoint
	index  int
	tweenX *gween.Tween
	tweenY *gween.Tween
	pos    mgl32.Vec2
}

// NewScript builds a script starting at (0,0). Waypoints with a nil Ease use
// ease.InOutCubic.
func NewScript(points ...Waypoint) *Script {
	s := &Script{points: points}
	if len(points) > 0 {
		s.start(0)
	}
	return s
}

// DefaultScript sweeps the pointer through the four quadrants and back to center.
func DefaultScript() *Script {
	return NewScript(
		Waypoint{X: -0.6, Y: 0.4, Duration: 1.5},
		Waypoint{X: 0.5, Y: 0.5, Duration: 1.2},
		Waypoint{X: 0.6, Y: -0.5, Duration: 1.4, Ease: ease.OutBack},
		Waypoint{X: -0.4, Y: -0.6, Duration: 1.3},
		Waypoint{X: 0, Y: 0, Duration: 1.0, Ease: ease.InOutSine},
	)
}

func (s *Script) start(i int) {
	wp := s.points[i]
	fn := wp.Ease
	if fn == nil {
		fn = ease.InOutCubic
	}
	s.index = i
	s.tweenX = gween.New(s.pos.X(), wp.X, wp.Duration, fn)
	s.tweenY = gween.New(s.pos.Y(), wp.Y, wp.Duration, fn)
}

// Next advances the script by dt seconds and returns the raw sample for this frame.
func (s *Script) Next(dt float32) Sample {
	if len(s.points) == 0 {
		return At(0, 0)
	}
	x, doneX := s.tweenX.Update(dt)
	y, doneY := s.tweenY.Update(dt)
	s.pos = mgl32.Vec2{x, y}
	if doneX && doneY {
		s.start((s.index + 1) % len(s.points))
	}
	return At(x, y)
}
