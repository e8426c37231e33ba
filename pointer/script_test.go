package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptReachesWaypointAndAdvances(t *testing.T) {
	s := NewScript(
		Waypoint{X: 1, Y: -1, Duration: 1},
		Waypoint{X: 0, Y: 0, Duration: 1},
	)

	var last Sample
	for i := 0; i < 4; i++ {
		last = s.Next(0.25)
	}
	assert.True(t, last.Valid)
	assert.InDelta(t, 1, last.X, 1e-3)
	assert.InDelta(t, -1, last.Y, 1e-3)

	for i := 0; i < 4; i++ {
		last = s.Next(0.25)
	}
	assert.InDelta(t, 0, last.X, 1e-3)
	assert.InDelta(t, 0, last.Y, 1e-3)
}

func TestScriptStaysInRange(t *testing.T) {
	s := DefaultScript()
	for i := 0; i < 1200; i++ {
		p := s.Next(1.0 / 60)
		// OutBack overshoots a little past its waypoint but never leaves the viewport.
		assert.LessOrEqual(t, p.X, float32(1))
		assert.GreaterOrEqual(t, p.X, float32(-1))
		assert.LessOrEqual(t, p.Y, float32(1))
		assert.GreaterOrEqual(t, p.Y, float32(-1))
	}
}

func TestEmptyScriptIsCentered(t *testing.T) {
	assert.Equal(t, At(0, 0), NewScript().Next(0.5))
}
