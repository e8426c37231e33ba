package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestViewportSize(t *testing.T) {
	c := DefaultCamera()
	w, h := c.ViewportSize(16.0 / 9.0)
	wantH := 2 * math.Tan(55*math.Pi/360) * 5
	assert.InDelta(t, wantH, h, 1e-4)
	assert.InDelta(t, wantH*16/9, w, 1e-4)
}

func TestViewportEdgesProjectToClipEdges(t *testing.T) {
	c := DefaultCamera()
	aspect := float32(2)
	w, h := c.ViewportSize(aspect)
	mvp := c.Projection(aspect).Mul4(c.View())

	corner := mvp.Mul4x1(mgl32.Vec4{w / 2, h / 2, 0, 1})
	ndc := corner.Vec3().Mul(1 / corner.W())
	assert.InDelta(t, 1, ndc.X(), 1e-4)
	assert.InDelta(t, 1, ndc.Y(), 1e-4)
}

func TestCameraValidate(t *testing.T) {
	assert.NoError(t, DefaultCamera().Validate())
	assert.Error(t, Camera{FOV: 0, Near: 0.1, Far: 10, Distance: 5}.Validate())
	assert.Error(t, Camera{FOV: 55, Near: 1, Far: 0.5, Distance: 5}.Validate())
	assert.Error(t, Camera{FOV: 55, Near: 0.1, Far: 4, Distance: 5}.Validate())
}

func TestAspect(t *testing.T) {
	assert.Equal(t, float32(2), Aspect(200, 100))
	assert.Equal(t, float32(1), Aspect(0, 100))
}
