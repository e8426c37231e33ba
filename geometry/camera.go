package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera on the +z axis looking at the origin.
type Camera struct {
	FOV      float32 // vertical, degrees
	Near     float32
	Far      float32
	Distance float32
}

func DefaultCamera() Camera {
	return Camera{FOV: 55, Near: 0.1, Far: 200, Distance: 5}
}

func (c Camera) Validate() error {
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("fov must be in (0,180), got %v", c.FOV)
	}
	if c.Near <= 0 || c.Far <= c.Near {
		return fmt.Errorf("need 0 < near < far, got near=%v far=%v", c.Near, c.Far)
	}
	if c.Distance <= c.Near || c.Distance >= c.Far {
		return fmt.Errorf("distance %v outside the clip range", c.Distance)
	}
	return nil
}

// ViewportSize is the world-space size of the frustum slice at z=0.
func (c Camera) ViewportSize(aspect float32) (width, height float32) {
	fov := float64(mgl32.DegToRad(c.FOV))
	height = float32(2 * math.Tan(fov/2) * float64(c.Distance))
	return height * aspect, height
}

func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

func (c Camera) Position() mgl32.Vec3 {
	return mgl32.Vec3{0, 0, c.Distance}
}

func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

// Aspect returns width/height, or 1 for a degenerate size.
func Aspect(width, height int) float32 {
	if width <= 0 || height <= 0 {
		return 1
	}
	return float32(width) / float32(height)
}
