package shader

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func approxEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestFalloffShape(t *testing.T) {
	const r = 0.25
	assert.Equal(t, float32(1), Falloff(0, r))
	assert.Equal(t, float32(0), Falloff(r, r))
	assert.Equal(t, float32(0), Falloff(3*r, r))
	assert.True(t, approxEqual(Falloff(r/2, r), 0.5, 1e-6))

	prev := Falloff(0, r)
	for i := 1; i <= 200; i++ {
		f := Falloff(float32(i)*r/100, r)
		assert.LessOrEqual(t, f, prev, "falloff must not increase at step %d", i)
		prev = f
	}
}

func TestFalloffIsSmoothAtEdges(t *testing.T) {
	const r, h = 0.25, 1e-3
	// slope vanishes at both ends of the ramp
	assert.Less(t, (1-Falloff(h, r))/h, float32(0.1))
	assert.Less(t, Falloff(r-h, r)/h, float32(0.1))
}

func TestFalloffDegenerateRadius(t *testing.T) {
	assert.Equal(t, float32(1), Falloff(0, 0))
	assert.Equal(t, float32(0), Falloff(0.1, 0))
}

func TestDisplacementPeaksAtPointer(t *testing.T) {
	p := DefaultParams()
	tests := []struct {
		name  string
		mouse mgl32.Vec2
	}{
		{"center", mgl32.Vec2{0, 0}},
		{"corner", mgl32.Vec2{1, 1}},
		{"off axis", mgl32.Vec2{-0.4, 0.7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := MouseUV(tt.mouse)
			assert.True(t, approxEqual(Displacement(at, tt.mouse, 0, p), p.Strength, 1e-6))

			prev := p.Strength
			for i := 1; i <= 50; i++ {
				uv := at.Add(mgl32.Vec2{float32(i) * 0.01, 0})
				d := Displacement(uv, tt.mouse, 0, p)
				assert.LessOrEqual(t, d, prev)
				prev = d
			}
			far := at.Add(mgl32.Vec2{p.Radius * 1.01, 0})
			assert.True(t, approxEqual(Displacement(far, tt.mouse, 0, p), 0, 1e-6))
		})
	}
}

func TestDisplacementPulse(t *testing.T) {
	p := DefaultParams()
	p.Pulse = 0.5
	at := MouseUV(mgl32.Vec2{})
	assert.True(t, approxEqual(Displacement(at, mgl32.Vec2{}, math.Pi/2, p), p.Strength*1.5, 1e-5))
	assert.True(t, approxEqual(Displacement(at, mgl32.Vec2{}, 0, p), p.Strength, 1e-6))
}

func TestLensUV(t *testing.T) {
	p := DefaultParams()
	mouse := mgl32.Vec2{0, 0}

	far := mgl32.Vec2{0.95, 0.95}
	got := LensUV(far, mouse, p)
	assert.True(t, approxEqual(got.X(), far.X(), 1e-6) && approxEqual(got.Y(), far.Y(), 1e-6), "outside the radius sampling is untouched")

	at := MouseUV(mouse)
	assert.Equal(t, at, LensUV(at, mouse, p))

	near := mgl32.Vec2{0.55, 0.5}
	got = LensUV(near, mouse, p)
	assert.Less(t, got.X(), near.X(), "samples are pulled toward the pointer")
	assert.Greater(t, got.X(), at.X())
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	for _, p := range []Params{
		{Radius: 0, Strength: 1},
		{Radius: 0.1, Strength: -1},
		{Radius: 0.1, Lens: 2},
		{Radius: 0.1, Pulse: 1},
	} {
		assert.Error(t, p.Validate(), "%+v", p)
	}
}

func TestLightAttenuation(t *testing.T) {
	l := DefaultLight()
	assert.True(t, approxEqual(l.Attenuation(1), float32(math.Pow(1-1.0/20736, 2)), 1e-5))
	assert.Equal(t, float32(0), l.Attenuation(12))
	assert.Equal(t, float32(0), l.Attenuation(20))
	assert.Greater(t, l.Attenuation(2), l.Attenuation(4))

	l.Distance = 0
	assert.True(t, approxEqual(l.Attenuation(4), 0.25, 1e-6))
}

func TestSourcesDeclareUniforms(t *testing.T) {
	vs, fs := Sources()
	assert.True(t, strings.HasPrefix(vs, "#version 300 es"))
	assert.True(t, strings.HasPrefix(fs, "#version 300 es"))
	for _, name := range Uniforms {
		assert.True(t, strings.Contains(vs, " "+name+";") || strings.Contains(fs, " "+name+";"), name)
	}
}
