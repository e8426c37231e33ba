// Package shader holds the displacement program: the WebGL2 sources that run
// on the GPU and a Go rendition of the same field used by tests and tools.
package shader

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Uniform names shared by both stages.
const (
	UniformTexture        = "uTexture"
	UniformHasTexture     = "uHasTexture"
	UniformMouse          = "uMouse"
	UniformTime           = "uTime"
	UniformProjection     = "uProjection"
	UniformView           = "uView"
	UniformModel          = "uModel"
	UniformCameraPosition = "uCameraPosition"
	UniformRadius         = "uRadius"
	UniformStrength       = "uStrength"
	UniformLens           = "uLens"
	UniformPulse          = "uPulse"
	UniformBaseColor      = "uBaseColor"
	UniformAmbient        = "uAmbient"
	UniformLightPosition  = "uLightPosition"
	UniformLightColor     = "uLightColor"
	UniformLightIntensity = "uLightIntensity"
	UniformLightDistance  = "uLightDistance"
	UniformLightDecay     = "uLightDecay"
)

// Uniforms lists every uniform the program declares.
var Uniforms = []string{
	UniformTexture, UniformHasTexture, UniformMouse, UniformTime,
	UniformProjection, UniformView, UniformModel, UniformCameraPosition,
	UniformRadius, UniformStrength, UniformLens, UniformPulse,
	UniformBaseColor, UniformAmbient,
	UniformLightPosition, UniformLightColor, UniformLightIntensity, UniformLightDistance, UniformLightDecay,
}

// Vertex attribute locations.
const (
	AttribPosition = 0
	AttribUV       = 1
)

const vertexShaderSource = `#version 300 es
precision highp float;

layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec2 aUv;

uniform mat4  uProjection;
uniform mat4  uView;
uniform mat4  uModel;
uniform vec2  uMouse;
uniform float uTime;
uniform float uRadius;
uniform float uStrength;
uniform float uPulse;

out vec2 vUv;
out vec3 vWorldPos;

float falloff(float d, float r) {
    return 1.0 - smoothstep(0.0, r, d);
}

void main() {
    vec2 mouseUv = uMouse * 0.5 + 0.5;
    float f = falloff(distance(aUv, mouseUv), uRadius);
    float amplitude = uStrength * (1.0 + uPulse * sin(uTime));
    vec4 world = uModel * vec4(aPosition + vec3(0.0, 0.0, amplitude * f), 1.0);
    vUv = aUv;
    vWorldPos = world.xyz;
    gl_Position = uProjection * uView * world;
}
`

const fragmentShaderSource = `#version 300 es
precision highp float;

in vec2 vUv;
in vec3 vWorldPos;

uniform sampler2D uTexture;
uniform int       uHasTexture;
uniform vec2      uMouse;
uniform float     uRadius;
uniform float     uLens;
uniform vec3      uCameraPosition;
uniform vec3      uBaseColor;
uniform vec3      uAmbient;
uniform vec3      uLightPosition;
uniform vec3      uLightColor;
uniform float     uLightIntensity;
uniform float     uLightDistance;
uniform float     uLightDecay;

out vec4 fragColor;

const float PI = 3.141592653589793;

float falloff(float d, float r) {
    return 1.0 - smoothstep(0.0, r, d);
}

float attenuation(float dist) {
    float a = 1.0 / max(pow(dist, uLightDecay), 0.01);
    if (uLightDistance > 0.0) {
        float c = clamp(1.0 - pow(dist / uLightDistance, 4.0), 0.0, 1.0);
        a *= c * c;
    }
    return a;
}

void main() {
    vec2 mouseUv = uMouse * 0.5 + 0.5;
    float f = falloff(distance(vUv, mouseUv), uRadius);
    vec2 uv = mouseUv + (vUv - mouseUv) * (1.0 - uLens * f);

    vec3 albedo = uBaseColor;
    if (uHasTexture != 0) {
        vec4 texel = texture(uTexture, clamp(uv, 0.0, 1.0));
        albedo = mix(uBaseColor, texel.rgb, texel.a);
    }

    // flat shading: one normal per triangle
    vec3 normal = normalize(cross(dFdx(vWorldPos), dFdy(vWorldPos)));
    if (dot(normal, uCameraPosition - vWorldPos) < 0.0) {
        normal = -normal;
    }

    vec3 toLight = uLightPosition - vWorldPos;
    float dist = length(toLight);
    float ndl = max(dot(normal, toLight / dist), 0.0);
    vec3 irradiance = uLightColor * uLightIntensity * attenuation(dist) * ndl;

    fragColor = vec4(albedo * (uAmbient + irradiance / PI), 1.0);
}
`

// Sources returns the WebGL2 (ESSL 3.00) vertex and fragment sources.
func Sources() (vertex, fragment string) {
	return vertexShaderSource, fragmentShaderSource
}

// Params are the tunables of the bulge field. Radius is in UV units, Strength
// in world units along +z.
type Params struct {
	Radius   float32
	Strength float32
	Lens     float32
	// Pulse modulates Strength by (1 + Pulse*sin(time)). Zero disables it.
	Pulse float32
}

func DefaultParams() Params {
	return Params{Radius: 0.25, Strength: 0.35, Lens: 0.3}
}

func (p Params) Validate() error {
	if p.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %v", p.Radius)
	}
	if p.Strength < 0 {
		return fmt.Errorf("strength must not be negative, got %v", p.Strength)
	}
	if p.Lens < 0 || p.Lens > 1 {
		return fmt.Errorf("lens must be in [0,1], got %v", p.Lens)
	}
	if p.Pulse < 0 || p.Pulse >= 1 {
		return fmt.Errorf("pulse must be in [0,1), got %v", p.Pulse)
	}
	return nil
}

// Light is a point light with physically based distance falloff. Distance is
// the cutoff range; zero means unlimited.
type Light struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	Distance  float32
	Decay     float32
}

func DefaultLight() Light {
	return Light{
		Position:  mgl32.Vec3{2, 4, 6},
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 30,
		Distance:  12,
		Decay:     1,
	}
}

// Attenuation mirrors the fragment stage's light falloff.
func (l Light) Attenuation(dist float32) float32 {
	a := 1 / float32(math.Max(math.Pow(float64(dist), float64(l.Decay)), 0.01))
	if l.Distance > 0 {
		c := clamp(1-float32(math.Pow(float64(dist/l.Distance), 4)), 0, 1)
		a *= c * c
	}
	return a
}

// Falloff is 1 at d=0, falls smoothly and monotonically, and is 0 for d >= r.
func Falloff(d, r float32) float32 {
	if r <= 0 {
		if d <= 0 {
			return 1
		}
		return 0
	}
	return 1 - smoothstep(0, r, d)
}

// MouseUV maps a pointer in [-1,1]² to UV space.
func MouseUV(mouse mgl32.Vec2) mgl32.Vec2 {
	return mouse.Mul(0.5).Add(mgl32.Vec2{0.5, 0.5})
}

// Displacement is the z offset applied to the vertex at uv.
func Displacement(uv, mouse mgl32.Vec2, time float32, p Params) float32 {
	amplitude := p.Strength * (1 + p.Pulse*float32(math.Sin(float64(time))))
	m := MouseUV(mouse)
	return amplitude * Falloff(uv.Sub(m).Len(), p.Radius)
}

// LensUV is the texture coordinate sampled for the fragment at uv. Near the
// pointer it is pulled toward the pointer, magnifying the content.
func LensUV(uv, mouse mgl32.Vec2, p Params) mgl32.Vec2 {
	m := MouseUV(mouse)
	f := Falloff(uv.Sub(m).Len(), p.Radius)
	return m.Add(uv.Sub(m).Mul(1 - p.Lens*f))
}

func smoothstep(e0, e1, x float32) float32 {
	t := clamp((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
