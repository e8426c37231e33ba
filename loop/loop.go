// Package loop runs the per-frame sequence: smooth the pointer, refresh the
// uniforms, submit one draw.
package loop

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/gobulge/capture"
	"github.com/richinsley/gobulge/geometry"
	"github.com/richinsley/gobulge/logging"
	"github.com/richinsley/gobulge/pointer"
	"github.com/richinsley/gobulge/shader"
	"github.com/richinsley/gobulge/uniforms"
)

// Scene is everything about a draw that does not change per frame.
type Scene struct {
	Plane     *geometry.Plane
	Camera    geometry.Camera
	Params    shader.Params
	Light     shader.Light
	BaseColor mgl32.Vec3
	Ambient   mgl32.Vec3
}

// Draw is one submission to the host renderer.
type Draw struct {
	Scene
	Aspect   float32
	Uniforms uniforms.Set
}

// Submitter draws one frame. The renderer implements it with GL.
type Submitter interface {
	Submit(d Draw) error
}

// TextureSource yields the currently installed capture, or nil.
type TextureSource interface {
	Current() *capture.Texture
}

type Config struct {
	Tracker   *pointer.Tracker
	Bridge    *uniforms.Bridge
	Textures  TextureSource
	Submitter Submitter
	Scene     Scene
	Logger    logging.Logger
}

// Loop owns the smoothing and uniform state between frames. It is not safe
// for concurrent use; call it from the render thread only.
type Loop struct {
	tracker *pointer.Tracker
	bridge  *uniforms.Bridge
	source  TextureSource
	submit  Submitter
	scene   Scene
	log     logging.Logger

	aspect  float32
	elapsed float64
	frames  uint64
	last    uniforms.Set
}

func New(cfg Config) (*Loop, error) {
	if cfg.Tracker == nil || cfg.Bridge == nil || cfg.Textures == nil || cfg.Submitter == nil {
		return nil, errors.New("loop needs a tracker, bridge, texture source and submitter")
	}
	if cfg.Scene.Plane == nil {
		return nil, errors.New("loop needs a plane")
	}
	return &Loop{
		tracker: cfg.Tracker,
		bridge:  cfg.Bridge,
		source:  cfg.Textures,
		submit:  cfg.Submitter,
		scene:   cfg.Scene,
		log:     logging.OrNop(cfg.Logger),
		aspect:  1,
	}, nil
}

// Resize fits the plane to the camera frustum for a viewport of the given
// pixel size. Only vertex positions change.
func (l *Loop) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	l.aspect = geometry.Aspect(width, height)
	w, h := l.scene.Camera.ViewportSize(l.aspect)
	if err := l.scene.Plane.Resize(w, h); err != nil {
		return err
	}
	l.log.Debugf("viewport %dx%d, plane %.3fx%.3f", width, height, w, h)
	return nil
}

// Tick advances one frame by dt seconds. All three steps run on every call,
// in order. A submit error is returned but leaves the loop state advanced.
func (l *Loop) Tick(dt float64, sample pointer.Sample) error {
	if dt > 0 {
		l.elapsed += dt
	}
	l.frames++

	mouse := l.tracker.Tick(sample)
	l.last = l.bridge.Refresh(l.source.Current(), mouse, float32(l.elapsed))

	if err := l.submit.Submit(Draw{Scene: l.scene, Aspect: l.aspect, Uniforms: l.last}); err != nil {
		return fmt.Errorf("frame %d: submit failed: %w", l.frames, err)
	}
	return nil
}

// Elapsed is the sum of positive dt values passed to Tick, in seconds.
func (l *Loop) Elapsed() float64 {
	return l.elapsed
}

func (l *Loop) Frames() uint64 {
	return l.frames
}

// Uniforms returns the set built by the most recent Tick.
func (l *Loop) Uniforms() uniforms.Set {
	return l.last
}
