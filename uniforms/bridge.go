// Package uniforms assembles the per-frame uniform values for the
// displacement program.
package uniforms

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/gobulge/capture"
	"github.com/richinsley/gobulge/logging"
)

// ErrInvalidTexture is returned for textures with no pixels or
// inconsistent dimensions.
var ErrInvalidTexture = errors.New("invalid texture")

// BindingError is a texture version that could not be bound.
type BindingError struct {
	Version uint64
	Err     error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("failed to bind texture version %d: %v", e.Version, e.Err)
}

func (e *BindingError) Unwrap() error {
	return e.Err
}

// TextureHandle identifies an uploaded texture, e.g. a GL texture name.
type TextureHandle uint32

// TextureBinder owns GPU texture objects. The renderer implements it with GL.
type TextureBinder interface {
	Upload(img *image.RGBA) (TextureHandle, error)
	Release(h TextureHandle)
}

// Set is the uniform state for one frame. When HasTexture is false the
// program takes its untextured path and Texture must be ignored.
type Set struct {
	Texture        TextureHandle
	HasTexture     bool
	TextureVersion uint64
	Mouse          mgl32.Vec2
	Time           float32
}

// Bridge keeps the currently bound texture and rebuilds the uniform Set each
// frame. Uploads happen only when the captured texture version changes.
type Bridge struct {
	binder TextureBinder
	log    logging.Logger

	bound        TextureHandle
	hasBound     bool
	boundVersion uint64

	failedVersion uint64
	lastErr       error
	uploads       int
}

func NewBridge(binder TextureBinder, log logging.Logger) *Bridge {
	return &Bridge{binder: binder, log: logging.OrNop(log)}
}

// Refresh returns the uniforms for this frame. A version that fails to bind is
// not retried; the previous texture stays bound, or the untextured path is
// used if there never was one.
func (b *Bridge) Refresh(tex *capture.Texture, mouse mgl32.Vec2, time float32) Set {
	if tex != nil && tex.Version != b.boundVersion && tex.Version != b.failedVersion {
		b.bind(tex)
	}
	return Set{
		Texture:        b.bound,
		HasTexture:     b.hasBound,
		TextureVersion: b.boundVersion,
		Mouse:          mouse,
		Time:           time,
	}
}

func (b *Bridge) bind(tex *capture.Texture) {
	h, err := b.upload(tex)
	if err != nil {
		b.failedVersion = tex.Version
		b.lastErr = &BindingError{Version: tex.Version, Err: err}
		b.log.Warnf("%v", b.lastErr)
		return
	}
	if b.hasBound {
		b.binder.Release(b.bound)
	}
	b.bound = h
	b.hasBound = true
	b.boundVersion = tex.Version
	b.uploads++
	b.log.Debugf("bound texture version %d (%dx%d)", tex.Version, tex.Width, tex.Height)
}

func (b *Bridge) upload(tex *capture.Texture) (TextureHandle, error) {
	if err := validate(tex); err != nil {
		return 0, err
	}
	return b.binder.Upload(tex.Image)
}

func validate(tex *capture.Texture) error {
	img := tex.Image
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("%w: no pixels", ErrInvalidTexture)
	}
	if img.Bounds().Dx() != tex.Width || img.Bounds().Dy() != tex.Height {
		return fmt.Errorf("%w: image is %v, texture says %dx%d", ErrInvalidTexture, img.Bounds().Size(), tex.Width, tex.Height)
	}
	if len(img.Pix) < img.Stride*(tex.Height-1)+4*tex.Width {
		return fmt.Errorf("%w: pixel buffer too short", ErrInvalidTexture)
	}
	return nil
}

// Release frees the bound texture. The next Refresh binds again from scratch.
func (b *Bridge) Release() {
	if b.hasBound {
		b.binder.Release(b.bound)
	}
	b.bound = 0
	b.hasBound = false
	b.boundVersion = 0
	b.failedVersion = 0
}

func (b *Bridge) LastError() error {
	return b.lastErr
}

// Uploads counts successful uploads.
func (b *Bridge) Uploads() int {
	return b.uploads
}
