package loop

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/gobulge/capture"
	"github.com/richinsley/gobulge/geometry"
	"github.com/richinsley/gobulge/pointer"
	"github.com/richinsley/gobulge/shader"
	"github.com/richinsley/gobulge/uniforms"
)

type recorder struct {
	calls []string
}

type fakeSource struct {
	rec *recorder
	tex *capture.Texture
}

func (f *fakeSource) Current() *capture.Texture {
	f.rec.calls = append(f.rec.calls, "current")
	return f.tex
}

type fakeBinder struct {
	rec     *recorder
	next    uniforms.TextureHandle
	uploads int
}

func (f *fakeBinder) Upload(*image.RGBA) (uniforms.TextureHandle, error) {
	f.rec.calls = append(f.rec.calls, "upload")
	f.uploads++
	f.next++
	return f.next, nil
}

func (f *fakeBinder) Release(uniforms.TextureHandle) {}

type fakeSubmitter struct {
	rec   *recorder
	draws []Draw
	err   error
}

func (f *fakeSubmitter) Submit(d Draw) error {
	f.rec.calls = append(f.rec.calls, "submit")
	f.draws = append(f.draws, d)
	return f.err
}

type fixture struct {
	rec    *recorder
	source *fakeSource
	binder *fakeBinder
	sub    *fakeSubmitter
	loop   *Loop
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := &recorder{}
	f := &fixture{
		rec:    rec,
		source: &fakeSource{rec: rec},
		binder: &fakeBinder{rec: rec},
		sub:    &fakeSubmitter{rec: rec},
	}
	tracker, err := pointer.NewTracker(pointer.DefaultAlpha)
	require.NoError(t, err)
	plane, err := geometry.NewPlane(1, 1)
	require.NoError(t, err)
	f.loop, err = New(Config{
		Tracker:   tracker,
		Bridge:    uniforms.NewBridge(f.binder, nil),
		Textures:  f.source,
		Submitter: f.sub,
		Scene: Scene{
			Plane:  plane,
			Camera: geometry.DefaultCamera(),
			Params: shader.DefaultParams(),
			Light:  shader.DefaultLight(),
		},
	})
	require.NoError(t, err)
	return f
}

func texture(version uint64) *capture.Texture {
	return &capture.Texture{Image: image.NewRGBA(image.Rect(0, 0, 2, 2)), Width: 2, Height: 2, Version: version}
}

func TestTickRunsStepsInOrder(t *testing.T) {
	f := newFixture(t)
	f.source.tex = texture(1)

	require.NoError(t, f.loop.Tick(1.0/60, pointer.At(1, 1)))
	assert.Equal(t, []string{"current", "upload", "submit"}, f.rec.calls)

	require.Len(t, f.sub.draws, 1)
	d := f.sub.draws[0]
	assert.Equal(t, mgl32.Vec2{0.1, 0.1}, d.Uniforms.Mouse, "pointer is smoothed before uniforms are built")
	assert.True(t, d.Uniforms.HasTexture)
}

func TestTickOncePerFrame(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 10; i++ {
		require.NoError(t, f.loop.Tick(0.5, pointer.At(1, 1)))
	}
	assert.Len(t, f.sub.draws, 10)
	assert.Equal(t, uint64(10), f.loop.Frames())
	assert.InDelta(t, 5.0, f.loop.Elapsed(), 1e-9)
	assert.InDelta(t, 0.6513, f.loop.Uniforms().Mouse.X(), 1e-4)
	assert.Equal(t, float32(5), f.loop.Uniforms().Time)
}

func TestTickWithoutTextureUsesNeutralPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.loop.Tick(0.016, pointer.Sample{}))
	assert.False(t, f.sub.draws[0].Uniforms.HasTexture)
	assert.Zero(t, f.binder.uploads)
}

func TestTickUploadsOnlyOnNewVersion(t *testing.T) {
	f := newFixture(t)
	f.source.tex = texture(1)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.loop.Tick(0.016, pointer.Sample{}))
	}
	f.source.tex = texture(2)
	require.NoError(t, f.loop.Tick(0.016, pointer.Sample{}))
	assert.Equal(t, 2, f.binder.uploads)
	assert.Equal(t, uint64(2), f.loop.Uniforms().TextureVersion)
}

func TestSubmitErrorDoesNotStopLoop(t *testing.T) {
	f := newFixture(t)
	f.sub.err = errors.New("context lost")

	err := f.loop.Tick(0.016, pointer.At(1, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, f.sub.err)

	f.sub.err = nil
	require.NoError(t, f.loop.Tick(0.016, pointer.At(1, 0)))
	assert.Len(t, f.sub.draws, 2)
	assert.Greater(t, f.loop.Uniforms().Mouse.X(), float32(0.1))
}

func TestNegativeDtDoesNotRewindTime(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.loop.Tick(1, pointer.Sample{}))
	require.NoError(t, f.loop.Tick(-3, pointer.Sample{}))
	assert.Equal(t, 1.0, f.loop.Elapsed())
}

func TestResizeFitsPlaneToFrustum(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.loop.Resize(1600, 900))

	w, h := f.loop.scene.Plane.Size()
	ww, wh := geometry.DefaultCamera().ViewportSize(1600.0 / 900.0)
	assert.InDelta(t, ww, w, 1e-5)
	assert.InDelta(t, wh, h, 1e-5)
	assert.Equal(t, 255*255, f.loop.scene.Plane.VertexCount())

	require.NoError(t, f.loop.Tick(0.016, pointer.Sample{}))
	assert.InDelta(t, 1600.0/900.0, f.sub.draws[0].Aspect, 1e-6)
	assert.Error(t, f.loop.Resize(0, 10))
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
