package renderer

import (
	"fmt"
	"image"
	"sync"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/gobulge/graphics"
	"github.com/richinsley/gobulge/logging"
	"github.com/richinsley/gobulge/loop"
	"github.com/richinsley/gobulge/shader"
	"github.com/richinsley/gobulge/uniforms"
)

var glInitOnce sync.Once

type Config struct {
	Width      int
	Height     int
	RecordMode bool
	// NumPBOs is the depth of the async readback ring in record mode.
	NumPBOs int
	Logger  logging.Logger
}

// Renderer draws the displacement program on the plane into an offscreen
// target and presents it to the window.
type Renderer struct {
	context    graphics.Context
	log        logging.Logger
	program    *Program
	mesh       *Mesh
	textures   *TextureStore
	offscreen  *Offscreen
	recordMode bool
	snapshots  []func(*image.RGBA, error)
}

func NewRenderer(ctx graphics.Context, cfg Config) (*Renderer, error) {
	if cfg.NumPBOs == 0 {
		cfg.NumPBOs = frameQueue
	}
	r := &Renderer{
		context:    ctx,
		log:        logging.OrNop(cfg.Logger),
		recordMode: cfg.RecordMode,
	}

	r.context.MakeCurrent()
	var initErr error
	glInitOnce.Do(func() {
		initErr = gl.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", initErr)
	}
	r.log.Infof("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	var err error
	r.program, err = NewProgram(false)
	if err != nil {
		return nil, err
	}
	r.textures = NewTextureStore()

	width, height := cfg.Width, cfg.Height
	if !r.recordMode {
		width, height = ctx.GetFramebufferSize()
	}
	r.offscreen, err = NewOffscreen(width, height, cfg.NumPBOs)
	if err != nil {
		r.Shutdown()
		return nil, fmt.Errorf("failed to create offscreen target: %w", err)
	}
	return r, nil
}

// Textures is the binder the uniform bridge uploads captures through.
func (r *Renderer) Textures() uniforms.TextureBinder {
	return r.textures
}

// Size is the render target size in pixels.
func (r *Renderer) Size() (int, int) {
	return r.offscreen.Size()
}

// Resize changes the render target size.
func (r *Renderer) Resize(width, height int) error {
	return r.offscreen.Resize(width, height)
}

// Submit implements loop.Submitter.
func (r *Renderer) Submit(d loop.Draw) error {
	if d.Plane == nil {
		return fmt.Errorf("draw has no plane")
	}
	if r.mesh == nil || r.mesh.plane != d.Plane {
		if r.mesh != nil {
			r.mesh.Destroy()
		}
		r.mesh = NewMesh(d.Plane, r.program.posAttrib, r.program.uvAttrib)
	}
	r.mesh.Sync()

	r.offscreen.Bind()
	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.UseProgram(r.program.id)
	r.setUniforms(d)

	tex := r.textures.Neutral()
	if d.Uniforms.HasTexture {
		tex = uint32(d.Uniforms.Texture)
	}
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	r.mesh.Draw()

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.UseProgram(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("draw failed: gl error 0x%x", code)
	}
	return nil
}

func (r *Renderer) setUniforms(d loop.Draw) {
	p := r.program
	u := d.Uniforms

	setMat4(p.loc(shader.UniformProjection), d.Camera.Projection(d.Aspect))
	setMat4(p.loc(shader.UniformView), d.Camera.View())
	setMat4(p.loc(shader.UniformModel), mgl32.Ident4())
	setVec3(p.loc(shader.UniformCameraPosition), d.Camera.Position())

	if loc := p.loc(shader.UniformTexture); loc != -1 {
		gl.Uniform1i(loc, 0)
	}
	if loc := p.loc(shader.UniformHasTexture); loc != -1 {
		has := int32(0)
		if u.HasTexture {
			has = 1
		}
		gl.Uniform1i(loc, has)
	}
	if loc := p.loc(shader.UniformMouse); loc != -1 {
		gl.Uniform2f(loc, u.Mouse.X(), u.Mouse.Y())
	}
	setFloat(p.loc(shader.UniformTime), u.Time)

	setFloat(p.loc(shader.UniformRadius), d.Params.Radius)
	setFloat(p.loc(shader.UniformStrength), d.Params.Strength)
	setFloat(p.loc(shader.UniformLens), d.Params.Lens)
	setFloat(p.loc(shader.UniformPulse), d.Params.Pulse)

	setVec3(p.loc(shader.UniformBaseColor), d.BaseColor)
	setVec3(p.loc(shader.UniformAmbient), d.Ambient)
	setVec3(p.loc(shader.UniformLightPosition), d.Light.Position)
	setVec3(p.loc(shader.UniformLightColor), d.Light.Color)
	setFloat(p.loc(shader.UniformLightIntensity), d.Light.Intensity)
	setFloat(p.loc(shader.UniformLightDistance), d.Light.Distance)
	setFloat(p.loc(shader.UniformLightDecay), d.Light.Decay)
}

func setFloat(loc int32, v float32) {
	if loc != -1 {
		gl.Uniform1f(loc, v)
	}
}

func setVec3(loc int32, v mgl32.Vec3) {
	if loc != -1 {
		gl.Uniform3f(loc, v.X(), v.Y(), v.Z())
	}
}

func setMat4(loc int32, m mgl32.Mat4) {
	if loc != -1 {
		gl.UniformMatrix4fv(loc, 1, false, &m[0])
	}
}

// Snapshot returns the most recently drawn frame.
func (r *Renderer) Snapshot() (*image.RGBA, error) {
	return r.offscreen.ReadRGBA()
}

// RequestSnapshot delivers the next presented frame to f on the render thread.
func (r *Renderer) RequestSnapshot(f func(*image.RGBA, error)) {
	r.snapshots = append(r.snapshots, f)
}

// present copies the offscreen frame to the window and serves pending
// snapshot requests.
func (r *Renderer) present() {
	if len(r.snapshots) > 0 {
		img, err := r.Snapshot()
		for _, f := range r.snapshots {
			f(img, err)
		}
		r.snapshots = nil
	}
	if r.recordMode {
		return
	}
	fbWidth, fbHeight := r.context.GetFramebufferSize()
	r.offscreen.BlitTo(fbWidth, fbHeight)
}

// Shutdown releases GL resources. The context is shut down by its owner.
func (r *Renderer) Shutdown() {
	if r.mesh != nil {
		r.mesh.Destroy()
	}
	if r.textures != nil {
		r.textures.Destroy()
	}
	if r.program != nil {
		r.program.Destroy()
	}
	if r.offscreen != nil {
		r.offscreen.Destroy()
	}
}
