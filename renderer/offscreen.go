package renderer

import (
	"fmt"
	"image"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Offscreen is the render target every frame is drawn into. It keeps the last
// frame after presentation, so snapshots and recording read from it.
type Offscreen struct {
	fbo               uint32
	textureID         uint32
	depthRenderbuffer uint32
	width             int
	height            int
	pbos              []uint32
	pboIndex          int
	pending           int // frames written to PBOs but not yet mapped
}

func NewOffscreen(width, height, numPBOs int) (*Offscreen, error) {
	if numPBOs < 2 {
		return nil, fmt.Errorf("number of PBOs must be at least 2")
	}
	o := &Offscreen{pbos: make([]uint32, numPBOs)}
	gl.GenFramebuffers(1, &o.fbo)
	gl.GenTextures(1, &o.textureID)
	gl.GenRenderbuffers(1, &o.depthRenderbuffer)
	gl.GenBuffers(int32(len(o.pbos)), &o.pbos[0])
	if err := o.Resize(width, height); err != nil {
		o.Destroy()
		return nil, err
	}
	return o, nil
}

// Resize reallocates the attachments. Pending async reads are dropped.
func (o *Offscreen) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid offscreen size %dx%d", width, height)
	}
	o.width, o.height = width, height

	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
	gl.BindTexture(gl.TEXTURE_2D, o.textureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, o.textureID, 0)
	gl.BindRenderbuffer(gl.RENDERBUFFER, o.depthRenderbuffer)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.DEPTH_COMPONENT24, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, o.depthRenderbuffer)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		return fmt.Errorf("offscreen fbo is not complete: 0x%x", status)
	}

	for _, pbo := range o.pbos {
		gl.BindBuffer(gl.PIXEL_PACK_BUFFER, pbo)
		gl.BufferData(gl.PIXEL_PACK_BUFFER, o.frameSize(), nil, gl.STREAM_READ)
	}
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	o.pboIndex = 0
	o.pending = 0
	return nil
}

func (o *Offscreen) frameSize() int {
	return o.width * o.height * 4
}

func (o *Offscreen) Size() (int, int) {
	return o.width, o.height
}

func (o *Offscreen) Bind() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, o.fbo)
	gl.Viewport(0, 0, int32(o.width), int32(o.height))
}

// BlitTo copies the frame to the default framebuffer, scaling to fit.
func (o *Offscreen) BlitTo(width, height int) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, o.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, int32(o.width), int32(o.height), 0, 0, int32(width), int32(height), gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadRGBA reads the current frame synchronously, top row first.
func (o *Offscreen) ReadRGBA() (*image.RGBA, error) {
	pixels := make([]byte, o.frameSize())
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, o.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(o.width), int32(o.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	if code := gl.GetError(); code != gl.NO_ERROR {
		return nil, fmt.Errorf("failed to read pixels: gl error 0x%x", code)
	}
	img := &image.RGBA{Pix: pixels, Stride: o.width * 4, Rect: image.Rect(0, 0, o.width, o.height)}
	return vflip(img), nil
}

// ReadAsync queues a read of the current frame into the PBO ring and returns
// the oldest queued frame once the ring is full, bottom row first. ok is false
// while the ring is still filling.
func (o *Offscreen) ReadAsync() (pixels []byte, ok bool, err error) {
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, o.fbo)
	gl.ReadBuffer(gl.COLOR_ATTACHMENT0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, o.pbos[o.pboIndex])
	gl.ReadPixels(0, 0, int32(o.width), int32(o.height), gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	o.pboIndex = (o.pboIndex + 1) % len(o.pbos)
	o.pending++

	if o.pending < len(o.pbos) {
		return nil, false, nil
	}
	pixels, err = o.mapOldest()
	return pixels, err == nil, err
}

// Flush returns every frame still queued in the PBO ring, oldest first.
func (o *Offscreen) Flush() ([][]byte, error) {
	var frames [][]byte
	for o.pending > 0 {
		pixels, err := o.mapOldest()
		if err != nil {
			return frames, err
		}
		frames = append(frames, pixels)
	}
	return frames, nil
}

func (o *Offscreen) mapOldest() ([]byte, error) {
	oldest := (o.pboIndex - o.pending + len(o.pbos)) % len(o.pbos)
	size := o.frameSize()
	gl.BindBuffer(gl.PIXEL_PACK_BUFFER, o.pbos[oldest])
	defer gl.BindBuffer(gl.PIXEL_PACK_BUFFER, 0)
	ptr := gl.MapBufferRange(gl.PIXEL_PACK_BUFFER, 0, size, gl.MAP_READ_BIT)
	if ptr == nil {
		return nil, fmt.Errorf("failed to map PBO %d", oldest)
	}
	pixels := make([]byte, size)
	copy(pixels, (*[1 << 30]byte)(ptr)[:size:size])
	gl.UnmapBuffer(gl.PIXEL_PACK_BUFFER)
	o.pending--
	return pixels, nil
}

func (o *Offscreen) Destroy() {
	gl.DeleteFramebuffers(1, &o.fbo)
	gl.DeleteTextures(1, &o.textureID)
	gl.DeleteRenderbuffers(1, &o.depthRenderbuffer)
	gl.DeleteBuffers(int32(len(o.pbos)), &o.pbos[0])
}
