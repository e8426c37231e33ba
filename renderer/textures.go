package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/gobulge/uniforms"
)

// TextureStore implements uniforms.TextureBinder on GL textures. It also owns
// a 1x1 transparent texture bound whenever no capture is available.
type TextureStore struct {
	live    map[uniforms.TextureHandle]struct{}
	neutral uint32
}

func NewTextureStore() *TextureStore {
	s := &TextureStore{live: make(map[uniforms.TextureHandle]struct{})}
	s.neutral = createTexture(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	return s
}

// Upload copies img into a new texture. Rows are flipped so that the first
// image row lands at v=1.
func (s *TextureStore) Upload(img *image.RGBA) (uniforms.TextureHandle, error) {
	if img == nil || img.Bounds().Empty() {
		return 0, fmt.Errorf("%w: no pixels", uniforms.ErrInvalidTexture)
	}
	for gl.GetError() != gl.NO_ERROR {
	}
	id := createTexture(vflip(img))
	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return 0, fmt.Errorf("texture upload failed: gl error 0x%x", code)
	}
	h := uniforms.TextureHandle(id)
	s.live[h] = struct{}{}
	return h, nil
}

func (s *TextureStore) Release(h uniforms.TextureHandle) {
	if _, ok := s.live[h]; !ok {
		return
	}
	delete(s.live, h)
	id := uint32(h)
	gl.DeleteTextures(1, &id)
}

// Neutral is the texture bound on the untextured path.
func (s *TextureStore) Neutral() uint32 {
	return s.neutral
}

func (s *TextureStore) Destroy() {
	for h := range s.live {
		s.Release(h)
	}
	gl.DeleteTextures(1, &s.neutral)
}

func createTexture(rgba *image.RGBA) uint32 {
	width := int32(rgba.Rect.Dx())
	height := int32(rgba.Rect.Dy())

	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return textureID
}

// vflip returns a tightly packed, vertically flipped copy of src.
func vflip(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	flipped := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	height := bounds.Dy()
	rowSize := bounds.Dx() * 4
	for y := 0; y < height; y++ {
		srcRow := src.Pix[src.PixOffset(bounds.Min.X, bounds.Max.Y-1-y):]
		copy(flipped.Pix[y*flipped.Stride:], srcRow[:rowSize])
	}
	return flipped
}
