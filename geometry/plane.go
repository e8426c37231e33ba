// Package geometry builds the subdivided plane the effect is drawn on and
// the camera that frames it.
package geometry

import "fmt"

// Segments is the subdivision per axis. It never changes with viewport size.
const Segments = 254

// Stride is the number of floats per vertex: x, y, z, u, v.
const Stride = 5

// Plane is a Segments x Segments grid in the z=0 plane centered on the
// origin. Vertices run row by row from the top-left corner; v is 1 on the top
// row. Two triangles per cell, counter-clockwise when seen from +z.
type Plane struct {
	width, height float32
	vertices      []float32
	indices       []uint32
	revision      uint64
}

func NewPlane(width, height float32) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("plane size must be positive, got %vx%v", width, height)
	}
	const n = Segments + 1
	p := &Plane{
		vertices: make([]float32, n*n*Stride),
		indices:  make([]uint32, 0, Segments*Segments*6),
	}
	for iy := 0; iy < n; iy++ {
		for ix := 0; ix < n; ix++ {
			o := (iy*n + ix) * Stride
			p.vertices[o+3] = float32(ix) / Segments
			p.vertices[o+4] = 1 - float32(iy)/Segments
		}
	}
	for iy := 0; iy < Segments; iy++ {
		for ix := 0; ix < Segments; ix++ {
			a := uint32(ix + n*iy)
			b := uint32(ix + n*(iy+1))
			c := uint32(ix + 1 + n*(iy+1))
			d := uint32(ix + 1 + n*iy)
			p.indices = append(p.indices, a, b, d, b, c, d)
		}
	}
	p.layout(width, height)
	return p, nil
}

// Resize rescales vertex positions. UVs, indices and counts are untouched.
// The revision only changes when the size does.
func (p *Plane) Resize(width, height float32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("plane size must be positive, got %vx%v", width, height)
	}
	if width == p.width && height == p.height {
		return nil
	}
	p.layout(width, height)
	p.revision++
	return nil
}

func (p *Plane) layout(width, height float32) {
	const n = Segments + 1
	p.width, p.height = width, height
	segW, segH := width/Segments, height/Segments
	for iy := 0; iy < n; iy++ {
		y := height/2 - float32(iy)*segH
		for ix := 0; ix < n; ix++ {
			o := (iy*n + ix) * Stride
			p.vertices[o] = float32(ix)*segW - width/2
			p.vertices[o+1] = y
			p.vertices[o+2] = 0
		}
	}
}

// Vertices is the interleaved vertex buffer. Callers must not modify it.
func (p *Plane) Vertices() []float32 {
	return p.vertices
}

func (p *Plane) Indices() []uint32 {
	return p.indices
}

func (p *Plane) VertexCount() int {
	return len(p.vertices) / Stride
}

func (p *Plane) IndexCount() int {
	return len(p.indices)
}

// Revision increments every time vertex positions change.
func (p *Plane) Revision() uint64 {
	return p.revision
}

func (p *Plane) Size() (width, height float32) {
	return p.width, p.height
}
