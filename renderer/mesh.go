package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/gobulge/geometry"
)

// Mesh holds the plane's vertex and index buffers. Indices are uploaded once;
// vertices are re-uploaded when the plane's revision changes.
type Mesh struct {
	plane    *geometry.Plane
	vao      uint32
	vbo      uint32
	ebo      uint32
	count    int32
	revision uint64
}

func NewMesh(plane *geometry.Plane, posAttrib, uvAttrib uint32) *Mesh {
	m := &Mesh{plane: plane, count: int32(plane.IndexCount()), revision: plane.Revision()}
	vertices := plane.Vertices()
	indices := plane.Indices()

	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)

	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)

	const stride = geometry.Stride * 4
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(uvAttrib)
	gl.VertexAttribPointer(uvAttrib, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return m
}

// Sync re-uploads vertex positions after a resize.
func (m *Mesh) Sync() {
	if m.plane.Revision() == m.revision {
		return
	}
	vertices := m.plane.Vertices()
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	m.revision = m.plane.Revision()
}

func (m *Mesh) Draw() {
	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
}

func (m *Mesh) Destroy() {
	gl.DeleteBuffers(1, &m.vbo)
	gl.DeleteBuffers(1, &m.ebo)
	gl.DeleteVertexArrays(1, &m.vao)
}
