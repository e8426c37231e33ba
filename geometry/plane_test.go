package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaneCounts(t *testing.T) {
	p, err := NewPlane(4, 2)
	require.NoError(t, err)
	assert.Equal(t, 255*255, p.VertexCount())
	assert.Equal(t, 254*254*6, p.IndexCount())
	assert.Equal(t, uint64(0), p.Revision())

	limit := uint32(p.VertexCount() - 1)
	for _, i := range p.Indices() {
		require.LessOrEqual(t, i, limit)
	}
}

func TestNewPlaneRejectsEmptySize(t *testing.T) {
	_, err := NewPlane(0, 1)
	assert.Error(t, err)
	_, err = NewPlane(1, -1)
	assert.Error(t, err)
}

func TestPlaneCorners(t *testing.T) {
	p, err := NewPlane(4, 2)
	require.NoError(t, err)
	v := p.Vertices()
	last := (p.VertexCount() - 1) * Stride

	assert.Equal(t, []float32{-2, 1, 0, 0, 1}, v[0:Stride], "top-left")
	assert.InDelta(t, 2, v[last], 1e-5)
	assert.InDelta(t, -1, v[last+1], 1e-5)
	assert.Equal(t, float32(1), v[last+3])
	assert.Equal(t, float32(0), v[last+4])
}

func TestVertexCountInvariantUnderResize(t *testing.T) {
	p, err := NewPlane(4, 2)
	require.NoError(t, err)
	indices := append([]uint32(nil), p.Indices()...)
	uv0 := []float32{p.Vertices()[3], p.Vertices()[4]}

	sizes := [][2]float32{{1, 1}, {16, 9}, {0.5, 30}, {1000, 0.01}, {4, 2}}
	for i, s := range sizes {
		require.NoError(t, p.Resize(s[0], s[1]))
		assert.Equal(t, 255*255, p.VertexCount())
		assert.Equal(t, indices, p.Indices())
		assert.Equal(t, uv0, []float32{p.Vertices()[3], p.Vertices()[4]})
		assert.Equal(t, uint64(i+1), p.Revision())

		w, h := p.Size()
		assert.Equal(t, s[0], w)
		assert.Equal(t, s[1], h)
		assert.InDelta(t, -s[0]/2, p.Vertices()[0], 1e-4)
		assert.InDelta(t, s[1]/2, p.Vertices()[1], 1e-4)
	}
}

func TestResizeSameSizeKeepsRevision(t *testing.T) {
	p, err := NewPlane(4, 2)
	require.NoError(t, err)
	require.NoError(t, p.Resize(4, 2))
	assert.Equal(t, uint64(0), p.Revision())
	assert.Error(t, p.Resize(0, 2))
	assert.Equal(t, uint64(0), p.Revision())
}
