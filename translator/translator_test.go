package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/gobulge/shader"
)

func TestTranslateDisplacementProgram(t *testing.T) {
	vs, fs := shader.Sources()

	v, err := Translate(vs, "vertex", false)
	require.NoError(t, err)
	assert.NotEmpty(t, v.Code)

	f, err := Translate(fs, "fragment", false)
	require.NoError(t, err)
	assert.NotEmpty(t, f.Code)

	names := Merge(v, f)
	assert.Contains(t, names, shader.UniformMouse)
	assert.Contains(t, names, shader.UniformTexture)
}

func TestTranslateRejectsInvalidSource(t *testing.T) {
	_, err := Translate("#version 300 es\nvoid main() { undefined(); }\n", "fragment", false)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	names := Merge(
		Result{Names: map[string]string{"a": "_ua"}},
		Result{Names: map[string]string{"b": "_ub", "a": "_ua"}},
	)
	assert.Equal(t, map[string]string{"a": "_ua", "b": "_ub"}, names)
}
