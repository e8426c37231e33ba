package renderer

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/richinsley/gobulge/shader"
	xlate "github.com/richinsley/gobulge/translator"
)

// Program is the linked displacement program with its uniform locations.
// Locations are -1 for uniforms the driver optimized away.
type Program struct {
	id        uint32
	locs      map[string]int32
	posAttrib uint32
	uvAttrib  uint32
}

func NewProgram(gles bool) (*Program, error) {
	vsSource, fsSource := shader.Sources()
	vs, err := xlate.Translate(vsSource, "vertex", gles)
	if err != nil {
		return nil, err
	}
	fs, err := xlate.Translate(fsSource, "fragment", gles)
	if err != nil {
		return nil, err
	}

	id, err := newProgram(vs.Code, fs.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	names := xlate.Merge(vs, fs)
	p := &Program{
		id:        id,
		locs:      make(map[string]int32, len(shader.Uniforms)),
		posAttrib: attribLocation(id, names, "aPosition", shader.AttribPosition),
		uvAttrib:  attribLocation(id, names, "aUv", shader.AttribUV),
	}
	gl.UseProgram(id)
	for _, name := range shader.Uniforms {
		p.locs[name] = uniformLocation(id, names, name)
	}
	gl.UseProgram(0)
	return p, nil
}

func (p *Program) loc(name string) int32 {
	if l, ok := p.locs[name]; ok {
		return l
	}
	return -1
}

func (p *Program) Destroy() {
	gl.DeleteProgram(p.id)
}

func uniformLocation(program uint32, names map[string]string, name string) int32 {
	mapped, ok := names[name]
	if !ok {
		mapped = name
	}
	return gl.GetUniformLocation(program, gl.Str(mapped+"\x00"))
}

func attribLocation(program uint32, names map[string]string, name string, fallback uint32) uint32 {
	mapped, ok := names[name]
	if !ok {
		return fallback
	}
	l := gl.GetAttribLocation(program, gl.Str(mapped+"\x00"))
	if l < 0 {
		return fallback
	}
	return uint32(l)
}

func newProgram(vertexShaderSource, fragmentShaderSource string) (uint32, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)
	gl.DeleteShader(vertexShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program: %v", log)
	}
	return program, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		logText := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(logText))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", logText)
	}
	return shader, nil
}
