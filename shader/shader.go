// Package shader compiles and links the GLSL programs of the NV12 conversion
// and manages the uniform block they share.
package shader

import (
	"github.com/richinsley/gpunv12/graphics"
)

// StageName returns a readable name for a shader stage enum.
func StageName(stage uint32) string {
	switch stage {
	case graphics.VertexShader:
		return "vertex shader"
	case graphics.FragmentShader:
		return "fragment shader"
	default:
		return "shader"
	}
}

// Shader is a compiled single-stage shader object. It is only needed until the
// programs using it are linked.
type Shader struct {
	gl    graphics.GL
	id    uint32
	stage uint32
}

// Compile compiles source for stage. On failure the shader object is deleted
// and the log is returned in a *CompileError.
func Compile(gl graphics.GL, source string, stage uint32) (*Shader, error) {
	id := gl.CreateShader(stage)
	gl.ShaderSource(id, source)
	gl.CompileShader(id)

	if gl.GetShaderiv(id, graphics.CompileStatus) == graphics.False {
		log := gl.GetShaderInfoLog(id)
		gl.DeleteShader(id)
		return nil, &CompileError{Stage: stage, Log: log}
	}
	return &Shader{gl: gl, id: id, stage: stage}, nil
}

func (s *Shader) ID() uint32 { return s.id }

func (s *Shader) Stage() uint32 { return s.stage }

// Delete frees the shader object. Programs already linked from it keep working.
func (s *Shader) Delete() {
	if s == nil || s.id == 0 {
		return
	}
	s.gl.DeleteShader(s.id)
	s.id = 0
}

// Program is a linked vertex and fragment pipeline.
type Program struct {
	gl graphics.GL
	id uint32
}

// Link links vert and frag into a new program. Both shaders are detached
// afterwards whether or not linking succeeded, so they can be reused.
func Link(gl graphics.GL, vert, frag *Shader) (*Program, error) {
	id := gl.CreateProgram()
	gl.AttachShader(id, vert.id)
	gl.AttachShader(id, frag.id)
	gl.LinkProgram(id)
	status := gl.GetProgramiv(id, graphics.LinkStatus)
	log := gl.GetProgramInfoLog(id)

	gl.DetachShader(id, vert.id)
	gl.DetachShader(id, frag.id)

	if status == graphics.False {
		gl.DeleteProgram(id)
		return nil, &LinkError{Log: log}
	}
	return &Program{gl: gl, id: id}, nil
}

func (p *Program) ID() uint32 { return p.id }

// Use makes p the current program.
func (p *Program) Use() { p.gl.UseProgram(p.id) }

// UniformLocation returns the location of a default-block uniform, or -1.
func (p *Program) UniformLocation(name string) int32 {
	return p.gl.GetUniformLocation(p.id, name)
}

// Bind makes p current and attaches buffer to the program's block of the same
// name. Block indices differ between programs, so the index is looked up here.
func (p *Program) Bind(buffer *UniformBuffer) {
	p.gl.UseProgram(p.id)
	i := p.gl.GetUniformBlockIndex(p.id, buffer.block)
	if i == graphics.InvalidIndex {
		return
	}
	p.gl.UniformBlockBinding(p.id, i, i)
	p.gl.BindBufferBase(graphics.UniformBuffer, i, buffer.id)
}

func (p *Program) Delete() {
	if p == nil || p.id == 0 {
		return
	}
	p.gl.DeleteProgram(p.id)
	p.id = 0
}
