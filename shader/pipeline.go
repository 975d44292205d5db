package shader

import (
	"errors"
	"log/slog"

	"github.com/richinsley/gpunv12/graphics"
)

// ColorMatrixBlock is the uniform block shared by both conversion programs.
const ColorMatrixBlock = "ColorMatrix"

// WidthUniform is the chroma pass uniform holding one over the output width.
const WidthUniform = "width_i"

// Pass indices. The chroma pass renders at half the luma resolution.
const (
	PassLuma = iota
	PassChroma
	NumPasses
)

// Pipeline holds the two linked conversion programs and their shared color
// matrix.
type Pipeline struct {
	gl          graphics.GL
	programs    [NumPasses]*Program
	ColorMatrix *UniformBuffer
	widthLoc    int32
}

// BuildPipeline compiles every source, reporting all compile failures at once,
// links the luma and chroma programs and declares the color matrix block with
// members as initial values.
func BuildPipeline(gl graphics.GL, src Sources, members []Member) (*Pipeline, error) {
	units := []struct {
		name   string
		source string
		stage  uint32
	}{
		{SceneVert, src.SceneVert, graphics.VertexShader},
		{SceneFrag, src.SceneFrag, graphics.FragmentShader},
		{ConvertYFrag, src.ConvertYFrag, graphics.FragmentShader},
		{ConvertUVVert, src.ConvertUVVert, graphics.VertexShader},
		{ConvertUVFrag, src.ConvertUVFrag, graphics.FragmentShader},
	}

	shaders := make(map[string]*Shader, len(units))
	defer func() {
		for _, s := range shaders {
			s.Delete()
		}
	}()

	var errs []error
	for _, u := range units {
		s, err := Compile(gl, u.source, u.stage)
		graphics.DrainErrors(gl, "compile "+u.name)
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				ce.Name = u.name
			}
			slog.Error("shader compile failed", "shader", u.name, "err", err)
			errs = append(errs, err)
			continue
		}
		shaders[u.name] = s
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	p := &Pipeline{gl: gl}
	var err error
	p.programs[PassLuma], err = Link(gl, shaders[SceneVert], shaders[ConvertYFrag])
	if err != nil {
		return nil, err
	}
	p.programs[PassChroma], err = Link(gl, shaders[ConvertUVVert], shaders[ConvertUVFrag])
	if err != nil {
		p.Close()
		return nil, err
	}

	p.widthLoc = p.programs[PassChroma].UniformLocation(WidthUniform)
	if p.widthLoc < 0 {
		p.Close()
		return nil, &UniformResolutionError{Block: "default", Missing: []string{WidthUniform}}
	}

	p.ColorMatrix, err = DeclareUniformBlock(gl, p.programs[PassLuma], ColorMatrixBlock, members)
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Pass returns the program of pass i.
func (p *Pipeline) Pass(i int) *Program { return p.programs[i] }

// SetOutputWidth uploads the reciprocal width the chroma pass uses to place its
// left sample.
func (p *Pipeline) SetOutputWidth(width int) {
	p.programs[PassChroma].Use()
	p.gl.Uniform1f(p.widthLoc, 1/float32(width))
	graphics.DrainErrors(p.gl, "set "+WidthUniform)
}

// Bind makes pass i current with the color matrix attached.
func (p *Pipeline) Bind(i int) {
	p.programs[i].Bind(p.ColorMatrix)
}

// Close deletes the buffer and both programs.
func (p *Pipeline) Close() {
	if p == nil {
		return
	}
	p.ColorMatrix.Delete()
	p.ColorMatrix = nil
	for i := range p.programs {
		p.programs[i].Delete()
		p.programs[i] = nil
	}
}
