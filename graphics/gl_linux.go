//go:build linux && cgo

package graphics

/*
// glEGLImageTargetTexture2DOES is an extension entry point that go-gl does not
// bind, so it is resolved at load time and called through this trampoline.
typedef void (*image_target_texture_fn)(unsigned int target, void *image);

static void call_image_target_texture(void *fn, unsigned int target, void *image) {
    ((image_target_texture_fn)fn)(target, image);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

type goGL struct {
	imageTargetTexture2D unsafe.Pointer
}

// Load resolves the OpenGL entry points through getProcAddress. The context the
// addresses belong to must be current on the calling thread.
func Load(getProcAddress func(name string) unsafe.Pointer) (GL, error) {
	if err := gl.InitWithProcAddrFunc(getProcAddress); err != nil {
		return nil, fmt.Errorf("failed to load OpenGL entry points: %w", err)
	}
	fn := getProcAddress("glEGLImageTargetTexture2DOES")
	if fn == nil {
		return nil, errors.New("glEGLImageTargetTexture2DOES is not available")
	}
	return &goGL{imageTargetTexture2D: fn}, nil
}

func genNames(n int, gen func(int32, *uint32)) []uint32 {
	names := make([]uint32, n)
	if n > 0 {
		gen(int32(n), &names[0])
	}
	return names
}

func deleteNames(names []uint32, del func(int32, *uint32)) {
	if len(names) > 0 {
		del(int32(len(names)), &names[0])
	}
}

func ptr(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}

func (*goGL) GetError() uint32 { return gl.GetError() }

func (*goGL) GetString(name uint32) string {
	s := gl.GetString(name)
	if s == nil {
		return ""
	}
	return gl.GoStr(s)
}

func (*goGL) PixelStorei(pname uint32, param int32) { gl.PixelStorei(pname, param) }

func (*goGL) GenTextures(n int) []uint32 { return genNames(n, gl.GenTextures) }

func (*goGL) DeleteTextures(textures []uint32) { deleteNames(textures, gl.DeleteTextures) }

func (*goGL) BindTexture(target, texture uint32) { gl.BindTexture(target, texture) }

func (*goGL) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

func (*goGL) TexParameterfv(target, pname uint32, params []float32) {
	if len(params) > 0 {
		gl.TexParameterfv(target, pname, &params[0])
	}
}

func (*goGL) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32) {
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, nil)
}

func (*goGL) TexSubImage2D(target uint32, level, xoffset, yoffset, width, height int32, format, xtype uint32, pixels []byte) {
	gl.TexSubImage2D(target, level, xoffset, yoffset, width, height, format, xtype, ptr(pixels))
}

func (g *goGL) EGLImageTargetTexture2DOES(target uint32, image uintptr) {
	C.call_image_target_texture(g.imageTargetTexture2D, C.uint(target), unsafe.Pointer(image))
}

func (*goGL) GenFramebuffers(n int) []uint32 { return genNames(n, gl.GenFramebuffers) }

func (*goGL) DeleteFramebuffers(framebuffers []uint32) {
	deleteNames(framebuffers, gl.DeleteFramebuffers)
}

func (*goGL) BindFramebuffer(target, framebuffer uint32) { gl.BindFramebuffer(target, framebuffer) }

func (*goGL) FramebufferTexture(target, attachment, texture uint32, level int32) {
	gl.FramebufferTexture(target, attachment, texture, level)
}

func (*goGL) DrawBuffers(buffers []uint32) {
	if len(buffers) > 0 {
		gl.DrawBuffers(int32(len(buffers)), &buffers[0])
	}
}

func (*goGL) ReadBuffer(mode uint32) { gl.ReadBuffer(mode) }

func (*goGL) CheckFramebufferStatus(target uint32) uint32 { return gl.CheckFramebufferStatus(target) }

func (*goGL) ClearColor(red, green, blue, alpha float32) { gl.ClearColor(red, green, blue, alpha) }

func (*goGL) Clear(mask uint32) { gl.Clear(mask) }

func (*goGL) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels []byte) {
	gl.ReadPixels(x, y, width, height, format, xtype, ptr(pixels))
}

func (*goGL) CreateShader(xtype uint32) uint32 { return gl.CreateShader(xtype) }

func (*goGL) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
}

func (*goGL) CompileShader(shader uint32) { gl.CompileShader(shader) }

func (*goGL) GetShaderiv(shader, pname uint32) int32 {
	var v int32
	gl.GetShaderiv(shader, pname, &v)
	return v
}

func (g *goGL) GetShaderInfoLog(shader uint32) string {
	length := g.GetShaderiv(shader, InfoLogLength)
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length+1)
	var written int32
	gl.GetShaderInfoLog(shader, length, &written, &buf[0])
	return string(buf[:written])
}

func (*goGL) DeleteShader(shader uint32) { gl.DeleteShader(shader) }

func (*goGL) CreateProgram() uint32 { return gl.CreateProgram() }

func (*goGL) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }

func (*goGL) DetachShader(program, shader uint32) { gl.DetachShader(program, shader) }

func (*goGL) LinkProgram(program uint32) { gl.LinkProgram(program) }

func (*goGL) GetProgramiv(program, pname uint32) int32 {
	var v int32
	gl.GetProgramiv(program, pname, &v)
	return v
}

func (g *goGL) GetProgramInfoLog(program uint32) string {
	length := g.GetProgramiv(program, InfoLogLength)
	if length <= 0 {
		return ""
	}
	buf := make([]byte, length+1)
	var written int32
	gl.GetProgramInfoLog(program, length, &written, &buf[0])
	return string(buf[:written])
}

func (*goGL) DeleteProgram(program uint32) { gl.DeleteProgram(program) }

func (*goGL) UseProgram(program uint32) { gl.UseProgram(program) }

func (*goGL) GetUniformLocation(program uint32, name string) int32 {
	cname, free := gl.Strs(name + "\x00")
	defer free()
	return gl.GetUniformLocation(program, *cname)
}

func (*goGL) Uniform1f(location int32, v0 float32) { gl.Uniform1f(location, v0) }

func (*goGL) GetUniformBlockIndex(program uint32, name string) uint32 {
	cname, free := gl.Strs(name + "\x00")
	defer free()
	return gl.GetUniformBlockIndex(program, *cname)
}

func (*goGL) GetActiveUniformBlockiv(program, blockIndex, pname uint32) int32 {
	var v int32
	gl.GetActiveUniformBlockiv(program, blockIndex, pname, &v)
	return v
}

func (*goGL) GetUniformIndices(program uint32, names []string) []uint32 {
	indices := make([]uint32, len(names))
	for i := range indices {
		indices[i] = InvalidIndex
	}
	if len(names) == 0 {
		return indices
	}
	terminated := make([]string, len(names))
	for i, name := range names {
		terminated[i] = name + "\x00"
	}
	cnames, free := gl.Strs(terminated...)
	defer free()
	gl.GetUniformIndices(program, int32(len(names)), cnames, &indices[0])
	return indices
}

func (*goGL) GetActiveUniformsiv(program uint32, indices []uint32, pname uint32) []int32 {
	params := make([]int32, len(indices))
	if len(indices) > 0 {
		gl.GetActiveUniformsiv(program, int32(len(indices)), &indices[0], pname, &params[0])
	}
	return params
}

func (*goGL) UniformBlockBinding(program, blockIndex, binding uint32) {
	gl.UniformBlockBinding(program, blockIndex, binding)
}

func (*goGL) GenBuffers(n int) []uint32 { return genNames(n, gl.GenBuffers) }

func (*goGL) DeleteBuffers(buffers []uint32) { deleteNames(buffers, gl.DeleteBuffers) }

func (*goGL) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }

func (*goGL) BufferData(target uint32, data []byte, usage uint32) {
	gl.BufferData(target, len(data), ptr(data), usage)
}

func (*goGL) BufferSubData(target uint32, offset int, data []byte) {
	gl.BufferSubData(target, offset, len(data), ptr(data))
}

func (*goGL) BindBufferBase(target, index, buffer uint32) { gl.BindBufferBase(target, index, buffer) }

func (*goGL) GenVertexArrays(n int) []uint32 { return genNames(n, gl.GenVertexArrays) }

func (*goGL) DeleteVertexArrays(arrays []uint32) { deleteNames(arrays, gl.DeleteVertexArrays) }

func (*goGL) BindVertexArray(array uint32) { gl.BindVertexArray(array) }

func (*goGL) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (*goGL) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }
