// Package gltest provides an in-memory graphics.GL for tests that run without a GPU.
//
// The fake keeps just enough state to check object lifetimes, uniform block
// layout, buffer contents and the sequence of draws.
package gltest

import (
	"fmt"
	"strings"

	"github.com/richinsley/gpunv12/graphics"
)

// Block describes a uniform block every linked program exposes.
type Block struct {
	Size    int32
	Offsets map[string]int32
}

// Texture is the recorded state of a texture name.
type Texture struct {
	Image          uintptr
	InternalFormat int32
	Width, Height  int32
}

// Upload records a TexSubImage2D call.
type Upload struct {
	Texture       uint32
	Width, Height int32
	Format        uint32
	Bytes         int
	RowLength     int32
}

// Draw records a DrawArrays call together with the state it ran against.
type Draw struct {
	Framebuffer uint32
	DrawBuffers []uint32
	Program     uint32
	Texture     uint32
	VertexArray uint32
	Viewport    [4]int32
	Count       int32
}

type shaderObject struct {
	stage    uint32
	source   string
	compiled bool
	log      string
}

type programObject struct {
	attached []uint32
	linked   bool
	log      string
}

// GL implements graphics.GL.
type GL struct {
	// CompileLog decides whether a source compiles; a non-empty result is the
	// failure log. By default sources containing "#error" fail.
	CompileLog func(source string) string
	// LinkLog, when set, makes every link fail with that log.
	LinkLog string
	// Blocks are the uniform blocks visible to linked programs.
	Blocks map[string]Block
	// Uniforms maps default-block uniform names to locations.
	Uniforms map[string]int32
	// FramebufferStatus overrides CheckFramebufferStatus per framebuffer name.
	FramebufferStatus map[uint32]uint32
	// Strings answers GetString.
	Strings map[uint32]string

	next uint32

	errors []uint32

	Textures     map[uint32]*Texture
	Framebuffers map[uint32]uint32 // framebuffer -> attached texture
	shaders      map[uint32]*shaderObject
	programs     map[uint32]*programObject
	Buffers      map[uint32][]byte
	VertexArrays map[uint32]bool

	PixelStore    map[uint32]int32
	UniformValues map[int32]float32
	BlockBindings map[uint32]uint32 // binding index -> buffer
	// ProgramBlocks maps program and block index to a binding point.
	ProgramBlocks map[[2]uint32]uint32

	boundTexture     uint32
	boundFramebuffer uint32
	boundRead        uint32
	boundBuffer      uint32
	boundVertexArray uint32
	program          uint32
	drawBuffers      []uint32
	viewport         [4]int32
	clearColor       [4]float32

	Uploads []Upload
	Draws   []Draw
	Clears  []Clear
	// Detached records program/shader pairs passed to DetachShader.
	Detached [][2]uint32
}

// Clear records a Clear call.
type Clear struct {
	Framebuffer uint32
	Color       [4]float32
}

var _ graphics.GL = (*GL)(nil)

// New returns a fake whose programs expose the ColorMatrix block laid out like
// a std140 block of three vec4 and two vec2 members, and the width_i uniform.
func New() *GL {
	return &GL{
		Blocks: map[string]Block{
			"ColorMatrix": {
				Size: 64,
				Offsets: map[string]int32{
					"color_vec_y": 0,
					"color_vec_u": 16,
					"color_vec_v": 32,
					"range_y":     48,
					"range_uv":    56,
				},
			},
		},
		Uniforms: map[string]int32{"width_i": 3},
		Strings: map[uint32]string{
			graphics.Vendor:                 "fake",
			graphics.Renderer:               "gltest",
			graphics.Version:                "3.3 (Core Profile) gltest",
			graphics.ShadingLanguageVersion: "3.30",
		},
		FramebufferStatus: map[uint32]uint32{},
		Textures:          map[uint32]*Texture{},
		Framebuffers:      map[uint32]uint32{},
		shaders:           map[uint32]*shaderObject{},
		programs:          map[uint32]*programObject{},
		Buffers:           map[uint32][]byte{},
		VertexArrays:      map[uint32]bool{},
		PixelStore:        map[uint32]int32{},
		UniformValues:     map[int32]float32{},
		BlockBindings:     map[uint32]uint32{},
		ProgramBlocks:     map[[2]uint32]uint32{},
	}
}

func (g *GL) name() uint32 {
	g.next++
	return g.next
}

// PushError queues a code for GetError.
func (g *GL) PushError(code uint32) { g.errors = append(g.errors, code) }

// Live reports the number of live objects of every kind.
func (g *GL) Live() (textures, framebuffers, shaders, programs, buffers int) {
	return len(g.Textures), len(g.Framebuffers), len(g.shaders), len(g.programs), len(g.Buffers)
}

// Bytes returns the current contents of buffer name.
func (g *GL) Bytes(buffer uint32) []byte { return g.Buffers[buffer] }

func (g *GL) GetError() uint32 {
	if len(g.errors) == 0 {
		return graphics.NoError
	}
	code := g.errors[0]
	g.errors = g.errors[1:]
	return code
}

func (g *GL) GetString(name uint32) string { return g.Strings[name] }

func (g *GL) PixelStorei(pname uint32, param int32) { g.PixelStore[pname] = param }

func (g *GL) GenTextures(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = g.name()
		g.Textures[ids[i]] = &Texture{}
	}
	return ids
}

func (g *GL) DeleteTextures(textures []uint32) {
	for _, id := range textures {
		delete(g.Textures, id)
	}
}

func (g *GL) BindTexture(target, texture uint32) { g.boundTexture = texture }

func (g *GL) TexParameteri(target, pname uint32, param int32) {}

func (g *GL) TexParameterfv(target, pname uint32, params []float32) {}

func (g *GL) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32) {
	t, ok := g.Textures[g.boundTexture]
	if !ok {
		g.PushError(graphics.InvalidOperation)
		return
	}
	t.InternalFormat, t.Width, t.Height = internalFormat, width, height
}

func (g *GL) TexSubImage2D(target uint32, level, xoffset, yoffset, width, height int32, format, xtype uint32, pixels []byte) {
	t, ok := g.Textures[g.boundTexture]
	if !ok || xoffset+width > t.Width || yoffset+height > t.Height {
		g.PushError(graphics.InvalidValue)
		return
	}
	g.Uploads = append(g.Uploads, Upload{
		Texture:   g.boundTexture,
		Width:     width,
		Height:    height,
		Format:    format,
		Bytes:     len(pixels),
		RowLength: g.PixelStore[graphics.UnpackRowLength],
	})
}

func (g *GL) EGLImageTargetTexture2DOES(target uint32, image uintptr) {
	t, ok := g.Textures[g.boundTexture]
	if !ok || image == 0 {
		g.PushError(graphics.InvalidOperation)
		return
	}
	t.Image = image
}

func (g *GL) GenFramebuffers(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = g.name()
		g.Framebuffers[ids[i]] = 0
	}
	return ids
}

func (g *GL) DeleteFramebuffers(framebuffers []uint32) {
	for _, id := range framebuffers {
		delete(g.Framebuffers, id)
	}
}

func (g *GL) BindFramebuffer(target, framebuffer uint32) {
	switch target {
	case graphics.ReadFramebuffer:
		g.boundRead = framebuffer
	case graphics.DrawFramebuffer:
		g.boundFramebuffer = framebuffer
	default:
		g.boundFramebuffer = framebuffer
		g.boundRead = framebuffer
	}
}

func (g *GL) FramebufferTexture(target, attachment, texture uint32, level int32) {
	if _, ok := g.Framebuffers[g.boundFramebuffer]; !ok || attachment != graphics.ColorAttachment0 {
		g.PushError(graphics.InvalidOperation)
		return
	}
	g.Framebuffers[g.boundFramebuffer] = texture
}

func (g *GL) DrawBuffers(buffers []uint32) {
	g.drawBuffers = append([]uint32(nil), buffers...)
}

func (g *GL) ReadBuffer(mode uint32) {}

func (g *GL) CheckFramebufferStatus(target uint32) uint32 {
	fb := g.boundFramebuffer
	if target == graphics.ReadFramebuffer {
		fb = g.boundRead
	}
	if status, ok := g.FramebufferStatus[fb]; ok {
		return status
	}
	tex, ok := g.Framebuffers[fb]
	if !ok || tex == 0 {
		return graphics.FramebufferIncompleteMissingAttachment
	}
	if _, ok := g.Textures[tex]; !ok {
		return graphics.FramebufferIncompleteAttachment
	}
	return graphics.FramebufferComplete
}

func (g *GL) ClearColor(red, green, blue, alpha float32) {
	g.clearColor = [4]float32{red, green, blue, alpha}
}

func (g *GL) Clear(mask uint32) {
	g.Clears = append(g.Clears, Clear{Framebuffer: g.boundFramebuffer, Color: g.clearColor})
}

func (g *GL) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels []byte) {
	components := int32(1)
	if format == graphics.RG {
		components = 2
	}
	if int32(len(pixels)) < width*height*components {
		g.PushError(graphics.InvalidOperation)
		return
	}
	// Fill with the framebuffer name so callers can tell planes apart.
	for i := range pixels[:width*height*components] {
		pixels[i] = byte(g.boundRead)
	}
}

func (g *GL) CreateShader(xtype uint32) uint32 {
	id := g.name()
	g.shaders[id] = &shaderObject{stage: xtype}
	return id
}

func (g *GL) ShaderSource(shader uint32, source string) {
	if s, ok := g.shaders[shader]; ok {
		s.source = source
	}
}

func (g *GL) CompileShader(shader uint32) {
	s, ok := g.shaders[shader]
	if !ok {
		g.PushError(graphics.InvalidValue)
		return
	}
	check := g.CompileLog
	if check == nil {
		check = defaultCompileLog
	}
	s.log = check(s.source)
	s.compiled = s.log == ""
}

func defaultCompileLog(source string) string {
	if i := strings.Index(source, "#error"); i >= 0 {
		line := 1 + strings.Count(source[:i], "\n")
		return fmt.Sprintf("0:%d(1): error: #error directive", line)
	}
	return ""
}

func (g *GL) GetShaderiv(shader, pname uint32) int32 {
	s, ok := g.shaders[shader]
	if !ok {
		return 0
	}
	switch pname {
	case graphics.CompileStatus:
		if s.compiled {
			return graphics.True
		}
		return graphics.False
	case graphics.InfoLogLength:
		if s.log == "" {
			return 0
		}
		return int32(len(s.log) + 1)
	}
	return 0
}

func (g *GL) GetShaderInfoLog(shader uint32) string {
	if s, ok := g.shaders[shader]; ok {
		return s.log
	}
	return ""
}

func (g *GL) DeleteShader(shader uint32) { delete(g.shaders, shader) }

func (g *GL) CreateProgram() uint32 {
	id := g.name()
	g.programs[id] = &programObject{}
	return id
}

func (g *GL) AttachShader(program, shader uint32) {
	if p, ok := g.programs[program]; ok {
		p.attached = append(p.attached, shader)
	}
}

func (g *GL) DetachShader(program, shader uint32) {
	g.Detached = append(g.Detached, [2]uint32{program, shader})
	p, ok := g.programs[program]
	if !ok {
		return
	}
	for i, s := range p.attached {
		if s == shader {
			p.attached = append(p.attached[:i], p.attached[i+1:]...)
			return
		}
	}
}

// Attached returns the shaders currently attached to program.
func (g *GL) Attached(program uint32) []uint32 {
	if p, ok := g.programs[program]; ok {
		return p.attached
	}
	return nil
}

func (g *GL) LinkProgram(program uint32) {
	p, ok := g.programs[program]
	if !ok {
		return
	}
	switch {
	case g.LinkLog != "":
		p.log = g.LinkLog
	case len(p.attached) != 2:
		p.log = "error: program needs one vertex and one fragment stage"
	default:
		for _, s := range p.attached {
			if so, ok := g.shaders[s]; !ok || !so.compiled {
				p.log = fmt.Sprintf("error: shader %d is not compiled", s)
			}
		}
	}
	p.linked = p.log == ""
}

func (g *GL) GetProgramiv(program, pname uint32) int32 {
	p, ok := g.programs[program]
	if !ok {
		return 0
	}
	switch pname {
	case graphics.LinkStatus:
		if p.linked {
			return graphics.True
		}
		return graphics.False
	case graphics.InfoLogLength:
		if p.log == "" {
			return 0
		}
		return int32(len(p.log) + 1)
	}
	return 0
}

func (g *GL) GetProgramInfoLog(program uint32) string {
	if p, ok := g.programs[program]; ok {
		return p.log
	}
	return ""
}

func (g *GL) DeleteProgram(program uint32) { delete(g.programs, program) }

func (g *GL) UseProgram(program uint32) { g.program = program }

// CurrentProgram returns the program last passed to UseProgram.
func (g *GL) CurrentProgram() uint32 { return g.program }

func (g *GL) GetUniformLocation(program uint32, name string) int32 {
	if p, ok := g.programs[program]; !ok || !p.linked {
		return -1
	}
	if loc, ok := g.Uniforms[name]; ok {
		return loc
	}
	return -1
}

func (g *GL) Uniform1f(location int32, v0 float32) {
	if g.program == 0 {
		g.PushError(graphics.InvalidOperation)
		return
	}
	g.UniformValues[location] = v0
}

func (g *GL) blockNames() []string {
	names := make([]string, 0, len(g.Blocks))
	for name := range g.Blocks {
		names = append(names, name)
	}
	return names
}

func (g *GL) GetUniformBlockIndex(program uint32, name string) uint32 {
	if p, ok := g.programs[program]; !ok || !p.linked {
		return graphics.InvalidIndex
	}
	for i, n := range sortedStrings(g.blockNames()) {
		if n == name {
			return uint32(i)
		}
	}
	return graphics.InvalidIndex
}

func (g *GL) blockAt(index uint32) (Block, bool) {
	names := sortedStrings(g.blockNames())
	if int(index) >= len(names) {
		return Block{}, false
	}
	return g.Blocks[names[index]], true
}

func (g *GL) GetActiveUniformBlockiv(program, blockIndex, pname uint32) int32 {
	b, ok := g.blockAt(blockIndex)
	if !ok || pname != graphics.UniformBlockDataSize {
		g.PushError(graphics.InvalidValue)
		return 0
	}
	return b.Size
}

// uniform indices encode block and member as block<<16 | member ordinal.
func (g *GL) memberIndex(name string) (uint32, bool) {
	for bi, bn := range sortedStrings(g.blockNames()) {
		members := make([]string, 0, len(g.Blocks[bn].Offsets))
		for m := range g.Blocks[bn].Offsets {
			members = append(members, m)
		}
		for mi, m := range sortedStrings(members) {
			if m == name {
				return uint32(bi)<<16 | uint32(mi), true
			}
		}
	}
	return 0, false
}

func (g *GL) GetUniformIndices(program uint32, names []string) []uint32 {
	indices := make([]uint32, len(names))
	for i, name := range names {
		indices[i] = graphics.InvalidIndex
		if idx, ok := g.memberIndex(name); ok {
			indices[i] = idx
		}
	}
	return indices
}

func (g *GL) GetActiveUniformsiv(program uint32, indices []uint32, pname uint32) []int32 {
	params := make([]int32, len(indices))
	for i, idx := range indices {
		b, ok := g.blockAt(idx >> 16)
		if !ok || pname != graphics.UniformOffset {
			params[i] = -1
			continue
		}
		members := make([]string, 0, len(b.Offsets))
		for m := range b.Offsets {
			members = append(members, m)
		}
		members = sortedStrings(members)
		params[i] = b.Offsets[members[idx&0xffff]]
	}
	return params
}

func (g *GL) UniformBlockBinding(program, blockIndex, binding uint32) {
	if _, ok := g.blockAt(blockIndex); !ok {
		g.PushError(graphics.InvalidValue)
		return
	}
	g.ProgramBlocks[[2]uint32{program, blockIndex}] = binding
}

func (g *GL) GenBuffers(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = g.name()
		g.Buffers[ids[i]] = nil
	}
	return ids
}

func (g *GL) DeleteBuffers(buffers []uint32) {
	for _, id := range buffers {
		delete(g.Buffers, id)
	}
}

func (g *GL) BindBuffer(target, buffer uint32) { g.boundBuffer = buffer }

func (g *GL) BufferData(target uint32, data []byte, usage uint32) {
	if _, ok := g.Buffers[g.boundBuffer]; !ok {
		g.PushError(graphics.InvalidOperation)
		return
	}
	g.Buffers[g.boundBuffer] = append([]byte(nil), data...)
}

func (g *GL) BufferSubData(target uint32, offset int, data []byte) {
	buf, ok := g.Buffers[g.boundBuffer]
	if !ok || offset < 0 || offset+len(data) > len(buf) {
		g.PushError(graphics.InvalidValue)
		return
	}
	copy(buf[offset:], data)
}

func (g *GL) BindBufferBase(target, index, buffer uint32) { g.BlockBindings[index] = buffer }

func (g *GL) GenVertexArrays(n int) []uint32 {
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = g.name()
		g.VertexArrays[ids[i]] = true
	}
	return ids
}

func (g *GL) DeleteVertexArrays(arrays []uint32) {
	for _, id := range arrays {
		delete(g.VertexArrays, id)
	}
}

func (g *GL) BindVertexArray(array uint32) { g.boundVertexArray = array }

func (g *GL) Viewport(x, y, width, height int32) { g.viewport = [4]int32{x, y, width, height} }

func (g *GL) DrawArrays(mode uint32, first, count int32) {
	if g.boundVertexArray == 0 || g.program == 0 {
		g.PushError(graphics.InvalidOperation)
		return
	}
	g.Draws = append(g.Draws, Draw{
		Framebuffer: g.boundFramebuffer,
		DrawBuffers: g.drawBuffers,
		Program:     g.program,
		Texture:     g.boundTexture,
		VertexArray: g.boundVertexArray,
		Viewport:    g.viewport,
		Count:       count,
	})
}

func sortedStrings(s []string) []string {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s
}
