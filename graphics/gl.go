package graphics

// GL is the table of OpenGL entry points used by the converter. It is loaded once
// per context (see headless.Context) and passed explicitly to every component, so
// tests can swap in graphics/gltest.
//
// Every call must be made on the thread the owning context is current on.
type GL interface {
	GetError() uint32
	GetString(name uint32) string
	PixelStorei(pname uint32, param int32)

	GenTextures(n int) []uint32
	DeleteTextures(textures []uint32)
	BindTexture(target, texture uint32)
	TexParameteri(target, pname uint32, param int32)
	TexParameterfv(target, pname uint32, params []float32)
	// TexImage2D (re)allocates storage for the bound texture without uploading pixels.
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32)
	TexSubImage2D(target uint32, level, xoffset, yoffset, width, height int32, format, xtype uint32, pixels []byte)
	EGLImageTargetTexture2DOES(target uint32, image uintptr)

	GenFramebuffers(n int) []uint32
	DeleteFramebuffers(framebuffers []uint32)
	BindFramebuffer(target, framebuffer uint32)
	FramebufferTexture(target, attachment, texture uint32, level int32)
	DrawBuffers(buffers []uint32)
	ReadBuffer(mode uint32)
	CheckFramebufferStatus(target uint32) uint32
	ClearColor(red, green, blue, alpha float32)
	Clear(mask uint32)
	ReadPixels(x, y, width, height int32, format, xtype uint32, pixels []byte)

	CreateShader(xtype uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderiv(shader, pname uint32) int32
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	DetachShader(program, shader uint32)
	LinkProgram(program uint32)
	GetProgramiv(program, pname uint32) int32
	GetProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)
	UseProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	Uniform1f(location int32, v0 float32)

	GetUniformBlockIndex(program uint32, name string) uint32
	GetActiveUniformBlockiv(program, blockIndex, pname uint32) int32
	GetUniformIndices(program uint32, names []string) []uint32
	GetActiveUniformsiv(program uint32, indices []uint32, pname uint32) []int32
	UniformBlockBinding(program, blockIndex, binding uint32)

	GenBuffers(n int) []uint32
	DeleteBuffers(buffers []uint32)
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, data []byte, usage uint32)
	BufferSubData(target uint32, offset int, data []byte)
	BindBufferBase(target, index, buffer uint32)

	GenVertexArrays(n int) []uint32
	DeleteVertexArrays(arrays []uint32)
	BindVertexArray(array uint32)

	Viewport(x, y, width, height int32)
	DrawArrays(mode uint32, first, count int32)
}

// OpenGL enums used by this module.
const (
	NoError                     uint32 = 0
	InvalidEnum                 uint32 = 0x0500
	InvalidValue                uint32 = 0x0501
	InvalidOperation            uint32 = 0x0502
	OutOfMemory                 uint32 = 0x0505
	InvalidFramebufferOperation uint32 = 0x0506

	Vendor                 uint32 = 0x1F00
	Renderer               uint32 = 0x1F01
	Version                uint32 = 0x1F02
	ShadingLanguageVersion uint32 = 0x8B8C

	UnpackRowLength uint32 = 0x0CF2
	UnpackAlignment uint32 = 0x0CF5
	PackAlignment   uint32 = 0x0D05

	Texture2D          uint32 = 0x0DE1
	TextureMagFilter   uint32 = 0x2800
	TextureMinFilter   uint32 = 0x2801
	TextureWrapS       uint32 = 0x2802
	TextureWrapT       uint32 = 0x2803
	TextureBorderColor uint32 = 0x1004
	Nearest            uint32 = 0x2600
	Linear             uint32 = 0x2601
	ClampToEdge        uint32 = 0x812F

	UnsignedByte uint32 = 0x1401
	Red          uint32 = 0x1903
	RGBA         uint32 = 0x1908
	RG           uint32 = 0x8227
	BGRA         uint32 = 0x80E1
	RGBA8        uint32 = 0x8058

	Framebuffer                            uint32 = 0x8D40
	ReadFramebuffer                        uint32 = 0x8CA8
	DrawFramebuffer                        uint32 = 0x8CA9
	ColorAttachment0                       uint32 = 0x8CE0
	FramebufferComplete                    uint32 = 0x8CD5
	FramebufferIncompleteAttachment        uint32 = 0x8CD6
	FramebufferIncompleteMissingAttachment uint32 = 0x8CD7
	FramebufferUnsupported                 uint32 = 0x8CDD
	ColorBufferBit                         uint32 = 0x4000

	FragmentShader uint32 = 0x8B30
	VertexShader   uint32 = 0x8B31
	CompileStatus  uint32 = 0x8B81
	LinkStatus     uint32 = 0x8B82
	InfoLogLength  uint32 = 0x8B84

	UniformBuffer        uint32 = 0x8A11
	UniformOffset        uint32 = 0x8A3B
	UniformBlockDataSize uint32 = 0x8A40
	InvalidIndex         uint32 = 0xFFFFFFFF
	DynamicDraw          uint32 = 0x88E8

	Triangles uint32 = 0x0004

	False int32 = 0
	True  int32 = 1
)
