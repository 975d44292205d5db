package headless

import "github.com/richinsley/gpunv12/graphics"

// EGL is the subset of EGL 1.5 used to bring up a surfaceless render context and
// import dma-buf planes. Handles are opaque driver pointers; 0 means none.
type EGL interface {
	GetPlatformDisplay(platform uint32, native uintptr) uintptr
	Initialize(display uintptr) (major, minor int32, ok bool)
	QueryString(display uintptr, name int32) string
	ChooseConfig(display uintptr, attribs []int32) (config uintptr, ok bool)
	BindAPI(api uint32) bool
	CreateContext(display, config uintptr, attribs []int32) uintptr
	// MakeCurrent binds context without draw or read surfaces; context 0
	// releases the current one.
	MakeCurrent(display, context uintptr) bool
	DestroyContext(display, context uintptr) bool
	Terminate(display uintptr) bool
	CreateImage(display uintptr, target uint32, attribs []int) uintptr
	DestroyImage(display, image uintptr) bool
	GetError() int32
	// LoadGL resolves the OpenGL entry points of the current context.
	LoadGL() (graphics.GL, error)
}

// GBM is the part of libgbm needed to wrap a render node and allocate linear
// planes on it.
type GBM interface {
	// Available reports why libgbm cannot be used, or nil.
	Available() error
	CreateDevice(fd int) uintptr
	DestroyDevice(device uintptr)
	CreateBuffer(device uintptr, width, height int, format, flags uint32) uintptr
	// BufferFD exports the buffer as a new dma-buf descriptor, or -1.
	BufferFD(bo uintptr) int
	BufferStride(bo uintptr) int
	DestroyBuffer(bo uintptr)
}

// Platform bundles the native tables. Use System for the real ones.
type Platform struct {
	EGL EGL
	GBM GBM
}

const (
	PlatformGBM uint32 = 0x31D7

	Success      int32 = 0x3000
	BadParameter int32 = 0x300C
	BadMatch     int32 = 0x3009
	BadAlloc     int32 = 0x3003
	BadDisplay   int32 = 0x3008
	BadAccess    int32 = 0x3002

	Vendor     int32 = 0x3053
	Version    int32 = 0x3054
	Extensions int32 = 0x3055
	ClientAPIs int32 = 0x308D

	None               int32 = 0x3038
	RenderableType     int32 = 0x3040
	OpenGLBit          int32 = 0x0008
	ContextMajor       int32 = 0x3098
	ContextMinor       int32 = 0x30FB
	ContextProfileMask int32 = 0x30FD
	CoreProfileBit     int32 = 0x0001

	OpenGLAPI uint32 = 0x30A2

	LinuxDmaBuf        uint32 = 0x3270
	Width              int    = 0x3057
	Height             int    = 0x3056
	LinuxDrmFourCC     int    = 0x3271
	DmaBufPlane0FD     int    = 0x3272
	DmaBufPlane0Offset int    = 0x3273
	DmaBufPlane0Pitch  int    = 0x3274
	AttribNone         int    = 0x3038

	BufferUseRendering uint32 = 1 << 2
	BufferUseLinear    uint32 = 1 << 4
)

// ErrorName returns the symbolic name of an eglGetError code.
func ErrorName(code int32) string {
	switch code {
	case Success:
		return "EGL_SUCCESS"
	case BadAccess:
		return "EGL_BAD_ACCESS"
	case BadAlloc:
		return "EGL_BAD_ALLOC"
	case BadDisplay:
		return "EGL_BAD_DISPLAY"
	case BadMatch:
		return "EGL_BAD_MATCH"
	case BadParameter:
		return "EGL_BAD_PARAMETER"
	default:
		return "unknown"
	}
}
