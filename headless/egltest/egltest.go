// Package egltest provides in-memory EGL and GBM tables for tests.
//
// Image imports validate the dma-buf descriptor with fcntl, so tests pass real
// descriptors (pipes or memfds) and closed ones are rejected like a driver would.
package egltest

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/richinsley/gpunv12/graphics"
	"github.com/richinsley/gpunv12/graphics/gltest"
	"github.com/richinsley/gpunv12/headless"
)

// Failure points that can be injected through EGL.Fail.
const (
	FailPlatformDisplay = "get platform display"
	FailInitialize      = "initialize"
	FailChooseConfig    = "choose config"
	FailBindAPI         = "bind api"
	FailCreateContext   = "create context"
	FailMakeCurrent     = "make current"
	FailLoadGL          = "load entry points"
	FailCreateImage     = "create image"
)

// AllExtensions is the default extension string.
const AllExtensions = "EGL_KHR_create_context EGL_KHR_surfaceless_context EGL_EXT_image_dma_buf_import EGL_KHR_image_pixmap EGL_KHR_gl_texture_2D_image"

// Image is a live imported image.
type Image struct {
	Display uintptr
	FD      int
	Width   int
	Height  int
	Format  uint32
	Offset  int
	Pitch   int
}

// EGL implements headless.EGL.
type EGL struct {
	Extensions string
	Fail       map[string]bool
	GL         *gltest.GL

	// Events lists lifecycle calls in order, e.g. "destroy image 7".
	Events []string
	// Violations lists calls made against a terminated display.
	Violations []string

	Images   map[uintptr]Image
	Contexts map[uintptr]uintptr
	Current  uintptr

	next      uintptr
	displays  map[uintptr]bool
	lastError int32
}

var _ headless.EGL = (*EGL)(nil)

// Platform bundles fakes for headless.Platform.
type Platform struct {
	EGL *EGL
	GBM *GBM
	GL  *gltest.GL
}

// New returns fakes that succeed everywhere and share one gltest.GL.
func New() *Platform {
	gl := gltest.New()
	return &Platform{
		EGL: &EGL{
			Extensions: AllExtensions,
			Fail:       map[string]bool{},
			GL:         gl,
			Images:     map[uintptr]Image{},
			Contexts:   map[uintptr]uintptr{},
			displays:   map[uintptr]bool{},
			next:       0x1000,
		},
		GBM: &GBM{
			Devices: map[uintptr]int{},
			Buffers: map[uintptr]*Buffer{},
			next:    0x8000,
		},
		GL: gl,
	}
}

func (p *Platform) Platform() headless.Platform {
	return headless.Platform{EGL: p.EGL, GBM: p.GBM}
}

func (e *EGL) handle() uintptr {
	e.next += 0x10
	return e.next
}

func (e *EGL) fail(op string, code int32) bool {
	if e.Fail[op] {
		e.lastError = code
		return true
	}
	return false
}

func (e *EGL) live(display uintptr, op string) bool {
	if !e.displays[display] {
		e.Violations = append(e.Violations, fmt.Sprintf("%s on display %#x", op, display))
		e.lastError = headless.BadDisplay
		return false
	}
	return true
}

// Live reports whether display is initialized and not terminated.
func (e *EGL) Live(display uintptr) bool { return e.displays[display] }

func (e *EGL) GetPlatformDisplay(platform uint32, native uintptr) uintptr {
	if platform != headless.PlatformGBM || native == 0 || e.fail(FailPlatformDisplay, headless.BadParameter) {
		return 0
	}
	return e.handle()
}

func (e *EGL) Initialize(display uintptr) (int32, int32, bool) {
	if e.fail(FailInitialize, headless.BadDisplay) {
		return 0, 0, false
	}
	e.displays[display] = true
	e.Events = append(e.Events, "initialize")
	return 1, 5, true
}

func (e *EGL) QueryString(display uintptr, name int32) string {
	switch name {
	case headless.Extensions:
		return e.Extensions
	case headless.Vendor:
		return "egltest"
	case headless.Version:
		return "1.5 egltest"
	case headless.ClientAPIs:
		return "OpenGL OpenGL_ES"
	}
	return ""
}

func (e *EGL) ChooseConfig(display uintptr, attribs []int32) (uintptr, bool) {
	if !e.live(display, "choose config") || e.fail(FailChooseConfig, headless.BadMatch) {
		return 0, false
	}
	return 0xC0, true
}

func (e *EGL) BindAPI(api uint32) bool {
	if api != headless.OpenGLAPI || e.fail(FailBindAPI, headless.BadParameter) {
		return false
	}
	return true
}

func (e *EGL) CreateContext(display, config uintptr, attribs []int32) uintptr {
	if !e.live(display, "create context") || e.fail(FailCreateContext, headless.BadMatch) {
		return 0
	}
	h := e.handle()
	e.Contexts[h] = display
	e.Events = append(e.Events, "create context")
	return h
}

func (e *EGL) MakeCurrent(display, context uintptr) bool {
	if !e.live(display, "make current") {
		return false
	}
	if context != 0 {
		if _, ok := e.Contexts[context]; !ok || e.fail(FailMakeCurrent, headless.BadAccess) {
			if !ok {
				e.lastError = headless.BadParameter
			}
			return false
		}
	}
	e.Current = context
	return true
}

func (e *EGL) DestroyContext(display, context uintptr) bool {
	if !e.live(display, "destroy context") {
		return false
	}
	delete(e.Contexts, context)
	e.Events = append(e.Events, "destroy context")
	return true
}

func (e *EGL) Terminate(display uintptr) bool {
	delete(e.displays, display)
	e.Events = append(e.Events, "terminate")
	return true
}

func (e *EGL) CreateImage(display uintptr, target uint32, attribs []int) uintptr {
	if !e.live(display, "create image") || e.fail(FailCreateImage, headless.BadAlloc) {
		return 0
	}
	if target != headless.LinuxDmaBuf || len(attribs) == 0 || attribs[len(attribs)-1] != headless.AttribNone {
		e.lastError = headless.BadParameter
		return 0
	}
	img := Image{Display: display, FD: -1}
	for i := 0; i+1 < len(attribs); i += 2 {
		switch attribs[i] {
		case headless.Width:
			img.Width = attribs[i+1]
		case headless.Height:
			img.Height = attribs[i+1]
		case headless.LinuxDrmFourCC:
			img.Format = uint32(attribs[i+1])
		case headless.DmaBufPlane0FD:
			img.FD = attribs[i+1]
		case headless.DmaBufPlane0Offset:
			img.Offset = attribs[i+1]
		case headless.DmaBufPlane0Pitch:
			img.Pitch = attribs[i+1]
		}
	}
	if img.FD < 0 || img.Width <= 0 || img.Height <= 0 || img.Pitch <= 0 {
		e.lastError = headless.BadParameter
		return 0
	}
	if _, err := unix.FcntlInt(uintptr(img.FD), unix.F_GETFD, 0); err != nil {
		e.lastError = headless.BadParameter
		return 0
	}
	h := e.handle()
	e.Images[h] = img
	e.Events = append(e.Events, fmt.Sprintf("create image %d", img.FD))
	return h
}

func (e *EGL) DestroyImage(display, image uintptr) bool {
	if !e.live(display, "destroy image") {
		return false
	}
	img, ok := e.Images[image]
	if !ok {
		e.lastError = headless.BadParameter
		return false
	}
	delete(e.Images, image)
	e.Events = append(e.Events, fmt.Sprintf("destroy image %d", img.FD))
	return true
}

func (e *EGL) GetError() int32 {
	code := e.lastError
	e.lastError = headless.Success
	if code == 0 {
		return headless.Success
	}
	return code
}

func (e *EGL) LoadGL() (graphics.GL, error) {
	if e.fail(FailLoadGL, headless.Success) {
		return nil, errors.New("glEGLImageTargetTexture2DOES is not available")
	}
	if e.Current == 0 {
		return nil, errors.New("no current context")
	}
	return e.GL, nil
}

// Buffer is a fake GBM buffer object backed by a memfd.
type Buffer struct {
	Width, Height int
	Format        uint32
	Flags         uint32
	Stride        int
}

// GBM implements headless.GBM.
type GBM struct {
	Unavailable error
	FailCreate  bool

	Devices map[uintptr]int
	Buffers map[uintptr]*Buffer

	next uintptr
}

var _ headless.GBM = (*GBM)(nil)

func (g *GBM) Available() error { return g.Unavailable }

func (g *GBM) CreateDevice(fd int) uintptr {
	if g.FailCreate || fd < 0 {
		return 0
	}
	g.next += 0x10
	g.Devices[g.next] = fd
	return g.next
}

func (g *GBM) DestroyDevice(device uintptr) { delete(g.Devices, device) }

func bytesPerPixel(format uint32) int {
	switch format {
	case 0x20203852: // R8
		return 1
	case 0x38385247: // GR88
		return 2
	}
	return 4
}

func (g *GBM) CreateBuffer(device uintptr, width, height int, format, flags uint32) uintptr {
	if _, ok := g.Devices[device]; !ok {
		return 0
	}
	g.next += 0x10
	stride := (width*bytesPerPixel(format) + 63) &^ 63
	g.Buffers[g.next] = &Buffer{Width: width, Height: height, Format: format, Flags: flags, Stride: stride}
	return g.next
}

func (g *GBM) BufferFD(bo uintptr) int {
	b, ok := g.Buffers[bo]
	if !ok {
		return -1
	}
	fd, err := unix.MemfdCreate("egltest-bo", unix.MFD_CLOEXEC)
	if err != nil {
		return -1
	}
	if err := unix.Ftruncate(fd, int64(b.Stride*b.Height)); err != nil {
		unix.Close(fd)
		return -1
	}
	return fd
}

func (g *GBM) BufferStride(bo uintptr) int {
	if b, ok := g.Buffers[bo]; ok {
		return b.Stride
	}
	return 0
}

func (g *GBM) DestroyBuffer(bo uintptr) { delete(g.Buffers, bo) }

// Pipe returns the read end of a fresh pipe as a stand-in dma-buf descriptor,
// closing the write end.
func Pipe() (int, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return -1, err
	}
	unix.Close(fds[1])
	return fds[0], nil
}
