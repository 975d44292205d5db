package headless

import (
	"log/slog"
	"strings"
)

// RequiredExtensions must all be advertised by a display before it is used.
var RequiredExtensions = []string{
	"EGL_KHR_create_context",
	"EGL_KHR_surfaceless_context",
	"EGL_EXT_image_dma_buf_import",
	"EGL_KHR_image_pixmap",
}

// Closer is a resource created against a Display.
type Closer interface {
	Close()
}

// Display is an initialized EGL display on a GBM device.
//
// Contexts and imported surfaces register themselves with the display that
// created them. Close releases whatever is still registered, newest first, and
// only then terminates the display, so no image outlives it.
type Display struct {
	egl      EGL
	handle   uintptr
	children []Closer
}

// CreateDisplay opens and initializes the display of device and checks the
// extensions this package relies on.
func CreateDisplay(egl EGL, device *Device) (*Display, error) {
	handle := egl.GetPlatformDisplay(PlatformGBM, device.Handle())
	if handle == 0 {
		return nil, &DisplayError{Op: "get platform display", Code: egl.GetError()}
	}
	major, minor, ok := egl.Initialize(handle)
	if !ok {
		code := egl.GetError()
		egl.Terminate(handle)
		return nil, &DisplayError{Op: "initialize display", Code: code}
	}
	slog.Info("EGL initialized",
		"vendor", egl.QueryString(handle, Vendor),
		"version", egl.QueryString(handle, Version),
		"major", major, "minor", minor)
	slog.Debug("EGL client APIs", "apis", egl.QueryString(handle, ClientAPIs))

	d := &Display{egl: egl, handle: handle}
	extensions := egl.QueryString(handle, Extensions)
	for _, ext := range RequiredExtensions {
		if !HasExtension(extensions, ext) {
			d.Close()
			return nil, &DisplayError{Op: "check extensions", Extension: ext}
		}
	}
	return d, nil
}

// HasExtension reports whether the space separated list contains name exactly.
func HasExtension(list, name string) bool {
	for _, ext := range strings.Fields(list) {
		if ext == name {
			return true
		}
	}
	return false
}

func (d *Display) Handle() uintptr { return d.handle }

func (d *Display) EGL() EGL { return d.egl }

// Track registers c to be closed before the display terminates.
func (d *Display) Track(c Closer) {
	d.children = append(d.children, c)
}

// Forget unregisters c, typically from c's own Close.
func (d *Display) Forget(c Closer) {
	for i, child := range d.children {
		if child == c {
			d.children = append(d.children[:i], d.children[i+1:]...)
			return
		}
	}
}

// Live returns the number of registered children.
func (d *Display) Live() int { return len(d.children) }

// CreateImage imports a dma-buf described by attribs. The attribute list must
// end with AttribNone.
func (d *Display) CreateImage(attribs []int) (uintptr, error) {
	image := d.egl.CreateImage(d.handle, LinuxDmaBuf, attribs)
	if image == 0 {
		return 0, &ImageError{Code: d.egl.GetError()}
	}
	return image, nil
}

func (d *Display) DestroyImage(image uintptr) {
	if image == 0 || d.handle == 0 {
		return
	}
	if !d.egl.DestroyImage(d.handle, image) {
		slog.Error("couldn't destroy EGL image", "code", ErrorName(d.egl.GetError()))
	}
}

// Close closes registered children and terminates the display.
func (d *Display) Close() {
	if d == nil || d.handle == 0 {
		return
	}
	children := d.children
	d.children = nil
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Close()
	}
	d.egl.Terminate(d.handle)
	d.handle = 0
}
