package headless

import (
	"log/slog"

	"github.com/richinsley/gpunv12/graphics"
)

// Context is a surfaceless desktop OpenGL context together with the entry
// points loaded for it.
type Context struct {
	display *Display
	handle  uintptr
	gl      graphics.GL
}

var _ graphics.Context = (*Context)(nil)

// CreateContext creates an OpenGL 3.3 core context on display, makes it
// current on the calling thread and loads its entry points. The caller must
// keep the OS thread locked while the context is current.
func CreateContext(display *Display) (*Context, error) {
	egl := display.egl

	config, ok := egl.ChooseConfig(display.handle, []int32{RenderableType, OpenGLBit, None})
	if !ok {
		return nil, &ContextError{Step: "choose config", Code: egl.GetError()}
	}
	if !egl.BindAPI(OpenGLAPI) {
		return nil, &ContextError{Step: "bind api", Code: egl.GetError()}
	}
	attribs := []int32{
		ContextMajor, 3,
		ContextMinor, 3,
		ContextProfileMask, CoreProfileBit,
		None,
	}
	handle := egl.CreateContext(display.handle, config, attribs)
	if handle == 0 {
		return nil, &ContextError{Step: "create context", Code: egl.GetError()}
	}
	c := &Context{display: display, handle: handle}
	if !egl.MakeCurrent(display.handle, handle) {
		code := egl.GetError()
		c.destroy()
		return nil, &ContextError{Step: "make current", Code: code}
	}
	gl, err := egl.LoadGL()
	if err != nil {
		c.destroy()
		return nil, &ContextError{Step: "load entry points", Err: err}
	}
	c.gl = gl

	slog.Debug("GL context",
		"vendor", gl.GetString(graphics.Vendor),
		"renderer", gl.GetString(graphics.Renderer),
		"version", gl.GetString(graphics.Version),
		"glsl", gl.GetString(graphics.ShadingLanguageVersion))
	gl.PixelStorei(graphics.UnpackAlignment, 1)

	display.Track(c)
	return c, nil
}

// GL returns the entry points loaded for this context.
func (c *Context) GL() graphics.GL { return c.gl }

func (c *Context) Display() *Display { return c.display }

// MakeCurrent binds the context to the calling thread.
func (c *Context) MakeCurrent() error {
	if !c.display.egl.MakeCurrent(c.display.handle, c.handle) {
		return &ContextError{Step: "make current", Code: c.display.egl.GetError()}
	}
	return nil
}

// Release unbinds the context from the calling thread so another thread may
// make it current.
func (c *Context) Release() error {
	if !c.display.egl.MakeCurrent(c.display.handle, 0) {
		return &ContextError{Step: "release", Code: c.display.egl.GetError()}
	}
	return nil
}

func (c *Context) destroy() {
	egl := c.display.egl
	egl.MakeCurrent(c.display.handle, 0)
	egl.DestroyContext(c.display.handle, c.handle)
	c.handle = 0
	c.gl = nil
}

// Close destroys the context. Resources created with its GL table must be
// released first.
func (c *Context) Close() {
	if c == nil || c.handle == 0 {
		return
	}
	c.display.Forget(c)
	c.destroy()
}
