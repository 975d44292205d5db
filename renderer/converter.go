// Package renderer converts BGRA frames into NV12 planes on the GPU.
package renderer

import (
	"fmt"
	"log/slog"

	"github.com/richinsley/gpunv12/colorspace"
	"github.com/richinsley/gpunv12/graphics"
	"github.com/richinsley/gpunv12/headless"
	"github.com/richinsley/gpunv12/shader"
	"github.com/richinsley/gpunv12/surface"
)

// Frame is a packed BGRA8 image of the configured input size. Stride is the
// byte distance between rows; zero means tightly packed.
type Frame struct {
	Pixels []byte
	Stride int
}

// Converter owns one GPU session: device, display, context, the conversion
// programs and the current target. All methods must run on the thread the
// context is current on.
type Converter struct {
	platform headless.Platform
	sources  shader.Sources
	color    colorspace.Color

	device   *headless.Device
	display  *headless.Display
	ctx      *headless.Context
	gl       graphics.GL
	pipeline *shader.Pipeline
	scene    *graphics.VertexArray
	texIn    *graphics.Textures
	target   *surface.Target

	inWidth, inHeight int
	geometry          Geometry
}

// New returns an unconfigured converter using BT.601 limited range until
// SetColorspace says otherwise.
func New(platform headless.Platform, sources shader.Sources) *Converter {
	return &Converter{
		platform: platform,
		sources:  sources,
		color:    colorspace.Colors[0],
	}
}

// Configure tears down any previous session and builds a new one on the
// render node file for inputs of inWidth x inHeight. It takes ownership of file.
func (c *Converter) Configure(inWidth, inHeight int, file headless.File) error {
	c.Close()
	if inWidth <= 0 || inHeight <= 0 {
		file.Close()
		return fmt.Errorf("invalid input size %dx%d", inWidth, inHeight)
	}

	var err error
	if c.device, err = headless.OpenDevice(c.platform.GBM, file); err != nil {
		return err
	}
	if c.display, err = headless.CreateDisplay(c.platform.EGL, c.device); err != nil {
		c.Close()
		return err
	}
	if c.ctx, err = headless.CreateContext(c.display); err != nil {
		c.Close()
		return err
	}
	c.gl = c.ctx.GL()

	if c.pipeline, err = shader.BuildPipeline(c.gl, c.sources, c.color.Members()); err != nil {
		c.Close()
		return err
	}
	c.scene = graphics.NewVertexArray(c.gl)
	c.texIn = graphics.NewTextures(c.gl, 1)
	graphics.DrainErrors(c.gl, "configure")

	c.inWidth, c.inHeight = inWidth, inHeight
	slog.Debug("converter configured", "width", inWidth, "height", inHeight)
	return nil
}

func (c *Converter) configured() bool { return c.pipeline != nil }

// SetColorspace selects the color matrix. Before Configure the choice is kept
// for the next session.
func (c *Converter) SetColorspace(standard colorspace.Standard, rng colorspace.Range) error {
	c.color = colorspace.Select(standard, rng)
	if !c.configured() {
		return nil
	}
	if err := c.pipeline.ColorMatrix.Update(c.color.Members(), 0); err != nil {
		return err
	}
	if c.target != nil {
		c.clearTarget()
	}
	return nil
}

// SetTarget imports a new NV12 target and adopts its geometry. On failure the
// previous target stays in place. See surface.ImportTarget for fds ownership.
func (c *Converter) SetTarget(fds *[surface.NumFDs]headless.File, luma, chroma surface.Plane) error {
	if !c.configured() {
		return ErrNotConfigured
	}
	t, err := surface.ImportTarget(c.gl, c.display, fds, luma, chroma)
	if err != nil {
		return err
	}
	c.target.Close()
	c.target = t
	return c.OnTargetGeometryChange(luma.Width, luma.Height)
}

// OnTargetGeometryChange refits the input into a target of width x height,
// reallocates the input texture and clears the letterbox bars.
func (c *Converter) OnTargetGeometryChange(width, height int) error {
	if !c.configured() {
		return ErrNotConfigured
	}
	g, err := Fit(c.inWidth, c.inHeight, width, height)
	if err != nil {
		return err
	}
	c.geometry = g

	c.gl.BindTexture(graphics.Texture2D, c.texIn.ID(0))
	c.gl.TexImage2D(graphics.Texture2D, 0, int32(graphics.RGBA8), int32(c.inWidth), int32(c.inHeight), graphics.BGRA, graphics.UnsignedByte)
	c.gl.BindTexture(graphics.Texture2D, 0)

	c.pipeline.SetOutputWidth(g.OutWidth)
	if c.target != nil {
		c.clearTarget()
	}
	graphics.DrainErrors(c.gl, "target geometry")

	slog.Debug("target geometry",
		"target", fmt.Sprintf("%dx%d", width, height),
		"out", fmt.Sprintf("%dx%d", g.OutWidth, g.OutHeight),
		"offset", fmt.Sprintf("%d,%d", g.OffsetX, g.OffsetY))
	return nil
}

// clearTarget fills both planes with black so the bars around the fitted
// image are black in the active range.
func (c *Converter) clearTarget() {
	y, uv := c.color.Black()
	black := [shader.NumPasses][4]float32{
		{y, 0, 0, 1},
		{uv, uv, 0, 1},
	}
	for i, color := range black {
		c.gl.BindFramebuffer(graphics.Framebuffer, c.target.Framebuffer(i))
		c.gl.DrawBuffers([]uint32{graphics.ColorAttachment0})
		c.gl.ClearColor(color[0], color[1], color[2], color[3])
		c.gl.Clear(graphics.ColorBufferBit)
	}
	c.gl.BindFramebuffer(graphics.Framebuffer, 0)
}

// Convert uploads frame into the input texture and renders it into the target.
func (c *Converter) Convert(frame Frame) error {
	if !c.configured() {
		return ErrNotConfigured
	}
	if c.target == nil {
		return ErrNoTarget
	}
	row := c.inWidth * 4
	stride := frame.Stride
	if stride == 0 {
		stride = row
	}
	if stride < row || stride%4 != 0 {
		return fmt.Errorf("invalid stride %d for width %d", stride, c.inWidth)
	}
	if need := stride*(c.inHeight-1) + row; len(frame.Pixels) < need {
		return fmt.Errorf("frame has %d bytes, need %d", len(frame.Pixels), need)
	}

	c.gl.BindTexture(graphics.Texture2D, c.texIn.ID(0))
	if stride != row {
		c.gl.PixelStorei(graphics.UnpackRowLength, int32(stride/4))
	}
	c.gl.TexSubImage2D(graphics.Texture2D, 0, 0, 0, int32(c.inWidth), int32(c.inHeight), graphics.BGRA, graphics.UnsignedByte, frame.Pixels)
	if stride != row {
		c.gl.PixelStorei(graphics.UnpackRowLength, 0)
	}
	graphics.DrainErrors(c.gl, "upload frame")

	return c.draw(c.texIn.ID(0))
}

// ImportSource imports a captured XRGB plane for ConvertSurface.
func (c *Converter) ImportSource(p surface.Plane) (*surface.Source, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	return surface.ImportSource(c.gl, c.display, p)
}

// ConvertSurface renders an imported source into the target without copying
// its pixels through the CPU.
func (c *Converter) ConvertSurface(src *surface.Source) error {
	if !c.configured() {
		return ErrNotConfigured
	}
	if c.target == nil {
		return ErrNoTarget
	}
	if src.Width != c.inWidth || src.Height != c.inHeight {
		return fmt.Errorf("source is %dx%d, converter expects %dx%d", src.Width, src.Height, c.inWidth, c.inHeight)
	}
	return c.draw(src.Texture())
}

func (c *Converter) draw(tex uint32) error {
	defer c.gl.BindFramebuffer(graphics.Framebuffer, 0)

	for i := 0; i < shader.NumPasses; i++ {
		c.gl.BindFramebuffer(graphics.Framebuffer, c.target.Framebuffer(i))
		c.gl.DrawBuffers([]uint32{graphics.ColorAttachment0})

		if status := c.gl.CheckFramebufferStatus(graphics.Framebuffer); status != graphics.FramebufferComplete {
			slog.Error("framebuffer incomplete", "pass", i, "status", fmt.Sprintf("0x%x", status))
			return &FramebufferError{Pass: i, Status: status}
		}

		c.gl.BindTexture(graphics.Texture2D, tex)
		c.pipeline.Bind(i)

		vp := c.geometry.Viewport(i)
		c.gl.Viewport(vp[0], vp[1], vp[2], vp[3])
		c.scene.Bind()
		c.gl.DrawArrays(graphics.Triangles, 0, 3)
	}
	graphics.DrainErrors(c.gl, "convert")
	return nil
}

// Geometry returns the current fit.
func (c *Converter) Geometry() Geometry { return c.geometry }

// Device returns the GBM device of the session, or nil.
func (c *Converter) Device() *headless.Device { return c.device }

// Context returns the render context of the session, or nil.
func (c *Converter) Context() graphics.Context {
	if c.ctx == nil {
		return nil
	}
	return c.ctx
}

// Target returns the current target surface, or nil.
func (c *Converter) Target() *surface.Target { return c.target }

// Close releases the session, GL objects first and the device last. The
// converter can be configured again afterwards.
func (c *Converter) Close() {
	if c.gl != nil {
		c.target.Close()
		c.texIn.Release()
		c.scene.Release()
		c.pipeline.Close()
	}
	c.target, c.texIn, c.scene, c.pipeline = nil, nil, nil, nil

	// Surfaces still tracked by the display were imported after the context,
	// so the reverse sweep releases them while it is current.
	c.display.Close()
	c.ctx.Close()
	c.device.Close()
	c.ctx, c.display, c.device, c.gl = nil, nil, nil, nil
	c.inWidth, c.inHeight = 0, 0
	c.geometry = Geometry{}
}
