package renderer

import (
	"fmt"

	"github.com/richinsley/gpunv12/graphics"
)

// NV12Size returns the byte size of a tightly packed NV12 frame.
func NV12Size(width, height int) int {
	cw, ch := (width+1)/2, (height+1)/2
	return width*height + cw*ch*2
}

// ReadPlanes reads both target planes back into one tightly packed NV12
// buffer: the luma plane followed by interleaved chroma. It stalls until the
// GPU is done and is meant for diagnostics, not for the encode path.
func (c *Converter) ReadPlanes(dst []byte) ([]byte, error) {
	if !c.configured() {
		return nil, ErrNotConfigured
	}
	if c.target == nil {
		return nil, ErrNoTarget
	}
	luma, chroma := c.target.Luma, c.target.Chroma
	lumaSize := luma.Width * luma.Height
	size := lumaSize + chroma.Width*chroma.Height*2
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	planes := []struct {
		width, height int
		format        uint32
		data          []byte
	}{
		{luma.Width, luma.Height, graphics.Red, dst[:lumaSize]},
		{chroma.Width, chroma.Height, graphics.RG, dst[lumaSize:]},
	}

	c.gl.PixelStorei(graphics.PackAlignment, 1)
	for i, p := range planes {
		c.gl.BindFramebuffer(graphics.ReadFramebuffer, c.target.Framebuffer(i))
		if status := c.gl.CheckFramebufferStatus(graphics.ReadFramebuffer); status != graphics.FramebufferComplete {
			c.gl.BindFramebuffer(graphics.ReadFramebuffer, 0)
			return nil, &FramebufferError{Pass: i, Status: status}
		}
		c.gl.ReadBuffer(graphics.ColorAttachment0)
		c.gl.ReadPixels(0, 0, int32(p.width), int32(p.height), p.format, graphics.UnsignedByte, p.data)
	}
	c.gl.BindFramebuffer(graphics.ReadFramebuffer, 0)

	if errs := graphics.DrainErrors(c.gl, "read planes"); len(errs) > 0 {
		return nil, fmt.Errorf("reading planes: %w", errs[0])
	}
	return dst, nil
}
