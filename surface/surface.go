package surface

import (
	"fmt"
	"log/slog"

	"github.com/richinsley/gpunv12/graphics"
	"github.com/richinsley/gpunv12/headless"
)

// NumFDs is the number of descriptors a Target may own.
const NumFDs = 4

func bind(gl graphics.GL, tex uint32, image *Image) {
	gl.BindTexture(graphics.Texture2D, tex)
	gl.EGLImageTargetTexture2DOES(graphics.Texture2D, image.handle)
}

// Source is a captured XRGB frame imported as a texture.
type Source struct {
	gl      graphics.GL
	display *headless.Display
	image   *Image
	tex     *graphics.Textures

	Width, Height int
}

// ImportSource imports an XRGB8888 plane. The descriptor stays owned by the
// caller; the driver holds its own reference to the buffer.
func ImportSource(gl graphics.GL, display *headless.Display, p Plane) (*Source, error) {
	image, err := importImage(display, "source", p, FormatXRGB8888)
	if err != nil {
		return nil, err
	}
	s := &Source{gl: gl, display: display, image: image, Width: p.Width, Height: p.Height}
	s.tex = graphics.NewTextures(gl, 1)
	bind(gl, s.tex.ID(0), image)
	gl.BindTexture(graphics.Texture2D, 0)
	graphics.DrainErrors(gl, "import source")

	display.Track(s)
	return s, nil
}

// Texture returns the texture sampling the imported frame.
func (s *Source) Texture() uint32 { return s.tex.ID(0) }

// Close deletes the texture and then the image.
func (s *Source) Close() {
	if s == nil || s.image == nil {
		return
	}
	s.display.Forget(s)
	s.tex.Release()
	s.image.Destroy()
	s.image = nil
}

// Target is an NV12 frame imported as a luma and a chroma render target.
type Target struct {
	gl      graphics.GL
	display *headless.Display
	images  [2]*Image
	tex     *graphics.Textures
	fbs     *graphics.Framebuffers
	fds     [NumFDs]headless.File

	Luma, Chroma Plane
}

// ImportTarget imports luma as an R8 plane and chroma as a GR88 plane, each
// with its own framebuffer. On success the target takes ownership of fds and
// leaves the array empty; on failure fds are untouched and nothing created
// here survives.
func ImportTarget(gl graphics.GL, display *headless.Display, fds *[NumFDs]headless.File, luma, chroma Plane) (*Target, error) {
	if chroma.Width < luma.Width/2 || chroma.Width > (luma.Width+1)/2 ||
		chroma.Height < luma.Height/2 || chroma.Height > (luma.Height+1)/2 {
		return nil, &ImportError{Plane: "chroma", Err: fmt.Errorf("size %dx%d is not half of luma %dx%d",
			chroma.Width, chroma.Height, luma.Width, luma.Height)}
	}

	t := &Target{gl: gl, display: display, Luma: luma, Chroma: chroma}
	var err error
	if t.images[0], err = importImage(display, "luma", luma, FormatR8); err != nil {
		return nil, err
	}
	if t.images[1], err = importImage(display, "chroma", chroma, FormatGR88); err != nil {
		t.images[0].Destroy()
		return nil, err
	}

	t.tex = graphics.NewTextures(gl, 2)
	for i, image := range t.images {
		bind(gl, t.tex.ID(i), image)
	}
	gl.BindTexture(graphics.Texture2D, 0)
	graphics.DrainErrors(gl, "import target")

	t.fbs = graphics.NewFramebuffers(gl, 2)
	t.fbs.Attach(t.tex.IDs())
	graphics.DrainErrors(gl, "attach target")

	t.fds = *fds
	*fds = [NumFDs]headless.File{}
	display.Track(t)
	return t, nil
}

// Framebuffer returns the framebuffer of pass i: 0 luma, 1 chroma.
func (t *Target) Framebuffer(i int) uint32 { return t.fbs.ID(i) }

func (t *Target) Texture(i int) uint32 { return t.tex.ID(i) }

// Close releases framebuffers, textures, images and owned descriptors, in
// that order.
func (t *Target) Close() {
	if t == nil || t.images[0] == nil {
		return
	}
	t.display.Forget(t)
	t.fbs.Release()
	t.tex.Release()
	for i := len(t.images) - 1; i >= 0; i-- {
		t.images[i].Destroy()
		t.images[i] = nil
	}
	for i := range t.fds {
		if err := t.fds[i].Close(); err != nil {
			slog.Warn("couldn't close target descriptor", "err", err)
		}
	}
}
