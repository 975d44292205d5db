package surface_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/richinsley/gpunv12/graphics"
	"github.com/richinsley/gpunv12/headless"
	"github.com/richinsley/gpunv12/headless/egltest"
	"github.com/richinsley/gpunv12/surface"
)

type session struct {
	p       *egltest.Platform
	display *headless.Display
	ctx     *headless.Context
}

func newSession(t *testing.T) *session {
	t.Helper()
	p := egltest.New()
	fd, err := egltest.Pipe()
	require.NoError(t, err)
	dev, err := headless.OpenDevice(p.GBM, headless.NewFile(fd))
	require.NoError(t, err)
	t.Cleanup(dev.Close)

	d, err := headless.CreateDisplay(p.EGL, dev)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	ctx, err := headless.CreateContext(d)
	require.NoError(t, err)
	return &session{p: p, display: d, ctx: ctx}
}

func pipe(t *testing.T) int {
	t.Helper()
	fd, err := egltest.Pipe()
	require.NoError(t, err)
	return fd
}

// closedFD returns a descriptor number that is not open. Allocate it last, as
// the number is free for reuse.
func closedFD(t *testing.T) int {
	fd := pipe(t)
	require.NoError(t, unix.Close(fd))
	return fd
}

func isOpen(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

func ownedFDs(t *testing.T) (*[surface.NumFDs]headless.File, []int) {
	var files [surface.NumFDs]headless.File
	var raw []int
	for i := range files {
		fd := pipe(t)
		raw = append(raw, fd)
		files[i] = headless.NewFile(fd)
	}
	t.Cleanup(func() {
		for i := range files {
			files[i].Close()
		}
	})
	return &files, raw
}

func planes(lumaFD, chromaFD int) (surface.Plane, surface.Plane) {
	return surface.Plane{FD: lumaFD, Width: 64, Height: 32, Pitch: 64},
		surface.Plane{FD: chromaFD, Width: 32, Height: 16, Pitch: 64}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, uint32(0x34325258), surface.FormatXRGB8888)
	assert.Equal(t, uint32(0x20203852), surface.FormatR8)
	assert.Equal(t, uint32(0x38385247), surface.FormatGR88)
	assert.Equal(t, "GR88", surface.FormatName(surface.FormatGR88))
	assert.Equal(t, 2, surface.BytesPerPixel(surface.FormatGR88))
	assert.Zero(t, surface.BytesPerPixel(0))
}

func TestImportSource(t *testing.T) {
	s := newSession(t)
	gl := s.p.GL
	fd := pipe(t)
	defer unix.Close(fd)

	src, err := surface.ImportSource(gl, s.display, surface.Plane{FD: fd, Width: 1920, Height: 1080, Pitch: 1920 * 4})
	require.NoError(t, err)
	require.Len(t, s.p.EGL.Images, 1)
	for handle, img := range s.p.EGL.Images {
		assert.Equal(t, surface.FormatXRGB8888, img.Format)
		assert.Equal(t, handle, gl.Textures[src.Texture()].Image)
	}

	src.Close()
	src.Close()
	assert.Empty(t, s.p.EGL.Images)
	assert.Empty(t, gl.Textures)
	assert.True(t, isOpen(fd), "the source descriptor stays with the caller")
}

func TestImportSourceInvalidFD(t *testing.T) {
	descriptors := map[string]func(*testing.T) int{
		"closed":   closedFD,
		"negative": func(*testing.T) int { return -1 },
	}
	for name, descriptor := range descriptors {
		t.Run(name, func(t *testing.T) {
			s := newSession(t)
			fd := descriptor(t)
			src, err := surface.ImportSource(s.p.GL, s.display, surface.Plane{FD: fd, Width: 16, Height: 16, Pitch: 64})
			assert.Nil(t, src)

			var ie *surface.ImportError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, "source", ie.Plane)
			assert.Empty(t, s.p.EGL.Images)
			assert.Empty(t, s.p.GL.Textures)
			assert.Equal(t, 1, s.display.Live(), "only the context is tracked")
		})
	}
}

func TestImportSourceDriverCode(t *testing.T) {
	s := newSession(t)
	_, err := surface.ImportSource(s.p.GL, s.display, surface.Plane{FD: closedFD(t), Width: 16, Height: 16, Pitch: 64})
	var ie *surface.ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, headless.BadParameter, ie.Code)
}

func TestImportSourceRejectsShortPitch(t *testing.T) {
	s := newSession(t)
	fd := pipe(t)
	defer unix.Close(fd)
	_, err := surface.ImportSource(s.p.GL, s.display, surface.Plane{FD: fd, Width: 16, Height: 16, Pitch: 32})
	assert.ErrorContains(t, err, "pitch 32")
	for _, e := range s.p.EGL.Events {
		assert.NotContains(t, e, "create image", "rejected before the driver")
	}
}

func TestImportTarget(t *testing.T) {
	s := newSession(t)
	gl := s.p.GL
	fds, raw := ownedFDs(t)
	luma, chroma := planes(raw[0], raw[1])

	tgt, err := surface.ImportTarget(gl, s.display, fds, luma, chroma)
	require.NoError(t, err)
	for i := range fds {
		assert.False(t, fds[i].Valid(), "ownership moved to the target")
	}

	formats := map[uint32]bool{}
	for _, img := range s.p.EGL.Images {
		formats[img.Format] = true
	}
	assert.Equal(t, map[uint32]bool{surface.FormatR8: true, surface.FormatGR88: true}, formats)

	for i := 0; i < 2; i++ {
		fb := tgt.Framebuffer(i)
		assert.Equal(t, tgt.Texture(i), gl.Framebuffers[fb])
		gl.BindFramebuffer(graphics.Framebuffer, fb)
		assert.Equal(t, graphics.FramebufferComplete, gl.CheckFramebufferStatus(graphics.Framebuffer))
	}

	tgt.Close()
	tgt.Close()
	assert.Empty(t, s.p.EGL.Images)
	assert.Empty(t, gl.Textures)
	assert.Empty(t, gl.Framebuffers)
	for _, fd := range raw {
		assert.False(t, isOpen(fd), "owned descriptors are closed")
	}
}

func TestImportTargetChromaFailureLeaksNothing(t *testing.T) {
	s := newSession(t)
	fds, raw := ownedFDs(t)
	luma, chroma := planes(raw[0], closedFD(t))

	tgt, err := surface.ImportTarget(s.p.GL, s.display, fds, luma, chroma)
	assert.Nil(t, tgt)
	var ie *surface.ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "chroma", ie.Plane)

	assert.Empty(t, s.p.EGL.Images, "the luma image is destroyed")
	assert.Empty(t, s.p.GL.Textures)
	assert.Empty(t, s.p.GL.Framebuffers)
	for i := range fds {
		assert.True(t, fds[i].Valid(), "the caller keeps its descriptors")
	}
}

func TestImportTargetChromaSize(t *testing.T) {
	s := newSession(t)
	fds, raw := ownedFDs(t)
	luma, chroma := planes(raw[0], raw[1])
	chroma.Width = 64

	_, err := surface.ImportTarget(s.p.GL, s.display, fds, luma, chroma)
	var ie *surface.ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "chroma", ie.Plane)
	assert.Empty(t, s.p.EGL.Images)
}

func TestDisplayCloseReleasesImagesFirst(t *testing.T) {
	s := newSession(t)
	fds, raw := ownedFDs(t)
	luma, chroma := planes(raw[0], raw[1])
	_, err := surface.ImportTarget(s.p.GL, s.display, fds, luma, chroma)
	require.NoError(t, err)

	s.display.Close()

	events := s.p.EGL.Events
	terminate := -1
	var destroyed []int
	for i, e := range events {
		switch {
		case e == "terminate":
			terminate = i
		case len(e) > 13 && e[:13] == "destroy image":
			destroyed = append(destroyed, i)
		}
	}
	require.Len(t, destroyed, 2)
	require.NotEqual(t, -1, terminate)
	for _, i := range destroyed {
		assert.Less(t, i, terminate)
	}
	assert.Empty(t, s.p.EGL.Violations)
	assert.Empty(t, s.p.EGL.Images)
	for _, fd := range raw {
		assert.False(t, isOpen(fd))
	}
}
