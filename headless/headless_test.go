package headless_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/richinsley/gpunv12/graphics"
	"github.com/richinsley/gpunv12/headless"
	"github.com/richinsley/gpunv12/headless/egltest"
)

func openDevice(t *testing.T, p *egltest.Platform) *headless.Device {
	t.Helper()
	fd, err := egltest.Pipe()
	require.NoError(t, err)
	dev, err := headless.OpenDevice(p.GBM, headless.NewFile(fd))
	require.NoError(t, err)
	t.Cleanup(dev.Close)
	return dev
}

func fdOpen(fd int) bool {
	_, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	return err == nil
}

func TestFileClose(t *testing.T) {
	fd, err := egltest.Pipe()
	require.NoError(t, err)

	f := headless.NewFile(fd)
	assert.True(t, f.Valid())
	assert.Equal(t, fd, f.FD())
	require.NoError(t, f.Close())
	assert.False(t, fdOpen(fd))
	assert.Equal(t, -1, f.FD())
	assert.NoError(t, f.Close())

	var empty headless.File
	assert.False(t, empty.Valid())
	assert.NoError(t, empty.Close())
	assert.False(t, headless.NewFile(-1).Valid())
}

func TestFileRelease(t *testing.T) {
	fd, err := egltest.Pipe()
	require.NoError(t, err)
	f := headless.NewFile(fd)
	assert.Equal(t, fd, f.Release())
	assert.False(t, f.Valid())
	assert.True(t, fdOpen(fd))
	unix.Close(fd)
}

func TestOpenDeviceUnavailable(t *testing.T) {
	p := egltest.New()
	p.GBM.Unavailable = errors.New("libgbm.so.1: cannot open shared object file")
	fd, err := egltest.Pipe()
	require.NoError(t, err)

	_, err = headless.OpenDevice(p.GBM, headless.NewFile(fd))
	var devErr *headless.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, "load libgbm", devErr.Op)
	assert.False(t, fdOpen(fd), "the descriptor is closed on failure")
}

func TestOpenDeviceNull(t *testing.T) {
	p := egltest.New()
	p.GBM.FailCreate = true
	fd, err := egltest.Pipe()
	require.NoError(t, err)

	_, err = headless.OpenDevice(p.GBM, headless.NewFile(fd))
	var devErr *headless.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, "create device", devErr.Op)
	assert.False(t, fdOpen(fd))
}

func TestDeviceCloseReleasesNode(t *testing.T) {
	p := egltest.New()
	fd, err := egltest.Pipe()
	require.NoError(t, err)
	dev, err := headless.OpenDevice(p.GBM, headless.NewFile(fd))
	require.NoError(t, err)
	assert.Len(t, p.GBM.Devices, 1)

	dev.Close()
	dev.Close()
	assert.Empty(t, p.GBM.Devices)
	assert.False(t, fdOpen(fd))
}

func TestAllocatePlane(t *testing.T) {
	p := egltest.New()
	dev := openDevice(t, p)

	buf, err := dev.AllocatePlane(100, 20, 0x20203852)
	require.NoError(t, err)
	defer buf.Close()

	assert.Equal(t, 128, buf.Stride())
	bo := p.GBM.Buffers
	require.Len(t, bo, 1)
	for _, b := range bo {
		assert.Equal(t, headless.BufferUseRendering|headless.BufferUseLinear, b.Flags)
	}

	f, err := buf.Export()
	require.NoError(t, err)
	assert.True(t, f.Valid())
	require.NoError(t, f.Close())

	_, err = dev.AllocatePlane(0, 20, 0x20203852)
	assert.Error(t, err)
}

func TestCreateDisplay(t *testing.T) {
	p := egltest.New()
	dev := openDevice(t, p)

	d, err := headless.CreateDisplay(p.EGL, dev)
	require.NoError(t, err)
	handle := d.Handle()
	assert.True(t, p.EGL.Live(handle))

	d.Close()
	d.Close()
	assert.False(t, p.EGL.Live(handle))
	assert.Equal(t, []string{"initialize", "terminate"}, p.EGL.Events)
}

func TestCreateDisplayMissingExtension(t *testing.T) {
	for _, missing := range headless.RequiredExtensions {
		t.Run(missing, func(t *testing.T) {
			p := egltest.New()
			var exts []string
			for _, ext := range headless.RequiredExtensions {
				if ext != missing {
					exts = append(exts, ext)
				}
			}
			// A longer name sharing the prefix must not satisfy the check.
			exts = append(exts, missing+"_extra")
			p.EGL.Extensions = strings.Join(exts, " ")

			_, err := headless.CreateDisplay(p.EGL, openDevice(t, p))
			var dispErr *headless.DisplayError
			require.ErrorAs(t, err, &dispErr)
			assert.Equal(t, missing, dispErr.Extension)
			assert.Contains(t, p.EGL.Events, "terminate")
		})
	}
}

func TestCreateDisplayFailures(t *testing.T) {
	for _, step := range []string{egltest.FailPlatformDisplay, egltest.FailInitialize} {
		t.Run(step, func(t *testing.T) {
			p := egltest.New()
			p.EGL.Fail[step] = true
			_, err := headless.CreateDisplay(p.EGL, openDevice(t, p))
			var dispErr *headless.DisplayError
			require.ErrorAs(t, err, &dispErr)
			assert.NotZero(t, dispErr.Code)
			assert.Empty(t, dispErr.Extension)
			if step == egltest.FailInitialize {
				assert.Equal(t, []string{"terminate"}, p.EGL.Events)
			} else {
				assert.Empty(t, p.EGL.Events)
			}
		})
	}
}

func TestHasExtension(t *testing.T) {
	list := "EGL_KHR_image_base  EGL_KHR_image_pixmap\tEGL_EXT_foo"
	assert.True(t, headless.HasExtension(list, "EGL_KHR_image_pixmap"))
	assert.False(t, headless.HasExtension(list, "EGL_KHR_image"))
	assert.False(t, headless.HasExtension("", "EGL_KHR_image"))
}

func TestCreateContext(t *testing.T) {
	p := egltest.New()
	d, err := headless.CreateDisplay(p.EGL, openDevice(t, p))
	require.NoError(t, err)
	defer d.Close()

	ctx, err := headless.CreateContext(d)
	require.NoError(t, err)
	assert.Same(t, p.GL, ctx.GL())
	assert.Equal(t, int32(1), p.GL.PixelStore[graphics.UnpackAlignment])
	assert.NotZero(t, p.EGL.Current)
	assert.Equal(t, 1, d.Live())

	require.NoError(t, ctx.Release())
	assert.Zero(t, p.EGL.Current)
	require.NoError(t, ctx.MakeCurrent())
	assert.NotZero(t, p.EGL.Current)

	ctx.Close()
	ctx.Close()
	assert.Empty(t, p.EGL.Contexts)
	assert.Zero(t, d.Live())
}

func TestCreateContextSteps(t *testing.T) {
	steps := []string{
		egltest.FailChooseConfig,
		egltest.FailBindAPI,
		egltest.FailCreateContext,
		egltest.FailMakeCurrent,
		egltest.FailLoadGL,
	}
	for _, step := range steps {
		t.Run(step, func(t *testing.T) {
			p := egltest.New()
			d, err := headless.CreateDisplay(p.EGL, openDevice(t, p))
			require.NoError(t, err)
			defer d.Close()

			p.EGL.Fail[step] = true
			_, err = headless.CreateContext(d)
			var ctxErr *headless.ContextError
			require.ErrorAs(t, err, &ctxErr)
			assert.Equal(t, step, ctxErr.Step)
			assert.Empty(t, p.EGL.Contexts, "no context survives a failed step")
			assert.Zero(t, d.Live())
		})
	}
}

type closer struct {
	name string
	log  *[]string
}

func (c *closer) Close() { *c.log = append(*c.log, c.name) }

func TestDisplayClosesChildrenBeforeTerminate(t *testing.T) {
	p := egltest.New()
	d, err := headless.CreateDisplay(p.EGL, openDevice(t, p))
	require.NoError(t, err)

	ctx, err := headless.CreateContext(d)
	require.NoError(t, err)

	var closed []string
	a := &closer{"a", &closed}
	b := &closer{"b", &closed}
	d.Track(a)
	d.Track(b)
	d.Track(&closer{"forgotten", &closed})
	d.Forget(&closer{"other", &closed})

	d.Close()
	assert.Equal(t, []string{"forgotten", "b", "a"}, closed)
	assert.Equal(t, "terminate", p.EGL.Events[len(p.EGL.Events)-1])
	assert.Contains(t, p.EGL.Events, "destroy context")
	assert.Empty(t, p.EGL.Violations)

	// Closing after the display is gone must not touch it again.
	ctx.Close()
	assert.Empty(t, p.EGL.Violations)
}
