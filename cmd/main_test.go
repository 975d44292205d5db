package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/gpunv12/options"
	"github.com/richinsley/gpunv12/shader"
	"github.com/richinsley/gpunv12/sharedmemory"
)

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.bgra")
	data := make([]byte, 2*2*4*2+3)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	opts := options.Default()
	opts.Input = path
	opts.InputWidth, opts.InputHeight = 2, 2
	src, err := openInput(&opts)
	require.NoError(t, err)
	defer src.Close()

	frame, err := src.Next(nil)
	require.NoError(t, err)
	assert.Equal(t, data[:16], frame)

	frame, err = src.Next(frame)
	require.NoError(t, err)
	assert.Equal(t, data[16:32], frame)

	_, err = src.Next(frame)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "truncated")
}

func TestFileSourceEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bgra")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	opts := options.Default()
	opts.Input = path
	src, err := openInput(&opts)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Next(nil)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenInputErrors(t *testing.T) {
	opts := options.Default()
	_, err := openInput(&opts)
	require.Error(t, err)

	opts.Input = filepath.Join(t.TempDir(), "absent")
	_, err = openInput(&opts)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestShmSource(t *testing.T) {
	old := sharedmemory.Root
	sharedmemory.Root = t.TempDir()
	t.Cleanup(func() { sharedmemory.Root = old })

	owner, err := sharedmemory.Create("capture", sharedmemory.FrameSize(2, 2))
	require.NoError(t, err)
	defer owner.Close()
	pixels := make([]byte, 16)
	pixels[0] = 0xaa
	_, err = owner.WriteFrame(2, 2, pixels)
	require.NoError(t, err)

	opts := options.Default()
	opts.Input = options.ShmPrefix + "capture"
	opts.InputWidth, opts.InputHeight = 2, 2
	src, err := openInput(&opts)
	require.NoError(t, err)
	defer src.Close()

	frame, err := src.Next(nil)
	require.NoError(t, err)
	assert.Equal(t, pixels, frame)

	opts.InputWidth = 1
	mismatch, err := openInput(&opts)
	require.NoError(t, err)
	defer mismatch.Close()
	_, err = mismatch.Next(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 1x2")
}

func TestLoadSources(t *testing.T) {
	embedded, err := loadSources("")
	require.NoError(t, err)
	builtin, err := shader.LoadSources(shader.Assets)
	require.NoError(t, err)
	assert.Equal(t, builtin, embedded)

	dir := t.TempDir()
	for _, name := range []string{shader.SceneVert, shader.SceneFrag, shader.ConvertYFrag, shader.ConvertUVVert, shader.ConvertUVFrag} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#version 330 core\n"), 0o644))
	}
	custom, err := loadSources(dir)
	require.NoError(t, err)
	assert.NotEqual(t, builtin, custom)

	_, err = shader.LoadSources(fstest.MapFS{})
	require.Error(t, err)
}
