package options

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/gpunv12/colorspace"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nv12.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	o := Default()
	require.NoError(t, o.Validate())
	assert.Equal(t, colorspace.ITU709, o.Standard())
	assert.Equal(t, colorspace.Limited, o.ColorRange())
	level, err := o.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
render_node = "/dev/dri/renderD129"
input_width = 1280
input_height = 720
colorspace = "bt601"
range = "full"
input = "shm:capture"
`)
	o := Default()
	require.NoError(t, Load(path, &o))

	assert.Equal(t, "/dev/dri/renderD129", o.RenderNode)
	assert.Equal(t, 1280, o.InputWidth)
	assert.Equal(t, 720, o.InputHeight)
	assert.Equal(t, colorspace.ITU601, o.Standard())
	assert.Equal(t, colorspace.Full, o.ColorRange())
	// untouched keys keep their defaults
	assert.Equal(t, 1920, o.TargetWidth)
	assert.Equal(t, "h264", o.Codec)

	name, ok := o.Shm()
	assert.True(t, ok)
	assert.Equal(t, "capture", name)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "render_node = \"/dev/dri/renderD128\"\nshader = \"XlSSzV\"\n")
	o := Default()
	err := Load(path, &o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shader")
}

func TestLoadMissingFile(t *testing.T) {
	o := Default()
	err := Load(filepath.Join(t.TempDir(), "absent.toml"), &o)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParsePrecedence(t *testing.T) {
	path := writeConfig(t, "input_width = 1280\ninput_height = 720\ncodec = \"hevc\"\nfps = 30\n")

	o, err := Parse("nv12conv", []string{"-config", path, "-fps", "24", "-in-width", "640"})
	require.NoError(t, err)

	assert.Equal(t, 640, o.InputWidth, "flag beats file")
	assert.Equal(t, 720, o.InputHeight, "file beats default")
	assert.Equal(t, 24, o.FPS)
	assert.Equal(t, "hevc", o.Codec)
	assert.Equal(t, "/dev/dri/renderD128", o.RenderNode, "default survives")
}

func TestParseWithoutConfig(t *testing.T) {
	o, err := Parse("nv12conv", []string{"-width", "1280", "-height", "720", "-range", "full"})
	require.NoError(t, err)
	assert.Equal(t, 1280, o.TargetWidth)
	assert.Equal(t, 720, o.TargetHeight)
	assert.Equal(t, colorspace.Full, o.ColorRange())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Options)
		want   string
	}{
		{"input size", func(o *Options) { o.InputWidth = 0 }, "invalid input size"},
		{"target size", func(o *Options) { o.TargetHeight = 1 }, "invalid target size"},
		{"colorspace", func(o *Options) { o.Colorspace = "srgb" }, "unknown colorspace"},
		{"range", func(o *Options) { o.Range = "studio" }, "unknown range"},
		{"shm name", func(o *Options) { o.Input = ShmPrefix }, "segment name"},
		{"frames", func(o *Options) { o.Frames = -1 }, "invalid frame count"},
		{"fps", func(o *Options) { o.FPS = 0 }, "invalid fps"},
		{"codec", func(o *Options) { o.Codec = "vp9" }, "unsupported codec"},
		{"log level", func(o *Options) { o.LogLevel = "loud" }, "invalid log level"},
		{"render node", func(o *Options) { o.RenderNode = "" }, "render node"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := Default()
			tc.mutate(&o)
			err := o.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateCaseInsensitive(t *testing.T) {
	o := Default()
	o.Colorspace = "BT2020"
	o.Range = "Full"
	o.LogLevel = "DEBUG"
	o.Codec = "HEVC"
	require.NoError(t, o.Validate())
	assert.Equal(t, colorspace.BT2020, o.Standard())
	assert.Equal(t, colorspace.Full, o.ColorRange())
}

func TestShmFilePath(t *testing.T) {
	o := Default()
	o.Input = "/tmp/frames.bgra"
	_, ok := o.Shm()
	assert.False(t, ok)
}
