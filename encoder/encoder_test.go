package encoder

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/gpunv12/colorspace"
)

func config(codec string) Config {
	return Config{
		Width:    1280,
		Height:   720,
		FPS:      30,
		Codec:    codec,
		Output:   "out.mp4",
		Standard: colorspace.ITU709,
		Range:    colorspace.Limited,
	}
}

func TestFrameSize(t *testing.T) {
	assert.Equal(t, 1280*720*3/2, config("h264").FrameSize())
	odd := Config{Width: 5, Height: 3}
	assert.Equal(t, 15+3*2*2, odd.FrameSize())
}

func TestGetArgs(t *testing.T) {
	in, out := getArgs(config("h264"))
	assert.Equal(t, "rawvideo", in["f"])
	assert.Equal(t, "nv12", in["pix_fmt"])
	assert.Equal(t, "1280x720", in["s"])
	assert.Equal(t, "30", in["r"])
	assert.Equal(t, "tv", in["color_range"])
	assert.Equal(t, "bt709", in["colorspace"])
	assert.Equal(t, "libx264", out["c:v"])
	assert.Equal(t, "25M", out["b:v"])

	_, out = getArgs(config("hevc"))
	assert.Equal(t, "libx265", out["c:v"])
	assert.Equal(t, "hvc1", out["tag:v"])

	_, out = getArgs(config("HEVC"))
	assert.Equal(t, "libx265", out["c:v"])

	raw := config("rawvideo")
	raw.Output = "out.nv12"
	_, out = getArgs(raw)
	assert.Equal(t, "rawvideo", out["c:v"])
	assert.Equal(t, "nv12", out["pix_fmt"])
	assert.NotContains(t, out, "b:v")

	raw.Codec = "RawVideo"
	_, out = getArgs(raw)
	assert.Equal(t, "rawvideo", out["c:v"])
	assert.NotContains(t, out, "b:v")
}

func TestColorArgs(t *testing.T) {
	cases := []struct {
		standard colorspace.Standard
		rng      colorspace.Range
		space    string
		tag      string
	}{
		{colorspace.ITU709, colorspace.Limited, "bt709", "tv"},
		{colorspace.ITU601, colorspace.Full, "smpte170m", "pc"},
		{colorspace.BT2020, colorspace.Limited, "smpte170m", "tv"},
		{colorspace.ITU709, colorspace.Range(2), "bt709", "pc"},
	}
	for _, tc := range cases {
		space, rng := colorArgs(Config{Standard: tc.standard, Range: tc.rng})
		assert.Equal(t, tc.space, space)
		assert.Equal(t, tc.tag, rng)
	}
}

func TestCommand(t *testing.T) {
	c := config("h264")
	c.FFmpegPath = "/opt/ffmpeg/bin/ffmpeg"
	cmd := command(c, strings.NewReader(""))
	require.NotEmpty(t, cmd.Args)

	args := strings.Join(cmd.Args, " ")
	assert.Contains(t, args, "-i pipe:")
	assert.Contains(t, args, "-pix_fmt nv12")
	assert.Contains(t, args, "out.mp4")
	assert.Contains(t, args, "-y")
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cmd.Path)
}

func TestNewSinkErrors(t *testing.T) {
	bad := config("h264")
	bad.FPS = 0
	_, err := NewSink(bad)
	require.Error(t, err)

	noOut := config("h264")
	noOut.Output = ""
	_, err = NewSink(noOut)
	require.Error(t, err)

	missing := config("h264")
	missing.FFmpegPath = filepath.Join(t.TempDir(), "ffmpeg")
	_, err = NewSink(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start ffmpeg")
}
