// Package encoder pipes read-back NV12 frames into an ffmpeg process.
package encoder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/richinsley/gpunv12/colorspace"
)

var ErrClosed = errors.New("encoder: sink is closed")

type Config struct {
	Width      int
	Height     int
	FPS        int
	Codec      string // h264, hevc or rawvideo
	Output     string
	FFmpegPath string
	Standard   colorspace.Standard
	Range      colorspace.Range
}

// FrameSize is the byte size of one tightly packed NV12 frame.
func (c Config) FrameSize() int {
	cw, ch := (c.Width+1)/2, (c.Height+1)/2
	return c.Width*c.Height + cw*ch*2
}

// Sink feeds fixed-size NV12 frames to ffmpeg over stdin.
type Sink struct {
	cfg    Config
	cmd    *exec.Cmd
	pipe   *io.PipeWriter
	done   chan error
	frames int64
	closed bool
}

// colorArgs tags the stream with the matrix the converter actually applied;
// BT.2020 input is converted with the 601 coefficients.
func colorArgs(c Config) (space, rng string) {
	space = "smpte170m"
	if c.Standard == colorspace.ITU709 {
		space = "bt709"
	}
	rng = "tv"
	if c.Range != colorspace.Limited {
		rng = "pc"
	}
	return
}

func getArgs(c Config) (inputArgs ffmpeg.KwArgs, outputArgs ffmpeg.KwArgs) {
	space, rng := colorArgs(c)
	inputArgs = ffmpeg.KwArgs{
		"f":           "rawvideo",
		"pix_fmt":     "nv12",
		"s":           fmt.Sprintf("%dx%d", c.Width, c.Height),
		"r":           fmt.Sprint(c.FPS),
		"color_range": rng,
		"colorspace":  space,
	}

	outputArgs = ffmpeg.KwArgs{
		"color_range": rng,
		"colorspace":  space,
	}
	switch strings.ToLower(c.Codec) {
	case "hevc":
		outputArgs["c:v"] = "libx265"
		outputArgs["pix_fmt"] = "yuv420p"
		if strings.HasSuffix(c.Output, ".mp4") {
			outputArgs["tag:v"] = "hvc1"
		}
	case "rawvideo":
		outputArgs["c:v"] = "rawvideo"
		outputArgs["f"] = "rawvideo"
		outputArgs["pix_fmt"] = "nv12"
	default:
		outputArgs["c:v"] = "libx264"
		outputArgs["pix_fmt"] = "yuv420p"
	}
	if !strings.EqualFold(c.Codec, "rawvideo") {
		outputArgs["b:v"] = "25M"
	}
	return
}

func command(c Config, in io.Reader) *exec.Cmd {
	inputArgs, outputArgs := getArgs(c)
	stream := ffmpeg.Input("pipe:", inputArgs).
		Output(c.Output, outputArgs).
		OverWriteOutput().WithInput(in).ErrorToStdOut()
	if c.FFmpegPath != "" {
		stream = stream.SetFfmpegPath(c.FFmpegPath)
	}
	return stream.Compile()
}

func NewSink(c Config) (*Sink, error) {
	if c.Width <= 0 || c.Height <= 0 || c.FPS <= 0 {
		return nil, fmt.Errorf("encoder: invalid stream %dx%d@%d", c.Width, c.Height, c.FPS)
	}
	if c.Output == "" {
		return nil, errors.New("encoder: no output")
	}

	pr, pw := io.Pipe()
	cmd := command(c, pr)
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("encoder: failed to start ffmpeg: %w", err)
	}
	slog.Info("ffmpeg started", "output", c.Output, "codec", c.Codec, "size", fmt.Sprintf("%dx%d", c.Width, c.Height))

	s := &Sink{cfg: c, cmd: cmd, pipe: pw, done: make(chan error, 1)}
	go func() {
		err := cmd.Wait()
		// unblock a writer when ffmpeg exits early
		if err != nil {
			pr.CloseWithError(fmt.Errorf("ffmpeg exited: %w", err))
		} else {
			pr.Close()
		}
		s.done <- err
	}()
	return s, nil
}

// WriteFrame sends one packed NV12 frame.
func (s *Sink) WriteFrame(nv12 []byte) error {
	if s.closed {
		return ErrClosed
	}
	if len(nv12) != s.cfg.FrameSize() {
		return fmt.Errorf("encoder: frame is %d bytes, want %d", len(nv12), s.cfg.FrameSize())
	}
	if _, err := s.pipe.Write(nv12); err != nil {
		return fmt.Errorf("encoder: frame %d: %w", s.frames, err)
	}
	s.frames++
	return nil
}

func (s *Sink) Frames() int64 {
	return s.frames
}

// Close ends the input stream and waits for ffmpeg to finish the file.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.pipe.Close()
	if err := <-s.done; err != nil {
		return fmt.Errorf("encoder: ffmpeg failed after %d frames: %w", s.frames, err)
	}
	slog.Info("ffmpeg finished", "output", s.cfg.Output, "frames", s.frames)
	return nil
}
