package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/richinsley/gpunv12/encoder"
	"github.com/richinsley/gpunv12/headless"
	"github.com/richinsley/gpunv12/options"
	"github.com/richinsley/gpunv12/renderer"
	"github.com/richinsley/gpunv12/shader"
	"github.com/richinsley/gpunv12/sharedmemory"
)

// frameSource yields packed BGRA frames of the configured input size.
type frameSource interface {
	Next(dst []byte) ([]byte, error)
	Close() error
}

type fileSource struct {
	f    *os.File
	size int
}

func (s *fileSource) Next(dst []byte) ([]byte, error) {
	if cap(dst) < s.size {
		dst = make([]byte, s.size)
	}
	dst = dst[:s.size]
	if _, err := io.ReadFull(s.f, dst); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated frame: %w", err)
		}
		return nil, err
	}
	return dst, nil
}

func (s *fileSource) Close() error { return s.f.Close() }

// shmSource polls a segment for frames newer than the last one converted.
type shmSource struct {
	seg      *sharedmemory.Segment
	width    int
	height   int
	interval time.Duration
	last     uint64
}

func (s *shmSource) Next(dst []byte) ([]byte, error) {
	for {
		hdr, out, err := s.seg.ReadFrame(dst)
		if err == nil && hdr.Seq > s.last {
			if hdr.Width != s.width || hdr.Height != s.height {
				return nil, fmt.Errorf("segment carries %dx%d frames, want %dx%d", hdr.Width, hdr.Height, s.width, s.height)
			}
			s.last = hdr.Seq
			return out, nil
		}
		if err != nil && !errors.Is(err, sharedmemory.ErrBusy) {
			return nil, err
		}
		dst = out
		time.Sleep(s.interval)
	}
}

func (s *shmSource) Close() error { return s.seg.Close() }

func openInput(opts *options.Options) (frameSource, error) {
	if name, ok := opts.Shm(); ok {
		seg, err := sharedmemory.Open(name, 0)
		if err != nil {
			return nil, err
		}
		return &shmSource{
			seg:      seg,
			width:    opts.InputWidth,
			height:   opts.InputHeight,
			interval: time.Second / time.Duration(opts.FPS) / 4,
		}, nil
	}
	if opts.Input == "" {
		return nil, errors.New("no input given")
	}
	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, err
	}
	return &fileSource{f: f, size: opts.InputWidth * opts.InputHeight * 4}, nil
}

func loadSources(dir string) (shader.Sources, error) {
	var fsys fs.FS = shader.Assets
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	return shader.LoadSources(fsys)
}

func run(opts *options.Options) error {
	sources, err := loadSources(opts.AssetsDir)
	if err != nil {
		return err
	}

	platform, err := headless.System()
	if err != nil {
		return err
	}

	conv := renderer.New(platform, sources)
	defer conv.Close()
	if err := conv.SetColorspace(opts.Standard(), opts.ColorRange()); err != nil {
		return err
	}

	fd, err := unix.Open(opts.RenderNode, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.RenderNode, err)
	}
	if err := conv.Configure(opts.InputWidth, opts.InputHeight, headless.NewFile(fd)); err != nil {
		return err
	}
	if err := conv.AllocateTarget(opts.TargetWidth, opts.TargetHeight); err != nil {
		return err
	}
	g := conv.Geometry()
	slog.Info("target ready",
		"in", fmt.Sprintf("%dx%d", g.InWidth, g.InHeight),
		"out", fmt.Sprintf("%dx%d", g.OutWidth, g.OutHeight),
		"offset", fmt.Sprintf("%d,%d", g.OffsetX, g.OffsetY))

	input, err := openInput(opts)
	if err != nil {
		return err
	}
	defer input.Close()

	sink, err := encoder.NewSink(encoder.Config{
		Width:      opts.TargetWidth,
		Height:     opts.TargetHeight,
		FPS:        opts.FPS,
		Codec:      opts.Codec,
		Output:     opts.Output,
		FFmpegPath: opts.FFmpegPath,
		Standard:   opts.Standard(),
		Range:      opts.ColorRange(),
	})
	if err != nil {
		return err
	}

	var pixels, nv12 []byte
	start := time.Now()
	n := 0
	for opts.Frames == 0 || n < opts.Frames {
		pixels, err = input.Next(pixels)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sink.Close()
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := conv.Convert(renderer.Frame{Pixels: pixels}); err != nil {
			sink.Close()
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if nv12, err = conv.ReadPlanes(nv12); err != nil {
			sink.Close()
			return fmt.Errorf("frame %d: %w", n, err)
		}
		if err := sink.WriteFrame(nv12); err != nil {
			sink.Close()
			return err
		}
		n++
	}

	if err := sink.Close(); err != nil {
		return err
	}
	slog.Info("conversion finished", "frames", n, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

func init() {
	// EGL contexts are bound to the thread that made them current.
	runtime.LockOSThread()
}

func main() {
	opts, err := options.Parse("nv12conv", os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level, _ := opts.Level()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(&opts); err != nil {
		slog.Error("conversion failed", "err", err)
		os.Exit(1)
	}
}
