package options

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/richinsley/gpunv12/colorspace"
)

// ShmPrefix marks an Input that names a shared-memory segment instead of a file.
const ShmPrefix = "shm:"

type Options struct {
	RenderNode   string `toml:"render_node"`
	AssetsDir    string `toml:"assets_dir"` // empty selects the embedded shaders
	InputWidth   int    `toml:"input_width"`
	InputHeight  int    `toml:"input_height"`
	TargetWidth  int    `toml:"target_width"`
	TargetHeight int    `toml:"target_height"`
	Colorspace   string `toml:"colorspace"`
	Range        string `toml:"range"`
	Input        string `toml:"input"` // raw BGRA frames: a file path or shm:<name>
	Frames       int    `toml:"frames"`
	FPS          int    `toml:"fps"`
	Output       string `toml:"output"`
	Codec        string `toml:"codec"`
	FFmpegPath   string `toml:"ffmpeg_path"`
	LogLevel     string `toml:"log_level"`
}

func Default() Options {
	return Options{
		RenderNode:   "/dev/dri/renderD128",
		InputWidth:   1920,
		InputHeight:  1080,
		TargetWidth:  1920,
		TargetHeight: 1080,
		Colorspace:   "bt709",
		Range:        "limited",
		FPS:          60,
		Output:       "output.mp4",
		Codec:        "h264",
		LogLevel:     "info",
	}
}

var standards = map[string]colorspace.Standard{
	"bt601":  colorspace.ITU601,
	"bt709":  colorspace.ITU709,
	"bt2020": colorspace.BT2020,
}

var ranges = map[string]colorspace.Range{
	"limited": colorspace.Limited,
	"full":    colorspace.Full,
}

var codecs = map[string]bool{
	"h264":     true,
	"hevc":     true,
	"rawvideo": true,
}

// Load decodes the TOML file at path over o. Keys that do not map to a field
// are rejected.
func Load(path string, o *Options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(o); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.RenderNode, "device", o.RenderNode, "DRM render node")
	fs.StringVar(&o.AssetsDir, "assets", o.AssetsDir, "Directory holding shader sources (embedded if empty)")
	fs.IntVar(&o.InputWidth, "in-width", o.InputWidth, "Width of the input frames")
	fs.IntVar(&o.InputHeight, "in-height", o.InputHeight, "Height of the input frames")
	fs.IntVar(&o.TargetWidth, "width", o.TargetWidth, "Width of the NV12 target")
	fs.IntVar(&o.TargetHeight, "height", o.TargetHeight, "Height of the NV12 target")
	fs.StringVar(&o.Colorspace, "colorspace", o.Colorspace, "Colorspace: bt601, bt709 or bt2020")
	fs.StringVar(&o.Range, "range", o.Range, "Color range: limited or full")
	fs.StringVar(&o.Input, "input", o.Input, "Raw BGRA frame source: file path or shm:<name>")
	fs.IntVar(&o.Frames, "frames", o.Frames, "Number of frames to convert (0 reads until the input ends)")
	fs.IntVar(&o.FPS, "fps", o.FPS, "Frames per second of the output")
	fs.StringVar(&o.Output, "output", o.Output, "Output file name")
	fs.StringVar(&o.Codec, "codec", o.Codec, "Output codec: h264, hevc or rawvideo")
	fs.StringVar(&o.FFmpegPath, "ffmpeg", o.FFmpegPath, "Path to ffmpeg executable")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level: debug, info, warn or error")
}

// Parse builds Options from defaults, then the file named by -config, then
// any flags given explicitly on the command line.
func Parse(name string, args []string) (Options, error) {
	o := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	config := fs.String("config", "", "TOML configuration file")
	o.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if *config != "" {
		file := Default()
		if err := Load(*config, &file); err != nil {
			return o, err
		}
		override := flag.NewFlagSet(name, flag.ContinueOnError)
		file.RegisterFlags(override)
		var err error
		fs.Visit(func(f *flag.Flag) {
			if err != nil || f.Name == "config" {
				return
			}
			err = override.Set(f.Name, f.Value.String())
		})
		if err != nil {
			return o, err
		}
		o = file
	}
	return o, o.Validate()
}

func (o *Options) Validate() error {
	var errs []error
	if o.RenderNode == "" {
		errs = append(errs, errors.New("render node is required"))
	}
	if o.InputWidth <= 0 || o.InputHeight <= 0 {
		errs = append(errs, fmt.Errorf("invalid input size %dx%d", o.InputWidth, o.InputHeight))
	}
	if o.TargetWidth < 2 || o.TargetHeight < 2 {
		errs = append(errs, fmt.Errorf("invalid target size %dx%d", o.TargetWidth, o.TargetHeight))
	}
	if _, ok := standards[strings.ToLower(o.Colorspace)]; !ok {
		errs = append(errs, fmt.Errorf("unknown colorspace %q", o.Colorspace))
	}
	if _, ok := ranges[strings.ToLower(o.Range)]; !ok {
		errs = append(errs, fmt.Errorf("unknown range %q", o.Range))
	}
	if o.Input == ShmPrefix {
		errs = append(errs, errors.New("shared memory input needs a segment name"))
	}
	if o.Frames < 0 {
		errs = append(errs, fmt.Errorf("invalid frame count %d", o.Frames))
	}
	if o.FPS <= 0 {
		errs = append(errs, fmt.Errorf("invalid fps %d", o.FPS))
	}
	if !codecs[strings.ToLower(o.Codec)] {
		errs = append(errs, fmt.Errorf("unsupported codec %q", o.Codec))
	}
	if _, err := o.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Standard and ColorRange assume Validate has passed.
func (o *Options) Standard() colorspace.Standard {
	return standards[strings.ToLower(o.Colorspace)]
}

func (o *Options) ColorRange() colorspace.Range {
	return ranges[strings.ToLower(o.Range)]
}

func (o *Options) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return l, fmt.Errorf("invalid log level %q", o.LogLevel)
	}
	return l, nil
}

// Shm reports the segment name when Input selects shared memory.
func (o *Options) Shm() (string, bool) {
	name, ok := strings.CutPrefix(o.Input, ShmPrefix)
	return name, ok && name != ""
}
