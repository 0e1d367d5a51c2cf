// Package frameio is the top-level entry point: a configured registry of
// the built-in format plugins behind convenience read/write calls.
//
// The package-level functions operate on a lazily built default instance
// with every built-in plugin registered. Construct an IO with New to
// control options or to register additional plugins.
package frameio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/frameio/pkg/adapters/camcapture"
	"github.com/user/frameio/pkg/adapters/dicomvol"
	"github.com/user/frameio/pkg/adapters/getterfetch"
	"github.com/user/frameio/pkg/adapters/gifanim"
	"github.com/user/frameio/pkg/adapters/logger"
	"github.com/user/frameio/pkg/adapters/magicsniff"
	"github.com/user/frameio/pkg/adapters/mp4video"
	"github.com/user/frameio/pkg/adapters/osfilesystem"
	"github.com/user/frameio/pkg/adapters/stillimage"
	"github.com/user/frameio/pkg/config"
	"github.com/user/frameio/pkg/dispatch"
	"github.com/user/frameio/pkg/ports"
	"github.com/user/frameio/pkg/registry"
	"github.com/user/frameio/pkg/request"
)

// Options configures an IO instance. Zero values fall back to the
// config package defaults.
type Options struct {
	// Logger receives dispatch and plugin diagnostics. Defaults to the
	// noop logger; the CLI passes a console logger.
	Logger ports.Logger

	// CacheDir holds fetched remote sources and unpacked archives.
	CacheDir string

	// FFmpegPath overrides the capture grabber binary.
	FFmpegPath string

	// JPEGQuality is the encode quality for JPEG stills and MP4 samples.
	JPEGQuality int

	// FPS is the frame rate stamped on written videos.
	FPS float64

	// CaptureWidth, CaptureHeight and CaptureInterval configure device
	// capture.
	CaptureWidth    int
	CaptureHeight   int
	CaptureInterval time.Duration
}

// IO bundles a format registry with the dispatcher that resolves
// sources against it.
type IO struct {
	reg  *registry.Registry
	disp *dispatch.Dispatcher
}

// New builds an IO with all built-in plugins registered.
func New(opts Options) (*IO, error) {
	defaults := config.Load()
	if opts.Logger == nil {
		opts.Logger = logger.NewNoop()
	}
	if opts.CacheDir == "" {
		opts.CacheDir = defaults.CacheDir
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = defaults.FFmpegPath
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = defaults.JPEGQuality
	}
	if opts.FPS <= 0 {
		opts.FPS = defaults.FPS
	}

	reg := registry.New()
	if err := registerBuiltins(reg, opts); err != nil {
		return nil, err
	}

	disp := dispatch.New(reg, dispatch.Options{
		FileSystem: osfilesystem.New(),
		Fetcher:    getterfetch.New(opts.Logger),
		Sniffer:    magicsniff.New(),
		Logger:     opts.Logger,
		CacheDir:   opts.CacheDir,
	})
	return &IO{reg: reg, disp: disp}, nil
}

// registerBuiltins wires every built-in plugin into the registry.
func registerBuiltins(reg *registry.Registry, opts Options) error {
	still := stillimage.Options{JPEGQuality: opts.JPEGQuality}
	type entry struct {
		desc   registry.Descriptor
		plugin ports.Plugin
	}
	builtins := []entry{
		{registry.Descriptor{
			Name:        "png",
			Description: "PNG still image",
			Extensions:  []string{"png"},
			Caps:        registry.CapRead | registry.CapWrite | registry.CapSeek,
		}, stillimage.NewPNG()},
		{registry.Descriptor{
			Name:        "jpeg",
			Description: "JPEG still image",
			Extensions:  []string{"jpg", "jpeg"},
			Caps:        registry.CapRead | registry.CapWrite | registry.CapSeek,
		}, stillimage.NewJPEG(still)},
		{registry.Descriptor{
			Name:        "bmp",
			Description: "Windows bitmap",
			Extensions:  []string{"bmp"},
			Caps:        registry.CapRead | registry.CapWrite | registry.CapSeek,
		}, stillimage.NewBMP()},
		{registry.Descriptor{
			Name:        "tiff",
			Description: "TIFF still image",
			Extensions:  []string{"tif", "tiff"},
			Caps:        registry.CapRead | registry.CapWrite | registry.CapSeek,
		}, stillimage.NewTIFF()},
		{registry.Descriptor{
			Name:        "webp",
			Description: "WebP still image (decode only)",
			Extensions:  []string{"webp"},
			Caps:        registry.CapRead | registry.CapSeek,
		}, stillimage.NewWebP()},
		{registry.Descriptor{
			Name:        "gif",
			Description: "GIF animation",
			Extensions:  []string{"gif"},
			Caps:        registry.CapRead | registry.CapWrite | registry.CapSeek,
		}, gifanim.New()},
		{registry.Descriptor{
			Name:        "mp4",
			Description: "MP4 video (MJPEG samples)",
			Extensions:  []string{"mp4", "m4v"},
			Caps:        registry.CapRead | registry.CapWrite | registry.CapSeek,
		}, mp4video.New(mp4video.Options{FPS: opts.FPS, JPEGQuality: opts.JPEGQuality})},
		{registry.Descriptor{
			Name:        "dicom",
			Description: "DICOM medical image (file or series directory)",
			Extensions:  []string{"dcm"},
			Caps:        registry.CapRead | registry.CapSeek | registry.CapSeries,
		}, dicomvol.New(opts.Logger)},
		{registry.Descriptor{
			Name:        "camera",
			Description: "Capture device (<video0>, <video1>, ...)",
			Schemes:     []string{"device"},
			Caps:        registry.CapRead | registry.CapDevice,
		}, camcapture.New(camcapture.Options{
			Interval:   opts.CaptureInterval,
			Width:      opts.CaptureWidth,
			Height:     opts.CaptureHeight,
			FFmpegPath: opts.FFmpegPath,
		}, opts.Logger)},
	}

	for _, b := range builtins {
		if err := reg.Register(b.desc, b.plugin); err != nil {
			return fmt.Errorf("register built-in %q: %w", b.desc.Name, err)
		}
	}
	return nil
}

// Registry exposes the underlying registry so callers can register
// additional plugins or list formats.
func (f *IO) Registry() *registry.Registry { return f.reg }

// Formats lists the registered format descriptors sorted by name.
func (f *IO) Formats() []registry.Descriptor { return f.reg.List() }

// NewReader opens a source string (path, URL, directory or <videoN>
// device URI) for reading. hint forces a format by name; pass "" to
// resolve by extension, scheme or content.
func (f *IO) NewReader(ctx context.Context, source, hint string) (ports.Reader, error) {
	req, err := request.New(source, request.ModeRead, hint)
	if err != nil {
		return nil, err
	}
	return f.disp.OpenReader(ctx, req)
}

// NewBytesReader opens an in-memory buffer for reading. Without a hint
// the format is resolved by content sniffing.
func (f *IO) NewBytesReader(ctx context.Context, data []byte, hint string) (ports.Reader, error) {
	req := request.Request{
		Source: request.BytesSource(data),
		Mode:   request.ModeRead,
		Hint:   hint,
	}
	return f.disp.OpenReader(ctx, req)
}

// NewWriter opens a destination path for writing.
func (f *IO) NewWriter(ctx context.Context, dest, hint string) (ports.Writer, error) {
	req, err := request.New(dest, request.ModeWrite, hint)
	if err != nil {
		return nil, err
	}
	req.Pattern = request.PatternSequence
	return f.disp.OpenWriter(ctx, req)
}

// ReadImage reads the first frame of a source.
func (f *IO) ReadImage(ctx context.Context, source string) (ports.Frame, error) {
	r, err := f.NewReader(ctx, source, "")
	if err != nil {
		return ports.Frame{}, err
	}
	defer r.Close()
	return r.Get(0)
}

// ReadSequence reads all frames of a finite source.
func (f *IO) ReadSequence(ctx context.Context, source string) ([]ports.Frame, error) {
	r, err := f.NewReader(ctx, source, "")
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return drain(r)
}

// ReadVolume reads a file-per-slice directory (or a multi-frame file)
// as one ordered stack of frames.
func (f *IO) ReadVolume(ctx context.Context, source string) ([]ports.Frame, error) {
	req, err := request.New(source, request.ModeRead, "")
	if err != nil {
		return nil, err
	}
	req.Pattern = request.PatternVolume
	r, err := f.disp.OpenReader(ctx, req)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return drain(r)
}

// WriteImage writes a single frame to the destination.
func (f *IO) WriteImage(ctx context.Context, dest string, frame ports.Frame) error {
	return f.WriteSequence(ctx, dest, []ports.Frame{frame})
}

// WriteSequence writes frames to the destination in order.
func (f *IO) WriteSequence(ctx context.Context, dest string, frames []ports.Frame) error {
	w, err := f.NewWriter(ctx, dest, "")
	if err != nil {
		return err
	}
	defer w.Close()

	for i, frame := range frames {
		if err := w.Append(frame); err != nil {
			return fmt.Errorf("append frame %d: %w", i, err)
		}
	}
	return w.Close()
}

// drain collects every remaining frame of a finite reader.
func drain(r ports.Reader) ([]ports.Frame, error) {
	if r.Len() < 0 {
		return nil, fmt.Errorf("source is an unbounded stream; iterate with Next instead")
	}

	var frames []ports.Frame
	for {
		frame, err := r.Next()
		if errors.Is(err, ports.ErrEndOfSequence) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
}

var (
	defaultOnce sync.Once
	defaultIO   *IO
	defaultErr  error
)

// Default returns the shared IO instance with default options.
func Default() (*IO, error) {
	defaultOnce.Do(func() {
		defaultIO, defaultErr = New(Options{})
	})
	return defaultIO, defaultErr
}

// ReadImage reads the first frame of a source with the default instance.
func ReadImage(ctx context.Context, source string) (ports.Frame, error) {
	f, err := Default()
	if err != nil {
		return ports.Frame{}, err
	}
	return f.ReadImage(ctx, source)
}

// ReadSequence reads all frames of a source with the default instance.
func ReadSequence(ctx context.Context, source string) ([]ports.Frame, error) {
	f, err := Default()
	if err != nil {
		return nil, err
	}
	return f.ReadSequence(ctx, source)
}

// ReadVolume reads a frame stack with the default instance.
func ReadVolume(ctx context.Context, source string) ([]ports.Frame, error) {
	f, err := Default()
	if err != nil {
		return nil, err
	}
	return f.ReadVolume(ctx, source)
}

// WriteImage writes a single frame with the default instance.
func WriteImage(ctx context.Context, dest string, frame ports.Frame) error {
	f, err := Default()
	if err != nil {
		return err
	}
	return f.WriteImage(ctx, dest, frame)
}

// WriteSequence writes frames with the default instance.
func WriteSequence(ctx context.Context, dest string, frames []ports.Frame) error {
	f, err := Default()
	if err != nil {
		return err
	}
	return f.WriteSequence(ctx, dest, frames)
}
