// Package camcapture provides a capture-device plugin for <videoN>
// sources. An external ffmpeg process grabs frames from the device into
// a temporary directory, which is watched with fsnotify; the reader
// yields each new frame as it lands. Streams are infinite and
// non-seekable: there is no Len and no going back.
package camcapture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/user/frameio/pkg/ports"
)

var errInstallHint = errors.New("camcapture: ffmpeg not found, install with: sudo apt install -y ffmpeg")

// Defaults for capture options.
const (
	DefaultInterval = 200 * time.Millisecond
	DefaultWidth    = 640
	DefaultHeight   = 480
)

// Options configures the capture plugin.
type Options struct {
	// Interval is how often a frame is grabbed.
	Interval time.Duration
	// Width and Height are the requested capture dimensions.
	Width, Height int
	// FFmpegPath overrides the ffmpeg binary location.
	FFmpegPath string
}

// Plugin reads frames from V4L2 capture devices.
type Plugin struct {
	opts Options
	log  ports.Logger
}

// New creates the capture plugin.
func New(opts Options, log ports.Logger) *Plugin {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	return &Plugin{opts: opts, log: log.WithComponent("camcapture")}
}

// Name returns "camera".
func (p *Plugin) Name() string { return "camera" }

// OpenReader starts the grabber for the requested device.
func (p *Plugin) OpenReader(ctx context.Context, res ports.Resource) (ports.Reader, error) {
	if res.Device < 0 {
		return nil, fmt.Errorf("camcapture: source is not a capture device")
	}
	devicePath := fmt.Sprintf("/dev/video%d", res.Device)
	if _, err := os.Stat(devicePath); err != nil {
		return nil, fmt.Errorf("camcapture: device %s: %w", devicePath, err)
	}

	g, err := startGrabber(ctx, devicePath, p.opts, p.log)
	if err != nil {
		return nil, err
	}
	p.log.Debug("Capture device /dev/video%d started", res.Device)

	meta := ports.Metadata{
		"format": "camera",
		"device": devicePath,
		"width":  p.opts.Width,
		"height": p.opts.Height,
		"fps":    float64(time.Second) / float64(p.opts.Interval),
	}
	return &reader{grabber: g, meta: meta, log: p.log}, nil
}

// OpenWriter is unsupported; capture devices are read-only.
func (p *Plugin) OpenWriter(ctx context.Context, res ports.Resource) (ports.Writer, error) {
	return nil, fmt.Errorf("camcapture: capture devices cannot be written")
}

// IsAvailable reports whether the ffmpeg binary can be found.
func (p *Plugin) IsAvailable() bool {
	_, err := exec.LookPath(p.opts.FFmpegPath)
	return err == nil
}

// reader yields live frames. The cursor only moves forward.
type reader struct {
	grabber *grabber
	meta    ports.Metadata
	cursor  int
	closed  bool
	log     ports.Logger
}

// Len returns -1: a live stream has no known length.
func (r *reader) Len() int { return -1 }

// Get supports only monotonically increasing indices. Skipped indices
// discard the intervening frames.
func (r *reader) Get(index int) (ports.Frame, error) {
	if index < r.cursor {
		return ports.Frame{}, fmt.Errorf("%w: index %d is behind cursor %d", ports.ErrUnsupportedSeek, index, r.cursor)
	}
	var frame ports.Frame
	var err error
	for r.cursor <= index {
		frame, err = r.Next()
		if err != nil {
			return ports.Frame{}, err
		}
	}
	return frame, nil
}

// Next blocks until the grabber delivers a frame.
func (r *reader) Next() (ports.Frame, error) {
	if r.closed {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	ev, ok := <-r.grabber.events
	if !ok {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	if ev.err != nil {
		return ports.Frame{}, ev.err
	}

	meta := r.meta.Clone()
	meta["index"] = r.cursor
	meta["captured_at"] = ev.at
	r.cursor++
	return ports.Frame{Image: ev.img, Meta: meta}, nil
}

// Meta requires decoding, so it simply reads the next frame's metadata.
func (r *reader) Meta(index int) (ports.Metadata, error) {
	frame, err := r.Get(index)
	if err != nil {
		return nil, err
	}
	return frame.Meta, nil
}

func (r *reader) ResourceMeta() ports.Metadata { return r.meta }

func (r *reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.log.Debug("Capture device stopped")
	return r.grabber.stop()
}

// Ensure interface compliance
var (
	_ ports.Plugin = (*Plugin)(nil)
	_ ports.Reader = (*reader)(nil)
)
