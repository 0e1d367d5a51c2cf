// Package mp4video provides an MP4 plugin storing frames as MJPEG
// samples in a fragmented container. Pure Go on both paths: mp4ff for
// the container, the stdlib JPEG codec for the samples.
package mp4video

import (
	"context"
	"fmt"
	"os"

	"github.com/user/frameio/pkg/ports"
)

// Defaults for writer options.
const (
	DefaultFPS         = 30.0
	DefaultJPEGQuality = 85
)

// Options configures the MP4 plugin.
type Options struct {
	// FPS is the frame rate stamped on written files.
	FPS float64
	// JPEGQuality is the per-sample encode quality (1-100).
	JPEGQuality int
}

// Plugin reads and writes MJPEG-in-MP4 video.
type Plugin struct {
	opts Options
}

// New creates the MP4 plugin.
func New(opts Options) *Plugin {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	return &Plugin{opts: opts}
}

// Name returns "mp4".
func (p *Plugin) Name() string { return "mp4" }

// OpenReader demuxes the container and decodes every sample. Fragmented
// MP4 only; that is the layout this plugin writes.
func (p *Plugin) OpenReader(ctx context.Context, res ports.Resource) (ports.Reader, error) {
	data := res.Data
	if data == nil {
		var err error
		data, err = os.ReadFile(res.Path)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
	}

	frames, meta, err := demux(data)
	if err != nil {
		return nil, err
	}
	return &reader{frames: frames, meta: meta}, nil
}

// OpenWriter collects frames and muxes the container on Close.
func (p *Plugin) OpenWriter(ctx context.Context, res ports.Resource) (ports.Writer, error) {
	if res.Path == "" {
		return nil, fmt.Errorf("mp4video: writer requires a file destination")
	}
	return &writer{path: res.Path, fps: p.opts.FPS, quality: p.opts.JPEGQuality}, nil
}

type reader struct {
	frames []ports.Frame
	meta   ports.Metadata
	cursor int
}

func (r *reader) Len() int { return len(r.frames) }

func (r *reader) Get(index int) (ports.Frame, error) {
	if index < 0 {
		return ports.Frame{}, fmt.Errorf("negative index %d", index)
	}
	if index >= len(r.frames) {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	return r.frames[index], nil
}

func (r *reader) Next() (ports.Frame, error) {
	if r.cursor >= len(r.frames) {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	frame := r.frames[r.cursor]
	r.cursor++
	return frame, nil
}

func (r *reader) Meta(index int) (ports.Metadata, error) {
	if index < 0 || index >= len(r.frames) {
		return nil, ports.ErrEndOfSequence
	}
	return r.frames[index].Meta, nil
}

func (r *reader) ResourceMeta() ports.Metadata { return r.meta }

func (r *reader) Close() error {
	r.frames = nil
	return nil
}

// Ensure interface compliance
var (
	_ ports.Plugin = (*Plugin)(nil)
	_ ports.Reader = (*reader)(nil)
)
