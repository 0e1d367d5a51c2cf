// Package gifanim provides a multi-frame GIF plugin. GIF is the simplest
// sequence format frameio ships: frames decode to full logical-screen
// images and encode with a uniform-shape requirement.
package gifanim

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"

	"github.com/user/frameio/pkg/ports"
)

// DefaultDelayMs is the per-frame delay used when a frame carries no
// "duration_ms" metadata.
const DefaultDelayMs = 100

// Plugin reads and writes animated GIF sequences.
type Plugin struct{}

// New creates the GIF plugin.
func New() *Plugin { return &Plugin{} }

// Name returns "gif".
func (p *Plugin) Name() string { return "gif" }

// OpenReader decodes the whole animation. Frames are composited onto the
// logical screen so callers always see full-size images, even when the
// file stores sub-rectangle patches.
func (p *Plugin) OpenReader(ctx context.Context, res ports.Resource) (ports.Reader, error) {
	data := res.Data
	if data == nil {
		var err error
		data, err = os.ReadFile(res.Path)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
	}

	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("decode gif: no frames")
	}

	width, height := g.Config.Width, g.Config.Height
	if width == 0 || height == 0 {
		b := g.Image[0].Bounds()
		width, height = b.Max.X, b.Max.Y
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	frames := make([]ports.Frame, 0, len(g.Image))
	for i, paletted := range g.Image {
		draw.Draw(canvas, paletted.Bounds(), paletted, paletted.Bounds().Min, draw.Over)

		snapshot := image.NewRGBA(canvas.Bounds())
		copy(snapshot.Pix, canvas.Pix)

		delayMs := DefaultDelayMs
		if i < len(g.Delay) {
			delayMs = g.Delay[i] * 10
		}
		frames = append(frames, ports.Frame{
			Image: snapshot,
			Meta: ports.Metadata{
				"format":      "gif",
				"index":       i,
				"duration_ms": delayMs,
			},
		})
	}

	meta := ports.Metadata{
		"format":      "gif",
		"width":       width,
		"height":      height,
		"frame_count": len(frames),
		"loop":        g.LoopCount,
	}
	return &reader{frames: frames, meta: meta}, nil
}

// OpenWriter opens the destination for incremental appends. Frames are
// collected and the file is encoded on Close, since the GIF header needs
// the full frame table.
func (p *Plugin) OpenWriter(ctx context.Context, res ports.Resource) (ports.Writer, error) {
	if res.Path == "" {
		return nil, fmt.Errorf("gifanim: writer requires a file destination")
	}
	return &writer{path: res.Path}, nil
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

type writer struct {
	path   string
	bounds image.Rectangle
	anim   gif.GIF
	closed bool
}

func (w *writer) Append(frame ports.Frame) error {
	if w.closed {
		return fmt.Errorf("gifanim: writer is closed")
	}
	if frame.Image == nil {
		return fmt.Errorf("gifanim: frame has no image")
	}

	b := frame.Bounds()
	if len(w.anim.Image) == 0 {
		w.bounds = image.Rect(0, 0, b.Dx(), b.Dy())
	} else if b.Dx() != w.bounds.Dx() || b.Dy() != w.bounds.Dy() {
		return fmt.Errorf("%w: got %dx%d, expected %dx%d",
			ports.ErrFormatMismatch, b.Dx(), b.Dy(), w.bounds.Dx(), w.bounds.Dy())
	}

	paletted := image.NewPaletted(w.bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(paletted, w.bounds, frame.Image, b.Min)

	delayMs := DefaultDelayMs
	if v, ok := frame.Meta["duration_ms"]; ok {
		if ms, ok := v.(int); ok && ms > 0 {
			delayMs = ms
		}
	}

	w.anim.Image = append(w.anim.Image, paletted)
	w.anim.Delay = append(w.anim.Delay, delayMs/10)
	return nil
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if len(w.anim.Image) == 0 {
		// Nothing appended: leave no destination behind.
		return nil
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer f.Close()

	if err := gif.EncodeAll(f, &w.anim); err != nil {
		return fmt.Errorf("encode gif: %w", err)
	}
	return nil
}

// Ensure interface compliance
var (
	_ ports.Plugin = (*Plugin)(nil)
	_ ports.Reader = (*reader)(nil)
	_ ports.Writer = (*writer)(nil)
)
