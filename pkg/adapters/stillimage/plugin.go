// Package stillimage provides single-image format plugins (PNG, JPEG,
// BMP, TIFF, WebP) backed by the stdlib image codecs and golang.org/x/image.
package stillimage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/user/frameio/pkg/ports"
)

// DefaultJPEGQuality is used when no quality option is given.
const DefaultJPEGQuality = 90

// Options configures still image plugins.
type Options struct {
	// JPEGQuality is the encode quality (1-100) for the JPEG plugin.
	JPEGQuality int
}

type decodeFunc func(io.Reader) (image.Image, error)
type encodeFunc func(io.Writer, image.Image) error

// Plugin decodes and encodes one still image format family.
type Plugin struct {
	name   string
	decode decodeFunc
	encode encodeFunc // nil for decode-only formats
}

// NewPNG creates the PNG plugin.
func NewPNG() *Plugin {
	return &Plugin{name: "png", decode: png.Decode, encode: png.Encode}
}

// NewJPEG creates the JPEG plugin.
func NewJPEG(opts Options) *Plugin {
	quality := opts.JPEGQuality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	return &Plugin{
		name:   "jpeg",
		decode: jpeg.Decode,
		encode: func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
		},
	}
}

// NewBMP creates the BMP plugin.
func NewBMP() *Plugin {
	return &Plugin{name: "bmp", decode: bmp.Decode, encode: bmp.Encode}
}

// NewTIFF creates the TIFF plugin.
func NewTIFF() *Plugin {
	return &Plugin{
		name:   "tiff",
		decode: tiff.Decode,
		encode: func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		},
	}
}

// NewWebP creates the WebP plugin. Decode only; x/image/webp has no encoder.
func NewWebP() *Plugin {
	return &Plugin{name: "webp", decode: webp.Decode}
}

// Name returns the format name.
func (p *Plugin) Name() string { return p.name }

// OpenReader decodes the resource eagerly; still images are small enough
// that lazy decoding buys nothing.
func (p *Plugin) OpenReader(ctx context.Context, res ports.Resource) (ports.Reader, error) {
	data := res.Data
	if data == nil {
		var err error
		data, err = os.ReadFile(res.Path)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
	}

	img, err := p.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p.name, err)
	}

	bounds := img.Bounds()
	meta := ports.Metadata{
		"format": p.name,
		"width":  bounds.Dx(),
		"height": bounds.Dy(),
	}
	return &reader{frame: ports.Frame{Image: img, Meta: meta}, meta: meta}, nil
}

// OpenWriter opens the destination file for encoding one image.
func (p *Plugin) OpenWriter(ctx context.Context, res ports.Resource) (ports.Writer, error) {
	if p.encode == nil {
		return nil, fmt.Errorf("stillimage: %s encoding not supported", p.name)
	}
	f, err := os.Create(res.Path)
	if err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}
	return &writer{plugin: p, f: f}, nil
}

// reader yields the single decoded image. Sequence length is 1.
type reader struct {
	frame  ports.Frame
	meta   ports.Metadata
	cursor int
	closed bool
}

func (r *reader) Len() int { return 1 }

func (r *reader) Get(index int) (ports.Frame, error) {
	if index < 0 {
		return ports.Frame{}, fmt.Errorf("negative index %d", index)
	}
	if index > 0 {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	return r.frame, nil
}

func (r *reader) Next() (ports.Frame, error) {
	if r.cursor > 0 {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	r.cursor++
	return r.frame, nil
}

func (r *reader) Meta(index int) (ports.Metadata, error) {
	if index != 0 {
		return nil, ports.ErrEndOfSequence
	}
	return r.meta, nil
}

func (r *reader) ResourceMeta() ports.Metadata { return r.meta }

func (r *reader) Close() error {
	r.closed = true
	return nil
}

// writer encodes exactly one image into the destination file.
type writer struct {
	plugin *Plugin
	f      *os.File
	count  int
	closed bool
}

func (w *writer) Append(frame ports.Frame) error {
	if w.closed {
		return fmt.Errorf("stillimage: writer is closed")
	}
	if frame.Image == nil {
		return fmt.Errorf("stillimage: frame has no image")
	}
	if w.count > 0 {
		return fmt.Errorf("stillimage: %s holds a single image, got a second frame", w.plugin.name)
	}
	if err := w.plugin.encode(w.f, frame.Image); err != nil {
		return fmt.Errorf("encode %s: %w", w.plugin.name, err)
	}
	w.count++
	return nil
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.f.Close()
}

// Ensure interface compliance
var (
	_ ports.Plugin = (*Plugin)(nil)
	_ ports.Reader = (*reader)(nil)
	_ ports.Writer = (*writer)(nil)
)
