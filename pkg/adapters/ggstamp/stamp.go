// Package ggstamp burns frame annotations (index, timestamp) into the
// corner of frames using the gg drawing library.
package ggstamp

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/user/frameio/pkg/ports"
)

// Style configures the stamp appearance.
type Style struct {
	// Background is the box color behind the label.
	Background color.Color
	// Text is the label color.
	Text color.Color
	// Padding is the pixel inset around the label.
	Padding float64
}

// DefaultStyle returns the default stamp style.
func DefaultStyle() Style {
	return Style{
		Background: color.RGBA{A: 160},
		Text:       color.White,
		Padding:    4,
	}
}

// Stamper draws labels onto frames.
type Stamper struct {
	style Style
}

// New creates a Stamper.
func New(style Style) *Stamper {
	if style.Background == nil {
		style = DefaultStyle()
	}
	return &Stamper{style: style}
}

// Apply draws a label derived from the frame's metadata (index and, when
// present, timestamp) into the bottom-left corner and returns a new frame.
func (s *Stamper) Apply(frame ports.Frame) (ports.Frame, error) {
	if frame.Image == nil {
		return frame, fmt.Errorf("ggstamp: frame has no image")
	}

	label := s.label(frame.Meta)
	dc := gg.NewContextForImage(frame.Image)

	tw, th := dc.MeasureString(label)
	p := s.style.Padding
	h := float64(dc.Height())

	dc.SetColor(s.style.Background)
	dc.DrawRectangle(0, h-th-2*p, tw+2*p, th+2*p)
	dc.Fill()

	dc.SetColor(s.style.Text)
	dc.DrawString(label, p, h-p)

	out := ports.Frame{Image: dc.Image(), Meta: frame.Meta.Clone()}
	return out, nil
}

// label builds the annotation text from frame metadata.
func (s *Stamper) label(meta ports.Metadata) string {
	idx := -1
	if v, ok := meta["index"].(int); ok {
		idx = v
	}
	if ts, ok := meta["timestamp_ms"].(int); ok {
		return fmt.Sprintf("#%d %d.%03ds", idx, ts/1000, ts%1000)
	}
	if idx >= 0 {
		return fmt.Sprintf("#%d", idx)
	}
	return "#?"
}
