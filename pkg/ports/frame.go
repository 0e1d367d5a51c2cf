// Package ports defines the interfaces between the frameio core and its
// format plugins and external collaborators.
package ports

import (
	"image"
)

// Metadata is a free-form mapping of format-specific keys (e.g. "fps",
// "Modality") to values. The core imposes no schema.
type Metadata map[string]interface{}

// Clone returns a shallow copy of the metadata mapping.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Frame is one decoded image unit from a sequence or volume.
// A Reader does not retain the frame after yielding it; callers own it.
type Frame struct {
	Image image.Image
	Meta  Metadata
}

// Bounds returns the pixel bounds of the frame, or the zero rectangle
// if the frame carries no image.
func (f Frame) Bounds() image.Rectangle {
	if f.Image == nil {
		return image.Rectangle{}
	}
	return f.Image.Bounds()
}

// SameShape reports whether two frames have identical pixel dimensions.
func (f Frame) SameShape(other Frame) bool {
	a, b := f.Bounds(), other.Bounds()
	return a.Dx() == b.Dx() && a.Dy() == b.Dy()
}
