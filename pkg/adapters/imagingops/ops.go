// Package imagingops provides frame transforms backed by the imaging
// library. Transforms run between decode and encode in the CLI convert
// path and never mutate the input frame.
package imagingops

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/user/frameio/pkg/ports"
)

// Op transforms one frame into another.
type Op func(ports.Frame) (ports.Frame, error)

// Resize scales frames to the given dimensions with Lanczos resampling.
// A zero width or height preserves the aspect ratio.
func Resize(width, height int) Op {
	return func(f ports.Frame) (ports.Frame, error) {
		if f.Image == nil {
			return f, fmt.Errorf("imagingops: frame has no image")
		}
		out := imaging.Resize(f.Image, width, height, imaging.Lanczos)
		return withImage(f, out), nil
	}
}

// Grayscale converts frames to grayscale.
func Grayscale() Op {
	return func(f ports.Frame) (ports.Frame, error) {
		if f.Image == nil {
			return f, fmt.Errorf("imagingops: frame has no image")
		}
		return withImage(f, imaging.Grayscale(f.Image)), nil
	}
}

// FlipH mirrors frames horizontally.
func FlipH() Op {
	return func(f ports.Frame) (ports.Frame, error) {
		if f.Image == nil {
			return f, fmt.Errorf("imagingops: frame has no image")
		}
		return withImage(f, imaging.FlipH(f.Image)), nil
	}
}

// FlipV mirrors frames vertically.
func FlipV() Op {
	return func(f ports.Frame) (ports.Frame, error) {
		if f.Image == nil {
			return f, fmt.Errorf("imagingops: frame has no image")
		}
		return withImage(f, imaging.FlipV(f.Image)), nil
	}
}

// Rotate90 rotates frames 90 degrees counter-clockwise.
func Rotate90() Op {
	return func(f ports.Frame) (ports.Frame, error) {
		if f.Image == nil {
			return f, fmt.Errorf("imagingops: frame has no image")
		}
		return withImage(f, imaging.Rotate90(f.Image)), nil
	}
}

// Chain applies ops left to right.
func Chain(ops ...Op) Op {
	return func(f ports.Frame) (ports.Frame, error) {
		var err error
		for _, op := range ops {
			f, err = op(f)
			if err != nil {
				return f, err
			}
		}
		return f, nil
	}
}

func withImage(f ports.Frame, img image.Image) ports.Frame {
	meta := f.Meta.Clone()
	if meta == nil {
		meta = ports.Metadata{}
	}
	b := img.Bounds()
	meta["width"] = b.Dx()
	meta["height"] = b.Dy()
	return ports.Frame{Image: img, Meta: meta}
}
