package ggstamp

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/frameio/pkg/ports"
)

func whiteFrame(w, h int, meta ports.Metadata) ports.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return ports.Frame{Image: img, Meta: meta}
}

func TestApply_KeepsDimensions(t *testing.T) {
	s := New(DefaultStyle())
	out, err := s.Apply(whiteFrame(64, 48, ports.Metadata{"index": 2}))
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("bounds = %v, want 64x48", b)
	}
}

func TestApply_DrawsSomething(t *testing.T) {
	s := New(DefaultStyle())
	out, err := s.Apply(whiteFrame(64, 48, ports.Metadata{"index": 0}))
	if err != nil {
		t.Fatal(err)
	}

	// The bottom-left corner must no longer be pure white.
	changed := false
	b := out.Bounds()
	for y := b.Max.Y - 10; y < b.Max.Y && !changed; y++ {
		for x := 0; x < 20 && !changed; x++ {
			r, g, bl, _ := out.Image.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || bl != 0xffff {
				changed = true
			}
		}
	}
	if !changed {
		t.Error("stamp left the corner untouched")
	}
}

func TestApply_NilImage(t *testing.T) {
	s := New(DefaultStyle())
	if _, err := s.Apply(ports.Frame{}); err == nil {
		t.Fatal("expected error for frame without image")
	}
}

func TestLabel(t *testing.T) {
	s := New(DefaultStyle())
	tests := []struct {
		meta ports.Metadata
		want string
	}{
		{ports.Metadata{"index": 3}, "#3"},
		{ports.Metadata{"index": 1, "timestamp_ms": 1500}, "#1 1.500s"},
		{ports.Metadata{}, "#?"},
	}
	for _, tt := range tests {
		if got := s.label(tt.meta); got != tt.want {
			t.Errorf("label(%v) = %q, want %q", tt.meta, got, tt.want)
		}
	}
}
