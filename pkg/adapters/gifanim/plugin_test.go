package gifanim

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/user/frameio/pkg/ports"
)

func solidFrame(w, h int, c color.Color) ports.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return ports.Frame{Image: img, Meta: ports.Metadata{"duration_ms": 50}}
}

func writeAnimation(t *testing.T, path string, frames []ports.Frame) {
	t.Helper()
	plugin := New()
	w, err := plugin.OpenWriter(context.Background(), ports.Resource{Path: path, Device: -1})
	if err != nil {
		t.Fatal(err)
	}
	for i, f := range frames {
		if err := w.Append(f); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRoundTrip_FrameCountAndShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	frames := []ports.Frame{
		solidFrame(20, 10, color.RGBA{R: 255, A: 255}),
		solidFrame(20, 10, color.RGBA{G: 255, A: 255}),
		solidFrame(20, 10, color.RGBA{B: 255, A: 255}),
	}
	writeAnimation(t, path, frames)

	plugin := New()
	r, err := plugin.OpenReader(context.Background(), ports.Resource{Path: path, Device: -1})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.Len() != 3 {
		t.Fatalf("Len = %d, want 3", r.Len())
	}
	for i := 0; i < 3; i++ {
		frame, err := r.Next()
		if err != nil {
			t.Fatalf("Next(%d): %v", i, err)
		}
		if b := frame.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
			t.Errorf("frame %d bounds = %v, want 20x10", i, b)
		}
	}
	// Exactly len+1 calls: the last one signals the end, never before.
	if _, err := r.Next(); !errors.Is(err, ports.ErrEndOfSequence) {
		t.Fatalf("Next past end = %v, want ErrEndOfSequence", err)
	}
}

func TestReader_RandomAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	writeAnimation(t, path, []ports.Frame{
		solidFrame(8, 8, color.RGBA{R: 255, A: 255}),
		solidFrame(8, 8, color.RGBA{G: 255, A: 255}),
	})

	r, err := New().OpenReader(context.Background(), ports.Resource{Path: path, Device: -1})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	// Backward access is fine: the GIF plugin is seekable.
	if _, err := r.Get(1); err != nil {
		t.Fatalf("Get(1): %v", err)
	}
	if _, err := r.Get(0); err != nil {
		t.Fatalf("Get(0) after Get(1): %v", err)
	}
	if _, err := r.Get(2); !errors.Is(err, ports.ErrEndOfSequence) {
		t.Fatalf("Get(2) = %v, want ErrEndOfSequence", err)
	}
}

func TestWriter_ShapeMismatch(t *testing.T) {
	plugin := New()
	w, err := plugin.OpenWriter(context.Background(), ports.Resource{
		Path:   filepath.Join(t.TempDir(), "anim.gif"),
		Device: -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Append(solidFrame(10, 10, color.White)); err != nil {
		t.Fatal(err)
	}
	err = w.Append(solidFrame(12, 10, color.White))
	if !errors.Is(err, ports.ErrFormatMismatch) {
		t.Fatalf("Append with drifting shape = %v, want ErrFormatMismatch", err)
	}
}

func TestWriter_DoubleCloseDoesNotDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	plugin := New()
	w, err := plugin.OpenWriter(context.Background(), ports.Resource{Path: path, Device: -1})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(solidFrame(6, 6, color.White)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	r, err := plugin.OpenReader(context.Background(), ports.Resource{Path: path, Device: -1})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Len() != 1 {
		t.Fatalf("Len = %d after double close, want 1", r.Len())
	}
}

func TestReader_FrameMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anim.gif")
	writeAnimation(t, path, []ports.Frame{
		solidFrame(4, 4, color.White),
		solidFrame(4, 4, color.Black),
	})

	r, err := New().OpenReader(context.Background(), ports.Resource{Path: path, Device: -1})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	meta, err := r.Meta(1)
	if err != nil {
		t.Fatal(err)
	}
	if meta["index"] != 1 {
		t.Errorf("meta index = %v, want 1", meta["index"])
	}
	if meta["duration_ms"] != 50 {
		t.Errorf("duration_ms = %v, want 50", meta["duration_ms"])
	}

	rm := r.ResourceMeta()
	if rm["frame_count"] != 2 {
		t.Errorf("frame_count = %v, want 2", rm["frame_count"])
	}
}
