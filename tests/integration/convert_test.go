// Package integration contains integration tests exercising the full
// dispatch, plugin and pipeline stack against real files.
package integration

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/frameio/pkg/adapters/imagingops"
	"github.com/user/frameio/pkg/adapters/logger"
	"github.com/user/frameio/pkg/frameio"
	"github.com/user/frameio/pkg/pipeline"
	"github.com/user/frameio/pkg/ports"
)

func newIO(t *testing.T) *frameio.IO {
	t.Helper()
	f, err := frameio.New(frameio.Options{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func gradientFrames(n, w, h int) []ports.Frame {
	frames := make([]ports.Frame, 0, n)
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Set(x, y, color.RGBA{
					R: uint8(255 * x / w),
					G: uint8(255 * y / h),
					B: uint8(50 * i),
					A: 255,
				})
			}
		}
		frames = append(frames, ports.Frame{Image: img})
	}
	return frames
}

// TestGIFToMP4AndBack converts an animation between the two multi-frame
// containers and checks the frame count survives both directions.
func TestGIFToMP4AndBack(t *testing.T) {
	f := newIO(t)
	ctx := context.Background()
	dir := t.TempDir()

	gifPath := filepath.Join(dir, "anim.gif")
	mp4Path := filepath.Join(dir, "anim.mp4")
	backPath := filepath.Join(dir, "back.gif")

	if err := f.WriteSequence(ctx, gifPath, gradientFrames(4, 48, 32)); err != nil {
		t.Fatal(err)
	}

	log := logger.NewNoop()
	if _, err := pipeline.Convert(ctx, f, pipeline.ConvertInput{Source: gifPath, Dest: mp4Path}, log); err != nil {
		t.Fatal(err)
	}
	if _, err := pipeline.Convert(ctx, f, pipeline.ConvertInput{Source: mp4Path, Dest: backPath}, log); err != nil {
		t.Fatal(err)
	}

	frames, err := f.ReadSequence(ctx, backPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 4 {
		t.Errorf("frames = %d, want 4", len(frames))
	}
	if b := frames[0].Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 48x32", b)
	}
}

// TestExtractAndReassemble splits a video into stills and rebuilds an
// animation from the extracted files.
func TestExtractAndReassemble(t *testing.T) {
	f := newIO(t)
	ctx := context.Background()
	dir := t.TempDir()

	mp4Path := filepath.Join(dir, "clip.mp4")
	if err := f.WriteSequence(ctx, mp4Path, gradientFrames(3, 40, 30)); err != nil {
		t.Fatal(err)
	}

	r, err := f.NewReader(ctx, mp4Path, "")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	stillsDir := filepath.Join(dir, "stills")
	if err := os.MkdirAll(stillsDir, 0755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < r.Len(); i++ {
		frame, err := r.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		dest := filepath.Join(stillsDir, filepath.Base(mp4Path)+"-"+string(rune('a'+i))+".png")
		if err := f.WriteImage(ctx, dest, frame); err != nil {
			t.Fatalf("write still %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(stillsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("stills = %d, want 3", len(entries))
	}

	var rebuilt []ports.Frame
	for _, e := range entries {
		frame, err := f.ReadImage(ctx, filepath.Join(stillsDir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		rebuilt = append(rebuilt, frame)
	}
	if err := f.WriteSequence(ctx, filepath.Join(dir, "rebuilt.gif"), rebuilt); err != nil {
		t.Fatal(err)
	}
}

// TestTransformChain runs resize plus grayscale through the convert
// pipeline and verifies the output pixels.
func TestTransformChain(t *testing.T) {
	f := newIO(t)
	ctx := context.Background()
	dir := t.TempDir()

	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.png")
	if err := f.WriteImage(ctx, src, gradientFrames(1, 64, 64)[0]); err != nil {
		t.Fatal(err)
	}

	_, err := pipeline.Convert(ctx, f, pipeline.ConvertInput{
		Source: src,
		Dest:   dst,
		Ops:    []imagingops.Op{imagingops.Resize(32, 32), imagingops.Grayscale()},
	}, logger.NewNoop())
	if err != nil {
		t.Fatal(err)
	}

	out, err := f.ReadImage(ctx, dst)
	if err != nil {
		t.Fatal(err)
	}
	if b := out.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("bounds = %v, want 32x32", b)
	}
	r, g, b, _ := out.Image.At(16, 16).RGBA()
	if r != g || g != b {
		t.Errorf("pixel %d,%d,%d is not gray", r>>8, g>>8, b>>8)
	}
}
