// Package e2e contains end-to-end tests for the frameio CLI.
// The tests build and run the real binary, so they are gated behind an
// environment variable.
package e2e

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getBinaryName returns the test binary name with platform-specific extension
func getBinaryName() string {
	if runtime.GOOS == "windows" {
		return "frameio-test.exe"
	}
	return "frameio-test"
}

// getBinaryPath returns the path to execute the test binary
// If FRAMEIO_BINARY env var is set, use that instead (for CI with pre-built binaries)
func getBinaryPath() string {
	if path := os.Getenv("FRAMEIO_BINARY"); path != "" {
		return path
	}
	if runtime.GOOS == "windows" {
		return ".\\frameio-test.exe"
	}
	return "./frameio-test"
}

// shouldBuildBinary returns true if we need to build the binary (no pre-built binary provided)
func shouldBuildBinary() bool {
	return os.Getenv("FRAMEIO_BINARY") == ""
}

func buildBinary(t *testing.T) {
	t.Helper()
	if !shouldBuildBinary() {
		return
	}
	buildCmd := exec.Command("go", "build", "-o", getBinaryName(), "../../cmd/frameio")
	var stderr bytes.Buffer
	buildCmd.Stderr = &stderr
	if err := buildCmd.Run(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, stderr.String())
	}
	t.Cleanup(func() { os.Remove(getBinaryName()) })
}

// writeTestGIF encodes a small animation without going through the
// library under test.
func writeTestGIF(t *testing.T, path string, frames int) {
	t.Helper()
	anim := &gif.GIF{}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 16, 16), color.Palette{
			color.White, color.Black, color.RGBA{R: 255, A: 255},
		})
		for p := range img.Pix {
			img.Pix[p] = uint8(i % 3)
		}
		anim.Image = append(anim.Image, img)
		anim.Delay = append(anim.Delay, 10)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, anim); err != nil {
		t.Fatal(err)
	}
}

// TestFormatsCommand lists the built-in formats
func TestFormatsCommand(t *testing.T) {
	if os.Getenv("FRAMEIO_E2E") != "1" {
		t.Skip("Skipping E2E test (set FRAMEIO_E2E=1 to run)")
	}
	buildBinary(t)

	out, err := exec.Command(getBinaryPath(), "formats").CombinedOutput()
	if err != nil {
		t.Fatalf("formats failed: %v\n%s", err, out)
	}
	for _, want := range []string{"png", "gif", "mp4", "dicom", "camera"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("formats output missing %q:\n%s", want, out)
		}
	}
}

// TestConvertCommand converts a GIF to MP4 through the binary
func TestConvertCommand(t *testing.T) {
	if os.Getenv("FRAMEIO_E2E") != "1" {
		t.Skip("Skipping E2E test (set FRAMEIO_E2E=1 to run)")
	}
	buildBinary(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "in.gif")
	dst := filepath.Join(dir, "out.mp4")
	writeTestGIF(t, src, 3)

	out, err := exec.Command(getBinaryPath(), "convert", src, dst, "-Q").CombinedOutput()
	if err != nil {
		t.Fatalf("convert failed: %v\n%s", err, out)
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}

// TestInfoCommand prints frame count and metadata
func TestInfoCommand(t *testing.T) {
	if os.Getenv("FRAMEIO_E2E") != "1" {
		t.Skip("Skipping E2E test (set FRAMEIO_E2E=1 to run)")
	}
	buildBinary(t)

	dir := t.TempDir()
	src := filepath.Join(dir, "in.gif")
	writeTestGIF(t, src, 3)

	out, err := exec.Command(getBinaryPath(), "info", src, "-Q").CombinedOutput()
	if err != nil {
		t.Fatalf("info failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "3") {
		t.Errorf("info output missing frame count:\n%s", out)
	}
}
