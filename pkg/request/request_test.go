package request

import (
	"testing"
)

func TestParseSource_Device(t *testing.T) {
	tests := []struct {
		in     string
		device int
	}{
		{"<video0>", 0},
		{"<video1>", 1},
		{"<video12>", 12},
	}
	for _, tt := range tests {
		src, err := ParseSource(tt.in)
		if err != nil {
			t.Fatalf("ParseSource(%q): %v", tt.in, err)
		}
		if src.Kind != KindDevice {
			t.Errorf("ParseSource(%q).Kind = %v, want KindDevice", tt.in, src.Kind)
		}
		if src.Device != tt.device {
			t.Errorf("ParseSource(%q).Device = %d, want %d", tt.in, src.Device, tt.device)
		}
		if src.Scheme() != "device" {
			t.Errorf("ParseSource(%q).Scheme() = %q, want \"device\"", tt.in, src.Scheme())
		}
	}
}

func TestParseSource_NotADevice(t *testing.T) {
	// Malformed device URIs fall through to local paths.
	for _, in := range []string{"<video>", "<videoX>", "video0"} {
		src, err := ParseSource(in)
		if err != nil {
			t.Fatalf("ParseSource(%q): %v", in, err)
		}
		if src.Kind != KindPath {
			t.Errorf("ParseSource(%q).Kind = %v, want KindPath", in, src.Kind)
		}
	}
}

func TestParseSource_URL(t *testing.T) {
	src, err := ParseSource("https://example.com/images/chelsea.png?raw=true")
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != KindURL {
		t.Fatalf("Kind = %v, want KindURL", src.Kind)
	}
	if got := src.Extension(); got != "png" {
		t.Errorf("Extension() = %q, want \"png\"", got)
	}
	if got := src.Scheme(); got != "https" {
		t.Errorf("Scheme() = %q, want \"https\"", got)
	}
}

func TestParseSource_Empty(t *testing.T) {
	if _, err := ParseSource(""); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestSourceExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chelsea.png", "png"},
		{"movie.MP4", "mp4"},
		{"archive.tar.gz", "gz"},
		{"noext", ""},
	}
	for _, tt := range tests {
		src, err := ParseSource(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if got := src.Extension(); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBytesSource(t *testing.T) {
	src := BytesSource([]byte{0x89, 0x50})
	if src.Kind != KindBytes {
		t.Fatalf("Kind = %v, want KindBytes", src.Kind)
	}
	if src.Extension() != "" {
		t.Errorf("Extension() = %q, want empty", src.Extension())
	}
}
