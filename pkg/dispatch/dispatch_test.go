package dispatch

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/frameio/pkg/adapters/logger"
	"github.com/user/frameio/pkg/adapters/magicsniff"
	"github.com/user/frameio/pkg/adapters/osfilesystem"
	"github.com/user/frameio/pkg/adapters/stillimage"
	"github.com/user/frameio/pkg/ports"
	"github.com/user/frameio/pkg/registry"
	"github.com/user/frameio/pkg/request"
)

// seriesPlugin records the resource it was opened with; stands in for a
// directory-series format without needing real series fixtures.
type seriesPlugin struct {
	opened ports.Resource
}

func (p *seriesPlugin) Name() string { return "frames" }

func (p *seriesPlugin) OpenReader(ctx context.Context, res ports.Resource) (ports.Reader, error) {
	p.opened = res
	return &staticReader{}, nil
}

func (p *seriesPlugin) OpenWriter(ctx context.Context, res ports.Resource) (ports.Writer, error) {
	return nil, errors.New("read-only")
}

type staticReader struct{}

func (r *staticReader) Len() int                                { return 0 }
func (r *staticReader) Get(int) (ports.Frame, error)            { return ports.Frame{}, ports.ErrEndOfSequence }
func (r *staticReader) Next() (ports.Frame, error)              { return ports.Frame{}, ports.ErrEndOfSequence }
func (r *staticReader) Meta(int) (ports.Metadata, error)        { return nil, ports.ErrEndOfSequence }
func (r *staticReader) ResourceMeta() ports.Metadata            { return ports.Metadata{} }
func (r *staticReader) Close() error                            { return nil }

// copyFetcher fakes remote retrieval by copying a local file.
type copyFetcher struct {
	src string
}

func (f *copyFetcher) Fetch(ctx context.Context, src string, dstDir string) (string, error) {
	if f.src == "" {
		return "", errors.New("connection refused")
	}
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", err
	}
	data, err := os.ReadFile(f.src)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dstDir, filepath.Base(f.src))
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", err
	}
	return dst, nil
}

func newTestDispatcher(t *testing.T, reg *registry.Registry, fetcher ports.Fetcher) *Dispatcher {
	t.Helper()
	return New(reg, Options{
		FileSystem: osfilesystem.New(),
		Fetcher:    fetcher,
		Sniffer:    magicsniff.New(),
		Logger:     logger.NewNoop(),
		CacheDir:   t.TempDir(),
	})
}

func newImageRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	err := reg.Register(registry.Descriptor{
		Name:       "png",
		Extensions: []string{"png"},
		Caps:       registry.CapRead | registry.CapWrite | registry.CapSeek,
	}, stillimage.NewPNG())
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func readReq(t *testing.T, source, hint string) request.Request {
	t.Helper()
	req, err := request.New(source, request.ModeRead, hint)
	if err != nil {
		t.Fatal(err)
	}
	return req
}

func TestOpenReader_UnknownExtensionFailsBeforeTouch(t *testing.T) {
	d := newTestDispatcher(t, newImageRegistry(t), nil)

	// The file does not exist; resolution must fail first.
	_, err := d.OpenReader(context.Background(), readReq(t, "foo.unknownext", ""))
	if !errors.Is(err, registry.ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestOpenReader_MissingFile(t *testing.T) {
	d := newTestDispatcher(t, newImageRegistry(t), nil)

	_, err := d.OpenReader(context.Background(), readReq(t, filepath.Join(t.TempDir(), "missing.png"), ""))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Fatalf("err = %v, want ErrSourceNotFound", err)
	}
}

func TestOpenReader_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chelsea.png")
	writePNG(t, path)

	d := newTestDispatcher(t, newImageRegistry(t), nil)
	r, err := d.OpenReader(context.Background(), readReq(t, path, ""))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestOpenReader_SniffsUnlabeledContent(t *testing.T) {
	// A PNG with a lying extension resolves via magic bytes.
	path := filepath.Join(t.TempDir(), "mystery.dat")
	writePNG(t, path)

	d := newTestDispatcher(t, newImageRegistry(t), nil)
	r, err := d.OpenReader(context.Background(), readReq(t, path, ""))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.Get(0); err != nil {
		t.Fatalf("Get(0): %v", err)
	}
}

func TestOpenReader_DecompressesGzip(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "img.png")
	writePNG(t, plain)

	data, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	packed := filepath.Join(dir, "img.png.gz")
	if err := os.WriteFile(packed, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	d := newTestDispatcher(t, newImageRegistry(t), nil)
	r, err := d.OpenReader(context.Background(), readReq(t, packed, ""))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Get(0); err != nil {
		t.Fatalf("Get(0): %v", err)
	}
}

func TestOpenReader_URLFetch(t *testing.T) {
	src := filepath.Join(t.TempDir(), "remote.png")
	writePNG(t, src)

	d := newTestDispatcher(t, newImageRegistry(t), &copyFetcher{src: src})
	r, err := d.OpenReader(context.Background(), readReq(t, "https://example.com/remote.png", ""))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestOpenReader_URLFetchFailure(t *testing.T) {
	d := newTestDispatcher(t, newImageRegistry(t), &copyFetcher{})

	_, err := d.OpenReader(context.Background(), readReq(t, "https://example.com/gone.png", ""))
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestOpenReader_SeriesDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"slice2.frm", "slice1.frm", "README.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	reg := newImageRegistry(t)
	series := &seriesPlugin{}
	err := reg.Register(registry.Descriptor{
		Name:       "frames",
		Extensions: []string{"frm"},
		Caps:       registry.CapRead | registry.CapSeries,
	}, series)
	if err != nil {
		t.Fatal(err)
	}

	d := newTestDispatcher(t, reg, nil)
	r, err := d.OpenReader(context.Background(), readReq(t, dir, ""))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	// Non-matching files are skipped; matching ones arrive sorted.
	want := []string{
		filepath.Join(dir, "slice1.frm"),
		filepath.Join(dir, "slice2.frm"),
	}
	if len(series.opened.Files) != len(want) {
		t.Fatalf("Files = %v, want %v", series.opened.Files, want)
	}
	for i := range want {
		if series.opened.Files[i] != want[i] {
			t.Errorf("Files[%d] = %q, want %q", i, series.opened.Files[i], want[i])
		}
	}
}

func TestOpenWriter_ResolvesAndCreatesParent(t *testing.T) {
	d := newTestDispatcher(t, newImageRegistry(t), nil)
	dst := filepath.Join(t.TempDir(), "nested", "out.png")

	req, err := request.New(dst, request.ModeWrite, "")
	if err != nil {
		t.Fatal(err)
	}
	w, err := d.OpenWriter(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(ports.Frame{Image: image.NewRGBA(image.Rect(0, 0, 2, 2))}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("destination not created: %v", err)
	}
}

func TestOpenWriter_UnknownExtension(t *testing.T) {
	d := newTestDispatcher(t, newImageRegistry(t), nil)

	req, err := request.New("out.unknownext", request.ModeWrite, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.OpenWriter(context.Background(), req); !errors.Is(err, registry.ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}
