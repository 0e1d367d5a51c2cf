// Package dispatch resolves open requests into concrete reader/writer
// handles: it validates reachability, fetches remote sources, unpacks
// compressed ones, enumerates directory series and picks the plugin via
// the format registry (with content sniffing as the last resort).
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/frameio/pkg/ports"
	"github.com/user/frameio/pkg/registry"
	"github.com/user/frameio/pkg/request"
)

var (
	// ErrSourceNotFound is returned for missing local paths.
	ErrSourceNotFound = errors.New("dispatch: source not found")

	// ErrSourceUnavailable is returned when a remote source cannot be
	// retrieved.
	ErrSourceUnavailable = errors.New("dispatch: source unavailable")
)

// sniffLimit is how many leading bytes are handed to the sniffer.
const sniffLimit = 262

// Dispatcher resolves requests against one registry.
type Dispatcher struct {
	reg      *registry.Registry
	fs       ports.FileSystem
	fetcher  ports.Fetcher
	sniffer  ports.Sniffer
	log      ports.Logger
	cacheDir string
}

// Options configures a Dispatcher. Fetcher and Sniffer are optional;
// without them URL sources and sniff-based resolution are unavailable.
type Options struct {
	FileSystem ports.FileSystem
	Fetcher    ports.Fetcher
	Sniffer    ports.Sniffer
	Logger     ports.Logger
	// CacheDir holds fetched and decompressed sources.
	CacheDir string
}

// New creates a Dispatcher over the given registry.
func New(reg *registry.Registry, opts Options) *Dispatcher {
	return &Dispatcher{
		reg:      reg,
		fs:       opts.FileSystem,
		fetcher:  opts.Fetcher,
		sniffer:  opts.Sniffer,
		log:      opts.Logger.WithComponent("dispatch"),
		cacheDir: opts.CacheDir,
	}
}

// OpenReader resolves a read request to an open reader handle.
func (d *Dispatcher) OpenReader(ctx context.Context, req request.Request) (ports.Reader, error) {
	if req.Mode != request.ModeRead {
		return nil, fmt.Errorf("dispatch: OpenReader requires a read request")
	}

	switch req.Source.Kind {
	case request.KindDevice:
		entry, err := d.reg.Resolve(req)
		if err != nil {
			return nil, err
		}
		return entry.Plugin.OpenReader(ctx, ports.Resource{Path: "", Device: req.Source.Device})

	case request.KindBytes:
		entry, err := d.resolveBytes(req)
		if err != nil {
			return nil, err
		}
		return entry.Plugin.OpenReader(ctx, ports.Resource{Data: req.Source.Data, Device: -1})

	case request.KindURL:
		localPath, err := d.fetch(ctx, req.Source.URL)
		if err != nil {
			return nil, err
		}
		// The cache file keeps the URL's base name, so extension-based
		// resolution works the same on the fetched copy.
		localReq := req
		localReq.Source = request.Source{Kind: request.KindPath, Path: localPath, Device: -1}
		return d.openLocal(ctx, localReq)

	case request.KindPath, request.KindDir:
		return d.openLocal(ctx, req)

	default:
		return nil, fmt.Errorf("dispatch: unsupported source kind %v", req.Source.Kind)
	}
}

// OpenWriter resolves a write request to an open writer handle.
func (d *Dispatcher) OpenWriter(ctx context.Context, req request.Request) (ports.Writer, error) {
	if req.Mode != request.ModeWrite {
		return nil, fmt.Errorf("dispatch: OpenWriter requires a write request")
	}
	if req.Source.Kind != request.KindPath {
		return nil, fmt.Errorf("dispatch: write destinations must be local paths")
	}

	entry, err := d.reg.Resolve(req)
	if err != nil {
		return nil, err
	}
	d.log.Debug("Resolved %s as %s format", req.Source.Path, entry.Name)

	if dir := filepath.Dir(req.Source.Path); dir != "" && dir != "." {
		if err := d.fs.MkdirAll(dir); err != nil {
			return nil, fmt.Errorf("create destination directory: %w", err)
		}
	}
	return entry.Plugin.OpenWriter(ctx, ports.Resource{Path: req.Source.Path, Device: -1})
}

// openLocal handles path sources: directories become series, compressed
// files are unpacked, and unresolvable extensions fall back to sniffing.
func (d *Dispatcher) openLocal(ctx context.Context, req request.Request) (ports.Reader, error) {
	path := req.Source.Path

	// Static resolution first: an unresolvable source with no plugin and
	// no hint must fail before the resource is touched.
	entry, resolveErr := d.reg.Resolve(req)
	canSniff := d.sniffer != nil || isCompressedPath(path)
	if resolveErr != nil && (!canSniff || req.Hint != "") {
		return nil, resolveErr
	}

	exists, err := d.fs.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !exists {
		if resolveErr != nil {
			return nil, resolveErr
		}
		d.log.Warn("Source %s not found", path)
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}

	isDir, err := d.fs.IsDir(path)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if isDir {
		return d.openSeries(ctx, req)
	}

	if isCompressedPath(path) {
		unpacked, err := d.decompress(path)
		if err != nil {
			return nil, err
		}
		d.log.Debug("Decompressing %s source", compressionExt(path))
		req.Source = request.Source{Kind: request.KindPath, Path: unpacked, Device: -1}
		path = unpacked
		entry, resolveErr = d.reg.Resolve(req)
	}

	if resolveErr != nil {
		entry, err = d.sniffFile(path)
		if err != nil {
			return nil, err
		}
	}
	d.log.Debug("Resolved %s as %s format", path, entry.Name)

	return entry.Plugin.OpenReader(ctx, ports.Resource{Path: path, Device: -1})
}

// openSeries enumerates a directory source for a series-capable plugin.
// Files whose extension does not belong to the resolved format are
// skipped rather than failing the whole series.
func (d *Dispatcher) openSeries(ctx context.Context, req request.Request) (ports.Reader, error) {
	dir := req.Source.Path
	names, err := d.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read series directory: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: series directory %s is empty", ErrSourceNotFound, dir)
	}

	var entry *registry.Entry
	if req.Hint != "" {
		e, ok := d.reg.ByName(req.Hint)
		if !ok {
			return nil, fmt.Errorf("%w: hinted format %q is not registered", registry.ErrUnknownFormat, req.Hint)
		}
		entry = e
	} else {
		// Resolve from the first file whose extension maps to a
		// series-capable format.
		for _, name := range names {
			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
			if ext == "" {
				continue
			}
			if e, ok := d.reg.ByExtension(ext); ok && e.Caps.Has(registry.CapSeries) {
				entry = e
				break
			}
		}
		if entry == nil {
			return nil, fmt.Errorf("%w: no series format matches directory %s", registry.ErrUnknownFormat, dir)
		}
	}
	if !entry.Caps.Has(registry.CapSeries) {
		return nil, fmt.Errorf("%w: format %q does not read series directories", registry.ErrUnknownFormat, entry.Name)
	}

	claimed := make(map[string]bool, len(entry.Extensions))
	for _, ext := range entry.Extensions {
		claimed[strings.ToLower(ext)] = true
	}

	var files []string
	for _, name := range names {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		if !claimed[ext] {
			d.log.Debug("Skipping %s: not a series file", name)
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %s files in directory %s", registry.ErrUnknownFormat, entry.Name, dir)
	}
	d.log.Debug("Enumerated %d files in series", len(files))

	return entry.Plugin.OpenReader(ctx, ports.Resource{Files: files, Device: -1})
}

// fetch retrieves a URL to the local cache.
func (d *Dispatcher) fetch(ctx context.Context, url string) (string, error) {
	if d.fetcher == nil {
		return "", fmt.Errorf("%w: no fetcher configured for %s", ErrSourceUnavailable, url)
	}
	d.log.Info("Fetching %s", url)
	localPath, err := d.fetcher.Fetch(ctx, url, filepath.Join(d.cacheDir, "remote"))
	if err != nil {
		d.log.Warn("Fetch failed: %s", err)
		return "", fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, url, err)
	}
	return localPath, nil
}

// sniffFile resolves a format from the file's leading bytes.
func (d *Dispatcher) sniffFile(path string) (*registry.Entry, error) {
	if d.sniffer == nil {
		return nil, fmt.Errorf("%w: %s", registry.ErrUnknownFormat, path)
	}
	data, err := d.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source for sniffing: %w", err)
	}
	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	name, ok := d.sniffer.Sniff(head)
	if !ok {
		d.log.Warn("No plugin matches %s", path)
		return nil, fmt.Errorf("%w: unrecognized content in %s", registry.ErrUnknownFormat, path)
	}
	entry, found := d.reg.ByName(name)
	if !found {
		return nil, fmt.Errorf("%w: sniffed format %q is not registered", registry.ErrUnknownFormat, name)
	}
	return entry, nil
}

// resolveBytes resolves an in-memory source via hint or sniffing.
func (d *Dispatcher) resolveBytes(req request.Request) (*registry.Entry, error) {
	if req.Hint != "" {
		return d.reg.Resolve(req)
	}
	if d.sniffer == nil {
		return nil, fmt.Errorf("%w: in-memory source needs a format hint", registry.ErrUnknownFormat)
	}
	head := req.Source.Data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	name, ok := d.sniffer.Sniff(head)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized in-memory content", registry.ErrUnknownFormat)
	}
	entry, found := d.reg.ByName(name)
	if !found {
		return nil, fmt.Errorf("%w: sniffed format %q is not registered", registry.ErrUnknownFormat, name)
	}
	return entry, nil
}
