// Package registry maps resource identifiers (format names, file
// extensions, URI schemes) to capable format plugins.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/user/frameio/pkg/ports"
	"github.com/user/frameio/pkg/request"
)

var (
	// ErrDuplicateFormat is returned when a registration collides with an
	// already registered format name or extension.
	ErrDuplicateFormat = errors.New("registry: duplicate format")

	// ErrUnknownFormat is returned when no registered plugin matches a
	// request.
	ErrUnknownFormat = errors.New("registry: no plugin matches source")
)

// Caps is the capability set of a format plugin.
type Caps uint8

const (
	// CapRead means the plugin can decode.
	CapRead Caps = 1 << iota
	// CapWrite means the plugin can encode.
	CapWrite
	// CapSeek means readers support random frame access.
	CapSeek
	// CapDevice means the plugin reads from capture devices.
	CapDevice
	// CapSeries means the plugin accepts directory sources holding a
	// file-per-frame series.
	CapSeries
)

// Has reports whether all capabilities in want are present.
func (c Caps) Has(want Caps) bool {
	return c&want == want
}

// Descriptor describes one registered format.
type Descriptor struct {
	// Name is the unique format identifier, lowercase (e.g. "png", "dicom").
	Name string

	// Description is a one-line human readable summary.
	Description string

	// Extensions lists the recognized file extensions, without dots.
	Extensions []string

	// Schemes lists recognized URI schemes ("device" for capture sources).
	Schemes []string

	// Caps is the plugin's capability set.
	Caps Caps
}

// Entry is a registered format: its descriptor plus the plugin instance.
type Entry struct {
	Descriptor
	Plugin ports.Plugin
}

// Registry holds the format table. Registration normally happens once at
// startup; Register is safe to call concurrently for plugins added at
// runtime, and resolution is read-only.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Entry
	byExt    map[string]*Entry
	byScheme map[string]*Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byName:   make(map[string]*Entry),
		byExt:    make(map[string]*Entry),
		byScheme: make(map[string]*Entry),
	}
}

// Register adds a format. It fails with ErrDuplicateFormat when the name
// or any extension is already claimed by another format.
func (r *Registry) Register(desc Descriptor, plugin ports.Plugin) error {
	name := strings.ToLower(desc.Name)
	if name == "" {
		return fmt.Errorf("registry: descriptor has no name")
	}
	if plugin == nil {
		return fmt.Errorf("registry: nil plugin for format %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicateFormat, name)
	}
	for _, ext := range desc.Extensions {
		if prev, ok := r.byExt[strings.ToLower(ext)]; ok {
			return fmt.Errorf("%w: extension %q already claimed by %q", ErrDuplicateFormat, ext, prev.Name)
		}
	}

	entry := &Entry{Descriptor: desc, Plugin: plugin}
	entry.Name = name
	r.byName[name] = entry
	for _, ext := range desc.Extensions {
		r.byExt[strings.ToLower(ext)] = entry
	}
	for _, scheme := range desc.Schemes {
		// Schemes may be shared; first registration wins.
		s := strings.ToLower(scheme)
		if _, ok := r.byScheme[s]; !ok {
			r.byScheme[s] = entry
		}
	}
	return nil
}

// ByName returns the entry registered under the given format name.
func (r *Registry) ByName(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[strings.ToLower(name)]
	return e, ok
}

// ByExtension returns the entry claiming the given extension (no dot).
func (r *Registry) ByExtension(ext string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byExt[strings.ToLower(ext)]
	return e, ok
}

// Resolve finds the plugin for a request. Resolution order: explicit
// hint, then file extension, then URI scheme. Content sniffing is the
// dispatcher's job; when none of the static rules match, Resolve returns
// ErrUnknownFormat and the dispatcher may retry with a sniffed name.
func (r *Registry) Resolve(req request.Request) (*Entry, error) {
	if req.Hint != "" {
		e, ok := r.ByName(req.Hint)
		if !ok {
			return nil, fmt.Errorf("%w: hinted format %q is not registered", ErrUnknownFormat, req.Hint)
		}
		if err := checkMode(e, req.Mode); err != nil {
			return nil, err
		}
		return e, nil
	}

	if ext := req.Source.Extension(); ext != "" {
		if e, ok := r.ByExtension(ext); ok {
			if err := checkMode(e, req.Mode); err != nil {
				return nil, err
			}
			return e, nil
		}
	}

	if scheme := req.Source.Scheme(); scheme != "" {
		r.mu.RLock()
		e, ok := r.byScheme[scheme]
		r.mu.RUnlock()
		if ok {
			if err := checkMode(e, req.Mode); err != nil {
				return nil, err
			}
			return e, nil
		}
	}

	return nil, fmt.Errorf("%w: source %q", ErrUnknownFormat, describeSource(req))
}

// List returns the registered descriptors sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e.Descriptor)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func checkMode(e *Entry, mode request.Mode) error {
	switch mode {
	case request.ModeRead:
		if !e.Caps.Has(CapRead) {
			return fmt.Errorf("%w: format %q cannot read", ErrUnknownFormat, e.Name)
		}
	case request.ModeWrite:
		if !e.Caps.Has(CapWrite) {
			return fmt.Errorf("%w: format %q cannot write", ErrUnknownFormat, e.Name)
		}
	}
	return nil
}

func describeSource(req request.Request) string {
	src := req.Source
	switch src.Kind {
	case request.KindPath, request.KindDir:
		return src.Path
	case request.KindURL:
		return src.URL
	case request.KindBytes:
		return fmt.Sprintf("<%d bytes>", len(src.Data))
	case request.KindDevice:
		return fmt.Sprintf("<video%d>", src.Device)
	default:
		return "<unknown>"
	}
}
