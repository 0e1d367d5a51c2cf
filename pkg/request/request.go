// Package request models a single open request: what to read or write,
// in which mode, and with which optional format hint.
package request

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Kind distinguishes the supported source variants.
type Kind int

const (
	// KindPath is a local file path.
	KindPath Kind = iota
	// KindURL is an http/https URL fetched to a local file before decoding.
	KindURL
	// KindBytes is a raw in-memory byte buffer.
	KindBytes
	// KindDir is a directory holding a file-per-frame series (e.g. one
	// volumetric scan).
	KindDir
	// KindDevice is a capture device selected by index (<video0>, <video1>, ...).
	KindDevice
)

// String returns a short name for the source kind.
func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindURL:
		return "url"
	case KindBytes:
		return "bytes"
	case KindDir:
		return "dir"
	case KindDevice:
		return "device"
	default:
		return "unknown"
	}
}

// Mode selects between reading and writing.
type Mode int

const (
	// ModeRead opens a source for decoding.
	ModeRead Mode = iota
	// ModeWrite opens a destination for encoding.
	ModeWrite
)

// Pattern describes the access pattern the caller expects.
type Pattern int

const (
	// PatternSingle is one still image.
	PatternSingle Pattern = iota
	// PatternSequence is an ordered series of frames (animation, video).
	PatternSequence
	// PatternVolume is a 3D stack of frames treated as one spatial dataset.
	PatternVolume
)

// Source is a tagged union over the supported source variants.
type Source struct {
	Kind   Kind
	Path   string // KindPath, KindDir
	URL    string // KindURL
	Data   []byte // KindBytes
	Device int    // KindDevice; -1 otherwise
}

var deviceRe = regexp.MustCompile(`^<video(\d+)>$`)

// ParseSource classifies a source string into a Source. Directory
// detection is deferred to dispatch time, when the file system is
// consulted; this function only distinguishes device URIs, URLs and paths.
func ParseSource(s string) (Source, error) {
	if s == "" {
		return Source{}, fmt.Errorf("empty source")
	}

	if m := deviceRe.FindStringSubmatch(s); m != nil {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			return Source{}, fmt.Errorf("parse device index: %w", err)
		}
		return Source{Kind: KindDevice, Device: idx}, nil
	}

	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return Source{Kind: KindURL, URL: s, Device: -1}, nil
	}

	return Source{Kind: KindPath, Path: s, Device: -1}, nil
}

// BytesSource wraps an in-memory buffer as a Source.
func BytesSource(data []byte) Source {
	return Source{Kind: KindBytes, Data: data, Device: -1}
}

// Extension returns the lowercased file extension of the source without
// the leading dot, or "" when the source has none (bytes, devices).
func (s Source) Extension() string {
	var name string
	switch s.Kind {
	case KindPath, KindDir:
		name = s.Path
	case KindURL:
		if u, err := url.Parse(s.URL); err == nil {
			name = path.Base(u.Path)
		}
	default:
		return ""
	}
	ext := strings.ToLower(filepath.Ext(name))
	return strings.TrimPrefix(ext, ".")
}

// Scheme returns the URI scheme of the source ("http", "https") or
// "device" for capture devices, or "" for local sources.
func (s Source) Scheme() string {
	switch s.Kind {
	case KindURL:
		if u, err := url.Parse(s.URL); err == nil {
			return u.Scheme
		}
		return ""
	case KindDevice:
		return "device"
	default:
		return ""
	}
}

// Request is one top-level open call. Immutable once constructed;
// the dispatcher owns it during resolution, then hands the resolved
// resource to the chosen plugin.
type Request struct {
	Source  Source
	Mode    Mode
	Pattern Pattern

	// Hint is an explicit format name (e.g. "dicom") that overrides
	// extension- and scheme-based resolution.
	Hint string
}

// New builds a read or write request from a source string.
func New(source string, mode Mode, hint string) (Request, error) {
	src, err := ParseSource(source)
	if err != nil {
		return Request{}, err
	}
	return Request{Source: src, Mode: mode, Hint: hint}, nil
}
