package ports

import (
	"context"
)

// Resource is the local, already-resolved form of a source handed to a
// plugin by the dispatcher. Exactly one of Path, Data, Files or Device
// describes the underlying resource.
type Resource struct {
	// Path is a local file path. Empty when the source is in-memory.
	Path string

	// Data holds an in-memory source (raw byte buffer).
	Data []byte

	// Files is the enumerated file set for directory-backed series
	// (e.g. one volumetric scan spread over many files).
	Files []string

	// Device is a capture device index. -1 when the source is not a device.
	Device int
}

// InMemory reports whether the resource is backed by a byte buffer
// rather than a file, file set or device.
func (r Resource) InMemory() bool {
	return r.Path == "" && r.Device < 0 && len(r.Files) == 0
}

// Plugin implements decode and/or encode for one format family.
// A plugin is resolved once at open time and bound to the returned
// handle for its whole lifetime.
type Plugin interface {
	// Name returns the registry name of the format (e.g. "png", "mp4").
	Name() string

	// OpenReader opens the resource for decoding.
	OpenReader(ctx context.Context, res Resource) (Reader, error)

	// OpenWriter opens the resource as an encode destination.
	// Resource.Path names the file to create.
	OpenWriter(ctx context.Context, res Resource) (Writer, error)
}
