package ports

// Reader is a stateful session over one decoded source.
// It is bound to exactly one plugin and one open resource, and is not
// safe for concurrent use without external synchronization.
type Reader interface {
	// Len returns the number of frames in the source, or -1 for live
	// capture streams of unknown (infinite) length.
	Len() int

	// Get returns the frame at the given index. Plugins without seek
	// support require monotonically increasing indices and return
	// ErrUnsupportedSeek for anything earlier than the cursor.
	// An index past the end yields ErrEndOfSequence.
	Get(index int) (Frame, error)

	// Next returns the frame at the cursor and advances it.
	// Returns ErrEndOfSequence when the source is exhausted; for live
	// capture sources it blocks until a frame is available.
	Next() (Frame, error)

	// Meta returns the metadata for the frame at the given index without
	// decoding pixel data where the format allows it.
	Meta(index int) (Metadata, error)

	// ResourceMeta returns metadata describing the resource as a whole.
	ResourceMeta() Metadata

	// Close releases the underlying resource. Safe to call more than once.
	Close() error
}
