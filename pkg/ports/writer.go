package ports

// Writer accumulates encoded frames into one destination resource.
// Not safe for concurrent use without external synchronization.
type Writer interface {
	// Append encodes and writes one frame. Formats requiring uniform
	// frames return ErrFormatMismatch when the shape drifts from the
	// frames already written.
	Append(frame Frame) error

	// Close flushes and releases the destination. Idempotent: calling it
	// again after the first call is a no-op.
	Close() error
}
