package ports

import "errors"

var (
	// ErrEndOfSequence signals that a reader has yielded its last frame.
	// It is an expected termination condition, not a fault.
	ErrEndOfSequence = errors.New("frameio: end of sequence")

	// ErrUnsupportedSeek is returned when a plugin without seek support
	// is asked for a frame before the current cursor position.
	ErrUnsupportedSeek = errors.New("frameio: backward seek not supported")

	// ErrFormatMismatch is returned when an appended frame is incompatible
	// with the frames already written (for formats requiring uniform frames).
	ErrFormatMismatch = errors.New("frameio: frame incompatible with previously written frames")
)
