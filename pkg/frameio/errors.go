package frameio

import (
	"github.com/user/frameio/pkg/dispatch"
	"github.com/user/frameio/pkg/ports"
	"github.com/user/frameio/pkg/registry"
)

// The error taxonomy, re-exported from the layers that raise them.
// Callers match with errors.Is; all errors arrive wrapped with context.
var (
	// ErrUnknownFormat: no registered plugin matches the source.
	ErrUnknownFormat = registry.ErrUnknownFormat

	// ErrDuplicateFormat: a registration collided with an existing name
	// or extension.
	ErrDuplicateFormat = registry.ErrDuplicateFormat

	// ErrSourceNotFound: a local source path does not exist.
	ErrSourceNotFound = dispatch.ErrSourceNotFound

	// ErrSourceUnavailable: a remote source could not be retrieved.
	ErrSourceUnavailable = dispatch.ErrSourceUnavailable

	// ErrUnsupportedSeek: random access on a forward-only reader.
	ErrUnsupportedSeek = ports.ErrUnsupportedSeek

	// ErrEndOfSequence: iteration moved past the last frame. Recoverable;
	// the handle stays usable.
	ErrEndOfSequence = ports.ErrEndOfSequence

	// ErrFormatMismatch: a frame violates the destination format's
	// constraints (shape drift in a uniform sequence).
	ErrFormatMismatch = ports.ErrFormatMismatch
)
