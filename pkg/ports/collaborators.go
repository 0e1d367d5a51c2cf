package ports

import (
	"context"
)

// Fetcher retrieves a remote source to a local file so that plugins only
// ever operate on local data. Retry policy, if any, lives behind this
// interface; the core never retries.
type Fetcher interface {
	// Fetch downloads src (an http/https URL) into dstDir and returns
	// the local file path.
	Fetch(ctx context.Context, src string, dstDir string) (string, error)
}

// Sniffer guesses a registered format name from the leading bytes of a
// source. Used as the last resolution step when neither hint, extension
// nor scheme matched.
type Sniffer interface {
	// Sniff inspects head and returns a format name, or ok=false when
	// the content is not recognized.
	Sniff(head []byte) (name string, ok bool)
}
