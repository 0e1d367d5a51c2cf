// Package magicsniff guesses formats from magic bytes using the filetype
// matcher library, plus a manual check for DICOM's offset preamble.
package magicsniff

import (
	filetype "gopkg.in/h2non/filetype.v1"

	"github.com/user/frameio/pkg/ports"
)

// HeaderSize is how many leading bytes the dispatcher should hand to
// Sniff. DICOM needs 132 bytes (128-byte preamble plus "DICM"); all other
// magic numbers fit well within that.
const HeaderSize = 262

// extToFormat maps filetype extensions to registry format names where
// they differ.
var extToFormat = map[string]string{
	"jpg": "jpeg",
	"tif": "tiff",
	"dcm": "dicom",
}

// Sniffer implements ports.Sniffer using magic-byte matching.
type Sniffer struct{}

// New creates a Sniffer.
func New() *Sniffer { return &Sniffer{} }

// Sniff inspects the leading bytes of a source and returns a registry
// format name.
func (s *Sniffer) Sniff(head []byte) (string, bool) {
	if isDICOM(head) {
		return "dicom", true
	}

	t, err := filetype.Match(head)
	if err != nil || t == filetype.Unknown {
		return "", false
	}
	name := t.Extension
	if mapped, ok := extToFormat[name]; ok {
		name = mapped
	}
	return name, true
}

// isDICOM checks for the "DICM" marker after the 128-byte preamble.
func isDICOM(head []byte) bool {
	if len(head) < 132 {
		return false
	}
	return string(head[128:132]) == "DICM"
}

// Ensure Sniffer implements ports.Sniffer
var _ ports.Sniffer = (*Sniffer)(nil)
