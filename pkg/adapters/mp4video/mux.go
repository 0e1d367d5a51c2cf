package mp4video

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/frameio/pkg/ports"
)

// sampleEntryName is the stsd entry written for MJPEG samples.
const sampleEntryName = "mjpg"

type encodedSample struct {
	data []byte
}

// writer encodes frames to JPEG on Append and muxes the fragmented MP4
// on Close.
type writer struct {
	path    string
	fps     float64
	quality int

	width   int
	height  int
	samples []encodedSample
	closed  bool
}

func (w *writer) Append(frame ports.Frame) error {
	if w.closed {
		return fmt.Errorf("mp4video: writer is closed")
	}
	if frame.Image == nil {
		return fmt.Errorf("mp4video: frame has no image")
	}

	b := frame.Bounds()
	if len(w.samples) == 0 {
		w.width, w.height = b.Dx(), b.Dy()
	} else if b.Dx() != w.width || b.Dy() != w.height {
		return fmt.Errorf("%w: got %dx%d, expected %dx%d",
			ports.ErrFormatMismatch, b.Dx(), b.Dy(), w.width, w.height)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame.Image, &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	w.samples = append(w.samples, encodedSample{data: buf.Bytes()})
	return nil
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if len(w.samples) == 0 {
		return nil
	}

	data, err := w.buildMP4()
	if err != nil {
		return err
	}
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}
	return nil
}

// buildMP4 creates a fragmented MP4 container from the encoded samples.
func (w *writer) buildMP4() ([]byte, error) {
	timescale := uint32(w.fps * 1000)
	trackID := uint32(1)

	// Create initialization segment
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")

	trak := init.Moov.Trak

	// Every MJPEG sample is independently decodable, so no codec config
	// box is needed; dimensions live on the sample entry and the track.
	entry := mp4.NewVisualSampleEntryBox(sampleEntryName)
	entry.Width = uint16(w.width)
	entry.Height = uint16(w.height)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)

	trak.Tkhd.Width = mp4.Fixed32(w.width << 16)
	trak.Tkhd.Height = mp4.Fixed32(w.height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	dur := uint32(float64(timescale) / w.fps)
	for i, sample := range w.samples {
		decodeTime := uint64(i) * uint64(dur)
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: mp4.SyncSampleFlags,
				Size:  uint32(len(sample.data)),
				Dur:   dur,
			},
			DecodeTime: decodeTime,
			Data:       sample.data,
		})
	}

	var buf bytes.Buffer

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}

	return buf.Bytes(), nil
}

// decodeSample turns one MJPEG sample back into an image.
func decodeSample(data []byte) (image.Image, error) {
	return jpeg.Decode(bytes.NewReader(data))
}

// Ensure interface compliance
var _ ports.Writer = (*writer)(nil)
