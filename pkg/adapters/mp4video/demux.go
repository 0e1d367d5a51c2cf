package mp4video

import (
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/frameio/pkg/ports"
)

// demux parses a fragmented MP4 and decodes all MJPEG samples.
func demux(data []byte) ([]ports.Frame, ports.Metadata, error) {
	mp4File, err := mp4.DecodeFile(&bytesReadSeeker{data: data})
	if err != nil {
		return nil, nil, fmt.Errorf("decode mp4: %w", err)
	}
	if !mp4File.IsFragmented() {
		return nil, nil, fmt.Errorf("progressive MP4 not supported, use fragmented MP4")
	}

	// Find video track, its timescale and trex
	var videoTrackID uint32
	var trex *mp4.TrexBox
	var timescale uint32 = 1000
	if mp4File.Init != nil && mp4File.Init.Moov != nil {
		for _, trak := range mp4File.Init.Moov.Traks {
			if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
				videoTrackID = trak.Tkhd.TrackID
				if trak.Mdia.Mdhd != nil {
					timescale = trak.Mdia.Mdhd.Timescale
				}
				if err := checkSampleEntry(trak); err != nil {
					return nil, nil, err
				}
				break
			}
		}
		if mp4File.Init.Moov.Mvex != nil {
			for _, t := range mp4File.Init.Moov.Mvex.Trexs {
				if t.TrackID == videoTrackID {
					trex = t
					break
				}
			}
		}
	}
	if videoTrackID == 0 {
		return nil, nil, fmt.Errorf("no video track found")
	}

	var frames []ports.Frame
	var firstDur uint32
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != videoTrackID {
					continue
				}

				var baseDecodeTime uint64
				if traf.Tfdt != nil {
					baseDecodeTime = traf.Tfdt.BaseMediaDecodeTime()
				}

				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, nil, fmt.Errorf("get samples: %w", err)
				}

				currentTime := baseDecodeTime
				for _, sample := range samples {
					img, err := decodeSample(sample.Data)
					if err != nil {
						return nil, nil, fmt.Errorf("decode sample %d: %w", len(frames), err)
					}
					if firstDur == 0 {
						firstDur = sample.Dur
					}

					timestampMs := int(currentTime * 1000 / uint64(timescale))
					durationMs := int(uint64(sample.Dur) * 1000 / uint64(timescale))
					frames = append(frames, ports.Frame{
						Image: img,
						Meta: ports.Metadata{
							"format":       "mp4",
							"index":        len(frames),
							"timestamp_ms": timestampMs,
							"duration_ms":  durationMs,
						},
					})
					currentTime += uint64(sample.Dur)
				}
			}
		}
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("no samples in video track")
	}

	meta := ports.Metadata{
		"format":      "mp4",
		"frame_count": len(frames),
	}
	if b := frames[0].Bounds(); !b.Empty() {
		meta["width"] = b.Dx()
		meta["height"] = b.Dy()
	}
	if firstDur > 0 {
		meta["fps"] = float64(timescale) / float64(firstDur)
	}
	return frames, meta, nil
}

// checkSampleEntry rejects codecs this plugin cannot decode.
func checkSampleEntry(trak *mp4.TrakBox) error {
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return nil
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case sampleEntryName, "jpeg", "mjpa":
			return nil
		case "avc1", "avc3", "hvc1", "hev1", "av01":
			return fmt.Errorf("mp4video: codec %q requires an external decoder", child.Type())
		}
	}
	return nil
}

// bytesReadSeeker implements io.ReadSeeker for a byte slice
type bytesReadSeeker struct {
	data   []byte
	offset int64
}

func (b *bytesReadSeeker) Read(p []byte) (n int, err error) {
	if b.offset >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n = copy(p, b.data[b.offset:])
	b.offset += int64(n)
	return n, nil
}

func (b *bytesReadSeeker) Seek(offset int64, whence int) (int64, error) {
	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = b.offset + offset
	case io.SeekEnd:
		newOffset = int64(len(b.data)) + offset
	}
	if newOffset < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	b.offset = newOffset
	return newOffset, nil
}
