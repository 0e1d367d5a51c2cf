// Package dicomvol provides a read-only DICOM plugin. A single file
// yields its embedded frames; a directory source is treated as one
// volumetric series, ordered by InstanceNumber where present.
package dicomvol

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/user/frameio/pkg/ports"
)

// Plugin decodes DICOM files and series.
type Plugin struct {
	log ports.Logger
}

// New creates the DICOM plugin.
func New(log ports.Logger) *Plugin {
	return &Plugin{log: log.WithComponent("dicom")}
}

// Name returns "dicom".
func (p *Plugin) Name() string { return "dicom" }

// OpenReader parses the file or series eagerly and decodes pixel data.
func (p *Plugin) OpenReader(ctx context.Context, res ports.Resource) (ports.Reader, error) {
	paths := res.Files
	if len(paths) == 0 {
		if res.Path == "" {
			return nil, fmt.Errorf("dicomvol: in-memory sources not supported")
		}
		paths = []string{res.Path}
	}

	slices := make([]slice, 0, len(paths))
	for _, path := range paths {
		s, err := parseFile(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		slices = append(slices, s)
	}

	// Order the series by InstanceNumber; files without one keep their
	// lexical position.
	sort.SliceStable(slices, func(i, j int) bool {
		a, aok := slices[i].instance()
		b, bok := slices[j].instance()
		if aok && bok {
			return a < b
		}
		return false
	})

	var frames []ports.Frame
	for _, s := range slices {
		frames = append(frames, s.frames...)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("dicomvol: no pixel data in source")
	}
	p.log.Debug("Decoded %d frames", len(frames))

	meta := slices[0].meta.Clone()
	meta["frame_count"] = len(frames)
	if len(paths) > 1 {
		meta["slice_count"] = len(paths)
	}
	return &reader{frames: frames, meta: meta}, nil
}

// OpenWriter is unsupported; DICOM is a decode-only format here.
func (p *Plugin) OpenWriter(ctx context.Context, res ports.Resource) (ports.Writer, error) {
	return nil, fmt.Errorf("dicomvol: writing not supported")
}

// slice is one parsed DICOM file.
type slice struct {
	frames []ports.Frame
	meta   ports.Metadata
}

func (s slice) instance() (int, bool) {
	v, ok := s.meta["InstanceNumber"]
	if !ok {
		return 0, false
	}
	str, ok := v.(string)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(str))
	if err != nil {
		return 0, false
	}
	return n, true
}

// metaTags are the resource-level attributes surfaced as metadata.
var metaTags = []struct {
	tag  tag.Tag
	name string
}{
	{tag.Modality, "Modality"},
	{tag.StudyInstanceUID, "StudyInstanceUID"},
	{tag.SeriesInstanceUID, "SeriesInstanceUID"},
	{tag.InstanceNumber, "InstanceNumber"},
	{tag.Rows, "Rows"},
	{tag.Columns, "Columns"},
}

func parseFile(path string) (slice, error) {
	dataset, err := dicom.ParseFile(path, nil)
	if err != nil {
		return slice{}, err
	}

	meta := ports.Metadata{"format": "dicom"}
	for _, mt := range metaTags {
		el, err := dataset.FindElementByTag(mt.tag)
		if err != nil {
			continue
		}
		meta[mt.name] = elementString(el)
	}

	pixelEl, err := dataset.FindElementByTag(tag.PixelData)
	if err != nil {
		return slice{}, fmt.Errorf("no pixel data: %w", err)
	}
	info := dicom.MustGetPixelDataInfo(pixelEl.Value)

	s := slice{meta: meta}
	for i, fr := range info.Frames {
		img, err := fr.GetImage()
		if err != nil {
			return slice{}, fmt.Errorf("frame %d: %w", i, err)
		}
		frameMeta := meta.Clone()
		frameMeta["index"] = i
		s.frames = append(s.frames, ports.Frame{Image: img, Meta: frameMeta})
	}
	return s, nil
}

// elementString renders an element value as a flat string, unwrapping
// one-element string slices which DICOM uses for most attributes.
func elementString(el *dicom.Element) string {
	if el == nil || el.Value == nil {
		return ""
	}
	if vals, ok := el.Value.GetValue().([]string); ok && len(vals) == 1 {
		return vals[0]
	}
	if vals, ok := el.Value.GetValue().([]int); ok && len(vals) == 1 {
		return strconv.Itoa(vals[0])
	}
	return strings.Trim(el.Value.String(), "[]")
}

type reader struct {
	frames []ports.Frame
	meta   ports.Metadata
	cursor int
}

func (r *reader) Len() int { return len(r.frames) }

func (r *reader) Get(index int) (ports.Frame, error) {
	if index < 0 {
		return ports.Frame{}, fmt.Errorf("negative index %d", index)
	}
	if index >= len(r.frames) {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	return r.frames[index], nil
}

func (r *reader) Next() (ports.Frame, error) {
	if r.cursor >= len(r.frames) {
		return ports.Frame{}, ports.ErrEndOfSequence
	}
	frame := r.frames[r.cursor]
	r.cursor++
	return frame, nil
}

func (r *reader) Meta(index int) (ports.Metadata, error) {
	if index < 0 || index >= len(r.frames) {
		return nil, ports.ErrEndOfSequence
	}
	return r.frames[index].Meta, nil
}

func (r *reader) ResourceMeta() ports.Metadata { return r.meta }

func (r *reader) Close() error {
	r.frames = nil
	return nil
}

// Ensure interface compliance
var (
	_ ports.Plugin = (*Plugin)(nil)
	_ ports.Reader = (*reader)(nil)
)
