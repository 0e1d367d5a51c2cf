package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/frameio/pkg/adapters/ggstamp"
	"github.com/user/frameio/pkg/adapters/imagingops"
	"github.com/user/frameio/pkg/frameio"
	"github.com/user/frameio/pkg/ports"
)

// DecodeInput identifies the source to decode.
type DecodeInput struct {
	Source string
	Hint   string
}

// DecodeResult contains all decoded frames plus the resource metadata.
type DecodeResult struct {
	Frames       []ports.Frame
	ResourceMeta ports.Metadata
}

// EncodeInput contains the frames and their destination.
type EncodeInput struct {
	Dest   string
	Hint   string
	Frames []ports.Frame
}

// NewDecodeStage reads every frame of a finite source.
func NewDecodeStage(f *frameio.IO, log ports.Logger) Stage[DecodeInput, DecodeResult] {
	return StageFunc[DecodeInput, DecodeResult](func(ctx context.Context, in DecodeInput) (DecodeResult, error) {
		r, err := f.NewReader(ctx, in.Source, in.Hint)
		if err != nil {
			return DecodeResult{}, err
		}
		defer r.Close()

		if r.Len() < 0 {
			return DecodeResult{}, fmt.Errorf("source %s is an unbounded stream", in.Source)
		}

		result := DecodeResult{ResourceMeta: r.ResourceMeta()}
		for {
			frame, err := r.Next()
			if errors.Is(err, ports.ErrEndOfSequence) {
				break
			}
			if err != nil {
				return DecodeResult{}, fmt.Errorf("decode frame %d: %w", len(result.Frames), err)
			}
			result.Frames = append(result.Frames, frame)
		}
		log.Debug("Decoded %d frames", len(result.Frames))
		return result, nil
	})
}

// NewTransformStage applies the pixel transforms and, when a stamper is
// given, burns the frame index into each frame. Frames are numbered here
// so downstream annotation sees a stable index even when the source
// format carries none.
func NewTransformStage(ops []imagingops.Op, stamper *ggstamp.Stamper, log ports.Logger) Stage[[]ports.Frame, []ports.Frame] {
	op := imagingops.Chain(ops...)
	return StageFunc[[]ports.Frame, []ports.Frame](func(ctx context.Context, frames []ports.Frame) ([]ports.Frame, error) {
		out := make([]ports.Frame, 0, len(frames))
		for i, frame := range frames {
			meta := frame.Meta.Clone()
			if meta == nil {
				meta = ports.Metadata{}
			}
			if _, ok := meta["index"]; !ok {
				meta["index"] = i
			}
			frame.Meta = meta

			frame, err := op(frame)
			if err != nil {
				return nil, fmt.Errorf("transform frame %d: %w", i, err)
			}
			if stamper != nil {
				frame, err = stamper.Apply(frame)
				if err != nil {
					return nil, fmt.Errorf("stamp frame %d: %w", i, err)
				}
			}
			out = append(out, frame)
		}
		return out, nil
	})
}

// NewEncodeStage writes the frames to the destination and returns the
// number of frames written.
func NewEncodeStage(f *frameio.IO, log ports.Logger) Stage[EncodeInput, int] {
	return StageFunc[EncodeInput, int](func(ctx context.Context, in EncodeInput) (int, error) {
		w, err := f.NewWriter(ctx, in.Dest, in.Hint)
		if err != nil {
			return 0, err
		}
		defer w.Close()

		for i, frame := range in.Frames {
			if err := w.Append(frame); err != nil {
				return i, fmt.Errorf("append frame %d: %w", i, err)
			}
		}
		if err := w.Close(); err != nil {
			return len(in.Frames), err
		}
		log.Debug("Flushed %d frames to %s", len(in.Frames), in.Dest)
		return len(in.Frames), nil
	})
}

// ConvertInput describes one source-to-destination conversion.
type ConvertInput struct {
	Source     string
	SourceHint string
	Dest       string
	DestHint   string

	Ops     []imagingops.Op
	Stamper *ggstamp.Stamper
}

// Convert runs the decode, transform and encode stages in order and
// returns the number of frames written.
func Convert(ctx context.Context, f *frameio.IO, in ConvertInput, log ports.Logger) (int, error) {
	decode := NewDecodeStage(f, log)
	transform := NewTransformStage(in.Ops, in.Stamper, log)
	encode := NewEncodeStage(f, log)

	decoded, err := decode.Execute(ctx, DecodeInput{Source: in.Source, Hint: in.SourceHint})
	if err != nil {
		return 0, err
	}
	if len(decoded.Frames) == 0 {
		return 0, fmt.Errorf("source %s has no frames", in.Source)
	}

	frames, err := transform.Execute(ctx, decoded.Frames)
	if err != nil {
		return 0, err
	}

	return encode.Execute(ctx, EncodeInput{Dest: in.Dest, Hint: in.DestHint, Frames: frames})
}
