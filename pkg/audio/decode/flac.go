// ABOUTME: FLAC track reader
// ABOUTME: Decodes FLAC frames with mewkiz/flac into int32 buffers
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/econner/cinesnap/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACReader reads a FLAC file frame by frame
type FLACReader struct {
	stream       *flac.Stream
	format       audio.Format
	srcBitDepth  int
	totalFrames  int64
	bufferFrames int
	frame        int64
	pending      []int32 // decoded samples not yet handed out
	done         bool
}

// NewFLACReader opens a FLAC file for sequential reading
func NewFLACReader(path string, bufferFrames int) (*FLACReader, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode FLAC: %v", ErrCorrupt, err)
	}

	info := stream.Info
	srcBitDepth := int(info.BitsPerSample)

	// Output keeps 24-bit precision for anything deeper than 16-bit
	bitDepth := 24
	if srcBitDepth <= 16 {
		bitDepth = 16
	}

	format := audio.Format{
		Codec:      audio.CodecPCM,
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   bitDepth,
	}
	if err := format.Validate(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return &FLACReader{
		stream:       stream,
		format:       format,
		srcBitDepth:  srcBitDepth,
		totalFrames:  int64(info.NSamples),
		bufferFrames: normalizeBufferFrames(bufferFrames),
	}, nil
}

func (r *FLACReader) Format() audio.Format { return r.format }
func (r *FLACReader) TotalFrames() int64   { return r.totalFrames }

// Read returns up to bufferFrames frames, parsing FLAC frames as needed
func (r *FLACReader) Read(ctx context.Context) (audio.Buffer, error) {
	want := r.bufferFrames * r.format.Channels

	for len(r.pending) < want && !r.done {
		if err := ctx.Err(); err != nil {
			return audio.Buffer{}, err
		}

		frame, err := r.stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.done = true
				break
			}
			return audio.Buffer{}, fmt.Errorf("%w: flac frame: %v", ErrCorrupt, err)
		}

		if len(frame.Subframes) != r.format.Channels {
			return audio.Buffer{}, fmt.Errorf("%w: flac frame has %d channels, stream declares %d",
				ErrCorrupt, len(frame.Subframes), r.format.Channels)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < r.format.Channels; ch++ {
				r.pending = append(r.pending, audio.ScaleToBitDepth(frame.Subframes[ch].Samples[i], r.srcBitDepth))
			}
		}
	}

	if len(r.pending) == 0 {
		return audio.Buffer{}, io.EOF
	}

	n := want
	if n > len(r.pending) {
		n = len(r.pending)
	}

	samples := make([]int32, n)
	copy(samples, r.pending[:n])
	r.pending = append(r.pending[:0], r.pending[n:]...)

	buf := audio.Buffer{Frame: r.frame, Samples: samples, Format: r.format}
	r.frame += int64(buf.Frames())
	return buf, nil
}

// Close releases the underlying file
func (r *FLACReader) Close() error {
	return r.stream.Close()
}
