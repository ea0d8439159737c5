// ABOUTME: PCM sample decoder and streaming PCM reader
// ABOUTME: Decodes 16-bit and 24-bit little-endian PCM to int32 samples
package decode

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/econner/cinesnap/pkg/audio"
)

// PCMDecoder decodes PCM audio
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes to a freshly allocated slice of int32 samples.
// Trailing bytes that do not form a whole sample are ignored.
func (d *PCMDecoder) Decode(data []byte) ([]int32, error) {
	if d.bitDepth == 24 {
		dst := make([]int32, len(data)/3)
		for i := range dst {
			dst[i] = audio.SampleFrom24Bit([3]byte{data[i*3], data[i*3+1], data[i*3+2]})
		}
		return dst, nil
	}

	dst := make([]int32, len(data)/2)
	for i := range dst {
		dst[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	return dst, nil
}

// PCMReader streams raw interleaved little-endian PCM from an io.Reader.
// It backs both the WAV data chunk and ffmpeg's s16le pipe.
type PCMReader struct {
	src         io.Reader
	closer      io.Closer
	decoder     *PCMDecoder
	format      audio.Format
	totalFrames int64
	frame       int64
	raw         []byte
	done        bool
}

// NewPCMReader wraps src. closer may be nil. totalFrames may be 0 if unknown.
func NewPCMReader(src io.Reader, closer io.Closer, format audio.Format, totalFrames int64, bufferFrames int) (*PCMReader, error) {
	format.Codec = audio.CodecPCM
	if err := format.Validate(); err != nil {
		return nil, err
	}
	dec, err := NewPCM(format)
	if err != nil {
		return nil, err
	}

	frameBytes := format.Channels * format.BitDepth / 8
	return &PCMReader{
		src:         src,
		closer:      closer,
		decoder:     dec,
		format:      format,
		totalFrames: totalFrames,
		raw:         make([]byte, normalizeBufferFrames(bufferFrames)*frameBytes),
	}, nil
}

func (r *PCMReader) Format() audio.Format { return r.format }
func (r *PCMReader) TotalFrames() int64   { return r.totalFrames }

// Read returns the next buffer of whole frames
func (r *PCMReader) Read(ctx context.Context) (audio.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return audio.Buffer{}, err
	}
	if r.done {
		return audio.Buffer{}, io.EOF
	}

	n, err := io.ReadFull(r.src, r.raw)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		if n == 0 {
			return audio.Buffer{}, io.EOF
		}
	default:
		return audio.Buffer{}, fmt.Errorf("read pcm: %w", err)
	}

	frameBytes := r.format.Channels * r.format.BitDepth / 8
	n -= n % frameBytes
	if n == 0 {
		return audio.Buffer{}, io.EOF
	}

	samples, err := r.decoder.Decode(r.raw[:n])
	if err != nil {
		return audio.Buffer{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	buf := audio.Buffer{Frame: r.frame, Samples: samples, Format: r.format}
	r.frame += int64(buf.Frames())
	return buf, nil
}

// Close releases the underlying source
func (r *PCMReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
