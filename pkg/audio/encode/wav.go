// ABOUTME: Streaming WAV writer
// ABOUTME: Appends encoded PCM frames and patches RIFF sizes on finalize
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/econner/cinesnap/pkg/audio"
)

const wavHeaderSize = 44

// ErrFinalized is returned when writing to a WAVWriter after Finalize
var ErrFinalized = errors.New("wav writer already finalized")

// WAVWriter writes a canonical 44-byte-header PCM WAV incrementally.
// The header is written up front with zero sizes and rewritten by Finalize.
type WAVWriter struct {
	w         io.WriteSeeker
	encoder   Encoder
	format    audio.Format
	dataBytes int64
	frames    int64
	finalized bool
}

// NewWAVWriter writes a provisional header to w
func NewWAVWriter(w io.WriteSeeker, format audio.Format) (*WAVWriter, error) {
	format.Codec = audio.CodecPCM
	if err := format.Validate(); err != nil {
		return nil, err
	}

	encoder, err := NewPCM(format)
	if err != nil {
		return nil, err
	}
	return newWAVWriter(w, format, encoder)
}

func newWAVWriter(w io.WriteSeeker, format audio.Format, encoder Encoder) (*WAVWriter, error) {
	ww := &WAVWriter{w: w, encoder: encoder, format: format}
	if _, err := w.Write(ww.header()); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	return ww, nil
}

// Format returns the format of the file being written
func (w *WAVWriter) Format() audio.Format { return w.format }

// Frames returns the number of frames appended so far
func (w *WAVWriter) Frames() int64 { return w.frames }

// Write appends the samples of buf
func (w *WAVWriter) Write(buf audio.Buffer) error {
	if w.finalized {
		return ErrFinalized
	}
	if buf.Format.Channels != w.format.Channels {
		return fmt.Errorf("channel mismatch: buffer has %d, file has %d", buf.Format.Channels, w.format.Channels)
	}
	if len(buf.Samples)%w.format.Channels != 0 {
		return fmt.Errorf("buffer holds %d samples, not a whole number of %d-channel frames", len(buf.Samples), w.format.Channels)
	}

	data, err := w.encoder.Encode(buf.Samples)
	if err != nil {
		return err
	}
	if w.dataBytes+int64(len(data)) > math.MaxUint32-wavHeaderSize {
		return fmt.Errorf("WAV data would exceed 4 GiB limit")
	}

	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	w.dataBytes += int64(len(data))
	w.frames += int64(buf.Frames())
	return nil
}

// Finalize rewrites the header with the final sizes. It does not close the
// underlying writer.
func (w *WAVWriter) Finalize() error {
	if w.finalized {
		return nil
	}

	if w.dataBytes%2 == 1 {
		// RIFF chunks are word aligned
		if _, err := w.w.Write([]byte{0}); err != nil {
			return fmt.Errorf("failed to write WAV padding: %w", err)
		}
	}

	if _, err := w.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to WAV header: %w", err)
	}
	if _, err := w.w.Write(w.header()); err != nil {
		return fmt.Errorf("failed to rewrite WAV header: %w", err)
	}
	if _, err := w.w.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to WAV end: %w", err)
	}

	w.finalized = true
	return w.encoder.Close()
}

func (w *WAVWriter) header() []byte {
	channels := uint16(w.format.Channels)
	bitsPerSample := uint16(w.format.BitDepth)
	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(w.dataBytes)
	riffSize := 36 + dataSize + dataSize%2

	h := make([]byte, wavHeaderSize)
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], riffSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], channels)
	binary.LittleEndian.PutUint32(h[24:28], uint32(w.format.SampleRate))
	binary.LittleEndian.PutUint32(h[28:32], uint32(w.format.SampleRate)*uint32(blockAlign))
	binary.LittleEndian.PutUint16(h[32:34], blockAlign)
	binary.LittleEndian.PutUint16(h[34:36], bitsPerSample)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	return h
}
