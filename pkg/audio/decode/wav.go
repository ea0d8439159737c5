// ABOUTME: WAV (RIFF/WAVE) container reader
// ABOUTME: Walks RIFF chunks to the data chunk and streams its PCM frames
package decode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/econner/cinesnap/pkg/audio"
)

const (
	wavFormatPCM        = 0x0001
	wavFormatExtensible = 0xFFFE

	// Writers that stream WAV without seeking leave the size at one of these.
	wavUnknownSize = 0xFFFFFFFF
)

// WAVHeader is the subset of a WAV header needed to stream its samples
type WAVHeader struct {
	Format   audio.Format
	DataSize int64 // -1 when the writer did not record a size
}

// Frames returns the number of whole frames in the data chunk, or 0 if unknown
func (h WAVHeader) Frames() int64 {
	if h.DataSize < 0 {
		return 0
	}
	frameBytes := int64(h.Format.Channels * h.Format.BitDepth / 8)
	if frameBytes == 0 {
		return 0
	}
	return h.DataSize / frameBytes
}

// ReadWAVHeader consumes r up to the first byte of the data chunk
func ReadWAVHeader(r io.Reader) (WAVHeader, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return WAVHeader{}, fmt.Errorf("%w: short RIFF header: %v", ErrCorrupt, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return WAVHeader{}, fmt.Errorf("%w: missing RIFF/WAVE signature", ErrCorrupt)
	}

	var (
		header  WAVHeader
		haveFmt bool
		chunk   [8]byte
	)
	for {
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			return WAVHeader{}, fmt.Errorf("%w: missing data chunk", ErrCorrupt)
		}
		id := string(chunk[0:4])
		size := binary.LittleEndian.Uint32(chunk[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return WAVHeader{}, fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrCorrupt, size)
			}
			body := make([]byte, size+size%2)
			if _, err := io.ReadFull(r, body); err != nil {
				return WAVHeader{}, fmt.Errorf("%w: truncated fmt chunk", ErrCorrupt)
			}
			tag := binary.LittleEndian.Uint16(body[0:2])
			if tag != wavFormatPCM && tag != wavFormatExtensible {
				return WAVHeader{}, fmt.Errorf("unsupported WAV encoding: 0x%04x (only PCM is supported)", tag)
			}
			header.Format = audio.Format{
				Codec:      audio.CodecPCM,
				Channels:   int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate: int(binary.LittleEndian.Uint32(body[4:8])),
				BitDepth:   int(binary.LittleEndian.Uint16(body[14:16])),
			}
			if err := header.Format.Validate(); err != nil {
				return WAVHeader{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return WAVHeader{}, fmt.Errorf("%w: data chunk before fmt chunk", ErrCorrupt)
			}
			header.DataSize = int64(size)
			if size == wavUnknownSize || size == 0 {
				header.DataSize = -1
			}
			return header, nil

		default:
			// LIST, fact, cue and friends carry nothing we need
			if _, err := io.CopyN(io.Discard, r, int64(size)+int64(size%2)); err != nil {
				return WAVHeader{}, fmt.Errorf("%w: truncated %q chunk", ErrCorrupt, id)
			}
		}
	}
}

// NewWAVReader opens a WAV file for sequential reading
func NewWAVReader(path string, bufferFrames int) (*PCMReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	br := bufio.NewReaderSize(f, 64*1024)
	header, err := ReadWAVHeader(br)
	if err != nil {
		f.Close()
		return nil, err
	}

	var src io.Reader = br
	if header.DataSize >= 0 {
		src = io.LimitReader(br, header.DataSize)
	}

	reader, err := NewPCMReader(src, f, header.Format, header.Frames(), bufferFrames)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reader, nil
}
