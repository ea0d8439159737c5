// ABOUTME: MP3 track reader
// ABOUTME: Streams go-mp3 output (16-bit stereo) as int32 buffers
package decode

import (
	"fmt"
	"os"

	"github.com/econner/cinesnap/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// NewMP3Reader opens an MP3 file for sequential reading.
// go-mp3 always produces 16-bit interleaved stereo at the stream's sample rate.
func NewMP3Reader(path string, bufferFrames int) (*PCMReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: failed to decode MP3: %v", ErrCorrupt, err)
	}

	format := audio.Format{
		Codec:      audio.CodecPCM,
		SampleRate: decoder.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}

	var total int64
	if length := decoder.Length(); length > 0 {
		total = length / 4 // 2 channels * 2 bytes
	}

	reader, err := NewPCMReader(decoder, f, format, total, bufferFrames)
	if err != nil {
		f.Close()
		return nil, err
	}
	return reader, nil
}
