// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int32 samples to 16-bit or 24-bit little-endian PCM bytes
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/econner/cinesnap/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
	out      []byte
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if format.Codec != audio.CodecPCM {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// BytesPerSample returns the packed size of one sample
func (e *PCMEncoder) BytesPerSample() int {
	return e.bitDepth / 8
}

// Encode converts int32 samples to PCM bytes. The returned slice is reused by
// the next call.
func (e *PCMEncoder) Encode(samples []int32) ([]byte, error) {
	size := len(samples) * e.BytesPerSample()
	if cap(e.out) < size {
		e.out = make([]byte, size)
	}
	output := e.out[:size]

	if e.bitDepth == 24 {
		for i, sample := range samples {
			b := audio.SampleTo24Bit(sample)
			output[i*3] = b[0]
			output[i*3+1] = b[1]
			output[i*3+2] = b[2]
		}
		return output, nil
	}

	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return output, nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	e.out = nil
	return nil
}
