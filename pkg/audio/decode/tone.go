// ABOUTME: Sine tone generator exposed as a Reader
// ABOUTME: Produces a finite reference tone for calibration clips and tests
package decode

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/econner/cinesnap/pkg/audio"
)

// ToneReader generates a sine wave at half of full scale on every channel
type ToneReader struct {
	format       audio.Format
	frequency    float64
	totalFrames  int64
	bufferFrames int
	frame        int64
}

// NewToneReader creates a reader yielding frames of a frequency Hz tone
func NewToneReader(format audio.Format, frequency float64, frames int64, bufferFrames int) (*ToneReader, error) {
	format.Codec = audio.CodecPCM
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if frequency <= 0 || frequency >= float64(format.SampleRate)/2 {
		return nil, fmt.Errorf("tone frequency %v Hz outside (0, %d)", frequency, format.SampleRate/2)
	}
	if frames < 0 {
		return nil, fmt.Errorf("negative tone length: %d", frames)
	}

	return &ToneReader{
		format:       format,
		frequency:    frequency,
		totalFrames:  frames,
		bufferFrames: normalizeBufferFrames(bufferFrames),
	}, nil
}

func (r *ToneReader) Format() audio.Format { return r.format }
func (r *ToneReader) TotalFrames() int64   { return r.totalFrames }

// Read returns the next buffer of the tone
func (r *ToneReader) Read(ctx context.Context) (audio.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return audio.Buffer{}, err
	}

	n := r.totalFrames - r.frame
	if n <= 0 {
		return audio.Buffer{}, io.EOF
	}
	if n > int64(r.bufferFrames) {
		n = int64(r.bufferFrames)
	}

	// Generated at 16-bit resolution so 16-bit files hold exact samples
	samples := make([]int32, int(n)*r.format.Channels)
	for i := 0; i < int(n); i++ {
		t := float64(r.frame+int64(i)) / float64(r.format.SampleRate)
		v := audio.SampleFromInt16(int16(math.Sin(2*math.Pi*r.frequency*t) * 32767.0 * 0.5))
		for ch := 0; ch < r.format.Channels; ch++ {
			samples[i*r.format.Channels+ch] = v
		}
	}

	buf := audio.Buffer{Frame: r.frame, Samples: samples, Format: r.format}
	r.frame += n
	return buf, nil
}

func (r *ToneReader) Close() error { return nil }
