// ABOUTME: Audio output tests
// ABOUTME: Exercises the playback loop with a recording output and the s16 packer
package output

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/econner/cinesnap/pkg/audio"
	"github.com/econner/cinesnap/pkg/audio/decode"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
	var _ Drainer = (*Oto)(nil)
}

type recorder struct {
	rate, channels int
	samples        []int32
	drained        bool
	failAt         int
}

func (r *recorder) Open(sampleRate, channels int) error {
	r.rate, r.channels = sampleRate, channels
	return nil
}

func (r *recorder) Write(samples []int32) error {
	if r.failAt > 0 && len(r.samples) >= r.failAt {
		return errors.New("device lost")
	}
	r.samples = append(r.samples, samples...)
	return nil
}

func (r *recorder) Drain(ctx context.Context) error {
	r.drained = true
	return nil
}

func (r *recorder) Close() error { return nil }

func pcmReader(t *testing.T, frames int) decode.Reader {
	t.Helper()
	format := audio.Format{Codec: audio.CodecPCM, SampleRate: 8000, Channels: 2, BitDepth: 16}
	raw := make([]byte, frames*4)
	for i := 0; i < frames*2; i++ {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(i)))
	}
	r, err := decode.NewPCMReader(bytes.NewReader(raw), nil, format, int64(frames), 100)
	if err != nil {
		t.Fatalf("Failed to create reader: %v", err)
	}
	return r
}

func TestPlay(t *testing.T) {
	rec := &recorder{}
	var progress []int64

	err := Play(context.Background(), pcmReader(t, 250), rec, func(n int64) { progress = append(progress, n) })
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if rec.rate != 8000 || rec.channels != 2 {
		t.Errorf("Expected 8000Hz stereo, got %dHz %dch", rec.rate, rec.channels)
	}
	if len(rec.samples) != 500 {
		t.Errorf("Expected 500 samples, got %d", len(rec.samples))
	}
	if rec.samples[3] != audio.SampleFromInt16(3) {
		t.Errorf("Expected sample 3 to be %d, got %d", audio.SampleFromInt16(3), rec.samples[3])
	}
	if !rec.drained {
		t.Error("Expected output to be drained")
	}
	if len(progress) != 3 || progress[2] != 250 {
		t.Errorf("Unexpected progress %v", progress)
	}
}

func TestPlayWriteError(t *testing.T) {
	rec := &recorder{failAt: 200}

	err := Play(context.Background(), pcmReader(t, 250), rec, nil)
	if err == nil || err.Error() != "device lost" {
		t.Errorf("Expected device lost error, got %v", err)
	}
	if rec.drained {
		t.Error("Output must not be drained after a failure")
	}
}

func TestEncodeS16(t *testing.T) {
	samples := []int32{audio.SampleFromInt16(1000), audio.SampleFromInt16(-1000)}

	full := encodeS16(nil, samples, 100)
	if got := int16(binary.LittleEndian.Uint16(full[0:])); got != 1000 {
		t.Errorf("Expected 1000 at full volume, got %d", got)
	}

	half := encodeS16(nil, samples, 50)
	if got := int16(binary.LittleEndian.Uint16(half[2:])); got != -500 {
		t.Errorf("Expected -500 at half volume, got %d", got)
	}

	muted := encodeS16(full, samples, 0)
	if got := int16(binary.LittleEndian.Uint16(muted[0:])); got != 0 {
		t.Errorf("Expected silence at zero volume, got %d", got)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	o := NewOto(nil)
	o.SetVolume(150)
	if o.Volume() != 100 {
		t.Errorf("Expected 100, got %d", o.Volume())
	}
	o.SetVolume(-5)
	if o.Volume() != 0 {
		t.Errorf("Expected 0, got %d", o.Volume())
	}
}
