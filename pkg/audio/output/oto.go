// ABOUTME: Oto-based audio output implementation
// ABOUTME: Plays PCM through a persistent oto player with software gain
package output

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/econner/cinesnap/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	log        *zap.Logger
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	volume     int
	ready      bool
	scratch    []byte
}

// NewOto creates a new Oto output
func NewOto(log *zap.Logger) *Oto {
	if log == nil {
		log = zap.NewNop()
	}
	return &Oto{log: log, volume: 100}
}

// Open initializes the output device. oto allows one context per process,
// so a second Open with a different format keeps the first one.
func (o *Oto) Open(sampleRate, channels int) error {
	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			o.log.Warn("oto cannot change format, keeping existing context",
				zap.Int("rate", o.sampleRate), zap.Int("channels", o.channels),
				zap.Int("requested_rate", sampleRate), zap.Int("requested_channels", channels))
		}
		return nil
	}

	ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()
	o.ready = true

	o.log.Debug("audio output initialized", zap.Int("rate", sampleRate), zap.Int("channels", channels))
	return nil
}

// Write outputs audio samples (blocks until the player takes them)
func (o *Oto) Write(samples []int32) error {
	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	o.scratch = encodeS16(o.scratch, samples, o.volume)
	if _, err := o.pipeWriter.Write(o.scratch); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

// Drain ends the stream and waits until the player has played everything
func (o *Oto) Drain(ctx context.Context) error {
	if !o.ready {
		return nil
	}
	o.pipeWriter.Close()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for o.player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	o.ready = false
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	o.volume = volume
}

// Volume returns current volume
func (o *Oto) Volume() int {
	return o.volume
}

// encodeS16 scales samples by volume/100 and packs them as 16-bit LE into dst
func encodeS16(dst []byte, samples []int32, volume int) []byte {
	size := len(samples) * 2
	if cap(dst) < size {
		dst = make([]byte, size)
	}
	dst = dst[:size]

	gain := float64(volume) / 100.0
	for i, s := range samples {
		v := s
		if volume != 100 {
			v = audio.Clamp24(float64(s) * gain)
		}
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(audio.SampleToInt16(v)))
	}
	return dst
}
