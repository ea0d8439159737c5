// ABOUTME: Audio output interface and playback loop
// ABOUTME: Streams a decode.Reader into any playback backend
package output

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/econner/cinesnap/pkg/audio/decode"
)

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// Drainer is implemented by outputs that buffer internally and can wait for
// queued audio to finish playing
type Drainer interface {
	Drain(ctx context.Context) error
}

// Play opens out with r's format and writes every buffer of r to it.
// onProgress, if set, receives the number of frames written so far.
func Play(ctx context.Context, r decode.Reader, out Output, onProgress func(frames int64)) error {
	format := r.Format()
	if err := out.Open(format.SampleRate, format.Channels); err != nil {
		return err
	}

	var frames int64
	for {
		buf, err := r.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if err := out.Write(buf.Samples); err != nil {
			return err
		}
		frames += int64(buf.Frames())
		if onProgress != nil {
			onProgress(frames)
		}
	}

	if d, ok := out.(Drainer); ok {
		return d.Drain(ctx)
	}
	return nil
}
