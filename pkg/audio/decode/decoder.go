// ABOUTME: Reader interface definition
// ABOUTME: Sequential single-pass access to one decoded audio track
package decode

import (
	"context"
	"errors"

	"github.com/econner/cinesnap/pkg/audio"
)

// DefaultBufferFrames is the number of frames a Reader returns per Read
// when the caller does not choose one.
const DefaultBufferFrames = 4096

// ErrCorrupt is wrapped by readers when the source bytes are malformed.
var ErrCorrupt = errors.New("corrupt audio data")

// Reader is a sequential, single-pass decoder over one audio track.
//
// Read returns consecutive buffers whose Frame offsets are contiguous and
// io.EOF once the track is exhausted. A Reader cannot be rewound; open a new
// one to read the track again.
type Reader interface {
	// Format describes the buffers returned by Read
	Format() audio.Format

	// TotalFrames returns the track length in frames, or 0 when unknown
	TotalFrames() int64

	// Read decodes the next buffer
	Read(ctx context.Context) (audio.Buffer, error)

	// Close releases the underlying file or process
	Close() error
}

func normalizeBufferFrames(n int) int {
	if n <= 0 {
		return DefaultBufferFrames
	}
	return n
}
