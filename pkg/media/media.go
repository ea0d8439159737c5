// ABOUTME: Source track addressing and container probing
// ABOUTME: Resolves a (container, audio index) pair to a sequential decode.Reader
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/econner/cinesnap/internal/ffmpeg"
	"github.com/econner/cinesnap/pkg/audio"
	"github.com/econner/cinesnap/pkg/audio/decode"
)

// ErrNoAudioTrack means the container has no audio track at the requested index
var ErrNoAudioTrack = errors.New("no audio track")

// Kind identifies how a container is demuxed
type Kind string

const (
	KindWAV    Kind = "wav"
	KindMP3    Kind = "mp3"
	KindFLAC   Kind = "flac"
	KindFFmpeg Kind = "ffmpeg" // anything else, via ffprobe/ffmpeg
)

// ffmpeg decodes to this layout when a stream does not report its own
const (
	fallbackSampleRate = 48000
	fallbackChannels   = 2
)

// SourceTrack addresses one audio track inside a container.
// Index counts audio tracks only, starting at 0.
type SourceTrack struct {
	Path  string
	Index int
}

func (t SourceTrack) String() string {
	return fmt.Sprintf("%s#a%d", t.Path, t.Index)
}

// TrackInfo describes one audio track of a container
type TrackInfo struct {
	Index    int
	Codec    string
	Format   audio.Format
	Frames   int64 // 0 when unknown
	Duration time.Duration
}

// Container is the result of probing a media file
type Container struct {
	Path   string
	Kind   Kind
	Tracks []TrackInfo
}

// Tool is the subset of the ffmpeg adapter the library needs
type Tool interface {
	ProbeAudio(ctx context.Context, path string) ([]ffmpeg.Stream, error)
	DecodeAudio(ctx context.Context, path string, index, sampleRate, channels int) (io.ReadCloser, error)
}

// Opener opens a fresh reader for a track
type Opener interface {
	Open(ctx context.Context, track SourceTrack, bufferFrames int) (decode.Reader, error)
}

// Library probes and opens media files
type Library struct {
	Tool Tool

	// Channels caps the layout ffmpeg decodes to, letting ffmpeg apply its
	// own downmix matrix. Zero keeps the stream's layout.
	Channels int
}

// NewLibrary returns a Library backed by the ffmpeg binaries at the given paths
func NewLibrary(ffmpegPath, ffprobePath string) *Library {
	return &Library{Tool: ffmpeg.New(ffmpegPath, ffprobePath)}
}

// Detect classifies path by extension, falling back to magic bytes
func Detect(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return KindWAV, nil
	case ".mp3":
		return KindMP3, nil
	case ".flac":
		return KindFLAC, nil
	case ".mp4", ".m4a", ".m4v", ".mov", ".3gp", ".aac", ".mkv", ".webm", ".ogg", ".opus", ".avi":
		return KindFFmpeg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var magic [12]byte
	n, _ := io.ReadFull(f, magic[:])
	return sniff(magic[:n]), nil
}

func sniff(b []byte) Kind {
	switch {
	case len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE":
		return KindWAV
	case len(b) >= 4 && string(b[0:4]) == "fLaC":
		return KindFLAC
	case len(b) >= 3 && string(b[0:3]) == "ID3":
		return KindMP3
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return KindMP3
	default:
		return KindFFmpeg
	}
}

// Probe lists the audio tracks in the container at path
func (l *Library) Probe(ctx context.Context, path string) (*Container, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	kind, err := Detect(path)
	if err != nil {
		return nil, err
	}

	c := &Container{Path: path, Kind: kind}

	if kind == KindFFmpeg {
		streams, err := l.tool().ProbeAudio(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, s := range streams {
			format := streamFormat(s)
			c.Tracks = append(c.Tracks, TrackInfo{
				Index:    s.Index,
				Codec:    s.CodecName,
				Format:   format,
				Frames:   int64(s.Duration.Seconds() * float64(format.SampleRate)),
				Duration: s.Duration,
			})
		}
		return c, nil
	}

	r, err := openNative(kind, path, 0)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	format := r.Format()
	c.Tracks = []TrackInfo{{
		Index:    0,
		Codec:    string(kind),
		Format:   format,
		Frames:   r.TotalFrames(),
		Duration: format.Duration(r.TotalFrames()),
	}}
	return c, nil
}

// Open returns a new reader over track. Every call gets an independent reader.
func (l *Library) Open(ctx context.Context, track SourceTrack, bufferFrames int) (decode.Reader, error) {
	if track.Index < 0 {
		return nil, fmt.Errorf("%w: invalid index %d", ErrNoAudioTrack, track.Index)
	}
	if _, err := os.Stat(track.Path); err != nil {
		return nil, err
	}
	kind, err := Detect(track.Path)
	if err != nil {
		return nil, err
	}

	if kind != KindFFmpeg {
		if track.Index != 0 {
			return nil, fmt.Errorf("%w: %s has a single audio track, index %d requested", ErrNoAudioTrack, kind, track.Index)
		}
		return openNative(kind, track.Path, bufferFrames)
	}

	streams, err := l.tool().ProbeAudio(ctx, track.Path)
	if err != nil {
		return nil, err
	}
	if len(streams) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAudioTrack, track.Path)
	}
	if track.Index >= len(streams) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoAudioTrack, track.Index, len(streams))
	}

	s := streams[track.Index]
	format := streamFormat(s)
	format.BitDepth = 16 // ffmpeg pipes s16le
	if l.Channels > 0 && format.Channels > l.Channels {
		format.Channels = l.Channels
	}

	pipe, err := l.tool().DecodeAudio(ctx, track.Path, track.Index, format.SampleRate, format.Channels)
	if err != nil {
		return nil, err
	}

	total := int64(s.Duration.Seconds() * float64(format.SampleRate))
	r, err := decode.NewPCMReader(pipe, pipe, format, total, bufferFrames)
	if err != nil {
		pipe.Close()
		return nil, err
	}
	return r, nil
}

func (l *Library) tool() Tool {
	if l.Tool == nil {
		return ffmpeg.New("", "")
	}
	return l.Tool
}

func streamFormat(s ffmpeg.Stream) audio.Format {
	format := audio.Format{
		Codec:      audio.CodecPCM,
		SampleRate: s.SampleRate,
		Channels:   s.Channels,
		BitDepth:   16,
	}
	if format.SampleRate <= 0 {
		format.SampleRate = fallbackSampleRate
	}
	if format.Channels <= 0 {
		format.Channels = fallbackChannels
	}
	if s.BitsPerSample > 16 {
		format.BitDepth = 24
	}
	return format
}

func openNative(kind Kind, path string, bufferFrames int) (decode.Reader, error) {
	var (
		r   decode.Reader
		err error
	)
	switch kind {
	case KindWAV:
		r, err = decode.NewWAVReader(path, bufferFrames)
	case KindMP3:
		r, err = decode.NewMP3Reader(path, bufferFrames)
	case KindFLAC:
		r, err = decode.NewFLACReader(path, bufferFrames)
	default:
		return nil, fmt.Errorf("unsupported container kind: %s", kind)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
