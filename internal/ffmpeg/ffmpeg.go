// ABOUTME: ffprobe/ffmpeg adapter for containers Go cannot demux natively
// ABOUTME: Lists audio streams and pipes a chosen stream out as raw s16le PCM
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Stream describes one audio stream reported by ffprobe
type Stream struct {
	Index         int // position among the container's audio streams
	CodecName     string
	SampleRate    int
	Channels      int
	BitsPerSample int
	Duration      time.Duration
}

// Adapter runs the ffprobe and ffmpeg binaries
type Adapter struct {
	ffmpeg  string
	ffprobe string
}

// New returns an Adapter. Empty paths resolve the binaries from PATH.
func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// ProbeAudio returns the audio streams of the container at path, in order
func (a *Adapter) ProbeAudio(ctx context.Context, path string) ([]Stream, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_name,sample_rate,channels,bits_per_raw_sample,bits_per_sample,duration",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe streams: %w\n%s", err, strings.TrimSpace(stderr.String()))
	}

	streams, err := parseProbe(stdout.Bytes())
	if err != nil && stderr.Len() > 0 {
		return nil, fmt.Errorf("%w\n%s", err, strings.TrimSpace(stderr.String()))
	}
	return streams, err
}

type probeOutput struct {
	Streams []struct {
		CodecName        string `json:"codec_name"`
		SampleRate       string `json:"sample_rate"`
		Channels         int    `json:"channels"`
		BitsPerRawSample string `json:"bits_per_raw_sample"`
		BitsPerSample    int    `json:"bits_per_sample"`
		Duration         string `json:"duration"`
	} `json:"streams"`
}

func parseProbe(b []byte) ([]Stream, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	streams := make([]Stream, 0, len(out.Streams))
	for i, s := range out.Streams {
		st := Stream{
			Index:         i,
			CodecName:     s.CodecName,
			Channels:      s.Channels,
			BitsPerSample: s.BitsPerSample,
		}
		if v, err := strconv.Atoi(s.SampleRate); err == nil {
			st.SampleRate = v
		}
		if v, err := strconv.Atoi(s.BitsPerRawSample); err == nil && v > 0 {
			st.BitsPerSample = v
		}
		if sec, err := strconv.ParseFloat(strings.TrimSpace(s.Duration), 64); err == nil {
			st.Duration = time.Duration(sec * float64(time.Second))
		}
		streams = append(streams, st)
	}
	return streams, nil
}

// DecodeAudio starts ffmpeg decoding audio stream index of path to
// interleaved signed 16-bit little-endian PCM at the requested layout.
// Closing the returned reader stops ffmpeg.
func (a *Adapter) DecodeAudio(ctx context.Context, path string, index, sampleRate, channels int) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-nostdin",
		"-loglevel", "error",
		"-i", path,
		"-map", fmt.Sprintf("0:a:%d", index),
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get ffmpeg stdout: %w", err)
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	// children of a killed ffmpeg must not keep Wait blocked on stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &processReader{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

// processReader surfaces ffmpeg's exit status at end of stream so a decoder
// crash is not mistaken for a short track.
type processReader struct {
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	waitErr error
	waited  bool
	once    sync.Once
}

func (p *processReader) Read(b []byte) (int, error) {
	n, err := p.stdout.Read(b)
	if errors.Is(err, io.EOF) {
		if werr := p.wait(); werr != nil {
			return n, fmt.Errorf("ffmpeg decode: %w\n%s", werr, strings.TrimSpace(p.stderr.String()))
		}
	}
	return n, err
}

func (p *processReader) wait() error {
	if !p.waited {
		p.waitErr = p.cmd.Wait()
		p.waited = true
	}
	return p.waitErr
}

func (p *processReader) Close() error {
	p.once.Do(func() {
		p.stdout.Close()
		if !p.waited && p.cmd.Process != nil {
			p.cmd.Process.Kill()
			p.wait()
		}
	})
	return nil
}
