// ABOUTME: Tests for the ffprobe/ffmpeg adapter
// ABOUTME: Parses canned probe output and drives shell script stand-ins
package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestParseProbe(t *testing.T) {
	out := []byte(`{
		"programs": [],
		"streams": [
			{"codec_name": "aac", "sample_rate": "44100", "channels": 2, "bits_per_sample": 0, "duration": "10.005333"},
			{"codec_name": "pcm_s24le", "sample_rate": "48000", "channels": 1, "bits_per_raw_sample": "24", "bits_per_sample": 24}
		]
	}`)

	streams, err := parseProbe(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("want 2 streams, got %d", len(streams))
	}

	aac := streams[0]
	if aac.Index != 0 || aac.CodecName != "aac" || aac.SampleRate != 44100 || aac.Channels != 2 {
		t.Errorf("unexpected first stream: %+v", aac)
	}
	if aac.Duration < 10*time.Second || aac.Duration > 10010*time.Millisecond {
		t.Errorf("unexpected duration %v", aac.Duration)
	}

	pcm := streams[1]
	if pcm.Index != 1 || pcm.BitsPerSample != 24 || pcm.Duration != 0 {
		t.Errorf("unexpected second stream: %+v", pcm)
	}
}

func TestParseProbeSilentVideo(t *testing.T) {
	streams, err := parseProbe([]byte(`{"programs": [], "streams": []}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(streams) != 0 {
		t.Fatalf("want no streams, got %d", len(streams))
	}
}

func TestParseProbeGarbage(t *testing.T) {
	if _, err := parseProbe([]byte("Invalid data found when processing input")); err == nil {
		t.Fatal("want error for non-JSON output")
	}
}

func TestNewDefaults(t *testing.T) {
	a := New("", "")
	if a.ffmpeg != "ffmpeg" || a.ffprobe != "ffprobe" {
		t.Errorf("unexpected defaults: %+v", a)
	}
}

// fakeBinary writes an executable shell script standing in for ffmpeg or ffprobe
func fakeBinary(t *testing.T, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-ins need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProbeAudioIgnoresDiagnostics(t *testing.T) {
	ffprobe := fakeBinary(t, "ffprobe", `echo '[aac @ 0x1] Number of bands (50) exceeds limit (40).' >&2
cat <<'JSON'
{"streams": [{"codec_name": "aac", "sample_rate": "48000", "channels": 2, "duration": "3.0"}]}
JSON`)

	streams, err := New("", ffprobe).ProbeAudio(context.Background(), "phone.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if len(streams) != 1 || streams[0].SampleRate != 48000 || streams[0].Duration != 3*time.Second {
		t.Errorf("unexpected streams %+v", streams)
	}
}

func TestProbeAudioFailureIncludesStderr(t *testing.T) {
	ffprobe := fakeBinary(t, "ffprobe", `echo 'clip.mov: Invalid data found when processing input' >&2
exit 1`)

	_, err := New("", ffprobe).ProbeAudio(context.Background(), "clip.mov")
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("want error carrying ffprobe's message, got %v", err)
	}
}

func TestDecodeAudioCleanEOF(t *testing.T) {
	ffmpeg := fakeBinary(t, "ffmpeg", `printf '\001\000\002\000\003\000\004\000'`)

	rc, err := New(ffmpeg, "").DecodeAudio(context.Background(), "clip.mov", 0, 8000, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(b, []byte{1, 0, 2, 0, 3, 0, 4, 0}) {
		t.Errorf("unexpected pcm %v", b)
	}
}

func TestDecodeAudioFailureIsNotEOF(t *testing.T) {
	ffmpeg := fakeBinary(t, "ffmpeg", `printf '\001\000'
echo 'Error while decoding stream #0:1: Invalid data found when processing input' >&2
exit 1`)

	rc, err := New(ffmpeg, "").DecodeAudio(context.Background(), "clip.mov", 0, 8000, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err == nil {
		t.Fatal("want error for non-zero ffmpeg exit")
	}
	if !strings.Contains(err.Error(), "Error while decoding stream") {
		t.Errorf("want ffmpeg's stderr in error, got %v", err)
	}
	if len(b) != 2 {
		t.Errorf("want the 2 bytes written before the failure, got %d", len(b))
	}
}

func TestDecodeAudioCloseStopsProcess(t *testing.T) {
	ffmpeg := fakeBinary(t, "ffmpeg", `exec yes`)

	rc, err := New(ffmpeg, "").DecodeAudio(context.Background(), "clip.mov", 0, 8000, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	buf := make([]byte, 64)
	if _, err := io.ReadFull(rc, buf); err != nil {
		t.Fatalf("read: %v", err)
	}

	closed := make(chan struct{})
	go func() {
		rc.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return while ffmpeg was streaming")
	}

	if p := rc.(*processReader); p.cmd.ProcessState == nil {
		t.Error("want ffmpeg reaped after Close")
	}
	if err := rc.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestDecodeAudioCancelled(t *testing.T) {
	ffmpeg := fakeBinary(t, "ffmpeg", `exec yes`)

	ctx, cancel := context.WithCancel(context.Background())
	rc, err := New(ffmpeg, "").DecodeAudio(ctx, "clip.mov", 0, 8000, 1)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	defer rc.Close()

	cancel()
	if _, err := io.Copy(io.Discard, rc); err == nil {
		t.Fatal("want error after cancellation, got clean EOF")
	}
}
