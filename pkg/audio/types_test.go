// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation, buffer timeline math and sample conversions
package audio

import (
	"testing"
	"time"
)

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr string
	}{
		{"cd quality", Format{Codec: CodecPCM, SampleRate: 44100, Channels: 2, BitDepth: 16}, ""},
		{"hi-res mono", Format{Codec: CodecPCM, SampleRate: 96000, Channels: 1, BitDepth: 24}, ""},
		{"zero rate", Format{SampleRate: 0, Channels: 2, BitDepth: 16}, "invalid sample rate: 0"},
		{"no channels", Format{SampleRate: 48000, Channels: 0, BitDepth: 16}, "invalid channel count: 0"},
		{"32 bit", Format{SampleRate: 48000, Channels: 2, BitDepth: 32}, "unsupported bit depth: 32 (supported: 16, 24)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

	if d := f.Duration(441000); d != 10*time.Second {
		t.Errorf("expected 10s, got %v", d)
	}
	if d := f.Duration(22050); d != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", d)
	}
	if d := (Format{}).Duration(1000); d != 0 {
		t.Errorf("expected 0 for zero sample rate, got %v", d)
	}
}

func TestBufferFramesAndEnd(t *testing.T) {
	buf := Buffer{
		Frame:   1000,
		Samples: make([]int32, 512),
		Format:  Format{SampleRate: 48000, Channels: 2, BitDepth: 16},
	}

	if buf.Frames() != 256 {
		t.Errorf("expected 256 frames, got %d", buf.Frames())
	}
	if buf.End() != 1256 {
		t.Errorf("expected end 1256, got %d", buf.End())
	}

	empty := Buffer{Samples: make([]int32, 10)}
	if empty.Frames() != 0 {
		t.Errorf("expected 0 frames without channel count, got %d", empty.Frames())
	}
}

func TestSampleConversions16(t *testing.T) {
	tests := []struct {
		name  string
		in16  int16
		out32 int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleFromInt16(tt.in16); got != tt.out32 {
				t.Errorf("SampleFromInt16: expected %d, got %d", tt.out32, got)
			}
			if got := SampleToInt16(tt.out32); got != tt.in16 {
				t.Errorf("SampleToInt16: expected %d, got %d", tt.in16, got)
			}
		})
	}

	// Truncation toward negative infinity for values below 16-bit precision
	if got := SampleToInt16(-1000000); got != -3907 {
		t.Errorf("expected -3907, got %d", got)
	}
}

func TestSample24BitPacking(t *testing.T) {
	tests := []struct {
		name   string
		sample int32
		packed [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
		{"max", Max24Bit, [3]byte{0xFF, 0xFF, 0x7F}},
		{"min", Min24Bit, [3]byte{0x00, 0x00, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleTo24Bit(tt.sample); got != tt.packed {
				t.Errorf("SampleTo24Bit: expected %v, got %v", tt.packed, got)
			}
			if got := SampleFrom24Bit(tt.packed); got != tt.sample {
				t.Errorf("SampleFrom24Bit: expected %d, got %d", tt.sample, got)
			}
		})
	}
}

func TestScaleToBitDepth(t *testing.T) {
	if got := ScaleToBitDepth(100, 16); got != 100<<8 {
		t.Errorf("16-bit: expected %d, got %d", 100<<8, got)
	}
	if got := ScaleToBitDepth(100, 24); got != 100 {
		t.Errorf("24-bit: expected 100, got %d", got)
	}
	if got := ScaleToBitDepth(100<<8, 32); got != 100 {
		t.Errorf("32-bit: expected 100, got %d", got)
	}
	if got := ScaleToBitDepth(3, 8); got != 3<<16 {
		t.Errorf("8-bit: expected %d, got %d", 3<<16, got)
	}
}

func TestClamp24(t *testing.T) {
	if got := Clamp24(1e9); got != Max24Bit {
		t.Errorf("expected clamp to max, got %d", got)
	}
	if got := Clamp24(-1e9); got != Min24Bit {
		t.Errorf("expected clamp to min, got %d", got)
	}
	if got := Clamp24(10.6); got != 11 {
		t.Errorf("expected rounding to 11, got %d", got)
	}
}
