// ABOUTME: Transformer configuration and defaults
// ABOUTME: Canonical output format, factor bounds and pipeline sizing
package speed

import (
	"fmt"
	"math"
	"os"
)

// Method selects the time-scaling technique
type Method string

const (
	// MethodVarispeed resamples the timeline, so pitch follows speed
	MethodVarispeed Method = "varispeed"
	// MethodWSOLA stretches with waveform-similarity overlap-add, keeping pitch
	MethodWSOLA Method = "wsola"
)

// Config holds transformer configuration
type Config struct {
	// SampleRate of the output file (default: 44100)
	SampleRate int

	// Channels of the output file (default: 2)
	Channels int

	// BitDepth of the output file, 16 or 24 (default: 16)
	BitDepth int

	// MinFactor and MaxFactor bound accepted speed factors, inclusive
	// (default: 0.25 and 4.0)
	MinFactor float64
	MaxFactor float64

	// BufferFrames is the decode buffer size in frames (default: 4096)
	BufferFrames int

	// QueueDepth is how many decoded buffers may wait for the encoder (default: 8)
	QueueDepth int

	// Method is the scaling technique (default: varispeed)
	Method Method

	// OutputDir receives the produced files (default: os.TempDir())
	OutputDir string
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		Channels:     2,
		BitDepth:     16,
		MinFactor:    0.25,
		MaxFactor:    4.0,
		BufferFrames: 4096,
		QueueDepth:   8,
		Method:       MethodVarispeed,
		OutputDir:    os.TempDir(),
	}
}

// withDefaults fills zero fields from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleRate == 0 {
		c.SampleRate = d.SampleRate
	}
	if c.Channels == 0 {
		c.Channels = d.Channels
	}
	if c.BitDepth == 0 {
		c.BitDepth = d.BitDepth
	}
	if c.MinFactor == 0 {
		c.MinFactor = d.MinFactor
	}
	if c.MaxFactor == 0 {
		c.MaxFactor = d.MaxFactor
	}
	if c.BufferFrames == 0 {
		c.BufferFrames = d.BufferFrames
	}
	if c.QueueDepth == 0 {
		c.QueueDepth = d.QueueDepth
	}
	if c.Method == "" {
		c.Method = d.Method
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	return c
}

// Validate checks the configuration for consistency
func (c Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate %d out of range [8000, 192000]", c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 8 {
		return fmt.Errorf("channels %d out of range [1, 8]", c.Channels)
	}
	if c.BitDepth != 16 && c.BitDepth != 24 {
		return fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", c.BitDepth)
	}
	if !(c.MinFactor > 0) || math.IsInf(c.MinFactor, 0) {
		return fmt.Errorf("min factor must be positive and finite, got %v", c.MinFactor)
	}
	if !(c.MaxFactor >= c.MinFactor) || math.IsInf(c.MaxFactor, 0) {
		return fmt.Errorf("max factor %v must be finite and >= min factor %v", c.MaxFactor, c.MinFactor)
	}
	if c.BufferFrames < 1 {
		return fmt.Errorf("buffer frames must be positive, got %d", c.BufferFrames)
	}
	if c.QueueDepth < 1 {
		return fmt.Errorf("queue depth must be positive, got %d", c.QueueDepth)
	}
	switch c.Method {
	case MethodVarispeed, MethodWSOLA:
	default:
		return fmt.Errorf("unknown method %q (supported: varispeed, wsola)", c.Method)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	return nil
}

// CheckFactor reports whether factor is usable under this configuration
func (c Config) CheckFactor(factor float64) error {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return fmt.Errorf("factor %v must be a positive finite number", factor)
	}
	if factor < c.MinFactor || factor > c.MaxFactor {
		return fmt.Errorf("factor %v outside [%v, %v]", factor, c.MinFactor, c.MaxFactor)
	}
	return nil
}
