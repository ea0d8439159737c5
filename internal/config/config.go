// ABOUTME: Layered configuration for the cinesnap CLI
// ABOUTME: Merges defaults, a YAML file, .env and CINESNAP_* variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/econner/cinesnap/pkg/speed"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CINESNAP_"

// Config is the full CLI configuration as read from YAML
type Config struct {
	Transform TransformConfig `yaml:"transform"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tools     ToolsConfig     `yaml:"tools"`
}

// TransformConfig mirrors speed.Config. Zero values take the speed defaults.
type TransformConfig struct {
	SampleRate   int     `yaml:"sample_rate"`
	Channels     int     `yaml:"channels"`
	BitDepth     int     `yaml:"bit_depth"`
	MinFactor    float64 `yaml:"min_factor"`
	MaxFactor    float64 `yaml:"max_factor"`
	BufferFrames int     `yaml:"buffer_frames"`
	QueueDepth   int     `yaml:"queue_depth"`
	Method       string  `yaml:"method"`
	OutputDir    string  `yaml:"output_dir"`
}

// LoggingConfig controls console verbosity and the optional rotated log file
type LoggingConfig struct {
	Level string `yaml:"level"`

	// File is the rotated JSON log; empty disables it
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ToolsConfig names the ffmpeg and ffprobe binaries
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	d := speed.DefaultConfig()
	return &Config{
		Transform: TransformConfig{
			SampleRate:   d.SampleRate,
			Channels:     d.Channels,
			BitDepth:     d.BitDepth,
			MinFactor:    d.MinFactor,
			MaxFactor:    d.MaxFactor,
			BufferFrames: d.BufferFrames,
			QueueDepth:   d.QueueDepth,
			Method:       string(d.Method),
			OutputDir:    d.OutputDir,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then CINESNAP_* environment variables. A
// .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"METHOD":     &c.Transform.Method,
		"OUTPUT_DIR": &c.Transform.OutputDir,
		"LOG_LEVEL":  &c.Logging.Level,
		"LOG_FILE":   &c.Logging.File,
		"FFMPEG":     &c.Tools.FFmpeg,
		"FFPROBE":    &c.Tools.FFprobe,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"SAMPLE_RATE":   &c.Transform.SampleRate,
		"CHANNELS":      &c.Transform.Channels,
		"BIT_DEPTH":     &c.Transform.BitDepth,
		"BUFFER_FRAMES": &c.Transform.BufferFrames,
		"QUEUE_DEPTH":   &c.Transform.QueueDepth,
	}
	for key, dst := range ints {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"MIN_FACTOR": &c.Transform.MinFactor,
		"MAX_FACTOR": &c.Transform.MaxFactor,
	}
	for key, dst := range floats {
		if v, ok := lookup(EnvPrefix + key); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			*dst = f
		}
	}
	return nil
}

// Validate checks every section and names the failing one
func (c *Config) Validate() error {
	if err := c.Speed().Validate(); err != nil {
		return fmt.Errorf("transform config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if c.Tools.FFmpeg == "" || c.Tools.FFprobe == "" {
		return fmt.Errorf("tools config: ffmpeg and ffprobe cannot be empty")
	}

	return nil
}

// Validate checks the level name and rotation limits
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of debug, info, warn, error, got '%s'", l.Level)
	}

	if l.File != "" && l.MaxSizeMB < 1 {
		return fmt.Errorf("max_size_mb must be at least 1, got %d", l.MaxSizeMB)
	}

	if l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("max_backups and max_age_days cannot be negative")
	}

	return nil
}

// Speed converts the transform section to a speed.Config
func (c *Config) Speed() speed.Config {
	t := c.Transform
	return speed.Config{
		SampleRate:   t.SampleRate,
		Channels:     t.Channels,
		BitDepth:     t.BitDepth,
		MinFactor:    t.MinFactor,
		MaxFactor:    t.MaxFactor,
		BufferFrames: t.BufferFrames,
		QueueDepth:   t.QueueDepth,
		Method:       speed.Method(t.Method),
		OutputDir:    t.OutputDir,
	}
}
