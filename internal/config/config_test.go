// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, YAML files, env overrides and validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/econner/cinesnap/pkg/speed"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cinesnap.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	sc := cfg.Speed()
	if sc != speed.DefaultConfig() {
		t.Errorf("expected default speed config, got %+v", sc)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.File != "" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Tools.FFprobe != "ffprobe" {
		t.Errorf("unexpected tool defaults %+v", cfg.Tools)
	}
}

func TestLoadFile(t *testing.T) {
	outDir := t.TempDir()
	path := writeConfig(t, `
transform:
  sample_rate: 48000
  bit_depth: 24
  method: wsola
  output_dir: `+outDir+`
logging:
  level: debug
  file: /var/log/cinesnap/cinesnap.log
  compress: true
tools:
  ffmpeg: /opt/ffmpeg/bin/ffmpeg
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Transform.SampleRate != 48000 || cfg.Transform.BitDepth != 24 {
		t.Errorf("file values not applied: %+v", cfg.Transform)
	}
	if cfg.Speed().Method != speed.MethodWSOLA {
		t.Errorf("expected wsola, got %s", cfg.Speed().Method)
	}
	if cfg.Transform.OutputDir != outDir {
		t.Errorf("expected output dir %s, got %s", outDir, cfg.Transform.OutputDir)
	}
	// Unset keys keep their defaults
	if cfg.Transform.Channels != 2 || cfg.Transform.MaxFactor != 4 {
		t.Errorf("defaults lost: %+v", cfg.Transform)
	}
	if cfg.Tools.FFprobe != "ffprobe" {
		t.Errorf("expected default ffprobe, got %s", cfg.Tools.FFprobe)
	}
	if !cfg.Logging.Compress || cfg.Logging.MaxSizeMB != 10 {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "transform:\n  sample_rate: 48000\n  method: wsola\n")
	t.Setenv("CINESNAP_SAMPLE_RATE", "22050")
	t.Setenv("CINESNAP_MAX_FACTOR", "2.5")
	t.Setenv("CINESNAP_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Transform.SampleRate != 22050 {
		t.Errorf("expected env sample rate 22050, got %d", cfg.Transform.SampleRate)
	}
	if cfg.Transform.MaxFactor != 2.5 {
		t.Errorf("expected env max factor 2.5, got %v", cfg.Transform.MaxFactor)
	}
	if cfg.Transform.Method != "wsola" {
		t.Errorf("expected file method to survive, got %s", cfg.Transform.Method)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected env log level warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("CINESNAP_QUEUE_DEPTH", "deep")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for non-numeric queue depth")
	}
	if !strings.Contains(err.Error(), "CINESNAP_QUEUE_DEPTH") {
		t.Errorf("expected error to name the variable, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "transform: [not, a, map")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:     "invalid bit depth",
			mutate:   func(c *Config) { c.Transform.BitDepth = 32 },
			errorMsg: "transform config: unsupported bit depth: 32",
		},
		{
			name:     "unknown method",
			mutate:   func(c *Config) { c.Transform.Method = "granular" },
			errorMsg: "transform config: unknown method",
		},
		{
			name:     "bad log level",
			mutate:   func(c *Config) { c.Logging.Level = "verbose" },
			errorMsg: "logging config: level must be one of",
		},
		{
			name: "log file without size",
			mutate: func(c *Config) {
				c.Logging.File = "cinesnap.log"
				c.Logging.MaxSizeMB = 0
			},
			errorMsg: "logging config: max_size_mb must be at least 1",
		},
		{
			name:     "missing ffprobe",
			mutate:   func(c *Config) { c.Tools.FFprobe = "" },
			errorMsg: "tools config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errorMsg)
			}
			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
			}
		})
	}
}
