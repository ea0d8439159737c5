// ABOUTME: Tests for MP3 and FLAC track readers
// ABOUTME: Tests error classification for unreadable compressed sources
package decode

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewMP3Reader_MissingFile(t *testing.T) {
	reader, err := NewMP3Reader(filepath.Join(t.TempDir(), "missing.mp3"), 0)
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
	if reader != nil {
		t.Fatal("expected reader to be nil on error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestNewMP3Reader_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.mp3")
	if err := os.WriteFile(path, []byte("definitely not an mpeg stream"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	_, err := NewMP3Reader(path, 0)
	if err == nil {
		t.Fatal("expected error for garbage input, got nil")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestNewFLACReader_Garbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.flac")
	if err := os.WriteFile(path, []byte("fLaX and then some"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	reader, err := NewFLACReader(path, 0)
	if err == nil {
		t.Fatal("expected error for garbage input, got nil")
	}
	if reader != nil {
		t.Fatal("expected reader to be nil on error")
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}
