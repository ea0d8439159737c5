// ABOUTME: Time-scale modification package
// ABOUTME: Provides a streaming WSOLA stretcher that keeps pitch while changing speed
// Package stretch changes the duration of audio without moving its pitch.
//
// WSOLA (waveform-similarity overlap-add) reassembles the input from short
// windowed frames, sliding each frame within a small tolerance so that it
// lines up with the waveform already written. Output length is
// ceil(input/factor) frames.
//
// Example:
//
//	s := stretch.New(44100, 2, 1.5)
//	out := s.Process(in)
//	tail := s.Flush()
package stretch
