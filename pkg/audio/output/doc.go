// ABOUTME: Audio output package for previewing audio
// ABOUTME: Provides Output interface and the oto implementation
// Package output provides audio playback.
//
// Example:
//
//	r, err := decode.NewWAVReader("result.wav", 0)
//	out := output.NewOto(logger)
//	defer out.Close()
//	err = output.Play(ctx, r, out, nil)
package output
