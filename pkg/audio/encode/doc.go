// ABOUTME: Audio encoder package for encoding PCM and writing WAV files
// ABOUTME: Provides Encoder interface, PCM encoder and a streaming WAV writer
// Package encode converts int32 samples (24-bit range) back to bytes.
//
// Supports: PCM (16-bit and 24-bit) and incremental WAV file output.
//
// Example:
//
//	w, err := encode.NewWAVWriter(file, format)
//	err = w.Write(buf)
//	err = w.Finalize()
package encode
