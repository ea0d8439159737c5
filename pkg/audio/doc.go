// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides the sample representation shared by every stage of
// the speed transformation pipeline.
//
// Decoded audio always travels as interleaved int32 samples in 24-bit range,
// regardless of the source bit depth:
//   - Format: codec, sample rate, channels, bit depth of a stream
//   - Buffer: a contiguous run of frames stamped with its timeline offset
//
// Conversion helpers move between that representation and packed
// 16-bit or 24-bit PCM.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      audio.CodecPCM,
//	    SampleRate: 44100,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	sample24 := audio.SampleFromInt16(sample16)
package audio
