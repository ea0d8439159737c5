// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts sample rates, remaps playback speed and remixes channels
// Package resample provides streaming sample rate conversion.
//
// The Resampler keeps its interpolation state between calls, so a stream
// fed in arbitrary chunk sizes produces exactly the same output as the same
// stream fed in one piece. With a speed factor other than 1 it doubles as a
// varispeed: duration divides by the factor and pitch moves with it.
//
// Example:
//
//	r := resample.NewVarispeed(48000, 44100, 2, 2.0)
//	out := r.Resample(in)
//	tail := r.Flush()
package resample
