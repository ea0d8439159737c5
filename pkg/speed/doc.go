// ABOUTME: Public entry point for speed-changing audio tracks
// ABOUTME: Documents the Transformer API and its error kinds
// Package speed produces time-scaled copies of audio tracks.
//
// A Transformer opens a fresh reader for the requested track, scales the
// stream by the given factor and writes the result to a new WAV file in the
// configured output directory. Factors above 1 play faster and shorten the
// track; factors below 1 slow it down.
//
// Example:
//
//	tr, err := speed.New(speed.DefaultConfig(), speed.WithLogger(log))
//	res, err := tr.Transform(ctx, media.SourceTrack{Path: "clip.mov"}, 2.0)
//	defer os.Remove(res.Path)
//
// Failures are *TransformError values whose Kind can be tested with
// errors.Is against ErrNoAudioTrack, ErrFactorOutOfRange, ErrDecode,
// ErrEncode, ErrWrite and ErrCancelled. A failed or cancelled transform
// leaves nothing in the output directory.
package speed
