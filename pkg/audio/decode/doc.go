// ABOUTME: Audio decoder package for sequential track reading
// ABOUTME: Provides Reader interface and implementations for WAV, MP3, FLAC, raw PCM, tones
// Package decode turns an audio track into a lazy sequence of sample buffers.
//
// Supports: WAV (16/24-bit PCM), MP3 (go-mp3), FLAC (mewkiz/flac) and raw
// interleaved PCM streams such as ffmpeg's s16le output. ToneReader
// synthesizes a reference sine wave.
//
// Every Reader yields int32 samples in 24-bit range with contiguous frame
// offsets and returns io.EOF when the track is exhausted.
//
// Example:
//
//	r, err := decode.NewWAVReader("take1.wav", decode.DefaultBufferFrames)
//	defer r.Close()
//	for {
//	    buf, err := r.Read(ctx)
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	}
package decode
