// ABOUTME: Sample packing interface used by container writers
// ABOUTME: Lets the WAV writer stay independent of the sample width
package encode

// Encoder packs interleaved samples into the byte layout a container stores.
// The returned slice may be reused by the next call.
type Encoder interface {
	Encode(samples []int32) ([]byte, error)
	Close() error
}

var _ Encoder = (*PCMEncoder)(nil)
