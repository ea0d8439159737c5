// ABOUTME: Streaming linear resampler with rate remapping
// ABOUTME: Keeps interpolation state across buffers so chunk boundaries are seamless
package resample

import (
	"math"

	"github.com/econner/cinesnap/pkg/audio"
)

// Resampler performs linear interpolation between input frames.
//
// Output frame k is read from input position k*step, where
// step = factor * inputRate / outputRate. A factor of 1 is plain sample rate
// conversion; other factors additionally change playback speed (and pitch).
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	step       float64

	produced int64   // output frames emitted so far
	base     int64   // absolute input index of prev (or of the next frame when !havePrev)
	prev     []int32 // last frame of the previous chunk
	havePrev bool
	work     []int32
}

// New creates a resampler converting inputRate to outputRate
func New(inputRate, outputRate, channels int) *Resampler {
	return NewVarispeed(inputRate, outputRate, channels, 1.0)
}

// NewVarispeed creates a resampler that also plays the input factor times faster
func NewVarispeed(inputRate, outputRate, channels int, factor float64) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		step:       factor * float64(inputRate) / float64(outputRate),
		prev:       make([]int32, channels),
	}
}

// Resample consumes interleaved input frames and returns the output frames
// that can be fully interpolated so far. The returned slice is only valid
// until the next call.
func (r *Resampler) Resample(input []int32) []int32 {
	inFrames := len(input) / r.channels
	if inFrames == 0 {
		return r.work[:0]
	}

	// v is prev followed by input; offset maps v indices to input indices
	offset := 0
	if r.havePrev {
		offset = 1
	}
	vFrames := inFrames + offset
	frameAt := func(i int) []int32 {
		if i < offset {
			return r.prev
		}
		j := (i - offset) * r.channels
		return input[j : j+r.channels]
	}

	out := r.work[:0]
	for {
		abs := r.position(r.produced)
		whole := math.Floor(abs)
		idx := int(int64(whole) - r.base)
		if idx+1 >= vFrames {
			break
		}
		frac := abs - whole
		a, b := frameAt(idx), frameAt(idx+1)
		for ch := 0; ch < r.channels; ch++ {
			out = append(out, audio.Clamp24(float64(a[ch])*(1.0-frac)+float64(b[ch])*frac))
		}
		r.produced++
	}

	copy(r.prev, frameAt(vFrames-1))
	r.base += int64(vFrames - 1)
	r.havePrev = true
	r.work = out
	return out
}

// Flush emits the output frames that fall between the final input frame and
// the end of the stream, holding the final frame's value.
func (r *Resampler) Flush() []int32 {
	out := r.work[:0]
	if !r.havePrev {
		return out
	}
	for {
		if r.position(r.produced) >= float64(r.base+1) {
			break
		}
		out = append(out, r.prev...)
		r.produced++
	}
	r.work = out
	return out
}

// position returns the absolute input position of output frame k. Positions
// within rounding noise of a whole frame are snapped onto it so that exact
// ratios such as 44100/48000 produce exact lengths.
func (r *Resampler) position(k int64) float64 {
	return snap(float64(k) * r.step)
}

func snap(x float64) float64 {
	if n := math.Round(x); math.Abs(x-n) < 1e-9 {
		return n
	}
	return x
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.produced = 0
	r.base = 0
	r.havePrev = false
	for i := range r.prev {
		r.prev[i] = 0
	}
}

// OutputFrames returns how many frames a complete stream of inputFrames yields
func (r *Resampler) OutputFrames(inputFrames int64) int64 {
	if inputFrames <= 0 {
		return 0
	}
	return int64(math.Ceil(snap(float64(inputFrames) / r.step)))
}

// Remix converts interleaved samples between channel counts.
// Mono fans out to every channel and any layout folds to mono by averaging.
// Other downmixes fold each surplus channel into the front pair according to
// its position in the default WAV/FLAC layout, so no channel is lost.
// Upmixes keep existing channels and repeat them for the new ones.
func Remix(samples []int32, from, to int) []int32 {
	if from == to || from <= 0 || to <= 0 {
		return samples
	}

	frames := len(samples) / from
	out := make([]int32, frames*to)

	var gains [][2]float64
	if from > to && to > 1 {
		gains = foldGains(from)
	}

	for i := 0; i < frames; i++ {
		in := samples[i*from : i*from+from]
		dst := out[i*to : i*to+to]

		switch {
		case to == 1:
			var sum int64
			for _, s := range in {
				sum += int64(s)
			}
			dst[0] = int32(sum / int64(from))

		case gains != nil:
			// beyond stereo the leading channels pass through and only the
			// surplus is folded
			var left, right float64
			first := 0
			if to > 2 {
				copy(dst, in[:to])
				left, right = float64(in[0]), float64(in[1])
				first = to
			}
			for ch := first; ch < from; ch++ {
				left += float64(in[ch]) * gains[ch][0]
				right += float64(in[ch]) * gains[ch][1]
			}
			dst[0] = audio.Clamp24(left)
			dst[1] = audio.Clamp24(right)

		default:
			for ch := range dst {
				dst[ch] = in[ch%from]
			}
		}
	}
	return out
}

// -3 dB
const minus3dB = 0.7071067811865476

type speaker int

const (
	frontLeft speaker = iota
	frontRight
	center
	lfe
	backCenter
	surroundLeft
	surroundRight
)

// layouts lists the default speaker order for each channel count, matching
// the WAVE_FORMAT_EXTENSIBLE and FLAC defaults.
var layouts = map[int][]speaker{
	3: {frontLeft, frontRight, center},
	4: {frontLeft, frontRight, surroundLeft, surroundRight},
	5: {frontLeft, frontRight, center, surroundLeft, surroundRight},
	6: {frontLeft, frontRight, center, lfe, surroundLeft, surroundRight},
	7: {frontLeft, frontRight, center, lfe, backCenter, surroundLeft, surroundRight},
	8: {frontLeft, frontRight, center, lfe, surroundLeft, surroundRight, surroundLeft, surroundRight},
}

// foldGains returns the left and right gain of every source channel
func foldGains(channels int) [][2]float64 {
	gains := make([][2]float64, channels)
	layout, ok := layouts[channels]
	for ch := range gains {
		sp := speaker(ch % 2) // unknown layouts alternate sides
		if ok {
			sp = layout[ch]
		}
		switch sp {
		case frontLeft:
			gains[ch] = [2]float64{1, 0}
		case frontRight:
			gains[ch] = [2]float64{0, 1}
		case center, lfe:
			gains[ch] = [2]float64{minus3dB, minus3dB}
		case backCenter:
			gains[ch] = [2]float64{0.5, 0.5}
		case surroundLeft:
			gains[ch] = [2]float64{minus3dB, 0}
		case surroundRight:
			gains[ch] = [2]float64{0, minus3dB}
		}
	}
	return gains
}
