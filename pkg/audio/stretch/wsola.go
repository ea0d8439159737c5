// ABOUTME: Pitch-preserving time stretcher using WSOLA
// ABOUTME: Streams interleaved int32 frames through waveform-similarity overlap-add
package stretch

import (
	"math"

	"github.com/econner/cinesnap/pkg/audio"
)

// DefaultFrameDuration is the analysis window length in seconds
const DefaultFrameDuration = 0.02

// WSOLA changes duration by factor while keeping pitch.
//
// Output frames are laid down every hop frames with a Hann window at 50%
// overlap. Frame m is read from input near m*hop*factor, shifted by up to
// tolerance frames to best match the waveform that naturally follows the
// previous frame.
type WSOLA struct {
	channels  int
	factor    float64
	frameLen  int
	hop       int
	tolerance int
	window    []float64

	in       []float64 // interleaved input, in[0] is absolute frame inStart
	inStart  int64
	inFrames int64

	acc     []float64 // overlap accumulator for output frames [m*hop, m*hop+frameLen)
	m       int64
	prevA   int64
	emitted int64
	out     []int32
}

// New creates a WSOLA stretcher for the given stream layout
func New(sampleRate, channels int, factor float64) *WSOLA {
	return NewWithFrame(sampleRate, channels, factor, DefaultFrameDuration)
}

// NewWithFrame creates a stretcher with a custom analysis window in seconds
func NewWithFrame(sampleRate, channels int, factor, frameSeconds float64) *WSOLA {
	hop := int(float64(sampleRate) * frameSeconds / 2)
	if hop < 16 {
		hop = 16
	}
	frameLen := hop * 2

	window := make([]float64, frameLen)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(frameLen))
	}

	return &WSOLA{
		channels:  channels,
		factor:    factor,
		frameLen:  frameLen,
		hop:       hop,
		tolerance: hop / 2,
		window:    window,
		acc:       make([]float64, frameLen*channels),
		prevA:     -1,
	}
}

// OutputFrames returns the length of the stretched stream for inputFrames
func (s *WSOLA) OutputFrames(inputFrames int64) int64 {
	if inputFrames <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(inputFrames) / s.factor))
}

// Process consumes interleaved input and returns the output that is final.
// The returned slice is only valid until the next call.
func (s *WSOLA) Process(input []int32) []int32 {
	frames := len(input) / s.channels
	for _, v := range input[:frames*s.channels] {
		s.in = append(s.in, float64(v))
	}
	s.inFrames += int64(frames)

	s.out = s.out[:0]
	s.run(false)
	return s.out
}

// Flush zero-pads the input and returns the remaining output
func (s *WSOLA) Flush() []int32 {
	s.out = s.out[:0]
	s.run(true)
	return s.out
}

func (s *WSOLA) run(final bool) {
	target := s.OutputFrames(s.inFrames)
	hop := int64(s.hop)

	for {
		start := s.m * hop
		if final {
			if start >= target {
				return
			}
		} else if float64(start+hop) > float64(s.inFrames)/s.factor {
			// Emitting this frame could overshoot a stream that ends now
			return
		}

		nominal := int64(math.Round(float64(start) * s.factor))
		lo := nominal - int64(s.tolerance)
		if lo < 0 {
			lo = 0
		}
		hi := nominal + int64(s.tolerance)

		needEnd := hi + int64(s.frameLen)
		if s.prevA >= 0 && s.prevA+hop+int64(s.frameLen) > needEnd {
			needEnd = s.prevA + hop + int64(s.frameLen)
		}
		if !final && needEnd > s.inStart+s.bufferedFrames() {
			return
		}

		a := nominal
		if s.prevA >= 0 {
			a = s.bestOffset(lo, hi, s.prevA+hop)
		}

		s.overlapAdd(a, s.m == 0)
		s.emit(target, final)

		s.prevA = a
		s.m++
		s.trim()
	}
}

// bestOffset picks the candidate in [lo, hi] whose opening overlap region
// correlates best with the natural continuation starting at ref.
func (s *WSOLA) bestOffset(lo, hi, ref int64) int64 {
	overlap := s.frameLen - s.hop
	refMono := make([]float64, overlap)
	for i := range refMono {
		refMono[i] = s.mono(ref + int64(i))
	}

	span := int(hi-lo) + overlap
	cand := make([]float64, span)
	for i := range cand {
		cand[i] = s.mono(lo + int64(i))
	}

	best := lo
	bestScore := math.Inf(-1)
	for off := 0; off <= int(hi-lo); off++ {
		var score float64
		for i, r := range refMono {
			score += cand[off+i] * r
		}
		if score > bestScore {
			bestScore = score
			best = lo + int64(off)
		}
	}
	return best
}

func (s *WSOLA) overlapAdd(a int64, first bool) {
	for i := 0; i < s.frameLen; i++ {
		w := s.window[i]
		if first && i < s.hop {
			w = 1
		}
		for ch := 0; ch < s.channels; ch++ {
			s.acc[i*s.channels+ch] += w * s.sample(a+int64(i), ch)
		}
	}
}

// emit moves the first hop frames of the accumulator to the output
func (s *WSOLA) emit(target int64, final bool) {
	n := int64(s.hop)
	if final && s.emitted+n > target {
		n = target - s.emitted
	}
	for i := 0; i < int(n)*s.channels; i++ {
		s.out = append(s.out, audio.Clamp24(s.acc[i]))
	}
	s.emitted += n

	hopSamples := s.hop * s.channels
	copy(s.acc, s.acc[hopSamples:])
	for i := len(s.acc) - hopSamples; i < len(s.acc); i++ {
		s.acc[i] = 0
	}
}

// trim discards input that no future frame can reach
func (s *WSOLA) trim() {
	keep := int64(math.Round(float64((s.m)*int64(s.hop))*s.factor)) - int64(s.tolerance)
	if cont := s.prevA + int64(s.hop); cont < keep {
		keep = cont
	}
	drop := keep - s.inStart
	if drop <= 0 {
		return
	}
	if buffered := s.bufferedFrames(); drop > buffered {
		drop = buffered
	}
	s.in = append(s.in[:0], s.in[drop*int64(s.channels):]...)
	s.inStart += drop
}

func (s *WSOLA) bufferedFrames() int64 {
	return int64(len(s.in) / s.channels)
}

func (s *WSOLA) sample(frame int64, ch int) float64 {
	i := frame - s.inStart
	if i < 0 || i >= s.bufferedFrames() {
		return 0
	}
	return s.in[i*int64(s.channels)+int64(ch)]
}

func (s *WSOLA) mono(frame int64) float64 {
	var sum float64
	for ch := 0; ch < s.channels; ch++ {
		sum += s.sample(frame, ch)
	}
	return sum
}
