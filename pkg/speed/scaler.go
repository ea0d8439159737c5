// ABOUTME: Time-scaling stages behind a common streaming interface
// ABOUTME: Varispeed resampling or rate conversion followed by WSOLA
package speed

import (
	"github.com/econner/cinesnap/pkg/audio/resample"
	"github.com/econner/cinesnap/pkg/audio/stretch"
)

// scaler turns a canonical-channel input stream into the scaled output stream.
// Returned slices are only valid until the next call.
type scaler interface {
	Process(samples []int32) []int32
	Flush() []int32
	OutputFrames(inputFrames int64) int64
}

func newScaler(method Method, inRate, outRate, channels int, factor float64) scaler {
	if method == MethodWSOLA {
		return &wsolaScaler{
			rate:    resample.New(inRate, outRate, channels),
			stretch: stretch.New(outRate, channels, factor),
		}
	}
	return varispeedScaler{resample.NewVarispeed(inRate, outRate, channels, factor)}
}

type varispeedScaler struct {
	*resample.Resampler
}

func (v varispeedScaler) Process(samples []int32) []int32 {
	return v.Resample(samples)
}

// wsolaScaler converts to the output rate first so the stretcher's window is
// sized in output frames.
type wsolaScaler struct {
	rate    *resample.Resampler
	stretch *stretch.WSOLA
	tail    []int32
}

func (w *wsolaScaler) Process(samples []int32) []int32 {
	return w.stretch.Process(w.rate.Resample(samples))
}

func (w *wsolaScaler) Flush() []int32 {
	w.tail = append(w.tail[:0], w.stretch.Process(w.rate.Flush())...)
	w.tail = append(w.tail, w.stretch.Flush()...)
	return w.tail
}

func (w *wsolaScaler) OutputFrames(inputFrames int64) int64 {
	return w.stretch.OutputFrames(w.rate.OutputFrames(inputFrames))
}
