// ABOUTME: Typed transform errors
// ABOUTME: Every failure carries a Kind that sentinels match through errors.Is
package speed

import (
	"fmt"
)

// Kind classifies a transform failure
type Kind int

const (
	KindUnknown Kind = iota
	KindNoAudioTrack
	KindFactorOutOfRange
	KindDecode
	KindEncode
	KindWrite
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNoAudioTrack:
		return "no audio track"
	case KindFactorOutOfRange:
		return "factor out of range"
	case KindDecode:
		return "decode failed"
	case KindEncode:
		return "encode failed"
	case KindWrite:
		return "write failed"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. A *TransformError matches the sentinel of its Kind.
var (
	ErrNoAudioTrack     = &TransformError{Kind: KindNoAudioTrack}
	ErrFactorOutOfRange = &TransformError{Kind: KindFactorOutOfRange}
	ErrDecode           = &TransformError{Kind: KindDecode}
	ErrEncode           = &TransformError{Kind: KindEncode}
	ErrWrite            = &TransformError{Kind: KindWrite}
	ErrCancelled        = &TransformError{Kind: KindCancelled}
)

// TransformError describes why a transform failed
type TransformError struct {
	Kind Kind
	Op   string // pipeline step, e.g. "open", "decode", "rename"
	Path string // file involved, if any
	Err  error
}

func (e *TransformError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error { return e.Err }

// Is matches any *TransformError of the same Kind
func (e *TransformError) Is(target error) bool {
	t, ok := target.(*TransformError)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, op, path string, err error) *TransformError {
	return &TransformError{Kind: kind, Op: op, Path: path, Err: err}
}

func errorf(kind Kind, op, format string, args ...any) *TransformError {
	return newError(kind, op, "", fmt.Errorf(format, args...))
}
