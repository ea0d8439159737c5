// ABOUTME: AudioSpeedTransformer turning a source track into a time-scaled WAV file
// ABOUTME: Runs a decode producer and an encode consumer joined by an errgroup
package speed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/econner/cinesnap/pkg/audio"
	"github.com/econner/cinesnap/pkg/audio/decode"
	"github.com/econner/cinesnap/pkg/audio/encode"
	"github.com/econner/cinesnap/pkg/audio/resample"
	"github.com/econner/cinesnap/pkg/media"
)

// Result describes a produced file. The caller owns Path and is responsible
// for deleting it.
type Result struct {
	Path           string
	Format         audio.Format
	Frames         int64
	Duration       time.Duration
	SourceDuration time.Duration
	Factor         float64
	Method         Method
}

// Progress is reported after every buffer written
type Progress struct {
	FramesIn       int64
	FramesOut      int64
	TotalFrames    int64 // source length, 0 when unknown
	ExpectedFrames int64 // output length predicted from TotalFrames
}

// File is the writable output handle
type File interface {
	io.Writer
	io.Seeker
	Sync() error
	Close() error
}

// FileSystem creates, renames and removes output files
type FileSystem interface {
	Create(name string) (File, error)
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

type osFS struct{}

func (osFS) Create(name string) (File, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (osFS) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }
func (osFS) Remove(name string) error             { return os.Remove(name) }

// Option configures a Transformer
type Option func(*Transformer)

// WithOpener replaces the media library used to open source tracks
func WithOpener(o media.Opener) Option {
	return func(t *Transformer) { t.opener = o }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithProgress registers a callback invoked from the encoding goroutine
func WithProgress(fn func(Progress)) Option {
	return func(t *Transformer) { t.progress = fn }
}

// WithFileSystem replaces the file system used for output files
func WithFileSystem(fs FileSystem) Option {
	return func(t *Transformer) { t.fs = fs }
}

// Transformer produces time-scaled copies of audio tracks.
// It holds no per-call state and is safe for concurrent use.
type Transformer struct {
	cfg      Config
	opener   media.Opener
	log      *zap.Logger
	progress func(Progress)
	fs       FileSystem
}

// New creates a Transformer. Zero config fields take their defaults.
func New(cfg Config, opts ...Option) (*Transformer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	t := &Transformer{
		cfg:    cfg,
		opener: &media.Library{Channels: cfg.Channels},
		log:    zap.NewNop(),
		fs:     osFS{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Config returns the effective configuration
func (t *Transformer) Config() Config { return t.cfg }

// Transform decodes track, scales its duration by 1/factor and writes the
// result as a new WAV file in the output directory. On failure no output
// file is left behind.
func (t *Transformer) Transform(ctx context.Context, track media.SourceTrack, factor float64) (*Result, error) {
	if err := t.cfg.CheckFactor(factor); err != nil {
		return nil, newError(KindFactorOutOfRange, "validate", "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(KindCancelled, "open", track.Path, err)
	}

	started := time.Now()
	log := t.log.With(
		zap.String("track", track.String()),
		zap.Float64("factor", factor),
		zap.String("method", string(t.cfg.Method)),
	)
	log.Info("transform started")

	reader, err := t.opener.Open(ctx, track, t.cfg.BufferFrames)
	if err != nil {
		return nil, t.openError(ctx, track, err)
	}
	defer reader.Close()

	in := reader.Format()
	if in.SampleRate <= 0 || in.Channels <= 0 {
		return nil, errorf(KindDecode, "open", "source reports %d Hz, %d channels", in.SampleRate, in.Channels)
	}

	out := audio.Format{
		Codec:      audio.CodecPCM,
		SampleRate: t.cfg.SampleRate,
		Channels:   t.cfg.Channels,
		BitDepth:   t.cfg.BitDepth,
	}

	name := "cinesnap-" + uuid.NewString() + ".wav"
	finalPath := filepath.Join(t.cfg.OutputDir, name)
	partialPath := filepath.Join(t.cfg.OutputDir, "."+name+".partial")

	f, err := t.fs.Create(partialPath)
	if err != nil {
		return nil, newError(KindWrite, "create", partialPath, err)
	}
	tf := &trackedFile{File: f}

	committed := false
	defer func() {
		if committed {
			return
		}
		if !tf.closed {
			tf.Close()
		}
		if err := t.fs.Remove(partialPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove partial output", zap.String("path", partialPath), zap.Error(err))
		}
	}()

	wav, err := encode.NewWAVWriter(tf, out)
	if err != nil {
		return nil, t.writeError(tf, "header", partialPath, err)
	}

	sc := newScaler(t.cfg.Method, in.SampleRate, out.SampleRate, out.Channels, factor)
	framesIn, err := t.run(ctx, log, reader, sc, wav, tf, partialPath)
	if err != nil {
		if ctx.Err() != nil {
			err = newError(KindCancelled, "transform", track.Path, ctx.Err())
		}
		log.Info("transform failed", zap.Error(err))
		return nil, err
	}

	if err := wav.Finalize(); err != nil {
		return nil, newError(KindWrite, "finalize", partialPath, err)
	}
	if err := tf.Sync(); err != nil {
		return nil, newError(KindWrite, "sync", partialPath, err)
	}
	if err := tf.Close(); err != nil {
		return nil, newError(KindWrite, "close", partialPath, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(KindCancelled, "transform", track.Path, err)
	}
	if err := t.fs.Rename(partialPath, finalPath); err != nil {
		return nil, newError(KindWrite, "rename", finalPath, err)
	}
	committed = true

	res := &Result{
		Path:           finalPath,
		Format:         out,
		Frames:         wav.Frames(),
		Duration:       out.Duration(wav.Frames()),
		SourceDuration: in.Duration(framesIn),
		Factor:         factor,
		Method:         t.cfg.Method,
	}
	log.Info("transform finished",
		zap.String("path", res.Path),
		zap.Int64("frames", res.Frames),
		zap.Duration("duration", res.Duration),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

// run pumps the reader through the scaler into wav and returns the number of
// source frames consumed.
func (t *Transformer) run(ctx context.Context, log *zap.Logger, reader decode.Reader, sc scaler, wav *encode.WAVWriter, tf *trackedFile, path string) (int64, error) {
	in := reader.Format()
	out := wav.Format()
	total := reader.TotalFrames()
	expected := sc.OutputFrames(total)

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan audio.Buffer, t.cfg.QueueDepth)

	g.Go(func() error {
		defer close(queue)
		for {
			buf, err := reader.Read(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return newError(KindDecode, "decode", "", err)
			}

			channels := buf.Format.Channels
			if channels <= 0 {
				channels = in.Channels
			}
			if len(buf.Samples)%channels != 0 {
				return errorf(KindDecode, "decode", "buffer at frame %d holds a partial frame", buf.Frame)
			}

			remixed := audio.Buffer{
				Frame:   buf.Frame,
				Samples: resample.Remix(buf.Samples, channels, out.Channels),
				Format:  out,
			}
			select {
			case queue <- remixed:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var framesIn int64
	g.Go(func() error {
		write := func(samples []int32) error {
			if len(samples) == 0 {
				return nil
			}
			buf := audio.Buffer{Frame: wav.Frames(), Samples: samples, Format: out}
			if err := wav.Write(buf); err != nil {
				return t.writeError(tf, "write", path, err)
			}
			return nil
		}

		for buf := range queue {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := write(sc.Process(buf.Samples)); err != nil {
				return err
			}
			framesIn += int64(buf.Frames())
			log.Debug("buffer scaled",
				zap.Int64("frame", buf.Frame),
				zap.Int("frames", buf.Frames()),
				zap.Int64("frames_out", wav.Frames()),
			)
			t.report(Progress{FramesIn: framesIn, FramesOut: wav.Frames(), TotalFrames: total, ExpectedFrames: expected})
		}
		if err := gctx.Err(); err != nil {
			return err
		}

		if err := write(sc.Flush()); err != nil {
			return err
		}
		t.report(Progress{FramesIn: framesIn, FramesOut: wav.Frames(), TotalFrames: total, ExpectedFrames: expected})
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return framesIn, nil
}

func (t *Transformer) report(p Progress) {
	if t.progress != nil {
		t.progress(p)
	}
}

func (t *Transformer) openError(ctx context.Context, track media.SourceTrack, err error) error {
	switch {
	case ctx.Err() != nil:
		return newError(KindCancelled, "open", track.Path, ctx.Err())
	case errors.Is(err, media.ErrNoAudioTrack):
		return newError(KindNoAudioTrack, "open", track.Path, err)
	default:
		return newError(KindDecode, "open", track.Path, err)
	}
}

// writeError attributes a writer failure to the file system when the file
// reported one, otherwise to the encoder.
func (t *Transformer) writeError(tf *trackedFile, op, path string, err error) error {
	if tf.err != nil {
		return newError(KindWrite, op, path, err)
	}
	return newError(KindEncode, op, path, err)
}

// trackedFile remembers the last I/O error of the output file
type trackedFile struct {
	File
	err    error
	closed bool
}

func (f *trackedFile) Write(p []byte) (int, error) {
	n, err := f.File.Write(p)
	if err != nil {
		f.err = err
	}
	return n, err
}

func (f *trackedFile) Seek(offset int64, whence int) (int64, error) {
	n, err := f.File.Seek(offset, whence)
	if err != nil {
		f.err = err
	}
	return n, err
}

func (f *trackedFile) Close() error {
	f.closed = true
	return f.File.Close()
}
