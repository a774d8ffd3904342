// Package capture streams samples from a capture stream into a WAV file whose
// header is computed before the first sample is read.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/jichen-jay/esp32-sound/pkg/wav"
	"github.com/xaionaro-go/datacounter"
)

const (
	// DefaultBufferSize is 16K samples of 16 bits.
	DefaultBufferSize  = 16 * 1024 * 2
	DefaultReadTimeout = time.Second
)

// File is the output file as the pipeline needs it: append-only writes plus
// a seek back to offset 0 for HeaderPolicyRewriteOnAbort.
type File interface {
	io.Writer
	io.Seeker
	io.Closer
}

type CreateFileFunc func(path string) (File, error)

// CreateFile creates (or truncates) the file at path.
func CreateFile(path string) (File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

type Pipeline struct {
	// BufferSize is the capacity of one capture buffer, in bytes; it is
	// rounded down to whole frames.
	BufferSize   int
	ReadTimeout  time.Duration
	HeaderPolicy HeaderPolicy
	Buffering    Buffering
	OnProgress   ProgressFunc
	CreateFile   CreateFileFunc
}

type Result struct {
	Path            string
	TotalBytes      uint64
	WrittenBytes    uint64
	Timeouts        uint64
	HeaderRewritten bool
}

// Complete reports if the payload on disk is exactly the declared target.
func (r Result) Complete() bool {
	return r.WrittenBytes == r.TotalBytes
}

// Run records exactly totalBytes of payload from source into a new file at
// path. On failure the (partial) file is kept on storage; the returned
// Result describes how far the recording progressed.
func (p *Pipeline) Run(
	ctx context.Context,
	source types.CaptureStream,
	path string,
	params types.StreamParams,
	totalBytes uint64,
) (_ret Result, _err error) {
	logger.Debugf(ctx, "Run: %q %s %d", path, params, totalBytes)
	defer func() { logger.Debugf(ctx, "/Run: %q %s %d: %#+v %v", path, params, totalBytes, _ret, _err) }()

	result := Result{
		Path:       path,
		TotalBytes: totalBytes,
	}

	header, err := wav.HeaderFor(params, totalBytes)
	if err != nil {
		return result, ErrInvalidArgument{Err: err}
	}
	bufferSize, err := p.bufferSize(params)
	if err != nil {
		return result, ErrInvalidArgument{Err: err}
	}

	createFile := p.CreateFile
	if createFile == nil {
		createFile = CreateFile
	}
	logger.Infof(ctx, "opening file %q for recording", path)
	file, err := createFile(path)
	if err != nil {
		return result, ErrStorage{Err: fmt.Errorf("unable to create %q: %w", path, err)}
	}

	// from here on every exit goes through finalize
	streamErr := func() error {
		n, err := file.Write(header.Bytes())
		if err != nil {
			return ErrStorage{Err: fmt.Errorf("unable to write the WAV header: %w", err)}
		}
		if n != wav.HeaderSize {
			return ErrStorage{Err: fmt.Errorf("short write of the WAV header: %d != %d", n, wav.HeaderSize)}
		}
		logger.Debugf(ctx, "WAV header written, declaring %d bytes of payload", totalBytes)

		counter := datacounter.NewWriterCounter(file)
		progress := newProgressTracker(p.OnProgress, params.ByteRate(), totalBytes)
		s := &streamer{
			source:      source,
			output:      counter,
			counter:     counter,
			totalBytes:  totalBytes,
			bufferSize:  bufferSize,
			readTimeout: p.readTimeout(),
			progress:    progress,
		}
		defer func() {
			result.WrittenBytes = counter.Count()
			result.Timeouts = s.timeouts
		}()

		logger.Infof(ctx, "starting audio recording of %d bytes (%s buffering, %d bytes per buffer)", totalBytes, p.Buffering, bufferSize)
		switch p.Buffering {
		case BufferingSingle:
			return s.runSingle(ctx)
		case BufferingDouble:
			return s.runDouble(ctx)
		default:
			return ErrInvalidArgument{Err: fmt.Errorf("unknown buffering mode %s", p.Buffering)}
		}
	}()

	return p.finalize(ctx, file, params, result, streamErr)
}

func (p *Pipeline) finalize(
	ctx context.Context,
	file File,
	params types.StreamParams,
	result Result,
	streamErr error,
) (Result, error) {
	if streamErr != nil {
		logger.Errorf(ctx, "recording aborted after %d/%d bytes: %v", result.WrittenBytes, result.TotalBytes, streamErr)
	}

	aborted := result.WrittenBytes > 0 && result.WrittenBytes < result.TotalBytes
	if aborted && p.HeaderPolicy == HeaderPolicyRewriteOnAbort {
		if err := rewriteHeader(file, params, result.WrittenBytes); err != nil {
			logger.Errorf(ctx, "unable to rewrite the WAV header: %v", err)
			if streamErr == nil {
				streamErr = ErrStorage{Err: err}
			}
		} else {
			result.HeaderRewritten = true
			logger.Infof(ctx, "WAV header rewritten to declare %d bytes", result.WrittenBytes)
		}
	}

	if err := file.Close(); err != nil {
		logger.Errorf(ctx, "unable to close %q: %v", result.Path, err)
		if streamErr == nil {
			streamErr = ErrStorage{Err: fmt.Errorf("unable to close %q: %w", result.Path, err)}
		}
	}

	if streamErr != nil {
		return result, streamErr
	}
	logger.Infof(ctx, "recording completed, %d bytes written to %q", result.WrittenBytes, result.Path)
	return result, nil
}

func rewriteHeader(
	file File,
	params types.StreamParams,
	writtenBytes uint64,
) error {
	header, err := wav.HeaderFor(params, writtenBytes)
	if err != nil {
		return err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("unable to seek to the header: %w", err)
	}
	n, err := file.Write(header.Bytes())
	if err != nil {
		return fmt.Errorf("unable to write the header: %w", err)
	}
	if n != wav.HeaderSize {
		return fmt.Errorf("short write of the header: %d != %d", n, wav.HeaderSize)
	}
	return nil
}

func (p *Pipeline) bufferSize(params types.StreamParams) (int, error) {
	size := p.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}
	blockAlign := int(params.BlockAlign())
	if size < blockAlign {
		return 0, fmt.Errorf("buffer of %d bytes cannot hold a single frame of %d bytes", size, blockAlign)
	}
	return size / blockAlign * blockAlign, nil
}

func (p *Pipeline) readTimeout() time.Duration {
	if p.ReadTimeout <= 0 {
		return DefaultReadTimeout
	}
	return p.ReadTimeout
}

type streamer struct {
	source      types.CaptureStream
	output      io.Writer
	counter     *datacounter.WriterCounter
	totalBytes  uint64
	bufferSize  int
	readTimeout time.Duration
	progress    *progressTracker
	timeouts    uint64
}

// chunkSize is the amount of bytes to request when queued bytes are already
// read; it never exceeds what is left to the target.
func (s *streamer) chunkSize(queued uint64) int {
	left := s.totalBytes - queued
	if left < uint64(s.bufferSize) {
		return int(left)
	}
	return s.bufferSize
}

// readChunk retries timeouts (and empty reads) until it gets at least one byte.
func (s *streamer) readChunk(
	ctx context.Context,
	buf []byte,
) (int, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, ErrCapture{Err: fmt.Errorf("recording interrupted: %w", err)}
		}

		logger.Tracef(ctx, "ReadSamples")
		n, err := s.source.ReadSamples(ctx, buf, s.readTimeout)
		logger.Tracef(ctx, "/ReadSamples: %d %v", n, err)
		switch {
		case errors.Is(err, types.ErrTimeout):
			s.timeouts++
			logger.Warnf(ctx, "sample source read timed out after %v (%d timeouts so far), retrying", s.readTimeout, s.timeouts)
			continue
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ErrCapture{Err: fmt.Errorf("recording interrupted: %w", ctxErr)}
			}
			return 0, ErrCapture{Err: fmt.Errorf("unable to read samples: %w", err)}
		case n < 0 || n > len(buf):
			return 0, ErrCapture{Err: fmt.Errorf("the sample source returned %d bytes for a buffer of %d", n, len(buf))}
		case n == 0:
			logger.Debugf(ctx, "the sample source returned no data, retrying")
			continue
		}
		return n, nil
	}
}

func (s *streamer) write(ctx context.Context, data []byte) error {
	logger.Tracef(ctx, "Write")
	n, err := s.output.Write(data)
	logger.Tracef(ctx, "/Write: %d %v", n, err)
	if err != nil {
		return ErrStorage{Err: fmt.Errorf("unable to write audio data: %w", err)}
	}
	if n != len(data) {
		return ErrStorage{Err: fmt.Errorf("short write of audio data: %d != %d", n, len(data))}
	}
	return nil
}

func (s *streamer) runSingle(ctx context.Context) error {
	buf := make([]byte, s.bufferSize)
	for s.counter.Count() < s.totalBytes {
		n, err := s.readChunk(ctx, buf[:s.chunkSize(s.counter.Count())])
		if err != nil {
			return err
		}
		if err := s.write(ctx, buf[:n]); err != nil {
			return err
		}
		s.progress.update(ctx, s.counter.Count())
	}
	return nil
}
