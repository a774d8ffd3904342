package portaudio

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/jichen-jay/esp32-sound/pkg/audio/ringbuffer"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/xaionaro-go/observability"
)

type CaptureStream struct {
	PortAudioStream *portaudio.Stream
	InputBuffer     []byte
	Ring            *ringbuffer.Ring
	CancelFunc      context.CancelFunc
	WaitGroup       sync.WaitGroup
	closeOnce       sync.Once
	closeErr        error
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func newCaptureStream[T any](
	ctx context.Context,
	device *portaudio.DeviceInfo,
	params types.StreamParams,
	period time.Duration,
	ringSize int,
) (*CaptureStream, error) {
	framesPerPeriod := int(period.Seconds() * float64(params.SampleRate))
	if framesPerPeriod <= 0 {
		framesPerPeriod = 1
	}

	var sample T
	buf := make([]T, framesPerPeriod*int(params.Channels))
	logger.Debugf(ctx, "newCaptureStream: %T, %s, %s(%d frames)", sample, params, period, framesPerPeriod)

	streamParams := portaudio.HighLatencyParameters(device, nil)
	streamParams.Input.Channels = int(params.Channels)
	streamParams.Output.Channels = 0
	streamParams.SampleRate = float64(params.SampleRate)
	streamParams.FramesPerBuffer = framesPerPeriod
	stream, err := portaudio.OpenStream(streamParams, buf)
	if err != nil {
		return nil, err
	}

	ptr := unsafe.SliceData(buf)
	bytesBuf := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), len(buf)*int(unsafe.Sizeof(sample)))
	if ringSize < len(bytesBuf) {
		ringSize = len(bytesBuf)
	}

	logger.Debugf(ctx, "input bytes buffer size: %d, ring size: %d", len(bytesBuf), ringSize)
	return &CaptureStream{
		PortAudioStream: stream,
		InputBuffer:     bytesBuf,
		Ring:            ringbuffer.New(ringSize),
	}, nil
}

func (s *CaptureStream) init(
	ctx context.Context,
) error {
	ctx, s.CancelFunc = context.WithCancel(ctx)

	err := s.PortAudioStream.Start()
	if err != nil {
		return fmt.Errorf("unable to start the stream: %w", err)
	}

	s.WaitGroup.Add(1)
	observability.Go(ctx, func() {
		defer s.WaitGroup.Done()
		err := s.readerLoop(ctx)
		s.Ring.Fail(err)
	})
	return nil
}

func (s *CaptureStream) readerLoop(
	ctx context.Context,
) (_ret error) {
	logger.Debugf(ctx, "readerLoop")
	defer func() { logger.Debugf(ctx, "/readerLoop: %v", _ret) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		logger.Tracef(ctx, "Read")
		err := s.PortAudioStream.Read()
		logger.Tracef(ctx, "/Read: %v", err)
		if err != nil {
			return fmt.Errorf("unable to read: %w", err)
		}

		if _, err := s.Ring.Write(s.InputBuffer); err != nil {
			return err
		}
	}
}

func (s *CaptureStream) ReadSamples(
	ctx context.Context,
	buf []byte,
	timeout time.Duration,
) (int, error) {
	return s.Ring.ReadTimeout(ctx, buf, timeout)
}

func (s *CaptureStream) Close() error {
	s.closeOnce.Do(func() {
		if s.CancelFunc != nil {
			s.CancelFunc()
		}
		err := s.PortAudioStream.Abort()
		s.WaitGroup.Wait()
		s.Ring.Close()
		if closeErr := s.PortAudioStream.Close(); err == nil {
			err = closeErr
		}
		s.closeErr = err
	})
	return s.closeErr
}
