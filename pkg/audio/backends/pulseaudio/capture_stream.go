package pulseaudio

import (
	"context"
	"fmt"
	"time"

	"github.com/jfreymuth/pulse"
	"github.com/jichen-jay/esp32-sound/pkg/audio/ringbuffer"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

type CaptureStream struct {
	*pulse.RecordStream
	Ring *ringbuffer.Ring
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func newCaptureStream(
	pulseStream *pulse.RecordStream,
	ring *ringbuffer.Ring,
) *CaptureStream {
	return &CaptureStream{
		RecordStream: pulseStream,
		Ring:         ring,
	}
}

func (stream *CaptureStream) ReadSamples(
	ctx context.Context,
	buf []byte,
	timeout time.Duration,
) (int, error) {
	if err := stream.RecordStream.Error(); err != nil {
		stream.Ring.Fail(fmt.Errorf("an error occurred during recording: %w", err))
	}
	return stream.Ring.ReadTimeout(ctx, buf, timeout)
}

func (stream *CaptureStream) Close() (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("got a panic: %v", r)
		}
	}()
	stream.RecordStream.Stop()
	stream.RecordStream.Close()
	stream.Ring.Close()
	return
}
