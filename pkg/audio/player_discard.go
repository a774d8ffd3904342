package audio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/datacounter"
)

const PlayerDiscardName = "discard"

// PlayerPCMDiscard consumes the PCM stream without any output device; a
// headless host can still verify a recording streams end to end.
type PlayerPCMDiscard struct{}

var _ PlayerPCM = PlayerPCMDiscard{}

func (PlayerPCMDiscard) Close() error {
	return nil
}

func (PlayerPCMDiscard) Ping(context.Context) error {
	return nil
}

func (PlayerPCMDiscard) PlayPCM(
	ctx context.Context,
	params StreamParams,
	bufferSize time.Duration,
	reader io.Reader,
) (PlayStream, error) {
	return &StreamDiscard{
		ctx:    ctx,
		params: params,
		reader: reader,
		output: datacounter.NewWriterCounter(io.Discard),
	}, nil
}

type StreamDiscard struct {
	ctx    context.Context
	params StreamParams
	reader io.Reader
	output *datacounter.WriterCounter
}

var _ PlayStream = (*StreamDiscard)(nil)

// Drain consumes the rest of the stream.
func (s *StreamDiscard) Drain() error {
	if _, err := io.Copy(s.output, s.reader); err != nil {
		return fmt.Errorf("unable to read the PCM stream: %w", err)
	}
	logger.Debugf(s.ctx, "discarded %d bytes (%.2fs of %s)", s.output.Count(), s.Seconds(), s.params)
	return nil
}

// Consumed is the amount of bytes read from the stream so far.
func (s *StreamDiscard) Consumed() uint64 {
	return s.output.Count()
}

func (s *StreamDiscard) Seconds() float64 {
	byteRate := s.params.ByteRate()
	if byteRate == 0 {
		return 0
	}
	return float64(s.output.Count()) / float64(byteRate)
}

func (*StreamDiscard) Close() error {
	return nil
}
