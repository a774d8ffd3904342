package capture

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/observability"
)

type filledBuffer struct {
	idx int
	n   int
}

// runDouble keeps reading into one buffer while the other one is being
// written. Only two buffers ever exist; the reader waits for a free one.
func (s *streamer) runDouble(ctx context.Context) (_err error) {
	logger.Debugf(ctx, "runDouble")
	defer func() { logger.Debugf(ctx, "/runDouble: %v", _err) }()

	var buffers [2][]byte
	freeCh := make(chan int, len(buffers))
	for idx := range buffers {
		buffers[idx] = make([]byte, s.bufferSize)
		freeCh <- idx
	}
	filledCh := make(chan filledBuffer, 1)
	writerDone := make(chan struct{})

	var writeErr error
	observability.Go(ctx, func() {
		defer close(writerDone)
		for filled := range filledCh {
			if err := s.write(ctx, buffers[filled.idx][:filled.n]); err != nil {
				writeErr = err
				return
			}
			s.progress.update(ctx, s.counter.Count())
			freeCh <- filled.idx
		}
	})

	var (
		queued  uint64
		readErr error
	)
loop:
	for queued < s.totalBytes {
		var idx int
		select {
		case idx = <-freeCh:
		case <-writerDone:
			break loop
		}

		n, err := s.readChunk(ctx, buffers[idx][:s.chunkSize(queued)])
		if err != nil {
			readErr = err
			break
		}
		queued += uint64(n)

		select {
		case filledCh <- filledBuffer{idx: idx, n: n}:
		case <-writerDone:
			break loop
		}
	}

	// let the writer flush whatever was already captured
	close(filledCh)
	<-writerDone

	if writeErr != nil {
		return writeErr
	}
	return readErr
}
