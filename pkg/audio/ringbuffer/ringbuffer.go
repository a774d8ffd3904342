// Package ringbuffer provides a fixed-capacity byte FIFO between a peripheral
// producer (a driver callback or a polling goroutine) and the capture loop.
package ringbuffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/iamcalledrob/circular"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

var (
	// ErrOverrun means the producer had data the buffer could not hold, so
	// samples were lost and the stream is no longer contiguous.
	ErrOverrun = errors.New("capture buffer overrun")

	ErrClosed = errors.New("capture buffer is closed")
)

type Ring struct {
	locker     sync.Mutex
	buffer     *circular.Buffer
	capacity   int
	buffered   int
	err        error
	progressCh chan struct{}
}

var _ io.Writer = (*Ring)(nil)

// New returns a ring that never holds more than capacity bytes.
func New(capacity int) *Ring {
	return &Ring{
		// one spare byte: the limit is enforced by Write, not by circular.Buffer
		buffer:     circular.NewBuffer(capacity + 1),
		capacity:   capacity,
		progressCh: make(chan struct{}),
	}
}

func (r *Ring) Cap() int {
	return r.capacity
}

func (r *Ring) Len() int {
	r.locker.Lock()
	defer r.locker.Unlock()
	return r.buffered
}

// Write is called by the producer. Either all of p is accepted or the ring
// latches ErrOverrun and stops accepting data.
func (r *Ring) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	if r.buffered+len(p) > r.capacity {
		r.setErrorLocked(fmt.Errorf("%w: %d bytes buffered, %d incoming, capacity %d", ErrOverrun, r.buffered, len(p), r.capacity))
		return 0, r.err
	}
	n, err := r.buffer.Write(p)
	r.buffered += n
	if err != nil || n != len(p) {
		if errors.Is(err, circular.ErrNoSpace) || err == nil {
			err = ErrOverrun
		}
		r.setErrorLocked(fmt.Errorf("unable to write %d bytes (wrote %d): %w", len(p), n, err))
		return n, r.err
	}
	r.notifyLocked()
	return n, nil
}

// Fail latches a producer-side error; it is returned to the reader once the
// already buffered bytes are consumed.
func (r *Ring) Fail(err error) {
	if err == nil {
		return
	}
	r.locker.Lock()
	defer r.locker.Unlock()
	r.setErrorLocked(err)
}

func (r *Ring) Close() error {
	r.Fail(ErrClosed)
	return nil
}

func (r *Ring) setErrorLocked(err error) {
	if r.err != nil {
		return
	}
	r.err = err
	r.notifyLocked()
}

func (r *Ring) notifyLocked() {
	oldCh := r.progressCh
	r.progressCh = make(chan struct{})
	close(oldCh)
}

// ReadTimeout reads up to len(p) bytes, waiting at most timeout for the first
// byte to arrive. It returns types.ErrTimeout if nothing arrived in time.
func (r *Ring) ReadTimeout(
	ctx context.Context,
	p []byte,
	timeout time.Duration,
) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		n, waitCh, err := r.tryRead(p)
		if n > 0 || err != nil {
			return n, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-deadline:
			return 0, types.ErrTimeout
		case <-waitCh:
		}
	}
}

func (r *Ring) tryRead(p []byte) (int, <-chan struct{}, error) {
	r.locker.Lock()
	defer r.locker.Unlock()
	if r.buffered > 0 {
		n, err := r.buffer.Read(p)
		r.buffered -= n
		if err != nil && !errors.Is(err, io.EOF) {
			return n, nil, fmt.Errorf("unable to read from the circular buffer: %w", err)
		}
		if n > 0 {
			return n, nil, nil
		}
	}
	if r.err != nil {
		return 0, nil, r.err
	}
	return 0, r.progressCh, nil
}
