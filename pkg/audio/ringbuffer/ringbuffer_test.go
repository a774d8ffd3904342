package ringbuffer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing(t *testing.T) {
	ctx := context.Background()

	t.Run("fifo", func(t *testing.T) {
		r := New(16)
		n, err := r.Write([]byte{1, 2, 3, 4})
		require.NoError(t, err)
		require.Equal(t, 4, n)
		n, err = r.Write([]byte{5, 6})
		require.NoError(t, err)
		require.Equal(t, 2, n)
		require.Equal(t, 6, r.Len())

		buf := make([]byte, 3)
		n, err = r.ReadTimeout(ctx, buf, time.Second)
		require.NoError(t, err)
		require.Equal(t, 3, n)
		require.Equal(t, []byte{1, 2, 3}, buf)

		buf = make([]byte, 8)
		n, err = r.ReadTimeout(ctx, buf, time.Second)
		require.NoError(t, err)
		require.Equal(t, 3, n)
		require.Equal(t, []byte{4, 5, 6}, buf[:n])
		require.Equal(t, 0, r.Len())
	})

	t.Run("timeout", func(t *testing.T) {
		r := New(16)
		n, err := r.ReadTimeout(ctx, make([]byte, 4), 10*time.Millisecond)
		require.ErrorIs(t, err, types.ErrTimeout)
		require.Zero(t, n)
	})

	t.Run("wakeup", func(t *testing.T) {
		r := New(16)
		go func() {
			time.Sleep(10 * time.Millisecond)
			_, _ = r.Write([]byte{42})
		}()
		buf := make([]byte, 4)
		n, err := r.ReadTimeout(ctx, buf, 5*time.Second)
		require.NoError(t, err)
		require.Equal(t, 1, n)
		require.Equal(t, byte(42), buf[0])
	})

	t.Run("overrun_after_buffered_data", func(t *testing.T) {
		r := New(4)
		_, err := r.Write([]byte{1, 2, 3})
		require.NoError(t, err)
		_, err = r.Write([]byte{4, 5})
		require.ErrorIs(t, err, ErrOverrun)

		// the bytes captured before the overrun are still delivered
		buf := make([]byte, 8)
		n, err := r.ReadTimeout(ctx, buf, time.Second)
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, buf[:n])

		_, err = r.ReadTimeout(ctx, buf, time.Second)
		require.ErrorIs(t, err, ErrOverrun)
	})

	t.Run("producer_failure", func(t *testing.T) {
		r := New(4)
		r.Fail(errors.New("clock lost"))
		_, err := r.ReadTimeout(ctx, make([]byte, 4), time.Second)
		assert.EqualError(t, err, "clock lost")
	})

	t.Run("closed", func(t *testing.T) {
		r := New(4)
		require.NoError(t, r.Close())
		_, err := r.Write([]byte{1})
		require.ErrorIs(t, err, ErrClosed)
		_, err = r.ReadTimeout(ctx, make([]byte, 4), time.Second)
		require.ErrorIs(t, err, ErrClosed)
	})

	t.Run("canceled", func(t *testing.T) {
		r := New(4)
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.ReadTimeout(ctx, make([]byte, 4), time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})
}
