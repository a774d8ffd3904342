package capture

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"
)

type Progress struct {
	Seconds      uint64
	TotalSeconds uint64
	WrittenBytes uint64
	TotalBytes   uint64
}

// ProgressFunc is purely observational; it cannot affect the recording.
type ProgressFunc func(context.Context, Progress)

func LogProgress(ctx context.Context, p Progress) {
	logger.Infof(ctx, "recorded %d/%d seconds", p.Seconds, p.TotalSeconds)
}

type progressTracker struct {
	fn          ProgressFunc
	byteRate    uint64
	totalBytes  uint64
	lastSeconds uint64
}

func newProgressTracker(fn ProgressFunc, byteRate, totalBytes uint64) *progressTracker {
	if fn == nil {
		fn = LogProgress
	}
	return &progressTracker{
		fn:         fn,
		byteRate:   byteRate,
		totalBytes: totalBytes,
	}
}

// update emits at most one event per crossed whole-second boundary.
func (t *progressTracker) update(ctx context.Context, writtenBytes uint64) {
	seconds := writtenBytes / t.byteRate
	if seconds <= t.lastSeconds {
		return
	}
	t.lastSeconds = seconds
	t.fn(ctx, Progress{
		Seconds:      seconds,
		TotalSeconds: t.totalBytes / t.byteRate,
		WrittenBytes: writtenBytes,
		TotalBytes:   t.totalBytes,
	})
}
