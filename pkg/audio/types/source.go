package types

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrTimeout is returned by CaptureStream.ReadSamples when no samples became
// available within the timeout. It is transient: the caller is expected to
// retry the same read.
var ErrTimeout = errors.New("timeout waiting for samples")

// PeripheralConfig is opaque to the capture core; only backends interpret it
// (pins, device names, clock roles and so on).
type PeripheralConfig map[string]string

func (cfg PeripheralConfig) Get(key, defaultValue string) string {
	if v, ok := cfg[key]; ok {
		return v
	}
	return defaultValue
}

// SourcePCM is a driver of an audio input peripheral.
type SourcePCM interface {
	io.Closer
	Ping(context.Context) error
	OpenPCM(
		ctx context.Context,
		params StreamParams,
		cfg PeripheralConfig,
	) (CaptureStream, error)
}

// CaptureStream is an initialized (clocked) peripheral channel.
//
// ReadSamples never returns more than len(buf) bytes, and the bytes returned by
// successive calls are in strict chronological capture order. A returned error
// other than ErrTimeout means the stream is unusable for the rest of the session.
type CaptureStream interface {
	Stream
	ReadSamples(ctx context.Context, buf []byte, timeout time.Duration) (int, error)
}
