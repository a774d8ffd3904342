package types

import (
	"context"
	"io"
	"time"
)

type PlayerPCM interface {
	io.Closer
	Ping(context.Context) error
	PlayPCM(
		ctx context.Context,
		params StreamParams,
		bufferSize time.Duration,
		reader io.Reader,
	) (PlayStream, error)
}
