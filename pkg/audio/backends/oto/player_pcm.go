package oto

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

var (
	otoContext       *oto.Context
	otoContextParams types.StreamParams
	otoContextLocker sync.Mutex
)

// `oto` does not allow to initialize a context multiple times, so the first
// stream decides the parameters of the whole process.
func getOtoContext(
	ctx context.Context,
	params types.StreamParams,
	bufferSize time.Duration,
) (*oto.Context, error) {
	otoContextLocker.Lock()
	defer otoContextLocker.Unlock()
	if otoContext != nil {
		if otoContextParams != params {
			return nil, fmt.Errorf("the oto context is already initialized for %s, cannot play %s", otoContextParams, params)
		}
		return otoContext, nil
	}

	var format oto.Format
	switch params.Format {
	case types.PCMFormatU8:
		format = oto.FormatUnsignedInt8
	case types.PCMFormatS16LE:
		format = oto.FormatSignedInt16LE
	default:
		return nil, fmt.Errorf("oto does not support PCM format %s", params.Format)
	}

	logger.Debugf(ctx, "initializing an oto context for %s", params)
	c, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(params.SampleRate),
		ChannelCount: int(params.Channels),
		Format:       format,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to initialize an oto context: %w", err)
	}
	<-readyChan

	otoContext = c
	otoContextParams = params
	return c, nil
}

type PlayerPCM struct{}

var _ types.PlayerPCM = (*PlayerPCM)(nil)

func NewPlayerPCM() *PlayerPCM {
	return &PlayerPCM{}
}

func (p *PlayerPCM) Close() error {
	return nil
}

func (*PlayerPCM) Ping(context.Context) error {
	// do not know how to do that, yet
	return nil
}

func (p *PlayerPCM) PlayPCM(
	ctx context.Context,
	params types.StreamParams,
	bufferSize time.Duration,
	reader io.Reader,
) (types.PlayStream, error) {
	otoCtx, err := getOtoContext(ctx, params, bufferSize)
	if err != nil {
		return nil, err
	}

	player := otoCtx.NewPlayer(reader)
	player.Play()

	return newStream(player), nil
}
