package pulseaudio

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jfreymuth/pulse"
	"github.com/jichen-jay/esp32-sound/pkg/audio/ringbuffer"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

// Keys of types.PeripheralConfig understood by this backend.
const (
	ConfigSource      = "source"       // pulse source name; the default source if empty
	ConfigLatency     = "latency"      // requested server-side latency, e.g. "100ms"
	ConfigBufferBytes = "buffer_bytes" // capacity of the ring between pulse and the reader
)

type SourcePCM struct {
	PulseClient *pulse.Client
}

var _ types.SourcePCM = (*SourcePCM)(nil)

func NewSourcePCM() (*SourcePCM, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("unable to open a client to Pulse: %w", err)
	}
	return &SourcePCM{
		PulseClient: c,
	}, nil
}

func (r *SourcePCM) Close() error {
	r.PulseClient.Close()
	return nil
}

func (r *SourcePCM) Ping(context.Context) error {
	_, err := r.PulseClient.DefaultSource()
	return err
}

func (r *SourcePCM) OpenPCM(
	ctx context.Context,
	params types.StreamParams,
	cfg types.PeripheralConfig,
) (_ types.CaptureStream, _err error) {
	logger.Debugf(ctx, "OpenPCM: %s %v", params, cfg)
	defer func() { logger.Debugf(ctx, "/OpenPCM: %s %v: %v", params, cfg, _err) }()

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stream parameters: %w", err)
	}
	format, err := pulseFormat(params.Format)
	if err != nil {
		return nil, err
	}
	chanMap, err := channelMap(params.Channels)
	if err != nil {
		return nil, err
	}

	ringSize := int(params.ByteRate())
	if v, ok := cfg[ConfigBufferBytes]; ok {
		ringSize, err = strconv.Atoi(v)
		if err != nil || ringSize <= 0 {
			return nil, fmt.Errorf("invalid %s %q: %v", ConfigBufferBytes, v, err)
		}
	}
	ring := ringbuffer.New(ringSize)

	opts := []pulse.RecordOption{
		pulse.RecordSampleRate(int(params.SampleRate)),
		pulse.RecordChannels(chanMap),
	}
	if v, ok := cfg[ConfigLatency]; ok {
		latency, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", ConfigLatency, v, err)
		}
		opts = append(opts, pulse.RecordLatency(latency.Seconds()))
	}
	if name := cfg.Get(ConfigSource, ""); name != "" {
		source, err := r.PulseClient.SourceByID(name)
		if err != nil {
			return nil, fmt.Errorf("unable to find source %q: %w", name, err)
		}
		opts = append(opts, pulse.RecordSource(source))
	}

	stream, err := r.PulseClient.NewRecord(&pulseWriter{
		pulseFormat: format,
		Writer:      ring,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize a record stream: %w", err)
	}

	stream.Start()
	if stream.Error() != nil {
		stream.Close()
		return nil, fmt.Errorf("an error occurred during recording: %w", stream.Error())
	}

	return newCaptureStream(stream, ring), nil
}

type pulseWriter struct {
	pulseFormat byte
	io.Writer
}

var _ pulse.Writer = (*pulseWriter)(nil)

func (r pulseWriter) Format() byte {
	return r.pulseFormat
}
