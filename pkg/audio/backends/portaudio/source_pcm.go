package portaudio

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/gordonklaus/portaudio"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

// Keys of types.PeripheralConfig understood by this backend.
const (
	ConfigDevice      = "device"       // input device name; the default input device if empty
	ConfigPeriod      = "period"       // duration of one peripheral DMA-like period, e.g. "100ms"
	ConfigBufferBytes = "buffer_bytes" // capacity of the ring between the driver and the reader
)

const (
	DefaultPeriod = 100 * time.Millisecond
)

type SourcePCM struct{}

var _ types.SourcePCM = (*SourcePCM)(nil)

func NewSourcePCM() (*SourcePCM, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &SourcePCM{}, nil
}

func (*SourcePCM) Close() error {
	return portaudio.Terminate()
}

func (*SourcePCM) Ping(
	ctx context.Context,
) error {
	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return err
	}
	logger.Debugf(ctx, "device info: %#+v", info)

	if devices, err := portaudio.Devices(); err == nil {
		for idx, device := range devices {
			logger.Tracef(ctx, "devices[%d]: %#+v", idx, device)
		}
	}
	return nil
}

func (*SourcePCM) OpenPCM(
	ctx context.Context,
	params types.StreamParams,
	cfg types.PeripheralConfig,
) (_ types.CaptureStream, _err error) {
	logger.Debugf(ctx, "OpenPCM: %s %v", params, cfg)
	defer func() { logger.Debugf(ctx, "/OpenPCM: %s %v: %v", params, cfg, _err) }()

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stream parameters: %w", err)
	}

	period := DefaultPeriod
	if v, ok := cfg[ConfigPeriod]; ok {
		var err error
		period, err = time.ParseDuration(v)
		if err != nil || period <= 0 {
			return nil, fmt.Errorf("invalid %s %q: %v", ConfigPeriod, v, err)
		}
	}

	// one second of audio unless overridden
	ringSize := int(params.ByteRate())
	if v, ok := cfg[ConfigBufferBytes]; ok {
		var err error
		ringSize, err = strconv.Atoi(v)
		if err != nil || ringSize <= 0 {
			return nil, fmt.Errorf("invalid %s %q: %v", ConfigBufferBytes, v, err)
		}
	}

	inputDevice, err := findInputDevice(cfg.Get(ConfigDevice, ""))
	if err != nil {
		return nil, err
	}

	var s *CaptureStream
	switch params.Format {
	case types.PCMFormatU8:
		s, err = newCaptureStream[uint8](ctx, inputDevice, params, period, ringSize)
	case types.PCMFormatS16LE:
		s, err = newCaptureStream[int16](ctx, inputDevice, params, period, ringSize)
	case types.PCMFormatS32LE:
		s, err = newCaptureStream[int32](ctx, inputDevice, params, period, ringSize)
	default:
		return nil, fmt.Errorf("do not know how to start a capture stream for PCM format %s", params.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open the capture stream: %w", err)
	}

	if err := s.init(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("unable to post-initialize the stream: %w", err)
	}
	return s, nil
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("unable to list devices: %w", err)
	}
	for _, device := range devices {
		if device.Name == name && device.MaxInputChannels > 0 {
			return device, nil
		}
	}
	return nil, fmt.Errorf("input device %q not found", name)
}
