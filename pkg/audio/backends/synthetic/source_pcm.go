// Package synthetic is a capture backend that generates a deterministic
// signal instead of reading a microphone. It is used for bring-up without
// hardware and for rehearsing the failure paths of a recording session.
package synthetic

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

// Keys of types.PeripheralConfig understood by this backend.
const (
	ConfigWaveform       = "waveform"         // "sine" (default), "ramp" or "silence"
	ConfigFrequency      = "frequency"        // Hz, for "sine"
	ConfigPaced          = "paced"            // "true" (default): deliver at the sample rate
	ConfigFailAfterBytes = "fail_after_bytes" // simulate a peripheral fault after this many bytes
)

type Waveform string

const (
	WaveformSine    = Waveform("sine")
	WaveformRamp    = Waveform("ramp")
	WaveformSilence = Waveform("silence")
)

type SourcePCM struct{}

var _ types.SourcePCM = (*SourcePCM)(nil)

func NewSourcePCM() *SourcePCM {
	return &SourcePCM{}
}

func (*SourcePCM) Close() error {
	return nil
}

func (*SourcePCM) Ping(context.Context) error {
	return nil
}

func (*SourcePCM) OpenPCM(
	ctx context.Context,
	params types.StreamParams,
	cfg types.PeripheralConfig,
) (types.CaptureStream, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stream parameters: %w", err)
	}

	s := &CaptureStream{
		Params:    params,
		Waveform:  Waveform(cfg.Get(ConfigWaveform, string(WaveformSine))),
		Frequency: 440,
		Paced:     true,
		startedAt: time.Now(),
	}
	switch s.Waveform {
	case WaveformSine, WaveformRamp, WaveformSilence:
	default:
		return nil, fmt.Errorf("unknown waveform %q", s.Waveform)
	}

	var err error
	if v, ok := cfg[ConfigFrequency]; ok {
		if s.Frequency, err = strconv.ParseFloat(v, 64); err != nil || s.Frequency <= 0 {
			return nil, fmt.Errorf("invalid %s %q: %v", ConfigFrequency, v, err)
		}
	}
	if v, ok := cfg[ConfigPaced]; ok {
		if s.Paced, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", ConfigPaced, v, err)
		}
	}
	if v, ok := cfg[ConfigFailAfterBytes]; ok {
		if s.FailAfterBytes, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", ConfigFailAfterBytes, v, err)
		}
	}

	logger.Debugf(ctx, "synthetic capture stream: %s, waveform:%s, frequency:%v, paced:%v, fail_after_bytes:%d",
		params, s.Waveform, s.Frequency, s.Paced, s.FailAfterBytes)
	return s, nil
}

type CaptureStream struct {
	Params         types.StreamParams
	Waveform       Waveform
	Frequency      float64
	Paced          bool
	FailAfterBytes uint64

	startedAt time.Time
	position  uint64
	closed    bool
}

var _ types.CaptureStream = (*CaptureStream)(nil)

func (s *CaptureStream) Close() error {
	s.closed = true
	return nil
}

// Position is the amount of bytes delivered so far.
func (s *CaptureStream) Position() uint64 {
	return s.position
}

func (s *CaptureStream) ReadSamples(
	ctx context.Context,
	buf []byte,
	timeout time.Duration,
) (int, error) {
	if s.closed {
		return 0, fmt.Errorf("the stream is closed")
	}
	if s.FailAfterBytes > 0 && s.position >= s.FailAfterBytes {
		return 0, fmt.Errorf("synthetic peripheral fault after %d bytes", s.position)
	}

	limit := uint64(len(buf))
	if s.FailAfterBytes > 0 && s.position+limit > s.FailAfterBytes {
		limit = s.FailAfterBytes - s.position
	}

	if s.Paced {
		available, err := s.waitAvailable(ctx, timeout)
		if err != nil {
			return 0, err
		}
		if available < limit {
			limit = available
		}
	}

	for idx := uint64(0); idx < limit; idx++ {
		buf[idx] = s.byteAt(s.position + idx)
	}
	s.position += limit
	return int(limit), nil
}

// waitAvailable blocks until at least one whole frame was "captured" since the
// last read, or until the timeout passes.
func (s *CaptureStream) waitAvailable(
	ctx context.Context,
	timeout time.Duration,
) (uint64, error) {
	blockAlign := s.Params.BlockAlign()
	byteRate := float64(s.Params.ByteRate())
	nextFrameEnd := (s.position/blockAlign + 1) * blockAlign
	readyAt := s.startedAt.Add(time.Duration(float64(nextFrameEnd) / byteRate * float64(time.Second)))

	wait := time.Until(readyAt)
	if wait > 0 {
		if timeout > 0 && wait > timeout {
			if err := sleep(ctx, timeout); err != nil {
				return 0, err
			}
			return 0, types.ErrTimeout
		}
		if err := sleep(ctx, wait); err != nil {
			return 0, err
		}
	}

	produced := uint64(time.Since(s.startedAt).Seconds()*byteRate) / blockAlign * blockAlign
	if produced <= s.position {
		return 0, types.ErrTimeout
	}
	return produced - s.position, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *CaptureStream) byteAt(offset uint64) byte {
	blockAlign := s.Params.BlockAlign()
	sampleSize := uint64(s.Params.Format.Size())
	frame := offset / blockAlign
	byteIdx := offset % blockAlign % sampleSize

	var raw uint64
	switch s.Waveform {
	case WaveformSilence:
		raw = encodeSigned(s.Params.Format, 0)
	case WaveformRamp:
		raw = frame
	default:
		fullScale := float64(uint64(1)<<(s.Params.Format.Size()*8-1) - 1)
		phase := 2 * math.Pi * s.Frequency * float64(frame) / float64(s.Params.SampleRate)
		raw = encodeSigned(s.Params.Format, int64(math.Round(fullScale*0.5*math.Sin(phase))))
	}
	return byte(raw >> (8 * byteIdx))
}

func encodeSigned(format types.PCMFormat, v int64) uint64 {
	if format == types.PCMFormatU8 {
		return uint64(v + 128)
	}
	return uint64(v)
}
