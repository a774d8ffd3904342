package synthetic

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/stretchr/testify/require"
)

func openStream(t *testing.T, cfg types.PeripheralConfig) *CaptureStream {
	params := types.StreamParams{
		SampleRate: 16000,
		Channels:   1,
		Format:     types.PCMFormatS16LE,
	}
	s, err := NewSourcePCM().OpenPCM(context.Background(), params, cfg)
	require.NoError(t, err)
	return s.(*CaptureStream)
}

func TestCaptureStreamRamp(t *testing.T) {
	s := openStream(t, types.PeripheralConfig{
		ConfigWaveform: "ramp",
		ConfigPaced:    "false",
	})

	// odd-sized reads must still produce a contiguous stream
	var all []byte
	for _, size := range []int{3, 5, 1, 7, 8} {
		buf := make([]byte, size)
		n, err := s.ReadSamples(context.Background(), buf, time.Second)
		require.NoError(t, err)
		require.Equal(t, size, n)
		all = append(all, buf...)
	}
	require.Len(t, all, 24)
	for frame := 0; frame < 12; frame++ {
		require.Equal(t, uint16(frame), binary.LittleEndian.Uint16(all[frame*2:]))
	}
	require.Equal(t, uint64(24), s.Position())
}

func TestCaptureStreamFailAfterBytes(t *testing.T) {
	s := openStream(t, types.PeripheralConfig{
		ConfigPaced:          "false",
		ConfigFailAfterBytes: "10",
	})
	buf := make([]byte, 8)
	n, err := s.ReadSamples(context.Background(), buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	n, err = s.ReadSamples(context.Background(), buf, time.Second)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = s.ReadSamples(context.Background(), buf, time.Second)
	require.Error(t, err)
}

func TestCaptureStreamPaced(t *testing.T) {
	s := openStream(t, types.PeripheralConfig{})

	// 16000Hz mono s16 is 32 bytes per millisecond
	buf := make([]byte, 32000)
	n, err := s.ReadSamples(context.Background(), buf, time.Second)
	require.NoError(t, err)
	require.Greater(t, n, 0)
	require.Less(t, n, len(buf))
	require.Zero(t, n%2)
}

func TestOpenPCMInvalidConfig(t *testing.T) {
	params := types.StreamParams{SampleRate: 16000, Channels: 1, Format: types.PCMFormatS16LE}
	_, err := NewSourcePCM().OpenPCM(context.Background(), params, types.PeripheralConfig{ConfigWaveform: "square"})
	require.Error(t, err)
	_, err = NewSourcePCM().OpenPCM(context.Background(), params, types.PeripheralConfig{ConfigFrequency: "-1"})
	require.Error(t, err)
	_, err = NewSourcePCM().OpenPCM(context.Background(), types.StreamParams{}, nil)
	require.Error(t, err)
}
