package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamParamsValidate(t *testing.T) {
	mono16k := StreamParams{SampleRate: 16000, Channels: 1, Format: PCMFormatS16LE}
	require.NoError(t, mono16k.Validate())
	require.Equal(t, uint64(2), mono16k.BlockAlign())
	require.Equal(t, uint64(32000), mono16k.ByteRate())
	require.Equal(t, uint64(320000), mono16k.TotalBytes(10))

	for _, tc := range []struct {
		name   string
		params StreamParams
	}{
		{"zero_rate", StreamParams{Channels: 1, Format: PCMFormatS16LE}},
		{"zero_channels", StreamParams{SampleRate: 16000, Format: PCMFormatS16LE}},
		{"undefined_format", StreamParams{SampleRate: 16000, Channels: 1}},
		{"byte_rate_overflow", StreamParams{SampleRate: 1 << 30, Channels: 1, Format: PCMFormatS32LE}},
		{"block_align_overflow", StreamParams{SampleRate: 8000, Channels: 20000, Format: PCMFormatS32LE}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, tc.params.Validate())
		})
	}

	// computed without wrapping even when invalid
	huge := StreamParams{SampleRate: 1 << 30, Channels: 1, Format: PCMFormatS32LE}
	require.Equal(t, uint64(1<<32), huge.ByteRate())
}
