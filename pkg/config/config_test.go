package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/jichen-jay/esp32-sound/pkg/capture"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, uint64(32000), cfg.ByteRate())
	require.Equal(t, uint64(320000), cfg.TotalBytes())

	params, err := cfg.StreamParams()
	require.NoError(t, err)
	require.Equal(t, types.StreamParams{SampleRate: 16000, Channels: 1, Format: types.PCMFormatS16LE}, params)
	require.Equal(t, cfg.TotalBytes(), params.TotalBytes(cfg.RecordingDurationSeconds))
}

func TestDecode(t *testing.T) {
	cfg := Default()
	err := Decode(strings.NewReader(`
sample_rate: 44100
channel_count: 2
read_timeout: 250ms
header_policy: rewrite-on-abort
buffering: double
peripheral:
  device: hw:1
`), &cfg)
	require.NoError(t, err)
	require.Equal(t, uint32(44100), cfg.SampleRate)
	require.Equal(t, uint16(2), cfg.ChannelCount)
	require.Equal(t, uint16(16), cfg.BitsPerSample)
	require.Equal(t, 250*time.Millisecond, cfg.ReadTimeout)
	require.Equal(t, capture.HeaderPolicyRewriteOnAbort, cfg.HeaderPolicy)
	require.Equal(t, capture.BufferingDouble, cfg.Buffering)
	require.Equal(t, "hw:1", cfg.PeripheralConfig().Get("device", ""))

	t.Run("unknown_key", func(t *testing.T) {
		cfg := Default()
		require.Error(t, Decode(strings.NewReader("sample_rat: 8000\n"), &cfg))
	})
	t.Run("bad_policy", func(t *testing.T) {
		cfg := Default()
		require.Error(t, Decode(strings.NewReader("header_policy: sometimes\n"), &cfg))
	})
	t.Run("empty", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, Decode(strings.NewReader(""), &cfg))
		require.Equal(t, Default(), cfg)
	})
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Buffering = capture.BufferingDouble
	cfg.Peripheral["waveform"] = "ramp"
	b, err := cfg.Marshal()
	require.NoError(t, err)

	decoded := Default()
	require.NoError(t, Decode(strings.NewReader(string(b)), &decoded))
	require.Equal(t, cfg, decoded)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"zero_rate":      func(c *Config) { c.SampleRate = 0 },
		"zero_channels":  func(c *Config) { c.ChannelCount = 0 },
		"odd_bits":       func(c *Config) { c.BitsPerSample = 12 },
		"too_many_bits":  func(c *Config) { c.BitsPerSample = 64 },
		"no_file_name":   func(c *Config) { c.OutputFileName = "" },
		"nested_file":    func(c *Config) { c.OutputFileName = "a/record.wav" },
		"no_mount_point": func(c *Config) { c.MountPoint = "" },
		"zero_timeout":   func(c *Config) { c.ReadTimeout = 0 },
		"tiny_buffer":    func(c *Config) { c.BufferBytes = 1 },
		"byte_rate_overflow": func(c *Config) {
			c.SampleRate = 1 << 30
			c.BitsPerSample = 32
		},
		"block_align_overflow": func(c *Config) {
			c.ChannelCount = 20000
			c.BitsPerSample = 32
			c.BufferBytes = 1 << 20
		},
		"too_long": func(c *Config) {
			c.SampleRate = 192000
			c.ChannelCount = 8
			c.BitsPerSample = 32
			c.RecordingDurationSeconds = 3600
		},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.RecordingDurationSeconds = 0
	require.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.SampleRate = 1 << 30
	cfg.BitsPerSample = 32
	require.Equal(t, uint64(1<<32), cfg.ByteRate())
	require.Equal(t, uint64(10)<<32, cfg.TotalBytes())
}

func TestFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_rate: 8000\nrecording_duration_seconds: 3\nsource: synthetic\n"), 0644))

	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := AddFlags(flagSet)
	require.NoError(t, flagSet.Parse([]string{
		"--config", path,
		"--duration", "5",
		"--peripheral", "waveform=ramp,paced=false",
		"--buffering", "double",
	}))

	cfg, err := flags.Config()
	require.NoError(t, err)
	// from the file
	require.Equal(t, uint32(8000), cfg.SampleRate)
	require.Equal(t, "synthetic", cfg.Source)
	// explicitly set flags win over the file
	require.Equal(t, uint32(5), cfg.RecordingDurationSeconds)
	require.Equal(t, capture.BufferingDouble, cfg.Buffering)
	require.Equal(t, map[string]string{"waveform": "ramp", "paced": "false"}, cfg.Peripheral)
	// untouched
	require.Equal(t, "record.wav", cfg.OutputFileName)

	t.Run("invalid", func(t *testing.T) {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags := AddFlags(flagSet)
		require.NoError(t, flagSet.Parse([]string{"--bits-per-sample", "7"}))
		_, err := flags.Config()
		require.Error(t, err)
	})

	t.Run("bad_enum", func(t *testing.T) {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		AddFlags(flagSet)
		require.Error(t, flagSet.Parse([]string{"--header-policy", "never"}))
	})
}
