// Package config holds the parameters of a recording session.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/jichen-jay/esp32-sound/pkg/capture"
	"github.com/jichen-jay/esp32-sound/pkg/wav"
	"gopkg.in/yaml.v3"
)

type Config struct {
	SampleRate               uint32 `yaml:"sample_rate"`
	BitsPerSample            uint16 `yaml:"bits_per_sample"`
	ChannelCount             uint16 `yaml:"channel_count"`
	RecordingDurationSeconds uint32 `yaml:"recording_duration_seconds"`
	OutputFileName           string `yaml:"output_file_name"`

	MountPoint       string `yaml:"mount_point"`
	CreateMountPoint bool   `yaml:"create_mount_point"`

	// Source is the name of the capture backend; empty means the best available one.
	Source     string            `yaml:"source"`
	Peripheral map[string]string `yaml:"peripheral"`

	ReadTimeout  time.Duration        `yaml:"read_timeout"`
	BufferBytes  int                  `yaml:"buffer_bytes"`
	HeaderPolicy capture.HeaderPolicy `yaml:"header_policy"`
	Buffering    capture.Buffering    `yaml:"buffering"`
}

func Default() Config {
	return Config{
		SampleRate:               16000,
		BitsPerSample:            16,
		ChannelCount:             1,
		RecordingDurationSeconds: 10,
		OutputFileName:           "record.wav",
		MountPoint:               "./sdcard",
		Peripheral:               map[string]string{},
		ReadTimeout:              capture.DefaultReadTimeout,
		BufferBytes:              capture.DefaultBufferSize,
		HeaderPolicy:             capture.HeaderPolicyPredeclared,
		Buffering:                capture.BufferingSingle,
	}
}

// Decode overlays the YAML document from r on top of cfg. Unknown keys are
// rejected.
func Decode(r io.Reader, cfg *Config) error {
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	err := d.Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to parse the config: %w", err)
	}
	return nil
}

// LoadFile returns Default() overlaid with the YAML file at path.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read the config file %q: %w", path, err)
	}
	if err := Decode(bytes.NewReader(b), &cfg); err != nil {
		return cfg, fmt.Errorf("config file %q: %w", path, err)
	}
	return cfg, nil
}

func (cfg Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}

func (cfg Config) Validate() error {
	if cfg.SampleRate == 0 {
		return fmt.Errorf("sample_rate must be positive")
	}
	if cfg.ChannelCount == 0 {
		return fmt.Errorf("channel_count must be positive")
	}
	if cfg.BitsPerSample == 0 || cfg.BitsPerSample%8 != 0 || cfg.BitsPerSample > 32 {
		return fmt.Errorf("bits_per_sample must be one of 8, 16, 24 or 32; got %d", cfg.BitsPerSample)
	}
	if cfg.OutputFileName == "" {
		return fmt.Errorf("output_file_name is empty")
	}
	if strings.ContainsAny(cfg.OutputFileName, `/\`) || cfg.OutputFileName == "." || cfg.OutputFileName == ".." {
		return fmt.Errorf("output_file_name %q must be a plain file name", cfg.OutputFileName)
	}
	if cfg.MountPoint == "" {
		return fmt.Errorf("mount_point is empty")
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive")
	}
	params, err := cfg.StreamParams()
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid stream parameters: %w", err)
	}
	if uint64(cfg.BufferBytes) < cfg.BlockAlign() || cfg.BufferBytes <= 0 {
		return fmt.Errorf("buffer_bytes (%d) must hold at least one frame (%d bytes)", cfg.BufferBytes, cfg.BlockAlign())
	}
	if cfg.TotalBytes() > wav.MaxDataSize {
		return fmt.Errorf("%d seconds at %d bytes/s do not fit the 32-bit WAV size fields", cfg.RecordingDurationSeconds, cfg.ByteRate())
	}
	return nil
}

func (cfg Config) BlockAlign() uint64 {
	return uint64(cfg.ChannelCount) * uint64(cfg.BitsPerSample/8)
}

func (cfg Config) ByteRate() uint64 {
	return uint64(cfg.SampleRate) * cfg.BlockAlign()
}

// TotalBytes is the exact payload size of the recording.
func (cfg Config) TotalBytes() uint64 {
	return cfg.ByteRate() * uint64(cfg.RecordingDurationSeconds)
}

func (cfg Config) StreamParams() (types.StreamParams, error) {
	format, err := types.PCMFormatFromBits(cfg.BitsPerSample)
	if err != nil {
		return types.StreamParams{}, err
	}
	return types.StreamParams{
		SampleRate: types.SampleRate(cfg.SampleRate),
		Channels:   types.Channel(cfg.ChannelCount),
		Format:     format,
	}, nil
}

func (cfg Config) PeripheralConfig() types.PeripheralConfig {
	result := types.PeripheralConfig{}
	for k, v := range cfg.Peripheral {
		result[k] = v
	}
	return result
}

func (cfg Config) Pipeline() capture.Pipeline {
	return capture.Pipeline{
		BufferSize:   cfg.BufferBytes,
		ReadTimeout:  cfg.ReadTimeout,
		HeaderPolicy: cfg.HeaderPolicy,
		Buffering:    cfg.Buffering,
	}
}
