package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flags binds a Config to command line flags. Only flags that were
// explicitly set override the config file.
type Flags struct {
	flagSet    *pflag.FlagSet
	configPath string
	values     Config
	overrides  map[string]func(*Config)
}

func AddFlags(flagSet *pflag.FlagSet) *Flags {
	f := &Flags{
		flagSet:   flagSet,
		values:    Default(),
		overrides: map[string]func(*Config){},
	}
	v := &f.values

	flagSet.StringVar(&f.configPath, "config", "", "path to a YAML config file")

	flagSet.Uint32Var(&v.SampleRate, "sample-rate", v.SampleRate, "sample rate, in Hz")
	f.override("sample-rate", func(cfg *Config) { cfg.SampleRate = v.SampleRate })
	flagSet.Uint16Var(&v.BitsPerSample, "bits-per-sample", v.BitsPerSample, "bits per sample (8, 16, 24 or 32)")
	f.override("bits-per-sample", func(cfg *Config) { cfg.BitsPerSample = v.BitsPerSample })
	flagSet.Uint16Var(&v.ChannelCount, "channels", v.ChannelCount, "channel count")
	f.override("channels", func(cfg *Config) { cfg.ChannelCount = v.ChannelCount })
	flagSet.Uint32Var(&v.RecordingDurationSeconds, "duration", v.RecordingDurationSeconds, "recording duration, in seconds")
	f.override("duration", func(cfg *Config) { cfg.RecordingDurationSeconds = v.RecordingDurationSeconds })
	flagSet.StringVar(&v.OutputFileName, "output", v.OutputFileName, "output file name, relative to the mount point")
	f.override("output", func(cfg *Config) { cfg.OutputFileName = v.OutputFileName })

	flagSet.StringVar(&v.MountPoint, "mount-point", v.MountPoint, "directory the storage is mounted at")
	f.override("mount-point", func(cfg *Config) { cfg.MountPoint = v.MountPoint })
	flagSet.BoolVar(&v.CreateMountPoint, "create-mount-point", v.CreateMountPoint, "create the mount point if it does not exist")
	f.override("create-mount-point", func(cfg *Config) { cfg.CreateMountPoint = v.CreateMountPoint })

	flagSet.StringVar(&v.Source, "source", v.Source, "capture backend (empty: the best available one)")
	f.override("source", func(cfg *Config) { cfg.Source = v.Source })
	flagSet.StringToStringVar(&v.Peripheral, "peripheral", nil, "peripheral options, key=value")
	f.override("peripheral", func(cfg *Config) {
		if cfg.Peripheral == nil {
			cfg.Peripheral = map[string]string{}
		}
		for k, val := range v.Peripheral {
			cfg.Peripheral[k] = val
		}
	})

	flagSet.DurationVar(&v.ReadTimeout, "read-timeout", v.ReadTimeout, "timeout of a single read from the peripheral")
	f.override("read-timeout", func(cfg *Config) { cfg.ReadTimeout = v.ReadTimeout })
	flagSet.IntVar(&v.BufferBytes, "buffer-bytes", v.BufferBytes, "capture buffer capacity, in bytes")
	f.override("buffer-bytes", func(cfg *Config) { cfg.BufferBytes = v.BufferBytes })
	flagSet.Var(&v.HeaderPolicy, "header-policy", "what to do with the WAV header of an aborted recording: predeclared or rewrite-on-abort")
	f.override("header-policy", func(cfg *Config) { cfg.HeaderPolicy = v.HeaderPolicy })
	flagSet.Var(&v.Buffering, "buffering", "single or double")
	f.override("buffering", func(cfg *Config) { cfg.Buffering = v.Buffering })

	return f
}

func (f *Flags) override(name string, apply func(*Config)) {
	f.overrides[name] = apply
}

// Config returns the defaults overlaid with the --config file (if any) and
// then with the explicitly set flags. The result is validated.
func (f *Flags) Config() (Config, error) {
	cfg := Default()
	if f.configPath != "" {
		var err error
		cfg, err = LoadFile(f.configPath)
		if err != nil {
			return cfg, err
		}
	}

	f.flagSet.Visit(func(flag *pflag.Flag) {
		if apply, ok := f.overrides[flag.Name]; ok {
			apply(&cfg)
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
