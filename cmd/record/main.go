package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jichen-jay/esp32-sound/pkg/audio"
	_ "github.com/jichen-jay/esp32-sound/pkg/audio/backends/portaudio"
	_ "github.com/jichen-jay/esp32-sound/pkg/audio/backends/pulseaudio"
	_ "github.com/jichen-jay/esp32-sound/pkg/audio/backends/synthetic"
	"github.com/jichen-jay/esp32-sound/pkg/config"
	"github.com/jichen-jay/esp32-sound/pkg/logging"
	"github.com/jichen-jay/esp32-sound/pkg/session"
	"github.com/jichen-jay/esp32-sound/pkg/storage"
	"github.com/jichen-jay/esp32-sound/pkg/wav"
	"github.com/spf13/pflag"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	logFile := pflag.String("log-file", "", "also write the log to this file (rotated)")
	listSources := pflag.Bool("list-sources", false, "print the known capture backends and exit")
	flags := config.AddFlags(pflag.CommandLine)
	pflag.Parse()

	l, logCloser := logging.New(logging.Options{
		Level:          loggerLevel,
		File:           *logFile,
		FileMaxSizeMB:  10,
		FileMaxBackups: 3,
	})
	defer logCloser.Close()
	ctx := logging.Init(context.Background(), l)
	defer belt.Flush(ctx)

	if *listSources {
		for _, name := range audio.SourceBackendNames() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := flags.Config()
	assertNoError(err)
	params, err := cfg.StreamParams()
	assertNoError(err)

	ctx, cancelFn := signal.NotifyContext(ctx, os.Interrupt)
	defer cancelFn()

	mount := storage.NewDirectory(cfg.MountPoint, cfg.CreateMountPoint)
	mount.RequiredBytes = wav.HeaderSize + cfg.TotalBytes()

	controller := &session.Controller{
		Storage:         mount,
		OpenSource:      session.SourceFromRegistry(cfg.Source),
		Params:          params,
		DurationSeconds: cfg.RecordingDurationSeconds,
		FileName:        cfg.OutputFileName,
		Peripheral:      cfg.PeripheralConfig(),
		Pipeline:        cfg.Pipeline(),
	}

	logger.Infof(ctx, "starting...")
	report := controller.Run(ctx)
	fmt.Println(report)
	if report.Failed() {
		belt.Flush(ctx)
		os.Exit(1)
	}
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
