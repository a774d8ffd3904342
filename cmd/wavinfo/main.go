package main

import (
	"context"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jichen-jay/esp32-sound/pkg/logging"
	"github.com/jichen-jay/esp32-sound/pkg/wav"
	"github.com/spf13/pflag"
)

func main() {
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	pflag.Parse()

	if pflag.NArg() == 0 {
		panic("expected at least one positional argument: path to a WAV file")
	}

	l, _ := logging.New(logging.Options{Level: loggerLevel})
	ctx := logging.Init(context.Background(), l)
	defer belt.Flush(ctx)

	exitCode := 0
	for _, path := range pflag.Args() {
		fi, err := wav.Inspect(path)
		if err != nil {
			logger.Errorf(ctx, "%v", err)
			exitCode = 1
			continue
		}
		fmt.Printf("%s: %dHz, %d bits, %d channels, %d bytes declared, %d bytes on disk (%.2fs)",
			path, fi.SampleRate, fi.BitsPerSample, fi.Channels, fi.DataSize, fi.PayloadBytes, fi.PayloadSeconds())
		if !fi.Consistent() {
			fmt.Printf(", INCONSISTENT: the header declares %d bytes more than stored", int64(fi.DataSize)-int64(fi.PayloadBytes))
			exitCode = 2
		}
		fmt.Println()
	}
	belt.Flush(ctx)
	os.Exit(exitCode)
}
