package main

import (
	"context"
	"io"
	"os"

	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/jichen-jay/esp32-sound/pkg/audio"
	_ "github.com/jichen-jay/esp32-sound/pkg/audio/backends/oto"
	_ "github.com/jichen-jay/esp32-sound/pkg/audio/backends/pulseaudio"
	"github.com/jichen-jay/esp32-sound/pkg/logging"
	"github.com/jichen-jay/esp32-sound/pkg/wav"
	"github.com/spf13/pflag"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	playerName := pflag.String("player", "", "player backend (empty: the best available one)")
	pflag.Parse()

	if pflag.NArg() != 1 {
		panic("expected exactly one positional argument: path to a PCM WAV file")
	}
	filePath := pflag.Arg(0)

	l, _ := logging.New(logging.Options{Level: loggerLevel})
	ctx := logging.Init(context.Background(), l)
	defer belt.Flush(ctx)

	logger.Infof(ctx, "starting...")
	file, err := os.Open(filePath)
	assertNoError(err)
	defer file.Close()

	info, err := wav.ParseHeader(file)
	assertNoError(err)
	params, err := info.StreamParams()
	assertNoError(err)
	logger.Infof(ctx, "%q: %s, %d bytes declared", filePath, params, info.DataSize)

	// an aborted recording may be shorter than declared; the reader just ends earlier
	payload := io.LimitReader(file, int64(info.DataSize))

	var player *audio.Player
	if *playerName == "" {
		player = audio.NewPlayerAuto(ctx)
	} else {
		player, err = audio.NewPlayerByName(ctx, *playerName)
		assertNoError(err)
	}
	defer player.Close()
	logger.Tracef(ctx, "player.PlayPCM")
	streamPlay, err := player.PlayPCM(ctx, params, audio.BufferSize, payload)
	logger.Tracef(ctx, "/player.PlayPCM: %v", err)
	assertNoError(err)
	logger.Infof(ctx, "started (file -> %s)", player.BackendName)
	assertNoError(streamPlay.Drain())
	assertNoError(streamPlay.Close())
	logger.Infof(ctx, "done")
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
