// Package logging builds the logger the commands put into their context.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level logger.Level

	// File, if set, receives a copy of the log; it is rotated by size.
	File           string
	FileMaxSizeMB  int
	FileMaxBackups int

	// Output defaults to os.Stderr.
	Output io.Writer
}

// New returns the logger and a closer of the log file (a no-op if there is none).
func New(opts Options) (logger.Logger, io.Closer) {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.FileMaxSizeMB,
			MaxBackups: opts.FileMaxBackups,
		}
		output = io.MultiWriter(output, rotator)
		closer = rotator
	}

	ll := xlogrus.DefaultLogrusLogger()
	ll.SetOutput(output)
	ll.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		// plain text in the log file
		DisableColors: opts.File != "",
	})
	return xlogrus.New(ll).WithLevel(opts.Level), closer
}

// Init installs l as the default logger and returns a context carrying it.
func Init(ctx context.Context, l logger.Logger) context.Context {
	logger.Default = func() logger.Logger {
		return l
	}
	return logger.CtxWithLogger(ctx, l)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
