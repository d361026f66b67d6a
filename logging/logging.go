// Package logging builds the zap loggers used by the austerus tools.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level maps a -v count to a log level: warn by default, info at 1 and
// debug from 2.
func Level(verbosity int) zapcore.Level {
	switch {
	case verbosity >= 2:
		return zapcore.DebugLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	}
	return zapcore.WarnLevel
}

// New returns a console logger writing to stderr.
func New(verbosity int) *zap.Logger {
	return NewWriter(os.Stderr, verbosity)
}

// NewWriter returns a console logger writing to w.
func NewWriter(w io.Writer, verbosity int) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	enc.CallerKey = ""

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(w),
		Level(verbosity),
	)
	return zap.New(core)
}
