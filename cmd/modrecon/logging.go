// cmd/modrecon/logging.go
package main

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-recon/internal/config"
)

// newLogger builds the root logger. "auto" picks the console writer when
// tty is set and JSON lines otherwise.
func newLogger(w io.Writer, lc config.LogConfig, tty bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(lc.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := w
	switch lc.Format {
	case "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !tty}
	default:
		if tty {
			out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
