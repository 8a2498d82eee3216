// Package logging builds the zerolog logger used by the trackline commands.
package logging

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/chrisconley/trackline/internal/config"
)

// New returns a logger writing to w at the configured level. The console
// format is meant for terminals; json emits one object per line.
func New(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	out := w
	switch cfg.Format {
	case "console", "":
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", "trackline").
		Logger(), nil
}
