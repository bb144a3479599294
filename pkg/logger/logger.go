// Package logger builds the zerolog loggers used across quantfolio.
// Components derive their own scoped loggers from the one returned here.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls log verbosity and formatting.
type Config struct {
	Level  string    // debug, info, warn or error; anything else means info
	Pretty bool      // human-readable console output instead of JSON
	Writer io.Writer // destination, os.Stdout when nil
}

// New builds a logger with the configured level scoped to it. The global
// zerolog level is left alone so tests and libraries are unaffected.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	out := cfg.Writer
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetGlobalLogger replaces the zerolog/log package logger.
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
