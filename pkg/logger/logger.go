package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log event
const ServiceName = "review-pipeline"

// Options controls logger construction
type Options struct {
	Level  string // debug, info, warn, error
	Format string // "json" or "pretty"
	Output io.Writer
}

// New creates a new zerolog logger with structured output
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	logLevel := ParseLevel(opts.Level)

	// Use pretty console output in development
	if opts.Format == "pretty" || os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(logLevel).
			With().
			Timestamp().
			Caller().
			Str("service", ServiceName).
			Logger()
	}

	// JSON output for production
	return zerolog.New(out).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
