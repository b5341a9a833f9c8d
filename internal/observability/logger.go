// Package observability provides structured logging for the conversion
// pipeline.
package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with pipeline-specific helpers.
type Logger struct {
	zl zerolog.Logger
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level   string
	Format  string // json or console
	Output  io.Writer
	Service string
}

// NewLogger creates a new Logger with the given configuration.
func NewLogger(cfg LogConfig) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var zl zerolog.Logger
	if cfg.Format == "console" {
		zl = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		})
	} else {
		zl = zerolog.New(output)
	}

	zl = zl.With().
		Timestamp().
		Str("service", cfg.Service).
		Logger().
		Level(parseLevel(cfg.Level))

	return &Logger{zl: zl}
}

// DefaultLogger returns a logger with development settings.
func DefaultLogger() *Logger {
	return NewLogger(LogConfig{
		Level:   "info",
		Format:  "console",
		Service: "visionmark",
	})
}

// Nop returns a logger that discards everything. Used by tests and as the
// fallback when no logger is injected.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Debug starts a debug-level event.
func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }

// Info starts an info-level event.
func (l *Logger) Info() *zerolog.Event { return l.zl.Info() }

// Warn starts a warn-level event.
func (l *Logger) Warn() *zerolog.Event { return l.zl.Warn() }

// Error starts an error-level event.
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

// WithComponent returns a logger tagged with a pipeline component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

// WithPage returns a logger tagged with a 0-based page index.
func (l *Logger) WithPage(pageIndex int) *Logger {
	return &Logger{zl: l.zl.With().Int("page", pageIndex).Logger()}
}

func parseLevel(level string) zerolog.Level {
	switch level {
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
