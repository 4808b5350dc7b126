// Package observability holds the shared structured logger.
package observability

import (
	"log/slog"
	"os"
)

var (
	level  = new(slog.LevelVar)
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

// Logger returns the process-wide logger.
func Logger() *slog.Logger {
	return logger
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}

// SetVerbose lowers the log level to Debug.
func SetVerbose(verbose bool) {
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}
