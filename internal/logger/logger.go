// Package logger builds the CLI's diagnostic logger. Output goes to the
// writer the caller passes, stderr in practice, so stdout stays reserved for
// command results.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

const (
	LevelEnv  = "SUPA_LOG_LEVEL"
	FormatEnv = "SUPA_LOG_FORMAT"
)

// ParseLevel maps a level name to a slog level. Unknown names give warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New returns a text logger, or a JSON one when format is "json".
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// FromEnv reads SUPA_LOG_LEVEL and SUPA_LOG_FORMAT through getenv. debug
// forces the debug level.
func FromEnv(getenv func(string) string, debug bool, w io.Writer) *slog.Logger {
	level := getenv(LevelEnv)
	if debug {
		level = "debug"
	}
	return New(level, getenv(FormatEnv), w)
}

func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
