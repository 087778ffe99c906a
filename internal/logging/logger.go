// Package logging configures structured diagnostics using log/slog.
//
// Diagnostics always go to the writer passed to Setup (stderr from the
// command line) so they never mix with command output on stdout.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Setup builds a logger for the given level and format and installs it as
// the slog default.
//
// Level values: "debug", "info", "warn" (or "warning"), "error".
// Format values: "text", "json".
func Setup(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to its slog level, ignoring case.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
