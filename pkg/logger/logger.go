// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger builds the process-wide slog logger from configuration.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pdiddy/vetpro-enrich/pkg/types"
)

// New creates a slog.Logger honoring the configured level and format.
// Logs go to stderr; stdout is reserved for command output and progress.
// Invalid values default to info level and text format.
func New(cfg types.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level. Valid levels are
// debug, info, warn, and error; anything else defaults to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
