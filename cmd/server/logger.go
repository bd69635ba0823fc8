package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sakif/classroom/internal/config"
)

// newLogger builds the process logger from the log section of the config.
//
// Log levels (from least to most severe): debug → info → warn → error.
// Token rejection reasons are logged at debug, so production usually runs
// at info.
func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}
