// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging configures structured logging for the engine.
//
// Built on the standard library slog package. The engine is a single
// process writing to stderr (Unix convention for services under a
// supervisor); log aggregation is the deployment's concern, so there is
// no file or export fan-out here.
//
// # Usage
//
//	logger := logging.Setup(logging.Config{Level: "info", Service: "engine", JSON: true})
//	logger.Info("assignment applied", "row", row, "col", col)
//
// Setup also installs the logger as the slog default so packages can use
// slog.Info directly, the way the rest of the codebase does.
//
// # Thread Safety
//
// slog.Logger is safe for concurrent use.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config configures the process logger.
type Config struct {
	// Level is the minimum level: debug, info, warn, or error.
	// Unknown values fall back to info.
	Level string

	// Service is attached to every record as the "service" attribute.
	Service string

	// JSON selects JSON output; false gives human-readable text.
	JSON bool

	// Writer overrides the output destination. Default: os.Stderr.
	// Tests inject a buffer here.
	Writer io.Writer
}

// Setup builds a slog.Logger from the config and installs it as the
// process default.
func Setup(config Config) *slog.Logger {
	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(config.Level)}

	var handler slog.Handler
	if config.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
