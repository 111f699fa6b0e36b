// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package telemetry provides utilities for setting up structured logging and
// OpenTelemetry. This file builds the run logger: JSON records in the Google
// Cloud Logging structured format, correlated with the active trace span.
//
// Key Components:
//   - spanContextLogHandler: Adds trace and span ids from the record's context.
//   - fanoutHandler: Sends each record to several handlers (JSON output plus
//     the OpenTelemetry log bridge).
//   - replacer: Renames standard slog keys to the Cloud Logging ones.
//   - SetupLogging: Assembles the handlers and returns the logger.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/trace"
)

// BridgeName is the instrumentation scope of records sent to the OpenTelemetry
// log bridge.
const BridgeName = "github.com/jaycherian/gcp-go-movie-features"

// spanContextLogHandler is a custom slog.Handler that enriches log records
// with the trace context of the span active in the record's context.
type spanContextLogHandler struct {
	slog.Handler
}

func handlerWithSpanContext(handler slog.Handler) *spanContextLogHandler {
	return &spanContextLogHandler{Handler: handler}
}

// Handle adds the Cloud Logging trace fields when ctx carries a valid span.
func (t *spanContextLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if s := trace.SpanContextFromContext(ctx); s.IsValid() {
		// See: https://cloud.google.com/logging/docs/structured-logging#special-payload-fields
		record.AddAttrs(
			slog.Any("logging.googleapis.com/trace", s.TraceID()),
			slog.Any("logging.googleapis.com/spanId", s.SpanID()),
			slog.Bool("logging.googleapis.com/trace_sampled", s.TraceFlags().IsSampled()),
		)
	}
	return t.Handler.Handle(ctx, record)
}

func (t *spanContextLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanContextLogHandler{Handler: t.Handler.WithAttrs(attrs)}
}

func (t *spanContextLogHandler) WithGroup(name string) slog.Handler {
	return &spanContextLogHandler{Handler: t.Handler.WithGroup(name)}
}

// fanoutHandler passes every record to each of its handlers.
type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			err = errors.Join(err, h.Handle(ctx, record.Clone()))
		}
	}
	return err
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// replacer renames attribute keys to match the Cloud Logging structured log
// format and maps WARN to Cloud Logging's WARNING severity.
func replacer(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.LevelKey:
		a.Key = "severity"
		if level, ok := a.Value.Any().(slog.Level); ok && level == slog.LevelWarn {
			a.Value = slog.StringValue("WARNING")
		}
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// LogOptions configures SetupLogging.
type LogOptions struct {
	Writer io.Writer // Destination of the JSON records; stderr when nil.
	Level  string    // debug, info, warn or error; info when empty.
	File   string    // Optional file that receives a copy of every record.
	Bridge bool      // Also send records to the OpenTelemetry log bridge.
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q: %w", name, err)
	}
	return level, nil
}

// SetupLogging builds the run logger and installs it as the slog default.
//
// Inputs:
//   - opts: Output, level, optional file copy and bridge settings.
//
// Outputs:
//   - *slog.Logger: The configured logger, to be injected into the pipeline.
//   - func() error: Closes the log file, if one was opened.
//   - error: An unknown level or an unopenable log file.
func SetupLogging(opts LogOptions) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	closer := func() error { return nil }
	if opts.File != "" {
		file, err := os.Create(opts.File)
		if err != nil {
			return nil, nil, fmt.Errorf("creating log file %q: %w", opts.File, err)
		}
		writer = io.MultiWriter(writer, file)
		closer = file.Close
	}

	jsonHandler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level, ReplaceAttr: replacer})
	var handler slog.Handler = handlerWithSpanContext(jsonHandler)
	if opts.Bridge {
		handler = fanoutHandler{handler, otelslog.NewHandler(BridgeName)}
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closer, nil
}
