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

// Package telemetry_test contains unit tests for the logging and OpenTelemetry
// setup.
package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/telemetry"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		record := make(map[string]any)
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		out = append(out, record)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{"": slog.LevelInfo, "debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError} {
		got, err := telemetry.ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := telemetry.ParseLevel("verbose")
	assert.Error(t, err)
}

func TestSetupLoggingCloudFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := telemetry.SetupLogging(telemetry.LogOptions{Writer: &buf, Level: "info"})
	require.NoError(t, err)
	defer closeLog()

	logger.Debug("hidden")
	logger.Info("table loaded", "rows", 4)
	logger.Warn("computation warning")

	records := decodeLines(t, &buf)
	require.Len(t, records, 2)
	assert.Equal(t, "INFO", records[0]["severity"])
	assert.Equal(t, "table loaded", records[0]["message"])
	assert.Equal(t, float64(4), records[0]["rows"])
	assert.Contains(t, records[0], "timestamp")
	assert.NotContains(t, records[0], "msg")
	assert.Equal(t, "WARNING", records[1]["severity"])
	assert.Same(t, logger, slog.Default())
}

func TestSetupLoggingFileCopy(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "run.log")
	logger, closeLog, err := telemetry.SetupLogging(telemetry.LogOptions{Writer: &buf, File: path, Bridge: true})
	require.NoError(t, err)

	logger.Info("run started")
	require.NoError(t, closeLog())
	assert.FileExists(t, path)
	assert.Len(t, decodeLines(t, &buf), 1)

	_, _, err = telemetry.SetupLogging(telemetry.LogOptions{Level: "loud"})
	assert.Error(t, err)
	_, _, err = telemetry.SetupLogging(telemetry.LogOptions{File: filepath.Join(t.TempDir(), "missing", "run.log")})
	assert.Error(t, err)
}

func TestOpenTelemetryCorrelatesLogs(t *testing.T) {
	ctx := context.Background()
	config := cloud.NewConfig()
	config.Telemetry.Exporter = telemetry.ExporterStdout

	var traces bytes.Buffer
	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config, &traces)
	require.NoError(t, err)

	var buf bytes.Buffer
	logger, _, err := telemetry.SetupLogging(telemetry.LogOptions{Writer: &buf})
	require.NoError(t, err)

	spanCtx, span := otel.Tracer("telemetry-test").Start(ctx, "load-basics")
	logger.InfoContext(spanCtx, "inside span")
	span.End()
	require.NoError(t, shutdown(ctx))

	records := decodeLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), records[0]["logging.googleapis.com/trace"])
	assert.Equal(t, span.SpanContext().SpanID().String(), records[0]["logging.googleapis.com/spanId"])
	assert.Contains(t, traces.String(), "load-basics")
}

func TestSetupOpenTelemetryExporters(t *testing.T) {
	ctx := context.Background()
	config := cloud.NewConfig()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config, nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	config.Telemetry.Exporter = "jaeger"
	_, err = telemetry.SetupOpenTelemetry(ctx, config, nil)
	assert.Error(t, err)
}
