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

// Package telemetry provides utilities for setting up and configuring
// observability for a pipeline run. This file initializes the OpenTelemetry
// SDK. Depending on `[telemetry] exporter` spans and metrics go to Google
// Cloud Trace and Cloud Monitoring, to stdout, or nowhere.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	mexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/metric"
	telemetryexporter "github.com/GoogleCloudPlatform/opentelemetry-operations-go/exporter/trace"
	"go.opentelemetry.io/contrib/detectors/gcp"
	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
)

// Exporter names accepted in `[telemetry] exporter`.
const (
	ExporterGCP    = "gcp"
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// SetupOpenTelemetry initializes the tracer and meter providers and registers
// them globally. It returns a `shutdown` function that flushes and stops every
// provider; callers defer it.
//
// With the "none" exporter (or an empty one) nothing is registered and the
// global no-op providers stay in place.
//
// Inputs:
//   - ctx: The parent context, used for initialization of clients.
//   - config: The application configuration (service name, project, exporter).
//   - out: Destination of the stdout exporter; os.Stdout when nil.
//
// Returns:
//   - shutdown: Joins the shutdown errors of every registered provider.
//   - err: An unknown exporter or a failed exporter construction.
func SetupOpenTelemetry(ctx context.Context, config *cloud.Config, out io.Writer) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	exporter := config.Telemetry.Exporter
	if exporter == "" || exporter == ExporterNone {
		return shutdown, nil
	}
	if out == nil {
		out = os.Stdout
	}

	// The GCP detector only finds attributes when running on Google Cloud.
	detectors := []resource.Detector{}
	if exporter == ExporterGCP {
		detectors = append(detectors, gcp.NewDetector())
	}
	res, err := resource.New(ctx,
		resource.WithDetectors(detectors...),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.Application.Name),
		),
	)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.Warn("partial resource detection", "error", err)
	} else if err != nil {
		return nil, fmt.Errorf("creating telemetry resource: %w", err)
	}

	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	var spanExporter sdktrace.SpanExporter
	var metricExporter metric.Exporter
	switch exporter {
	case ExporterGCP:
		spanExporter, err = telemetryexporter.New(telemetryexporter.WithProjectID(config.Application.GoogleProjectId))
		if err != nil {
			return nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		metricExporter, err = mexporter.New(mexporter.WithProjectID(config.Application.GoogleProjectId))
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
	case ExporterStdout:
		spanExporter, err = stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("creating stdout trace exporter: %w", err)
		}
		metricExporter, err = stdoutmetric.New(stdoutmetric.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("creating stdout metric exporter: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown telemetry exporter %q", exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	mProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
		metric.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, mProvider.Shutdown)
	otel.SetMeterProvider(mProvider)

	return shutdown, nil
}
