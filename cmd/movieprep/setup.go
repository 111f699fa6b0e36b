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

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/telemetry"
)

const (
	flagConfigDir = "config-dir"
	flagRuntime   = "runtime"
	flagProgress  = "progress"
	flagNoPublish = "no-publish"

	envConfigDir = cloud.EnvConfigFilePrefix
	envRuntime   = cloud.EnvConfigRuntime
)

// ErrMovieprep wraps every failure reported by the command.
var ErrMovieprep = errors.New("movieprep")

// StateManager holds what a run needs beyond its configuration: the logger and
// the telemetry shutdown hook.
type StateManager struct {
	config   *cloud.Config
	logger   *slog.Logger
	closeLog func() error
	shutdown func(context.Context) error
}

// loadConfig reads the configuration selected by the flags.
func loadConfig(cmd *cobra.Command) (*cloud.Config, error) {
	dir, err := cmd.Flags().GetString(flagConfigDir)
	if err != nil {
		return nil, err
	}
	runtime, err := cmd.Flags().GetString(flagRuntime)
	if err != nil {
		return nil, err
	}
	config := cloud.NewConfig()
	if err := cloud.LoadConfig(config, dir, runtime); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMovieprep, err)
	}
	return config, nil
}

// InitState loads and validates the configuration, then starts logging and
// telemetry.
func InitState(ctx context.Context, cmd *cobra.Command) (*StateManager, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMovieprep, err)
	}

	logger, closeLog, err := telemetry.SetupLogging(telemetry.LogOptions{
		Writer: os.Stderr,
		Level:  config.Telemetry.LogLevel,
		File:   config.Telemetry.LogFile,
		Bridge: config.Telemetry.Exporter != "" && config.Telemetry.Exporter != telemetry.ExporterNone,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: setting up logging: %w", ErrMovieprep, err)
	}

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config, os.Stderr)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("%w: setting up telemetry: %w", ErrMovieprep, err)
	}
	logger.Debug("telemetry initialized", "exporter", config.Telemetry.Exporter)

	return &StateManager{config: config, logger: logger, closeLog: closeLog, shutdown: shutdown}, nil
}

// Close flushes telemetry and closes the log file.
func (s *StateManager) Close(ctx context.Context) {
	if err := s.shutdown(ctx); err != nil {
		s.logger.Warn("failed to shutdown telemetry", "error", err)
	}
	if err := s.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
}
