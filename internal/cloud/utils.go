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

// Package cloud provides configuration loading and the Google Cloud clients.
// This file contains the hierarchical configuration loader.
//
// Functions:
//   - fileExists: A simple helper to check if a file exists.
//   - ConfigFiles: Resolves the base and runtime-specific file names.
//   - LoadConfig: Reads a base configuration file and then overwrites values
//     with a second, environment-specific file (e.g., .env.local.toml).
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Constants for configuration loading.
const (
	ConfigFileBaseName  = ".env"               // The base name for configuration files (e.g., ".env.toml").
	ConfigFileExtension = ".toml"              // The file extension for configuration files.
	ConfigSeparator     = "."                  // The separator used in config file names (e.g., ".env.local.toml").
	EnvConfigFilePrefix = "PREP_CONFIG_PREFIX" // The environment variable for specifying the config directory.
	EnvConfigRuntime    = "PREP_RUNTIME"       // The environment variable for specifying the runtime (e.g., "local", "test").
	DefaultRuntime      = "local"              // Runtime used when none is set.
)

// fileExists checks if a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFiles returns the base and runtime configuration file paths. Empty
// arguments fall back to the PREP_CONFIG_PREFIX and PREP_RUNTIME environment
// variables, and then to the working directory and the "local" runtime.
func ConfigFiles(prefix, runtime string) (base, env string) {
	if prefix == "" {
		prefix = os.Getenv(EnvConfigFilePrefix)
	}
	if runtime == "" {
		runtime = os.Getenv(EnvConfigRuntime)
	}
	if runtime == "" {
		runtime = DefaultRuntime
	}
	base = filepath.Join(prefix, ConfigFileBaseName+ConfigFileExtension)
	env = filepath.Join(prefix, ConfigFileBaseName+ConfigSeparator+runtime+ConfigFileExtension)
	return base, env
}

// LoadConfig decodes the base configuration file and then the runtime file
// into baseConfig, so values in the runtime file win. A missing file is
// skipped; at least one must exist.
//
// Inputs:
//   - baseConfig: A pointer to the target configuration struct.
//   - prefix: The configuration directory; see ConfigFiles.
//   - runtime: The runtime name; see ConfigFiles.
//
// Outputs:
//   - error: ErrFileNotFound-wrapped when neither file exists, or a decode error.
func LoadConfig(baseConfig interface{}, prefix, runtime string) error {
	baseConfigFileName, envConfigFileName := ConfigFiles(prefix, runtime)
	found := false

	for _, name := range []string{baseConfigFileName, envConfigFileName} {
		if !fileExists(name) {
			slog.Debug("configuration file not present", "file", name)
			continue
		}
		if _, err := toml.DecodeFile(name, baseConfig); err != nil {
			return fmt.Errorf("decoding configuration file %s: %w", name, err)
		}
		slog.Debug("configuration file loaded", "file", name)
		found = true
	}
	if !found {
		return fmt.Errorf("no configuration found: neither %s nor %s exists: %w", baseConfigFileName, envConfigFileName, os.ErrNotExist)
	}
	return nil
}

// ResolvePath joins a relative file name onto dir. Absolute names are kept.
func ResolvePath(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
