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

// Package cor (Chain of Responsibility) provides the building blocks the
// feature preparation workflows are assembled from. This file defines
// `BaseContext`, the default implementation of the `Context` interface.
//
// BaseContext holds:
//   - a map of arbitrary values (tables, documents, feature records),
//   - a map of fatal errors keyed by command name,
//   - an ordered list of non-fatal warnings,
//   - the Go context used for cancellation and span propagation,
//   - the injected logger for the run.
package cor

import (
	"context"
	"log/slog"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data     map[string]interface{} // Values exchanged between commands.
	errors   map[string]error       // Fatal errors keyed by command name.
	warnings []error                // Non-fatal warnings in arrival order.
	context  context.Context        // Cancellation and trace propagation.
	logger   *slog.Logger           // Structured logger for the run.
}

// NewBaseContext creates an empty run context. A nil logger falls back to
// slog.Default().
//
// Inputs:
//   - ctx: The Go context the run executes under.
//   - logger: The structured logger commands write to.
//
// Outputs:
//   - Context: A new, empty context object.
func NewBaseContext(ctx context.Context, logger *slog.Logger) Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &BaseContext{
		data:     make(map[string]interface{}),
		errors:   make(map[string]error),
		warnings: make([]error, 0),
		context:  ctx,
		logger:   logger,
	}
}

// SetContext sets the underlying Go context. BaseChain swaps it per command so
// that command spans nest under the chain span.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// GetLogger returns the injected logger.
func (c *BaseContext) GetLogger() *slog.Logger {
	return c.logger
}

// Add stores a key-value pair.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// Get retrieves a value by key, or nil.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// AddError records a fatal error under the command name. A second error from
// the same command replaces the first.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the map of all recorded errors.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// HasErrors reports whether any error was recorded.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// AddWarning records a non-fatal warning and logs it at WARN.
func (c *BaseContext) AddWarning(key string, warning error) {
	c.warnings = append(c.warnings, warning)
	c.logger.WarnContext(c.context, "computation warning", "command", key, "warning", warning.Error())
}

// GetWarnings returns the warnings in the order they were added.
func (c *BaseContext) GetWarnings() []error {
	return c.warnings
}
