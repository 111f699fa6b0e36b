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
// feature preparation workflows are assembled from. This file defines the
// interfaces; base_*.go hold the default implementations.
//
// A pipeline run is a `Chain` of `Command`s sharing one `Context`. Each stage
// reads its input table from the context, transforms it, and writes the result
// back for the next stage. Fatal problems are recorded with AddError and stop
// the chain; non-fatal ones are recorded with AddWarning and do not.
package cor

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data between consecutive commands.
const (
	// CtxIn is the default key for the primary input of a command. The BaseChain
	// populates it with the output of the previous command.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the shared state of a single pipeline run.
//
// A Context is not safe for concurrent use; commands that fan work out to
// goroutines must collect results before touching it.
type Context interface {
	// SetContext sets the Go context carrying cancellation and trace spans.
	SetContext(context context.Context)

	// GetContext retrieves the Go context.
	GetContext() context.Context

	// GetLogger returns the structured logger injected for this run.
	GetLogger() *slog.Logger

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// Get retrieves the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// AddError records a fatal error, keyed by the command that produced it.
	AddError(key string, err error)

	// GetErrors returns every recorded error.
	GetErrors() map[string]error

	// HasErrors reports whether any error was recorded.
	HasErrors() bool

	// AddWarning records a non-fatal condition. Warnings never stop a chain.
	AddWarning(key string, warning error)

	// GetWarnings returns the recorded warnings in the order they were added.
	GetWarnings() []error
}

// Executable is anything with core execution logic.
type Executable interface {
	// Execute reads its inputs from the Context and writes its outputs to it.
	Execute(context Context)
}

// Command is an atomic, testable unit of work.
type Command interface {
	Executable

	// GetName returns the unique name of the command.
	GetName() string

	// GetInputParam returns the context key of the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key of the command's primary output.
	GetOutputParam() string

	// IsExecutable checks the Context preconditions before Execute is called.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for this command.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter of successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter of failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. It is itself a Command, so chains nest.
type Chain interface {
	Command

	// ContinueOnFailure sets whether the chain keeps going after an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
