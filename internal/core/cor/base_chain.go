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
// `BaseChain`, the default implementation of the `Chain` interface.
//
// Logic Flow:
//  1. A span is opened for the whole chain.
//  2. Commands run in insertion order, each under its own child span.
//  3. Once the context holds an error the remaining commands are skipped,
//     unless the chain was built with ContinueOnFailure(true). Warnings never
//     stop the chain.
//  4. A command whose IsExecutable check fails is skipped and recorded as an
//     error, since every stage of a batch run depends on the previous one.
//  5. After each command the value in CtxOut is moved to CtxIn so the next
//     command receives it.
//  6. The chain span is closed with Ok or Error.
package cor

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain executes a list of commands sequentially.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool      // Keep executing after a command records an error.
	commands          []Command // Commands in execution order.
}

// NewBaseChain creates an empty chain.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

// ContinueOnFailure sets the error handling behavior of the chain.
func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

// AddCommand appends a command to the chain.
func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

// Commands returns the names of the commands in execution order.
func (c *BaseChain) Commands() []string {
	out := make([]string, len(c.commands))
	for i, cmd := range c.commands {
		out[i] = cmd.GetName()
	}
	return out
}

// IsExecutable checks that a Go context is present.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute runs every command in order.
//
// Inputs:
//   - chCtx: The shared `cor.Context` for the run.
func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()
	logger := chCtx.GetLogger()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()
	defer chCtx.SetContext(parentCtx)

	for _, command := range c.commands {
		if chCtx.HasErrors() && !c.continueOnFailure {
			logger.InfoContext(outerCtx, "skipping command after earlier failure", "chain", c.GetName(), "command", command.GetName())
			break
		}
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), fmt.Errorf("chain cancelled before %s: %w", command.GetName(), err))
			break
		}

		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())
		chCtx.SetContext(commandContext)

		if command.IsExecutable(chCtx) {
			start := time.Now()
			logger.DebugContext(commandContext, "executing command", "chain", c.GetName(), "command", command.GetName())
			command.Execute(chCtx)
			logger.InfoContext(commandContext, "command finished",
				"chain", c.GetName(),
				"command", command.GetName(),
				"duration_ms", time.Since(start).Milliseconds(),
				"failed", chCtx.HasErrors())
		} else {
			chCtx.AddError(command.GetName(), fmt.Errorf("command %s is not executable: input %q missing", command.GetName(), command.GetInputParam()))
		}

		if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "error during or after command execution")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()
		chCtx.SetContext(outerCtx)

		// Pipe the output of this command into the input of the next.
		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	if !chCtx.HasErrors() {
		c.Succeed(chCtx)
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		c.GetErrorCounter().Add(parentCtx, 1)
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}
