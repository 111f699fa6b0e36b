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

// Package cor_test contains unit tests for the chain of responsibility
// building blocks.
package cor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
)

// recorder appends its name to the "calls" slice and optionally fails.
type recorder struct {
	cor.BaseCommand
	err     error
	warning error
}

func newRecorder(name string, err error) *recorder {
	return &recorder{BaseCommand: *cor.NewBaseCommand(name), err: err}
}

func (r *recorder) IsExecutable(context cor.Context) bool {
	return context.GetContext() != nil
}

func (r *recorder) Execute(context cor.Context) {
	calls, _ := context.Get("calls").([]string)
	context.Add("calls", append(calls, r.GetName()))
	if r.warning != nil {
		context.AddWarning(r.GetName(), r.warning)
	}
	if r.err != nil {
		r.Fail(context, r.err)
		return
	}
	r.Succeed(context)
	context.Add(r.GetOutputParam(), r.GetName())
}

// echo copies its input to its output.
type echo struct {
	cor.BaseCommand
}

func (e *echo) Execute(context cor.Context) {
	context.Add(e.GetOutputParam(), context.Get(e.GetInputParam()))
}

func TestChainRunsCommandsInOrder(t *testing.T) {
	chain := cor.NewBaseChain("chain")
	chain.AddCommand(newRecorder("first", nil)).AddCommand(newRecorder("second", nil))
	assert.Equal(t, []string{"first", "second"}, chain.Commands())

	chainCtx := cor.NewBaseContext(context.Background(), nil)
	assert.True(t, chain.IsExecutable(chainCtx))
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, []string{"first", "second"}, chainCtx.Get("calls"))
	assert.Equal(t, "second", chainCtx.Get(cor.CtxIn))
	assert.Nil(t, chainCtx.Get(cor.CtxOut))
	assert.Equal(t, context.Background(), chainCtx.GetContext())
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newRecorder("producer", nil)).AddCommand(&echo{BaseCommand: *cor.NewBaseCommand("echo")})

	chainCtx := cor.NewBaseContext(context.Background(), nil)
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, "producer", chainCtx.Get(cor.CtxIn))
}

func TestChainStopsOnFirstFailure(t *testing.T) {
	failure := errors.New("boom")
	chain := cor.NewBaseChain("chain")
	chain.AddCommand(newRecorder("first", failure)).AddCommand(newRecorder("second", nil))

	chainCtx := cor.NewBaseContext(context.Background(), nil)
	chain.Execute(chainCtx)

	assert.Equal(t, []string{"first"}, chainCtx.Get("calls"))
	assert.Equal(t, map[string]error{"first": failure}, chainCtx.GetErrors())
}

func TestChainContinueOnFailure(t *testing.T) {
	chain := cor.NewBaseChain("chain")
	chain.ContinueOnFailure(true).
		AddCommand(newRecorder("first", errors.New("boom"))).
		AddCommand(newRecorder("second", nil))

	chainCtx := cor.NewBaseContext(context.Background(), nil)
	chain.Execute(chainCtx)

	assert.Equal(t, []string{"first", "second"}, chainCtx.Get("calls"))
	assert.True(t, chainCtx.HasErrors())
}

func TestChainRecordsUnexecutableCommand(t *testing.T) {
	chain := cor.NewBaseChain("chain")
	consumer := &echo{BaseCommand: *cor.NewBaseCommand("consumer")}
	consumer.InputParamName = "missing"
	chain.AddCommand(consumer).AddCommand(newRecorder("after", nil))

	chainCtx := cor.NewBaseContext(context.Background(), nil)
	chain.Execute(chainCtx)

	assert.Contains(t, chainCtx.GetErrors(), "consumer")
	assert.Nil(t, chainCtx.Get("calls"))
}

func TestChainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := cor.NewBaseChain("chain")
	chain.AddCommand(newRecorder("first", nil))

	chainCtx := cor.NewBaseContext(ctx, nil)
	chain.Execute(chainCtx)

	assert.Nil(t, chainCtx.Get("calls"))
	err := chainCtx.GetErrors()["chain"]
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWarningsDoNotStopTheChain(t *testing.T) {
	warn := newRecorder("warn", nil)
	warn.warning = errors.New("zero variance")
	chain := cor.NewBaseChain("chain")
	chain.AddCommand(warn).AddCommand(newRecorder("next", nil))

	chainCtx := cor.NewBaseContext(context.Background(), nil)
	chain.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, []string{"warn", "next"}, chainCtx.Get("calls"))
	assert.Equal(t, []error{warn.warning}, chainCtx.GetWarnings())
}

func TestBaseCommandParams(t *testing.T) {
	command := cor.NewBaseCommand("command")
	assert.Equal(t, cor.CtxIn, command.GetInputParam())
	assert.Equal(t, cor.CtxOut, command.GetOutputParam())

	command.InputParamName = "in"
	command.OutputParamName = "out"
	assert.Equal(t, "in", command.GetInputParam())
	assert.Equal(t, "out", command.GetOutputParam())

	chainCtx := cor.NewBaseContext(context.Background(), nil)
	assert.False(t, command.IsExecutable(chainCtx))
	chainCtx.Add("in", 1)
	assert.True(t, command.IsExecutable(chainCtx))
}
