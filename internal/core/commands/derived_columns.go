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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// commands that add derived feature columns: the release decade and the
// length of a delimited list such as genres.
package commands

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// DecadeDeriver adds a decade column computed from a year column.
type DecadeDeriver struct {
	cor.BaseCommand
	yearColumn   string
	decadeColumn string
}

// NewDecadeDeriver is the constructor for the DecadeDeriver command.
func NewDecadeDeriver(name, inputParamName, outputParamName, yearColumn, decadeColumn string) *DecadeDeriver {
	out := &DecadeDeriver{BaseCommand: *cor.NewBaseCommand(name), yearColumn: yearColumn, decadeColumn: decadeColumn}
	out.InputParamName = inputParamName
	out.OutputParamName = outputParamName
	return out
}

// Execute derives the decade column.
func (d *DecadeDeriver) Execute(context cor.Context) {
	table, ok := tableInput(context, d.GetInputParam())
	if !ok {
		d.Fail(context, errNotATable(d.GetInputParam()))
		return
	}
	out, err := services.DeriveDecade(table, d.yearColumn, d.decadeColumn)
	if err != nil {
		d.Fail(context, err)
		return
	}
	context.GetLogger().DebugContext(context.GetContext(), "decade derived",
		"table", out.Name, "source", d.yearColumn, "column", d.decadeColumn)
	d.Succeed(context)
	context.Add(d.GetOutputParam(), out)
}

// ListCounter adds one count column per configured delimited column.
type ListCounter struct {
	cor.BaseCommand
	columns []services.CountSpec
}

// NewListCounter is the constructor for the ListCounter command.
func NewListCounter(name, inputParamName, outputParamName string, columns []services.CountSpec) *ListCounter {
	out := &ListCounter{BaseCommand: *cor.NewBaseCommand(name), columns: columns}
	out.InputParamName = inputParamName
	out.OutputParamName = outputParamName
	return out
}

// Execute adds the count columns in order.
func (l *ListCounter) Execute(context cor.Context) {
	table, ok := tableInput(context, l.GetInputParam())
	if !ok {
		l.Fail(context, errNotATable(l.GetInputParam()))
		return
	}
	var err error
	for _, spec := range l.columns {
		table, err = services.CountDelimited(table, spec.Column, spec.Output, spec.Separator)
		if err != nil {
			l.Fail(context, err)
			return
		}
	}
	l.Succeed(context)
	context.Add(l.GetOutputParam(), table)
}
