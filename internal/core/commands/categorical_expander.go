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
// command that one-hot encodes categorical columns.
package commands

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// CategoricalExpander replaces categorical columns with 0/1 indicator columns.
type CategoricalExpander struct {
	cor.BaseCommand
	specs []services.CategoricalSpec
}

// NewCategoricalExpander is the constructor for the CategoricalExpander
// command.
func NewCategoricalExpander(name, inputParamName, outputParamName string, specs []services.CategoricalSpec) *CategoricalExpander {
	out := &CategoricalExpander{BaseCommand: *cor.NewBaseCommand(name), specs: specs}
	out.InputParamName = inputParamName
	out.OutputParamName = outputParamName
	return out
}

// Execute expands every spec in order.
func (e *CategoricalExpander) Execute(context cor.Context) {
	table, ok := tableInput(context, e.GetInputParam())
	if !ok {
		e.Fail(context, errNotATable(e.GetInputParam()))
		return
	}
	before := len(table.Columns())
	out, warnings, err := services.OneHot(table, e.specs)
	if err != nil {
		e.Fail(context, err)
		return
	}
	addWarnings(context, e.GetName(), warnings)
	context.GetLogger().InfoContext(context.GetContext(), "categories expanded",
		"table", out.Name,
		"specs", len(e.specs),
		"columns_before", before,
		"columns_after", len(out.Columns()))
	e.Succeed(context)
	context.Add(e.GetOutputParam(), out)
}
