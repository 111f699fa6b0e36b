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
// command that standardizes numeric feature columns.
//
// Statistics are computed over the table in the context at execution time,
// so re-running the command on new data never reuses an earlier mean.
package commands

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// NumericStandardizer rescales columns to zero mean and unit variance.
type NumericStandardizer struct {
	cor.BaseCommand
	columns []string
	options services.StandardizeOptions
}

// NewNumericStandardizer is the constructor for the NumericStandardizer
// command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - inputParamName: The context key of the table to read.
//   - outputParamName: The context key the result is stored under.
//   - columns: The numeric columns to standardize.
//   - options: Output column naming.
//
// Outputs:
//   - *NumericStandardizer: A pointer to the newly instantiated command.
func NewNumericStandardizer(name, inputParamName, outputParamName string, columns []string, options services.StandardizeOptions) *NumericStandardizer {
	out := &NumericStandardizer{BaseCommand: *cor.NewBaseCommand(name), columns: columns, options: options}
	out.InputParamName = inputParamName
	out.OutputParamName = outputParamName
	return out
}

// Execute standardizes the columns. Zero-variance and empty columns are
// recorded as warnings.
func (s *NumericStandardizer) Execute(context cor.Context) {
	table, ok := tableInput(context, s.GetInputParam())
	if !ok {
		s.Fail(context, errNotATable(s.GetInputParam()))
		return
	}
	out, warnings, err := services.Standardize(table, s.columns, s.options)
	if err != nil {
		s.Fail(context, err)
		return
	}
	addWarnings(context, s.GetName(), warnings)
	context.GetLogger().InfoContext(context.GetContext(), "columns standardized",
		"table", out.Name, "columns", s.columns, "warnings", len(warnings))
	s.Succeed(context)
	context.Add(s.GetOutputParam(), out)
}
