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
// command that cleans a loaded table.
//
// Logic Flow:
//  1. The table is read from the input key and cleaned with services.Clean:
//     required-field row drop, mean fill, lowercasing.
//  2. Dropped rows and every mean fill are logged so data loss is visible.
//  3. A mean-fill column that fell back to the zero or leave policy is
//     recorded as a warning.
//  4. The cleaned copy is stored under the output key.
package commands

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// TableCleaner applies the cleaning rules of one dataset.
type TableCleaner struct {
	cor.BaseCommand
	options services.CleanOptions
}

// NewTableCleaner is the constructor for the TableCleaner command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - options: The cleaning rules.
//   - inputParamName: The context key of the raw table.
//   - outputParamName: The context key the cleaned table is stored under.
//
// Outputs:
//   - *TableCleaner: A pointer to the newly instantiated command.
func NewTableCleaner(name string, options services.CleanOptions, inputParamName, outputParamName string) *TableCleaner {
	out := &TableCleaner{BaseCommand: *cor.NewBaseCommand(name), options: options}
	out.InputParamName = inputParamName
	out.OutputParamName = outputParamName
	return out
}

// Execute cleans the input table.
func (c *TableCleaner) Execute(context cor.Context) {
	table, ok := tableInput(context, c.GetInputParam())
	if !ok {
		c.Fail(context, errNotATable(c.GetInputParam()))
		return
	}

	cleaned, report, err := services.Clean(table, c.options)
	if err != nil {
		c.Fail(context, err)
		return
	}

	logger := context.GetLogger()
	logger.InfoContext(context.GetContext(), "table cleaned",
		"table", table.Name,
		"input_rows", report.InputRows,
		"dropped_rows", report.DroppedRows,
		"rows", cleaned.Len())
	for _, fill := range report.Filled {
		logger.DebugContext(context.GetContext(), "mean fill",
			"table", table.Name,
			"column", fill.Column,
			"mean", fill.Mean,
			"filled", fill.Filled)
		if fill.Policy != "" {
			context.AddWarning(c.GetName(), model.NewComputationWarning(c.GetName(),
				"column %q of %s has no values; applied %s fallback to %d cells", fill.Column, table.Name, fill.Policy, fill.Filled))
		}
	}

	c.Succeed(context)
	context.Add(c.GetOutputParam(), cleaned)
}
