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
// command that reads a raw delimited file into a table.
//
// Logic Flow:
//  1. The file is read with services.LoadTable using the dataset's delimiter,
//     null marker and parse policy.
//  2. The load report (rows, skipped rows, bytes, per-column missing counts) is
//     logged and attached to the command span.
//  3. The table is stored under the command's output key.
package commands

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// TableLoader loads one raw dataset.
type TableLoader struct {
	cor.BaseCommand
	path    string               // Absolute or working-directory relative file path.
	options services.LoadOptions // Delimiter, null marker and parse policy.
}

// NewTableLoader is the constructor for the TableLoader command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - path: The raw file to read.
//   - options: How the file is parsed.
//   - outputParamName: The context key the loaded table is stored under.
//
// Outputs:
//   - *TableLoader: A pointer to the newly instantiated command.
func NewTableLoader(name, path string, options services.LoadOptions, outputParamName string) *TableLoader {
	out := &TableLoader{BaseCommand: *cor.NewBaseCommand(name), path: path, options: options}
	out.OutputParamName = outputParamName
	return out
}

// IsExecutable only needs a usable context; the loader is the first stage.
func (l *TableLoader) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute loads the file and stores the table.
func (l *TableLoader) Execute(context cor.Context) {
	table, report, err := services.LoadTable(l.path, l.options)
	if err != nil {
		l.Fail(context, err)
		return
	}

	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.String("path", l.path),
		attribute.Int("rows", report.Rows),
		attribute.Int("skipped_rows", report.SkippedRows),
		attribute.Int64("bytes", report.BytesRead),
	)
	context.GetLogger().InfoContext(context.GetContext(), "table loaded",
		"table", table.Name,
		"path", l.path,
		"rows", report.Rows,
		"columns", report.Columns,
		"skipped_rows", report.SkippedRows,
		"bytes", report.BytesRead,
		"missing", report.Missing)

	l.Succeed(context)
	context.Add(l.GetOutputParam(), table)
}
