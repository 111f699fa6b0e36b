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
// command that persists a table as CSV and/or Parquet artifacts.
//
// Logic Flow:
//  1. The table is read from the input key.
//  2. For every configured format it is written to dir/name.format,
//     overwriting a previous artifact.
//  3. Each written file is recorded on the run manifest, when one is present
//     in the context, for the publish stage.
package commands

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// TableWriter writes one table to disk.
type TableWriter struct {
	cor.BaseCommand
	dir        string
	outputName string // Artifact base name and manifest table name.
	formats    []string
	options    services.WriteOptions
}

// NewTableWriter is the constructor for the TableWriter command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - inputParamName: The context key of the table to write.
//   - dir: The output directory, created when missing.
//   - outputName: The artifact base name.
//   - formats: Any of services.FormatCSV and services.FormatParquet.
//   - options: CSV options.
//
// Outputs:
//   - *TableWriter: A pointer to the newly instantiated command.
func NewTableWriter(name, inputParamName, dir, outputName string, formats []string, options services.WriteOptions) *TableWriter {
	out := &TableWriter{
		BaseCommand: *cor.NewBaseCommand(name),
		dir:         dir,
		outputName:  outputName,
		formats:     formats,
		options:     options,
	}
	out.InputParamName = inputParamName
	return out
}

// Execute writes every format.
func (w *TableWriter) Execute(context cor.Context) {
	table, ok := tableInput(context, w.GetInputParam())
	if !ok {
		w.Fail(context, errNotATable(w.GetInputParam()))
		return
	}
	manifest := GetManifest(context)

	for _, format := range w.formats {
		path := services.ArtifactPath(w.dir, w.outputName, format)
		var err error
		switch format {
		case services.FormatCSV:
			err = services.WriteCSV(table, path, w.options)
		case services.FormatParquet:
			err = services.WriteParquet(table, path)
		default:
			err = fmt.Errorf("%w: unknown output format %q", model.ErrInvalidConfig, format)
		}
		if err != nil {
			w.Fail(context, err)
			return
		}

		trace.SpanFromContext(context.GetContext()).AddEvent("artifact written",
			trace.WithAttributes(attribute.String("path", path), attribute.Int("rows", table.Len())))
		context.GetLogger().InfoContext(context.GetContext(), "artifact written",
			"table", w.outputName, "path", path, "format", format, "rows", table.Len())
		if manifest != nil {
			manifest.AddArtifact(model.Artifact{Table: w.outputName, Path: path, Format: format, Rows: table.Len()})
		}
	}

	w.Succeed(context)
}
