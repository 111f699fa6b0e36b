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
// command that loads feature tables into BigQuery.
package commands

import (
	goctx "context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// TableImporter replaces a warehouse table with the content of r.
type TableImporter interface {
	Load(ctx goctx.Context, dataset, table, format string, r io.Reader) error
}

// BigQueryLoad imports selected manifest artifacts into a dataset. The
// Parquet artifact of a table is preferred over its CSV one since it carries
// column types.
type BigQueryLoad struct {
	cor.BaseCommand
	importer TableImporter
	dataset  string
	tables   []string // Logical tables to load; every artifact table when empty.
}

// NewBigQueryLoad is the constructor for the BigQueryLoad command.
func NewBigQueryLoad(name string, importer TableImporter, dataset string, tables []string) *BigQueryLoad {
	out := &BigQueryLoad{BaseCommand: *cor.NewBaseCommand(name), importer: importer, dataset: dataset, tables: tables}
	out.InputParamName = ManifestKey
	return out
}

// Execute runs one load job per selected table.
func (b *BigQueryLoad) Execute(context cor.Context) {
	manifest := GetManifest(context)
	if manifest == nil {
		b.Fail(context, errNoManifest)
		return
	}

	for _, artifact := range selectArtifacts(manifest.Artifacts, b.tables) {
		if err := b.load(context.GetContext(), artifact); err != nil {
			b.Fail(context, err)
			return
		}
		context.GetLogger().InfoContext(context.GetContext(), "table loaded into bigquery",
			"dataset", b.dataset, "table", artifact.Table, "format", artifact.Format, "rows", artifact.Rows)
	}
	b.Succeed(context)
}

func (b *BigQueryLoad) load(ctx goctx.Context, artifact model.Artifact) error {
	f, err := os.Open(artifact.Path)
	if err != nil {
		return fmt.Errorf("opening artifact %q: %w", artifact.Path, err)
	}
	defer f.Close()
	return b.importer.Load(ctx, b.dataset, artifact.Table, artifact.Format, f)
}

// selectArtifacts returns one artifact per selected table, preferring Parquet,
// in first-seen order.
func selectArtifacts(artifacts []model.Artifact, tables []string) []model.Artifact {
	var out []model.Artifact
	seen := make(map[string]int)
	for _, a := range artifacts {
		if len(tables) > 0 && !slices.Contains(tables, a.Table) {
			continue
		}
		if i, ok := seen[a.Table]; ok {
			if a.Format == services.FormatParquet {
				out[i] = a
			}
			continue
		}
		seen[a.Table] = len(out)
		out = append(out, a)
	}
	return out
}
