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

// Package workflow defines the high-level orchestrations of the feature
// preparation run. This file implements the feature table: the merge of two
// cleaned datasets followed by the encoding steps.
package workflow

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// FeatureTableWorkflow joins the cleaned datasets named by [merge] and encodes
// the result. It expects both cleaned tables in the context, so it runs after
// the matching DatasetPrepWorkflows.
type FeatureTableWorkflow struct {
	cor.BaseCommand
	config *cloud.Config
	chain  cor.Chain
}

// NewFeatureTableWorkflow is the constructor for the FeatureTableWorkflow.
func NewFeatureTableWorkflow(config *cloud.Config) *FeatureTableWorkflow {
	w := &FeatureTableWorkflow{BaseCommand: *cor.NewBaseCommand("feature-table"), config: config}
	w.initializeChain()
	return w
}

// FeatureTableParam returns the context key of the encoded feature table.
func FeatureTableParam(config *cloud.Config) string {
	return commands.TableParam(config.Encoding.Output)
}

// IsExecutable only needs a usable context; the joiner checks its inputs.
func (w *FeatureTableWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

// Execute runs the chain.
func (w *FeatureTableWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain wires the join and the encoding steps.
func (w *FeatureTableWorkflow) initializeChain() {
	merge := w.config.Merge
	enc := w.config.Encoding
	formats := w.config.Output.Formats
	writeOptions := services.WriteOptions{IncludeIndex: w.config.Output.IncludeIndex}
	mergedParam := commands.TableParam(merge.Output)
	featuresParam := FeatureTableParam(w.config)

	out := cor.NewBaseChain(w.GetName())

	// Step 1: Inner join on the key and persist the merged table.
	out.AddCommand(commands.NewTableJoiner("merge-tables",
		commands.TableParam(merge.Left), commands.TableParam(merge.Right), merge.Key, merge.Output))
	out.AddCommand(commands.NewTableWriter("write-merged",
		mergedParam, w.config.Paths.ProcessedDir, merge.Output, formats, writeOptions))

	// Steps 2-5: Decade, list lengths, standardization, one-hot expansion.
	current := addEncodingSteps(out, "", enc, mergedParam, featuresParam)

	// Step 6: Persist the feature table.
	out.AddCommand(commands.NewTableWriter("write-features",
		current, w.config.Paths.ProcessedDir, enc.Output, formats, writeOptions))
	if current != featuresParam {
		out.AddCommand(newAlias("alias-features", current, featuresParam))
	}

	w.chain = out
}

// addEncodingSteps appends the configured encoding commands to chain, named
// with prefix. Each optional step reads the table produced by the previous
// one, so disabled steps simply drop out. It returns the key holding the last
// table, which is input when no step is configured.
func addEncodingSteps(chain cor.Chain, prefix string, enc cloud.Encoding, input, output string) string {
	current := input
	// Decade of release.
	if enc.DecadeSource != "" {
		chain.AddCommand(commands.NewDecadeDeriver(prefix+"derive-decade", current, output, enc.DecadeSource, enc.DecadeColumn))
		current = output
	}
	// List lengths such as genre_count.
	if len(enc.CountColumns) > 0 {
		chain.AddCommand(commands.NewListCounter(prefix+"count-lists", current, output, CountSpecs(enc)))
		current = output
	}
	// Standardization. Statistics come from this run's table.
	if len(enc.NumericColumns) > 0 {
		chain.AddCommand(commands.NewNumericStandardizer(prefix+"standardize-numeric", current, output,
			enc.NumericColumns, services.StandardizeOptions{Suffix: enc.StandardizedSuffix}))
		current = output
	}
	// One-hot expansion.
	if len(enc.Categorical) > 0 {
		chain.AddCommand(commands.NewCategoricalExpander(prefix+"expand-categorical", current, output, CategoricalSpecs(enc)))
		current = output
	}
	return current
}
