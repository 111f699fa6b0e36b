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
// preparation run. This file implements the preparation of one raw dataset.
package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// DatasetPrepWorkflow loads, cleans and writes one dataset. The cleaned table
// stays in the context under commands.TableParam(name) for the feature table
// workflow. A dataset with its own encoding section is also encoded and
// written as a feature artifact.
type DatasetPrepWorkflow struct {
	cor.BaseCommand
	config  *cloud.Config
	name    string
	dataset cloud.Dataset
	options services.LoadOptions
	chain   cor.Chain
}

// NewDatasetPrepWorkflow is the constructor for the DatasetPrepWorkflow.
//
// Inputs:
//   - config: The application configuration.
//   - name: The dataset key in config.Datasets.
//
// Returns:
//   - The workflow, or ErrInvalidConfig when the dataset is unknown or its
//     delimiter is not recognized.
func NewDatasetPrepWorkflow(config *cloud.Config, name string) (*DatasetPrepWorkflow, error) {
	ds, ok := config.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("unknown dataset %q", name)
	}
	options, err := LoadOptions(name, ds)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", name, err)
	}
	w := &DatasetPrepWorkflow{
		BaseCommand: *cor.NewBaseCommand(fmt.Sprintf("prepare-%s", name)),
		config:      config,
		name:        name,
		dataset:     ds,
		options:     options,
	}
	w.initializeChain()
	return w, nil
}

// IsExecutable only needs a usable context.
func (w *DatasetPrepWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

// Execute runs the chain.
func (w *DatasetPrepWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// DatasetFeatureParam returns the context key of a dataset's encoded table.
func DatasetFeatureParam(enc cloud.Encoding) string {
	return commands.TableParam(enc.Output)
}

func (w *DatasetPrepWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Read the raw file.
	path := cloud.ResolvePath(w.config.Paths.RawDataDir, w.dataset.File)
	out.AddCommand(commands.NewTableLoader(
		fmt.Sprintf("load-%s", w.name), path, w.options, RawTableParam(w.name)))

	// Step 2: Drop incomplete rows, fill means, lowercase.
	out.AddCommand(commands.NewTableCleaner(
		fmt.Sprintf("clean-%s", w.name), CleanOptions(w.dataset), RawTableParam(w.name), commands.TableParam(w.name)))

	// Step 3: Persist the cleaned table.
	out.AddCommand(commands.NewTableWriter(
		fmt.Sprintf("write-%s", w.name),
		commands.TableParam(w.name),
		w.config.Paths.CleanDataDir,
		DatasetOutputName(w.name, w.dataset),
		w.config.Output.Formats,
		services.WriteOptions{IncludeIndex: w.config.Output.IncludeIndex}))

	// Step 4: Encode the cleaned table on its own when configured.
	if enc := w.dataset.Encoding; enc != nil {
		featuresParam := DatasetFeatureParam(*enc)
		current := addEncodingSteps(out, w.name+"-", *enc, commands.TableParam(w.name), featuresParam)
		out.AddCommand(commands.NewTableWriter(
			fmt.Sprintf("write-%s-features", w.name),
			current,
			w.config.Paths.ProcessedDir,
			enc.Output,
			w.config.Output.Formats,
			services.WriteOptions{IncludeIndex: w.config.Output.IncludeIndex}))
		if current != featuresParam {
			out.AddCommand(newAlias(fmt.Sprintf("alias-%s-features", w.name), current, featuresParam))
		}
	}

	w.chain = out
}
