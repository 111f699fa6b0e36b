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
// preparation run. This file implements the end-to-end pipeline.
//
// Logic Flow:
//  1. One DatasetPrepWorkflow per configured dataset, in sorted key order.
//  2. The FeatureTableWorkflow over the two merged datasets.
//  3. The ScriptFeatureWorkflow.
//  4. A RowCountCheck between the feature and script feature tables, when
//     both were built. A mismatch is only a warning.
//  5. The PublishWorkflow, when publish targets are supplied.
//  6. The run manifest is written next to the feature table.
//
// The chain stops at the first fatal error; warnings accumulate on the
// context and end up in the manifest.
package workflow

import (
	goctx "context"
	"log/slog"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// PipelineOptions selects the parts of a run.
type PipelineOptions struct {
	Tables   bool                      // Dataset preparation and the feature table.
	Scripts  bool                      // Script features.
	Progress commands.ProgressReporter // Optional script progress.
	Publish  *PublishTargets           // Nil skips publication.
}

// FeaturePipeline is the whole feature preparation run.
type FeaturePipeline struct {
	cor.BaseCommand
	config *cloud.Config
	chain  *cor.BaseChain
}

// NewFeaturePipeline builds the pipeline. Every stage is constructed up front
// so configuration problems surface before any file is read.
//
// Inputs:
//   - config: A validated application configuration.
//   - options: Which stages run.
//
// Returns:
//   - The pipeline, or the first stage construction error.
func NewFeaturePipeline(config *cloud.Config, options PipelineOptions) (*FeaturePipeline, error) {
	p := &FeaturePipeline{BaseCommand: *cor.NewBaseCommand("feature-pipeline"), config: config}
	out := cor.NewBaseChain(p.GetName())

	if options.Tables {
		for _, name := range config.DatasetNames() {
			prep, err := NewDatasetPrepWorkflow(config, name)
			if err != nil {
				return nil, err
			}
			out.AddCommand(prep)
		}
		out.AddCommand(NewFeatureTableWorkflow(config))
	}
	if options.Scripts {
		scripts, err := NewScriptFeatureWorkflow(config, options.Progress)
		if err != nil {
			return nil, err
		}
		out.AddCommand(scripts)
	}
	if options.Tables && options.Scripts {
		out.AddCommand(commands.NewRowCountCheck("check-row-counts", FeatureTableParam(config), ScriptTableParam(config)))
	}
	if options.Publish != nil {
		out.AddCommand(NewPublishWorkflow(config, *options.Publish))
	}
	out.AddCommand(commands.NewManifestWriter("write-manifest", config.Paths.ProcessedDir))

	p.chain = out
	return p, nil
}

// Stages returns the names of the top-level stages in execution order.
func (p *FeaturePipeline) Stages() []string {
	return p.chain.Commands()
}

// IsExecutable requires a run manifest in the context.
func (p *FeaturePipeline) IsExecutable(context cor.Context) bool {
	return p.chain.IsExecutable(context) && commands.GetManifest(context) != nil
}

// Execute runs every stage.
func (p *FeaturePipeline) Execute(context cor.Context) {
	p.chain.Execute(context)
}

// NewRun starts a run: a fresh manifest and a context whose logger carries
// the run id.
//
// Inputs:
//   - ctx: The Go context of the run.
//   - logger: The base logger; slog.Default() when nil.
//
// Returns:
//   - cor.Context: The run context, holding the manifest under commands.ManifestKey.
//   - *model.RunManifest: The manifest, filled in as the run progresses.
func NewRun(ctx goctx.Context, logger *slog.Logger) (cor.Context, *model.RunManifest) {
	if logger == nil {
		logger = slog.Default()
	}
	manifest := model.NewRunManifest()
	runCtx := cor.NewBaseContext(ctx, logger.With("run_id", manifest.RunID))
	runCtx.Add(commands.ManifestKey, manifest)
	return runCtx, manifest
}
