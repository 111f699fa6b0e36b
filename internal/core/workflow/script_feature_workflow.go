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
// preparation run. This file implements the script feature table.
package workflow

import (
	"fmt"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
)

// ScriptFeatureWorkflow collects the script documents, scores them with a
// worker pool and writes the script feature table.
type ScriptFeatureWorkflow struct {
	cor.BaseCommand
	config    *cloud.Config
	extractor *text.Extractor
	progress  commands.ProgressReporter
	chain     cor.Chain
}

// NewExtractor builds the feature extractor described by [text].
func NewExtractor(config *cloud.Config) (*text.Extractor, error) {
	tokenizer, err := text.NewTokenizer(config.Text.Tokenizer, config.Text.Vocabulary)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}
	var lexicon text.Lexicon
	if config.Text.Lexicon != "" {
		lexicon, err = text.LoadLexicon(config.Text.Lexicon)
		if err != nil {
			return nil, fmt.Errorf("loading lexicon: %w", err)
		}
	}
	return text.NewExtractor(tokenizer, lexicon, config.Text.MaxTokenLength)
}

// NewScriptFeatureWorkflow is the constructor for the ScriptFeatureWorkflow.
// The tokenizer and lexicon are loaded here so that a bad vocabulary fails
// before any work is done.
//
// Inputs:
//   - config: The application configuration.
//   - progress: Optional; advanced once per scored document.
//
// Returns:
//   - The workflow, or the tokenizer, lexicon or length error.
func NewScriptFeatureWorkflow(config *cloud.Config, progress commands.ProgressReporter) (*ScriptFeatureWorkflow, error) {
	extractor, err := NewExtractor(config)
	if err != nil {
		return nil, err
	}
	w := &ScriptFeatureWorkflow{
		BaseCommand: *cor.NewBaseCommand("script-features"),
		config:      config,
		extractor:   extractor,
		progress:    progress,
	}
	w.initializeChain()
	return w, nil
}

// ScriptTableParam returns the context key of the script feature table.
func ScriptTableParam(config *cloud.Config) string {
	return commands.TableParam(config.Text.Output)
}

// IsExecutable only needs a usable context.
func (w *ScriptFeatureWorkflow) IsExecutable(context cor.Context) bool {
	return w.chain.IsExecutable(context)
}

// Execute runs the chain.
func (w *ScriptFeatureWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

func (w *ScriptFeatureWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Read the documents, flagging binary and non UTF-8 files.
	out.AddCommand(commands.NewScriptCollector("collect-scripts", w.config.Paths.ScriptsDir, w.config.Text.ScriptExtension))

	// Step 2: Score the documents in parallel.
	extractor := commands.NewScriptFeatureExtractor("extract-script-features",
		w.extractor, w.config.Application.ThreadPoolSize, w.config.Text.Output)
	if w.progress != nil {
		extractor.WithProgress(w.progress)
	}
	out.AddCommand(extractor)

	// Step 3: Persist the script feature table.
	out.AddCommand(commands.NewTableWriter("write-script-features",
		ScriptTableParam(w.config), w.config.Paths.FeaturesDir, w.config.Text.Output,
		w.config.Output.Formats, services.WriteOptions{IncludeIndex: w.config.Output.IncludeIndex}))

	w.chain = out
}
