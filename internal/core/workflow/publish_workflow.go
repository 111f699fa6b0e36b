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
// preparation run. This file implements the optional publication of a run to
// Google Cloud.
package workflow

import (
	"time"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
)

// PublishTargets are the destinations of a run. Nil targets are skipped.
type PublishTargets struct {
	Uploader  commands.Uploader
	Signer    commands.Signer
	Importer  commands.TableImporter
	Publisher commands.MessagePublisher
}

// NewPublishTargets adapts the cloud clients. Clients that were not created
// because their sink setting is empty stay nil.
func NewPublishTargets(config *cloud.Config, clients *cloud.ServiceClients) PublishTargets {
	targets := PublishTargets{Uploader: clients.Bucket(config)}
	if signer := clients.Signer(config); signer != nil {
		targets.Signer = signer
	}
	if loader := clients.Loader(); loader != nil {
		targets.Importer = loader
	}
	if publisher := clients.Publisher(config); publisher != nil {
		targets.Publisher = publisher
	}
	return targets
}

// PublishWorkflow uploads the run's artifacts, loads the selected tables into
// BigQuery and announces the manifest.
type PublishWorkflow struct {
	cor.BaseCommand
	config  *cloud.Config
	targets PublishTargets
	chain   cor.Chain
}

// NewPublishWorkflow is the constructor for the PublishWorkflow.
func NewPublishWorkflow(config *cloud.Config, targets PublishTargets) *PublishWorkflow {
	w := &PublishWorkflow{BaseCommand: *cor.NewBaseCommand("publish"), config: config, targets: targets}
	w.InputParamName = commands.ManifestKey
	w.initializeChain()
	return w
}

// Execute runs the chain.
func (w *PublishWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

func (w *PublishWorkflow) initializeChain() {
	sink := w.config.Sink
	out := cor.NewBaseChain(w.GetName())

	if w.targets.Uploader != nil {
		upload := commands.NewArtifactUpload("upload-artifacts", w.targets.Uploader, sink.Prefix)
		if w.targets.Signer != nil {
			upload.WithSigner(w.targets.Signer, time.Duration(sink.SignedURLTTLMinutes)*time.Minute)
		}
		out.AddCommand(upload)
	}
	if w.targets.Importer != nil && sink.Dataset != "" {
		out.AddCommand(commands.NewBigQueryLoad("load-bigquery", w.targets.Importer, sink.Dataset, sink.Tables))
	}
	if w.targets.Publisher != nil {
		out.AddCommand(commands.NewCompletionPublisher("publish-manifest", w.targets.Publisher))
	}

	w.chain = out
}
