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
// Responsibility (COR) pattern's Command interface, one per pipeline stage.
// This file defines the context keys the commands exchange data under.
package commands

import (
	"fmt"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

const (
	// ManifestKey holds the *model.RunManifest of the current run.
	ManifestKey = "__MANIFEST__"
	// ScriptDocumentsKey holds the []model.ScriptDocument read by ScriptCollector.
	ScriptDocumentsKey = "__SCRIPT_DOCUMENTS__"
	// ScriptFeaturesKey holds the []model.ScriptFeatures produced by ScriptFeatureExtractor.
	ScriptFeaturesKey = "__SCRIPT_FEATURES__"
	// MessageIDKey holds the Pub/Sub message id of the published manifest.
	MessageIDKey = "__MESSAGE_ID__"
)

// TableParam returns the context key a logical table is stored under.
func TableParam(name string) string {
	return "table." + name
}

// GetManifest returns the run manifest stored in the context, or nil.
func GetManifest(context cor.Context) *model.RunManifest {
	if m, ok := context.Get(ManifestKey).(*model.RunManifest); ok {
		return m
	}
	return nil
}

// tableInput reads the *model.Table stored under key.
func tableInput(context cor.Context, key string) (*model.Table, bool) {
	t, ok := context.Get(key).(*model.Table)
	return t, ok && t != nil
}

// addWarnings records stage warnings on the context.
func addWarnings(context cor.Context, key string, warnings []model.ComputationWarning) {
	for _, w := range warnings {
		context.AddWarning(key, w)
	}
}

func errNotATable(key string) error {
	return fmt.Errorf("context value %q is not a table", key)
}
