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
// commands that finish a run: the manifest is written next to the artifacts
// and, when a topic is configured, announced on Pub/Sub.
package commands

import (
	goctx "context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// ManifestFileName is the name of the manifest written by ManifestWriter.
const ManifestFileName = "run_manifest.json"

var errNoManifest = errors.New("no run manifest in context")

// MessagePublisher sends one message and returns its server id.
type MessagePublisher interface {
	Publish(ctx goctx.Context, data []byte, attrs map[string]string) (string, error)
}

// finishManifest stamps the manifest and renders it.
func finishManifest(context cor.Context) (*model.RunManifest, []byte, error) {
	manifest := GetManifest(context)
	if manifest == nil {
		return nil, nil, errNoManifest
	}
	manifest.Finish(context.GetWarnings())
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding run manifest: %w", err)
	}
	return manifest, data, nil
}

// ManifestWriter writes the run manifest as JSON into a directory.
type ManifestWriter struct {
	cor.BaseCommand
	dir string
}

// NewManifestWriter is the constructor for the ManifestWriter command.
func NewManifestWriter(name, dir string) *ManifestWriter {
	out := &ManifestWriter{BaseCommand: *cor.NewBaseCommand(name), dir: dir}
	out.InputParamName = ManifestKey
	return out
}

// Execute writes dir/run_manifest.json.
func (m *ManifestWriter) Execute(context cor.Context) {
	manifest, data, err := finishManifest(context)
	if err != nil {
		m.Fail(context, err)
		return
	}
	if err := os.MkdirAll(m.dir, os.ModePerm); err != nil {
		m.Fail(context, fmt.Errorf("creating manifest directory: %w", err))
		return
	}
	path := filepath.Join(m.dir, ManifestFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		m.Fail(context, fmt.Errorf("writing run manifest: %w", err))
		return
	}
	context.GetLogger().InfoContext(context.GetContext(), "run manifest written",
		"path", path, "artifacts", len(manifest.Artifacts), "warnings", len(manifest.Warnings))
	m.Succeed(context)
}

// CompletionPublisher publishes the run manifest to a topic.
type CompletionPublisher struct {
	cor.BaseCommand
	publisher MessagePublisher
}

// NewCompletionPublisher is the constructor for the CompletionPublisher command.
func NewCompletionPublisher(name string, publisher MessagePublisher) *CompletionPublisher {
	out := &CompletionPublisher{BaseCommand: *cor.NewBaseCommand(name), publisher: publisher}
	out.InputParamName = ManifestKey
	out.OutputParamName = MessageIDKey
	return out
}

// Execute publishes the manifest. The run id and artifact count travel as
// message attributes so subscribers can filter without decoding the body.
func (c *CompletionPublisher) Execute(context cor.Context) {
	manifest, data, err := finishManifest(context)
	if err != nil {
		c.Fail(context, err)
		return
	}
	id, err := c.publisher.Publish(context.GetContext(), data, map[string]string{
		"run_id":    manifest.RunID,
		"artifacts": fmt.Sprintf("%d", len(manifest.Artifacts)),
		"warnings":  fmt.Sprintf("%d", len(manifest.Warnings)),
	})
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.GetLogger().InfoContext(context.GetContext(), "run manifest published",
		"run_id", manifest.RunID, "message_id", id)
	c.Succeed(context)
	context.Add(c.GetOutputParam(), id)
}
