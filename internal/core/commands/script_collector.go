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
// command that reads the script documents from disk.
package commands

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// ScriptCollector reads every script in a directory into ScriptDocumentsKey.
type ScriptCollector struct {
	cor.BaseCommand
	dir       string
	extension string
}

// NewScriptCollector is the constructor for the ScriptCollector command. An
// empty extension reads every regular, non-hidden file.
func NewScriptCollector(name, dir, extension string) *ScriptCollector {
	out := &ScriptCollector{BaseCommand: *cor.NewBaseCommand(name), dir: dir, extension: extension}
	out.OutputParamName = ScriptDocumentsKey
	return out
}

// IsExecutable only needs a usable context.
func (s *ScriptCollector) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute collects the documents. Unreadable documents are kept; they are
// flagged malformed by the extractor.
func (s *ScriptCollector) Execute(context cor.Context) {
	docs, err := services.CollectScripts(s.dir, s.extension)
	if err != nil {
		s.Fail(context, err)
		return
	}
	unreadable := 0
	for _, doc := range docs {
		if doc.Err != nil {
			unreadable++
		}
	}
	context.GetLogger().InfoContext(context.GetContext(), "scripts collected",
		"dir", s.dir, "documents", len(docs), "unreadable", unreadable)
	s.Succeed(context)
	context.Add(s.GetOutputParam(), docs)
}
