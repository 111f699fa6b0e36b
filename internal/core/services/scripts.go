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

package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// headerSize is the number of leading bytes filetype needs to recognise a kind.
const headerSize = 262

// CollectScripts reads every script document in dir, sorted by file name.
// When ext is set only files with that extension are read.
//
// A file that is a known binary kind or is not valid UTF-8 is still returned,
// with Err set, so that it yields a malformed record instead of stopping the
// batch.
func CollectScripts(dir, ext string) ([]model.ScriptDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: scripts directory %q", model.ErrFileNotFound, dir)
		}
		return nil, fmt.Errorf("reading scripts directory %q: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	docs := make([]model.ScriptDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading script %q: %w", path, err)
		}
		docs = append(docs, ReadScript(entry.Name(), path, data))
	}
	return docs, nil
}

// ReadScript turns raw file content into a ScriptDocument.
func ReadScript(name, path string, data []byte) model.ScriptDocument {
	doc := model.ScriptDocument{Name: name, Path: path}

	header := data
	if len(header) > headerSize {
		header = header[:headerSize]
	}
	if kind, err := filetype.Match(header); err == nil && kind != filetype.Unknown {
		doc.Err = fmt.Errorf("%w: %s is %s content", model.ErrUnscoreable, name, kind.MIME.Value)
		return doc
	}
	if !utf8.Valid(data) {
		doc.Err = fmt.Errorf("%w: %s is not valid UTF-8", model.ErrUnscoreable, name)
		return doc
	}
	doc.Text = strings.TrimPrefix(string(data), "\ufeff")
	return doc
}
