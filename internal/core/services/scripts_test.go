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

package services_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

func TestCollectScripts(t *testing.T) {
	dir := t.TempDir()
	for name, script := range test.Scripts {
		test.WriteFile(t, dir, name, []byte(script))
	}
	test.WriteFile(t, dir, test.BinaryScriptName, test.BinaryScript)
	test.WriteFile(t, dir, ".draft.txt", []byte("hidden"))
	test.WriteFile(t, dir, "notes.md", []byte("not a script"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.txt"), os.ModePerm))

	docs, err := services.CollectScripts(dir, "txt")
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "alien.txt", docs[0].Name)
	assert.Equal(t, test.Scripts["alien.txt"], docs[0].Text)
	assert.Equal(t, filepath.Join(dir, "alien.txt"), docs[0].Path)
	assert.NoError(t, docs[0].Err)
	assert.Equal(t, "heat.txt", docs[1].Name)
	assert.Equal(t, test.BinaryScriptName, docs[2].Name)
	assert.True(t, errors.Is(docs[2].Err, model.ErrUnscoreable))
	assert.Empty(t, docs[2].Text)

	all, err := services.CollectScripts(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestCollectScriptsMissingDirectory(t *testing.T) {
	_, err := services.CollectScripts(filepath.Join(t.TempDir(), "scripts"), ".txt")
	assert.True(t, errors.Is(err, model.ErrFileNotFound))
}

func TestReadScript(t *testing.T) {
	doc := services.ReadScript("bom.txt", "bom.txt", []byte("\ufeffFADE IN."))
	assert.NoError(t, doc.Err)
	assert.Equal(t, "FADE IN.", doc.Text)

	doc = services.ReadScript("latin1.txt", "latin1.txt", []byte{'c', 'a', 'f', 0xe9})
	assert.True(t, errors.Is(doc.Err, model.ErrUnscoreable))

	doc = services.ReadScript("empty.txt", "empty.txt", nil)
	assert.NoError(t, doc.Err)
	assert.Empty(t, doc.Text)
}
