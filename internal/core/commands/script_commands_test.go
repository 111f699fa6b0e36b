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

package commands_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/commands"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

// fakeProgress records what the extractor reports.
type fakeProgress struct {
	mu    sync.Mutex
	total int64
	done  int
}

func (p *fakeProgress) SetTotal(total int64, _ bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

func (p *fakeProgress) IncrBy(n int, _ ...time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
}

func newExtractor(t *testing.T, maxLength int) *text.Extractor {
	t.Helper()
	tok, err := text.NewWordPiece(test.ToyVocabulary)
	require.NoError(t, err)
	extractor, err := text.NewExtractor(tok, nil, maxLength)
	require.NoError(t, err)
	return extractor
}

func TestScriptStages(t *testing.T) {
	dir := t.TempDir()
	for name, script := range test.Scripts {
		test.WriteFile(t, dir, name, []byte(script))
	}
	test.WriteFile(t, dir, test.BinaryScriptName, test.BinaryScript)

	progress := &fakeProgress{}
	chain := cor.NewBaseChain("scripts")
	chain.AddCommand(commands.NewScriptCollector("collect", dir, ".txt")).
		AddCommand(commands.NewScriptFeatureExtractor("extract", newExtractor(t, 16), 3, "script_features").WithProgress(progress))

	chainCtx, _ := newRunContext(t)
	chain.Execute(chainCtx)
	require.Empty(t, chainCtx.GetErrors())

	records := chainCtx.Get(commands.ScriptFeaturesKey).([]model.ScriptFeatures)
	require.Len(t, records, 3)
	names := []string{records[0].ScriptName, records[1].ScriptName, records[2].ScriptName}
	assert.Equal(t, []string{"alien.txt", "heat.txt", test.BinaryScriptName}, names)
	assert.False(t, records[0].Malformed)
	assert.True(t, records[2].Malformed)

	table := chainCtx.Get(commands.TableParam("script_features")).(*model.Table)
	assert.Equal(t, "script_features", table.Name)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "2 4 5 6 12 7 8 9 10 11 13 3 0 0 0 0", table.Value(0, model.TokenSequenceColumn).Text)

	require.Len(t, chainCtx.GetWarnings(), 1)
	assert.Contains(t, chainCtx.GetWarnings()[0].Error(), test.BinaryScriptName)

	assert.Equal(t, int64(3), progress.total)
	assert.Equal(t, 3, progress.done)
}

// Results land at their document's index whatever the worker count.
func TestScriptFeatureExtractorKeepsOrder(t *testing.T) {
	docs := make([]model.ScriptDocument, 50)
	for i := range docs {
		docs[i] = model.ScriptDocument{Name: fmt.Sprintf("script_%02d.txt", i), Text: "the cat sat."}
	}
	extractor := newExtractor(t, 8)

	var want []model.ScriptFeatures
	for _, workers := range []int{1, 4, 16} {
		chainCtx, _ := newRunContext(t)
		chainCtx.Add(commands.ScriptDocumentsKey, docs)

		commands.NewScriptFeatureExtractor("extract", extractor, workers, "script_features").Execute(chainCtx)
		require.Empty(t, chainCtx.GetErrors())

		got := chainCtx.Get(commands.ScriptFeaturesKey).([]model.ScriptFeatures)
		for i, record := range got {
			assert.Equal(t, docs[i].Name, record.ScriptName)
		}
		if want == nil {
			want = got
			continue
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%d workers changed the records (-want +got):\n%s", workers, diff)
		}
	}
}

func TestScriptFeatureExtractorCancelled(t *testing.T) {
	chainCtx, _ := newRunContext(t)
	cancelled, cancel := context.WithCancel(chainCtx.GetContext())
	cancel()
	chainCtx.SetContext(cancelled)
	chainCtx.Add(commands.ScriptDocumentsKey, []model.ScriptDocument{{Name: "alien.txt", Text: "The cat sat."}})

	commands.NewScriptFeatureExtractor("extract", newExtractor(t, 8), 2, "script_features").Execute(chainCtx)

	assert.True(t, errors.Is(chainCtx.GetErrors()["extract"], context.Canceled))
	assert.Nil(t, chainCtx.Get(commands.ScriptFeaturesKey))
}

func TestScriptCollectorMissingDirectory(t *testing.T) {
	chainCtx, _ := newRunContext(t)
	collector := commands.NewScriptCollector("collect", filepath.Join(t.TempDir(), "scripts"), "")
	collector.Execute(chainCtx)
	assert.True(t, errors.Is(chainCtx.GetErrors()["collect"], model.ErrFileNotFound))
}

func TestRowCountCheck(t *testing.T) {
	chainCtx, _ := newRunContext(t)
	chainCtx.Add("features", test.NewTable(t, "imdb_features", []string{"id"}, []string{"1"}, []string{"2"}))
	chainCtx.Add("scripts", test.NewTable(t, "script_features", []string{"id"}, []string{"1"}))

	check := commands.NewRowCountCheck("check", "features", "scripts")
	assert.True(t, check.IsExecutable(chainCtx))
	check.Execute(chainCtx)

	assert.False(t, chainCtx.HasErrors())
	require.Len(t, chainCtx.GetWarnings(), 1)
	assert.Equal(t, "check: imdb_features has 2 rows but script_features has 1", chainCtx.GetWarnings()[0].Error())
}
