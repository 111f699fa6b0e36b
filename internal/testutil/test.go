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

// Package test provides utility functions and fixture data to support the
// application's test suite. It loads the test configuration from configs/,
// roots every path of a run in a temporary directory, and writes small IMDb,
// TMDb and script fixtures there.
package test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// TestRuntime is the configuration runtime used by the tests.
const TestRuntime = "test"

// BasicsTSV is a title.basics fixture. tt0000003 lacks a primary title and is
// dropped by the cleaner.
const BasicsTSV = "tconst\ttitleType\tprimaryTitle\tstartYear\truntimeMinutes\tgenres\n" +
	"tt0000001\tmovie\tThe Great Escape\t1963\t172\tAdventure,Drama,History\n" +
	"tt0000002\tmovie\tAlien\t1979\t117\tHorror,Sci-Fi\n" +
	"tt0000003\tshort\t\\N\t1994\t\\N\tComedy\n" +
	"tt0000004\tmovie\tHeat\t1995\t170\tAction,Crime,Drama\n" +
	"tt0000005\ttvMovie\tDuel\t1971\t90\tThriller\n"

// RatingsTSV is a title.ratings fixture. tt0000002 has no rating and gets the
// mean; tt0000009 has no basics row.
const RatingsTSV = "tconst\taverageRating\tnumVotes\n" +
	"tt0000001\t8.2\t250000\n" +
	"tt0000002\t\\N\t900000\n" +
	"tt0000004\t8.3\t700000\n" +
	"tt0000005\t7.7\t60000\n" +
	"tt0000009\t6.5\t100\n"

// TMDbCSV is a TMDb fixture. The Alien row has no popularity and is dropped.
const TMDbCSV = "id,title,popularity,vote_average,genres\n" +
	"949,Heat,40.1,7.9,\"Action,Crime\"\n" +
	"348,Alien,,8.1,Horror\n" +
	"839,Duel,12.5,7.0,Thriller\n"

// Scripts are the readable script fixtures, keyed by file name.
var Scripts = map[string]string{
	"alien.txt": "The cat sat. It was a good day!",
	"heat.txt":  "Not a good day. The cat was very sad.",
}

// BinaryScriptName is a script fixture that holds PNG data.
const BinaryScriptName = "poster.txt"

// BinaryScript is the content of BinaryScriptName.
var BinaryScript = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

// ToyVocabulary is a tiny uncased WordPiece vocabulary. A token's id is its
// index.
var ToyVocabulary = []string{
	"[PAD]", "[UNK]", "[CLS]", "[SEP]",
	"the", "cat", "sat", "it", "was", "a", "good", "day",
	".", "!", "not", "very", "sad", "un", "##happy", "##s",
}

// HandleErr fails the test when err is not nil.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// ModuleRoot walks up from the working directory to the directory holding
// go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above the working directory")
		}
		dir = parent
	}
}

// ConfigDir returns the repository's configs directory.
func ConfigDir(t *testing.T) string {
	t.Helper()
	root, err := ModuleRoot()
	HandleErr(err, t)
	return filepath.Join(root, "configs")
}

// WriteFile writes data to dir/name, creating dir, and returns the path.
func WriteFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	HandleErr(os.MkdirAll(dir, os.ModePerm), t)
	path := filepath.Join(dir, name)
	HandleErr(os.WriteFile(path, data, 0o644), t)
	return path
}

// WriteVocabulary writes ToyVocabulary to dir/vocab.txt.
func WriteVocabulary(t *testing.T, dir string) string {
	t.Helper()
	return WriteFile(t, dir, "vocab.txt", []byte(strings.Join(ToyVocabulary, "\n")+"\n"))
}

// TestConfig loads configs/.env.toml and configs/.env.test.toml and roots the
// run in a fresh temporary directory holding every fixture: the three raw
// datasets, the scripts (including the binary one) and the vocabulary.
func TestConfig(t *testing.T) *cloud.Config {
	t.Helper()
	config := cloud.NewConfig()
	HandleErr(cloud.LoadConfig(config, ConfigDir(t), TestRuntime), t)

	root := t.TempDir()
	config.Paths = cloud.Paths{
		RawDataDir:   filepath.Join(root, "raw"),
		CleanDataDir: filepath.Join(root, "cleaned"),
		ProcessedDir: filepath.Join(root, "processed"),
		FeaturesDir:  filepath.Join(root, "features"),
		ScriptsDir:   filepath.Join(root, "scripts"),
	}

	WriteFile(t, config.Paths.RawDataDir, config.Datasets["basics"].File, []byte(BasicsTSV))
	WriteFile(t, config.Paths.RawDataDir, config.Datasets["ratings"].File, []byte(RatingsTSV))
	WriteFile(t, config.Paths.RawDataDir, config.Datasets["tmdb"].File, []byte(TMDbCSV))
	for name, script := range Scripts {
		WriteFile(t, config.Paths.ScriptsDir, name, []byte(script))
	}
	WriteFile(t, config.Paths.ScriptsDir, BinaryScriptName, BinaryScript)
	config.Text.Vocabulary = WriteVocabulary(t, root)

	return config
}

// NewTable builds a table from text rows. Empty cells and \N are missing.
func NewTable(t *testing.T, name string, columns []string, rows ...[]string) *model.Table {
	t.Helper()
	table := model.NewTable(name, columns...)
	for _, row := range rows {
		values := make([]model.Value, len(row))
		for i, cell := range row {
			if cell != "" && cell != `\N` {
				values[i] = model.StringValue(cell)
			}
		}
		HandleErr(table.AddRow(values), t)
	}
	return table
}

// Cells returns the table as text rows, with missing cells rendered as \N.
// It pairs with go-cmp for table assertions.
func Cells(table *model.Table) [][]string {
	out := make([][]string, table.Len())
	for i := range out {
		row := table.Row(i)
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v.Valid {
				out[i][j] = v.Text
			} else {
				out[i][j] = `\N`
			}
		}
	}
	return out
}
