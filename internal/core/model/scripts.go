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

// Package model defines the data structures that flow through the feature
// preparation workflows. This file holds the script document types: the raw
// document read from disk and the feature record derived from it.
package model

import (
	"math"
	"strconv"
	"strings"
)

// Column names of the script feature table.
const (
	ScriptNameColumn     = "script_name"
	WordCountColumn      = "word_count"
	PolarityColumn       = "sentiment_polarity"
	SubjectivityColumn   = "sentiment_subjectivity"
	FleschKincaidColumn  = "flesch_kincaid"
	ReadingEaseColumn    = "reading_ease"
	TokenSequenceColumn  = "tokenized_script_padded"
	ScriptFeatureTableID = "script_features"
)

// ScriptDocument is a single movie script read from the scripts directory.
// Err is set when the file could not be used as text; the document still
// produces a (malformed) feature record.
type ScriptDocument struct {
	Name string // The file name, used as the natural identifier.
	Path string // The full path the document was read from.
	Text string // The UTF-8 text of the document.
	Err  error  // Why the document is unusable, if it is.
}

// ScriptFeatures is the feature record computed once per script document.
// NaN in a float field is the missing-value sentinel.
type ScriptFeatures struct {
	ScriptName    string
	Tokens        []int32 // Fixed-length token sequence.
	Polarity      float64 // In [-1, 1].
	Subjectivity  float64 // In [0, 1].
	FleschKincaid float64 // Grade level, NaN when unscoreable.
	ReadingEase   float64 // Flesch Reading Ease, NaN when unscoreable.
	WordCount     int
	Malformed     bool // True when the document could not be read as text.
}

// ScriptFeatureTable renders feature records as a Table in the order given.
func ScriptFeatureTable(records []ScriptFeatures) *Table {
	t := NewTable(ScriptFeatureTableID,
		ScriptNameColumn,
		WordCountColumn,
		PolarityColumn,
		SubjectivityColumn,
		FleschKincaidColumn,
		ReadingEaseColumn,
		TokenSequenceColumn,
	)
	for _, r := range records {
		row := []Value{
			StringValue(r.ScriptName),
			IntValue(r.WordCount),
			floatOrNull(r.Polarity),
			floatOrNull(r.Subjectivity),
			floatOrNull(r.FleschKincaid),
			floatOrNull(r.ReadingEase),
			StringValue(JoinTokens(r.Tokens)),
		}
		if r.Malformed {
			for i := 1; i < 6; i++ {
				row[i] = Null()
			}
		}
		// Width always matches the header.
		_ = t.AddRow(row)
	}
	return t
}

// JoinTokens renders a token sequence as space-separated ids.
func JoinTokens(tokens []int32) string {
	var b strings.Builder
	for i, id := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(int64(id), 10))
	}
	return b.String()
}

func floatOrNull(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return FloatValue(f)
}
