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

package text_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

func TestNewExtractorValidation(t *testing.T) {
	_, err := text.NewExtractor(nil, nil, 16)
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))

	_, err = text.NewExtractor(toyWordPiece(t), nil, 0)
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))

	extractor, err := text.NewExtractor(toyWordPiece(t), nil, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, extractor.MaxLength())
}

func TestExtract(t *testing.T) {
	extractor, err := text.NewExtractor(toyWordPiece(t), nil, 16)
	require.NoError(t, err)

	features := extractor.Extract(model.ScriptDocument{Name: "alien.txt", Text: test.Scripts["alien.txt"]})

	assert.Equal(t, "alien.txt", features.ScriptName)
	assert.False(t, features.Malformed)
	assert.Equal(t, []int32{2, 4, 5, 6, 12, 7, 8, 9, 10, 11, 13, 3, 0, 0, 0, 0}, features.Tokens)
	assert.Equal(t, 8, features.WordCount)
	assert.InDelta(t, 1, features.Polarity, 1e-9)
	assert.InDelta(t, 0.6, features.Subjectivity, 1e-9)
	assert.InDelta(t, -2.2, features.FleschKincaid, 0.011)
	assert.InDelta(t, 118.18, features.ReadingEase, 0.011)
}

func TestExtractMalformedDocument(t *testing.T) {
	extractor, err := text.NewExtractor(toyWordPiece(t), nil, 8)
	require.NoError(t, err)

	doc := model.ScriptDocument{Name: test.BinaryScriptName, Err: fmt.Errorf("%w: binary", model.ErrUnscoreable)}
	features := extractor.Extract(doc)

	assert.True(t, features.Malformed)
	assert.Equal(t, []int32{0, 0, 0, 0, 0, 0, 0, 0}, features.Tokens)
	assert.Equal(t, 0, features.WordCount)
	assert.True(t, math.IsNaN(features.Polarity))
	assert.True(t, math.IsNaN(features.ReadingEase))
}

func TestExtractEmptyDocument(t *testing.T) {
	extractor, err := text.NewExtractor(toyWordPiece(t), text.Lexicon{}, text.DefaultMaxLength)
	require.NoError(t, err)

	features := extractor.Extract(model.ScriptDocument{Name: "blank.txt"})

	assert.False(t, features.Malformed)
	require.Len(t, features.Tokens, 512)
	assert.Equal(t, []int32{2, 3, 0}, features.Tokens[:3])
	assert.Equal(t, int32(0), features.Tokens[511])
	assert.Equal(t, 0, features.WordCount)
	assert.Equal(t, 0.0, features.Polarity)
	assert.True(t, math.IsNaN(features.FleschKincaid))
}
