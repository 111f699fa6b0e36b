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

// Package text_test contains unit tests for the script feature computations:
// tokenization, sentiment, readability and the combined extractor.
package text_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

func toyWordPiece(t *testing.T) *text.WordPiece {
	t.Helper()
	tok, err := text.NewWordPiece(test.ToyVocabulary)
	test.HandleErr(err, t)
	return tok
}

func TestWordPieceSpecialTokens(t *testing.T) {
	tok := toyWordPiece(t)
	assert.Equal(t, tok.PadID(), int32(0))
	assert.Equal(t, tok.UnkID(), int32(1))
	assert.Equal(t, tok.BOSID(), int32(2))
	assert.Equal(t, tok.EOSID(), int32(3))
	assert.Equal(t, tok.VocabSize(), len(test.ToyVocabulary))

	_, err := text.NewWordPiece([]string{"[PAD]", "[UNK]", "[CLS]"})
	assert.That(t, errors.Is(err, model.ErrInvalidConfig))
}

func TestWordPieceEncode(t *testing.T) {
	tok := toyWordPiece(t)

	cases := []struct {
		text string
		want []int32
	}{
		{"The cat sat. It was a good day!", []int32{4, 5, 6, 12, 7, 8, 9, 10, 11, 13}},
		{"Unhappy cats", []int32{17, 18, 5, 19}},
		{"THÉ   cat\n", []int32{4, 5}},
		{"Dogs", []int32{1}},
		{"", nil},
	}
	for _, c := range cases {
		assert.DeepEqual(t, tok.Encode(c.text), c.want)
	}
}

func TestFixedLength(t *testing.T) {
	tok := toyWordPiece(t)

	ids, err := text.FixedLength(tok, "the cat", 6)
	assert.NoError(t, err)
	assert.DeepEqual(t, ids, []int32{2, 4, 5, 3, 0, 0})

	ids, err = text.FixedLength(tok, "The cat sat. It was a good day!", 4)
	assert.NoError(t, err)
	assert.DeepEqual(t, ids, []int32{2, 4, 5, 6})

	_, err = text.FixedLength(tok, "the cat", 0)
	assert.That(t, errors.Is(err, model.ErrInvalidConfig))

	assert.DeepEqual(t, text.Padding(tok, 3), []int32{0, 0, 0})
}

// An empty document tokenizes to [CLS] [SEP] followed by padding.
func TestFixedLengthEmptyDocument(t *testing.T) {
	tok := toyWordPiece(t)

	ids, err := text.FixedLength(tok, "", text.DefaultMaxLength)
	assert.NoError(t, err)
	assert.Equal(t, len(ids), 512)
	assert.Equal(t, ids[0], tok.BOSID())
	assert.Equal(t, ids[1], tok.EOSID())
	for _, id := range ids[2:] {
		assert.Equal(t, id, tok.PadID())
	}
}

func TestNewTokenizer(t *testing.T) {
	dir := t.TempDir()
	path := test.WriteVocabulary(t, dir)

	tok, err := text.NewTokenizer(text.KindWordPiece, path)
	assert.NoError(t, err)
	assert.DeepEqual(t, tok.Encode("good day"), []int32{10, 11})

	_, err = text.NewTokenizer("bpe", path)
	assert.That(t, errors.Is(err, model.ErrInvalidConfig))

	_, err = text.NewTokenizer(text.KindWordPiece, filepath.Join(dir, "missing.txt"))
	assert.That(t, errors.Is(err, model.ErrFileNotFound))
}
