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
	"math"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

var toyPieces = []text.Piece{
	{Text: "<unk>", Type: text.PieceUnknown},
	{Text: "<s>", Type: text.PieceControl},
	{Text: "</s>", Type: text.PieceControl},
	{Text: "▁the", Score: -1, Type: text.PieceNormal},
	{Text: "▁cat", Score: -2, Type: text.PieceNormal},
	{Text: "▁c", Score: -5, Type: text.PieceNormal},
	{Text: "at", Score: -5, Type: text.PieceNormal},
	{Text: "▁", Score: -3, Type: text.PieceNormal},
	{Text: "s", Score: -4, Type: text.PieceNormal},
}

// appendPiece encodes piece as a ModelProto pieces field (1) holding the
// piece (1), score (2) and type (3) fields.
func appendPiece(b []byte, piece text.Piece) []byte {
	var inner []byte
	inner = protowire.AppendTag(inner, 1, protowire.BytesType)
	inner = protowire.AppendString(inner, piece.Text)
	inner = protowire.AppendTag(inner, 2, protowire.Fixed32Type)
	inner = protowire.AppendFixed32(inner, math.Float32bits(piece.Score))
	inner = protowire.AppendTag(inner, 3, protowire.VarintType)
	inner = protowire.AppendVarint(inner, uint64(piece.Type))

	b = protowire.AppendTag(b, 1, protowire.BytesType)
	return protowire.AppendBytes(b, inner)
}

// toyModel serializes toyPieces behind an unrelated trainer_spec field.
func toyModel() []byte {
	var b []byte
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("trainer spec"))
	for _, p := range toyPieces {
		b = appendPiece(b, p)
	}
	return b
}

func TestParseSentencePieceModel(t *testing.T) {
	pieces, err := text.ParseSentencePieceModel(toyModel())
	assert.NoError(t, err)
	assert.DeepEqual(t, pieces, toyPieces)

	_, err = text.ParseSentencePieceModel(protowire.AppendVarint(protowire.AppendTag(nil, 3, protowire.VarintType), 7))
	assert.That(t, errors.Is(err, model.ErrParse))
}

func TestSentencePieceEncode(t *testing.T) {
	tok := text.NewSentencePiece(toyPieces)

	cases := []struct {
		text string
		want []int32
	}{
		{"the cat", []int32{4, 5}},
		{"  the\tcat ", []int32{4, 5}},
		{"cats", []int32{5, 9}},
		{"the dog", []int32{4, 8, 3, 3, 3}},
		{"", nil},
	}
	for _, c := range cases {
		assert.DeepEqual(t, tok.Encode(c.text), c.want)
	}
}

func TestSentencePieceFixedLength(t *testing.T) {
	path := test.WriteFile(t, t.TempDir(), "xlmr.model", toyModel())

	tok, err := text.NewTokenizer(text.KindSentencePiece, path)
	assert.NoError(t, err)

	ids, err := text.FixedLength(tok, "the cat", 6)
	assert.NoError(t, err)
	assert.DeepEqual(t, ids, []int32{0, 4, 5, 2, 1, 1})

	_, err = text.LoadSentencePiece(filepath.Join(t.TempDir(), "missing.model"))
	assert.That(t, errors.Is(err, model.ErrFileNotFound))
}
