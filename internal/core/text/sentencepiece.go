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

package text

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// PieceType mirrors the SentencePiece piece type enum.
type PieceType int32

const (
	PieceNormal      PieceType = 1
	PieceUnknown     PieceType = 2
	PieceControl     PieceType = 3
	PieceUserDefined PieceType = 4
	PieceUnused      PieceType = 5
	PieceByte        PieceType = 6
)

// Field numbers in sentencepiece_model.proto.
const (
	modelPiecesField = 1
	pieceTextField   = 1
	pieceScoreField  = 2
	pieceTypeField   = 3
)

const (
	spaceMarker = '▁' // U+2581
	unkPenalty  = 10.0
)

// Piece is one vocabulary entry of a SentencePiece model.
type Piece struct {
	Text  string
	Score float32
	Type  PieceType
}

// SentencePiece is a unigram SentencePiece tokenizer producing XLM-R style
// ids: <s>=0, <pad>=1, </s>=2, <unk>=3 and every other model piece shifted up
// by one.
type SentencePiece struct {
	pieces      map[string]int32 // Piece text to model index, matchable pieces only.
	scores      map[string]float64
	unkScore    float64
	maxPieceLen int // In runes.
}

// LoadSentencePiece reads a serialized SentencePiece ModelProto.
func LoadSentencePiece(path string) (*SentencePiece, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: sentencepiece model %q", model.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("reading sentencepiece model %q: %w", path, err)
	}
	pieces, err := ParseSentencePieceModel(data)
	if err != nil {
		return nil, fmt.Errorf("parsing sentencepiece model %q: %w", path, err)
	}
	return NewSentencePiece(pieces), nil
}

// ParseSentencePieceModel decodes the pieces of a ModelProto. Every other
// field of the model is skipped.
func ParseSentencePieceModel(data []byte) ([]Piece, error) {
	var pieces []Piece
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
		if num == modelPiecesField && typ == protowire.BytesType {
			raw, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			piece, err := parsePiece(raw)
			if err != nil {
				return nil, err
			}
			pieces = append(pieces, piece)
			data = data[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		data = data[n:]
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: model has no pieces", model.ErrParse)
	}
	return pieces, nil
}

func parsePiece(data []byte) (Piece, error) {
	piece := Piece{Type: PieceNormal}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return piece, protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == pieceTextField && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return piece, protowire.ParseError(n)
			}
			piece.Text = string(v)
			data = data[n:]
		case num == pieceScoreField && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return piece, protowire.ParseError(n)
			}
			piece.Score = math.Float32frombits(v)
			data = data[n:]
		case num == pieceTypeField && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return piece, protowire.ParseError(n)
			}
			piece.Type = PieceType(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return piece, protowire.ParseError(n)
			}
			data = data[n:]
		}
	}
	return piece, nil
}

// NewSentencePiece builds a tokenizer from model pieces in model order. The
// first three pieces are expected to be <unk>, <s> and </s>.
func NewSentencePiece(pieces []Piece) *SentencePiece {
	t := &SentencePiece{
		pieces: make(map[string]int32, len(pieces)),
		scores: make(map[string]float64, len(pieces)),
	}
	minScore := math.MaxFloat64
	for i, p := range pieces {
		switch p.Type {
		case PieceNormal, PieceUserDefined:
		default:
			continue
		}
		if _, ok := t.pieces[p.Text]; ok {
			continue
		}
		t.pieces[p.Text] = int32(i)
		t.scores[p.Text] = float64(p.Score)
		minScore = math.Min(minScore, float64(p.Score))
		if l := len([]rune(p.Text)); l > t.maxPieceLen {
			t.maxPieceLen = l
		}
	}
	if minScore == math.MaxFloat64 {
		minScore = 0
	}
	t.unkScore = minScore - unkPenalty
	return t
}

func (t *SentencePiece) BOSID() int32 { return 0 }

func (t *SentencePiece) PadID() int32 { return 1 }

func (t *SentencePiece) EOSID() int32 { return 2 }

func (t *SentencePiece) UnkID() int32 { return 3 }

// toID maps a model index to the XLM-R id.
func toID(index int32) int32 {
	switch index {
	case 0:
		return 3
	case 1:
		return 0
	case 2:
		return 2
	default:
		return index + 1
	}
}

// Encode finds the highest scoring segmentation of the normalized text with
// the Viterbi algorithm. Characters no piece covers become <unk>.
func (t *SentencePiece) Encode(text string) []int32 {
	normalized := []rune(normalizeSpaces(text))
	n := len(normalized)
	if n == 0 {
		return nil
	}

	best := make([]float64, n+1)
	parent := make([]int, n+1)
	for i := 1; i <= n; i++ {
		best[i] = math.Inf(-1)
		parent[i] = -1
	}

	for i := 1; i <= n; i++ {
		maxLen := min(t.maxPieceLen, i)
		for length := 1; length <= maxLen; length++ {
			j := i - length
			score, ok := t.scores[string(normalized[j:i])]
			if !ok {
				continue
			}
			if candidate := best[j] + score; candidate > best[i] {
				best[i] = candidate
				parent[i] = j
			}
		}
		if parent[i] < 0 {
			best[i] = best[i-1] + t.unkScore
			parent[i] = i - 1
		}
	}

	var ids []int32
	for pos := n; pos > 0; pos = parent[pos] {
		index, ok := t.pieces[string(normalized[parent[pos]:pos])]
		if !ok {
			ids = append(ids, t.UnkID())
			continue
		}
		ids = append(ids, toID(index))
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}

// normalizeSpaces collapses whitespace runs into single U+2581 markers and
// adds the leading marker.
func normalizeSpaces(text string) string {
	var b strings.Builder
	pending := true
	for _, r := range text {
		if unicode.IsSpace(r) {
			if b.Len() > 0 {
				pending = true
			}
			continue
		}
		if pending {
			b.WriteRune(spaceMarker)
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
