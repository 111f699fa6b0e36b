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

// Package text computes the per-document script features: a fixed-length
// token sequence, sentiment polarity and subjectivity, readability scores and
// a word count.
//
// Every function in this package is safe for concurrent use once constructed,
// so a single Extractor can be shared by a worker pool.
package text

import (
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// Tokenizer kinds accepted by NewTokenizer.
const (
	KindWordPiece     = "wordpiece"
	KindSentencePiece = "sentencepiece"
)

// DefaultMaxLength is the fixed token sequence length used when none is
// configured.
const DefaultMaxLength = 512

// Tokenizer encodes text into vocabulary ids. Encode returns the ids of the
// text alone, without begin or end markers.
type Tokenizer interface {
	Encode(text string) []int32
	BOSID() int32
	EOSID() int32
	PadID() int32
	UnkID() int32
}

// NewTokenizer loads the tokenizer of the given kind from path.
func NewTokenizer(kind, path string) (Tokenizer, error) {
	switch strings.ToLower(kind) {
	case KindWordPiece, "bert", "":
		return LoadWordPiece(path)
	case KindSentencePiece, "unigram":
		return LoadSentencePiece(path)
	}
	return nil, fmt.Errorf("%w: unknown tokenizer %q", model.ErrInvalidConfig, kind)
}

// FixedLength encodes text as [BOS] ids [EOS], cut after length ids and
// right-padded with the pad id, so the result always has exactly length ids.
// A sequence longer than length loses its tail, end marker included.
func FixedLength(tok Tokenizer, text string, length int) ([]int32, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: token sequence length must be positive, got %d", model.ErrInvalidConfig, length)
	}
	ids := tok.Encode(text)

	out := make([]int32, 0, length)
	out = append(out, tok.BOSID())
	out = append(out, ids...)
	out = append(out, tok.EOSID())
	if len(out) > length {
		return out[:length], nil
	}
	for len(out) < length {
		out = append(out, tok.PadID())
	}
	return out, nil
}

// Padding returns a sequence of length pad ids.
func Padding(tok Tokenizer, length int) []int32 {
	out := make([]int32, length)
	for i := range out {
		out[i] = tok.PadID()
	}
	return out
}
