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
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// Special tokens of an uncased BERT vocabulary.
const (
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
	PadToken = "[PAD]"
	UnkToken = "[UNK]"

	continuationPrefix = "##"
	maxWordChars       = 100
)

// WordPiece is an uncased BERT WordPiece tokenizer. The id of a token is its
// line number in the vocabulary file.
type WordPiece struct {
	vocab map[string]int32
	cls   int32
	sep   int32
	pad   int32
	unk   int32
}

// LoadWordPiece reads a vocabulary file with one token per line.
func LoadWordPiece(path string) (*WordPiece, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: vocabulary %q", model.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("opening vocabulary %q: %w", path, err)
	}
	defer file.Close()

	var tokens []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		tokens = append(tokens, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary %q: %w", path, err)
	}
	return NewWordPiece(tokens)
}

// NewWordPiece builds a tokenizer from an in-memory vocabulary. The
// vocabulary must contain [CLS], [SEP], [PAD] and [UNK].
func NewWordPiece(tokens []string) (*WordPiece, error) {
	w := &WordPiece{vocab: make(map[string]int32, len(tokens))}
	for i, t := range tokens {
		if _, ok := w.vocab[t]; !ok {
			w.vocab[t] = int32(i)
		}
	}
	for _, special := range []struct {
		token string
		id    *int32
	}{
		{ClsToken, &w.cls},
		{SepToken, &w.sep},
		{PadToken, &w.pad},
		{UnkToken, &w.unk},
	} {
		id, ok := w.vocab[special.token]
		if !ok {
			return nil, fmt.Errorf("%w: vocabulary has no %s token", model.ErrInvalidConfig, special.token)
		}
		*special.id = id
	}
	return w, nil
}

func (w *WordPiece) BOSID() int32 { return w.cls }

func (w *WordPiece) EOSID() int32 { return w.sep }

func (w *WordPiece) PadID() int32 { return w.pad }

func (w *WordPiece) UnkID() int32 { return w.unk }

// VocabSize returns the number of distinct tokens.
func (w *WordPiece) VocabSize() int { return len(w.vocab) }

// Encode lowercases text, strips accents, splits it on whitespace and
// punctuation and then splits every word into the longest vocabulary pieces.
func (w *WordPiece) Encode(text string) []int32 {
	var ids []int32
	for _, word := range basicTokens(text) {
		ids = append(ids, w.wordPieces(word)...)
	}
	return ids
}

// wordPieces applies greedy longest-match-first. A word that cannot be fully
// covered becomes a single [UNK].
func (w *WordPiece) wordPieces(word string) []int32 {
	chars := []rune(word)
	if len(chars) > maxWordChars {
		return []int32{w.unk}
	}
	var out []int32
	for start := 0; start < len(chars); {
		end := len(chars)
		found := int32(-1)
		for start < end {
			piece := string(chars[start:end])
			if start > 0 {
				piece = continuationPrefix + piece
			}
			if id, ok := w.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int32{w.unk}
		}
		out = append(out, found)
		start = end
	}
	return out
}

// basicTokens splits text the way the uncased BERT basic tokenizer does.
func basicTokens(text string) []string {
	// The transformer chain keeps state, so one is built per call.
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(stripAccents, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}

	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	for _, r := range folded {
		switch {
		case r == 0 || r == unicode.ReplacementChar || isControl(r):
			continue
		case unicode.IsSpace(r):
			flush()
		case isPunctuation(r) || unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}

// isPunctuation treats every non-alphanumeric ASCII symbol as punctuation,
// as well as the Unicode P categories.
func isPunctuation(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
