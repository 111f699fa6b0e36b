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
	"fmt"
	"math"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// Extractor computes the feature record of one script document.
type Extractor struct {
	tokenizer Tokenizer
	lexicon   Lexicon
	maxLength int
}

// NewExtractor validates its collaborators. A nil lexicon selects the
// embedded default.
func NewExtractor(tokenizer Tokenizer, lexicon Lexicon, maxLength int) (*Extractor, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: no tokenizer", model.ErrInvalidConfig)
	}
	if maxLength <= 0 {
		return nil, fmt.Errorf("%w: max token length must be positive, got %d", model.ErrInvalidConfig, maxLength)
	}
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &Extractor{tokenizer: tokenizer, lexicon: lexicon, maxLength: maxLength}, nil
}

// MaxLength returns the fixed token sequence length.
func (e *Extractor) MaxLength() int {
	return e.maxLength
}

// Extract scores doc. It never fails: a document that could not be read is
// flagged Malformed with missing metrics and an all-padding sequence, and a
// document that cannot be scored for readability gets NaN for both scores.
func (e *Extractor) Extract(doc model.ScriptDocument) model.ScriptFeatures {
	out := model.ScriptFeatures{ScriptName: doc.Name}
	if doc.Err != nil {
		out.Malformed = true
		out.Tokens = Padding(e.tokenizer, e.maxLength)
		out.Polarity = math.NaN()
		out.Subjectivity = math.NaN()
		out.FleschKincaid = math.NaN()
		out.ReadingEase = math.NaN()
		return out
	}

	// maxLength was validated by NewExtractor.
	out.Tokens, _ = FixedLength(e.tokenizer, doc.Text, e.maxLength)
	out.WordCount = WordCount(doc.Text)
	out.Polarity, out.Subjectivity = e.lexicon.Sentiment(doc.Text)

	scores, err := Readability(doc.Text)
	if err != nil {
		out.FleschKincaid = math.NaN()
		out.ReadingEase = math.NaN()
	} else {
		out.FleschKincaid = scores.FleschKincaid
		out.ReadingEase = scores.ReadingEase
	}
	return out
}
