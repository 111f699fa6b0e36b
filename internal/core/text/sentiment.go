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
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

//go:embed lexicon_en.tsv
var defaultLexicon []byte

// Assessment is the lexicon entry of one word.
type Assessment struct {
	Polarity     float64 // In [-1, 1].
	Subjectivity float64 // In [0, 1].
	Intensity    float64 // Multiplier applied to the next assessed word; 1 for none.
}

// Lexicon maps lowercase words to their assessment.
type Lexicon map[string]Assessment

var negations = map[string]struct{}{
	"not": {}, "never": {}, "no": {}, "n't": {}, "cannot": {}, "without": {},
}

// apostrophes folds typographic apostrophes so "don’t" reads as a negation.
var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

var sentimentTokens = regexp.MustCompile(`[\p{L}\p{N}]+(?:'[\p{L}]+)?|n't|[!?.;]`)

// DefaultLexicon returns the embedded English lexicon.
func DefaultLexicon() Lexicon {
	lex, err := ParseLexicon(bytes.NewReader(defaultLexicon))
	if err != nil {
		// The embedded file is fixed at build time.
		panic(err)
	}
	return lex
}

// LoadLexicon reads a lexicon file. Each line holds a word, its polarity,
// subjectivity and intensity separated by tabs; lines starting with # are
// comments.
func LoadLexicon(path string) (Lexicon, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: lexicon %q", model.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("opening lexicon %q: %w", path, err)
	}
	defer file.Close()
	return ParseLexicon(file)
}

// ParseLexicon reads lexicon lines from r.
func ParseLexicon(r io.Reader) (Lexicon, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.Comment = '#'
	reader.FieldsPerRecord = 4

	lex := make(Lexicon)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: lexicon: %w", model.ErrParse, err)
		}
		var values [3]float64
		for i := range values {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: lexicon entry %q: %w", model.ErrParse, record[0], err)
			}
		}
		lex[strings.ToLower(strings.TrimSpace(record[0]))] = Assessment{
			Polarity:     values[0],
			Subjectivity: values[1],
			Intensity:    values[2],
		}
	}
	return lex, nil
}

type assessed struct {
	polarity     float64
	subjectivity float64
}

// Sentiment averages the assessments of the lexicon words in text.
//
// A word with an intensity other than 1 and no polarity of its own only
// modifies the next assessed word ("very good"). A negation before an
// assessed word in the same sentence multiplies its polarity by -0.5 ("not
// good"). An exclamation mark doubles the polarity of the word before it.
// Text without any lexicon word scores 0, 0.
func (l Lexicon) Sentiment(text string) (polarity, subjectivity float64) {
	var scores []assessed
	intensity := 1.0
	negated := false

	text = apostrophes.Replace(strings.ToLower(text))
	for _, token := range sentimentTokens.FindAllString(text, -1) {
		switch token {
		case "!":
			if len(scores) > 0 {
				last := &scores[len(scores)-1]
				last.polarity = clamp(last.polarity*2, -1, 1)
			}
			fallthrough
		case ".", "?", ";":
			intensity, negated = 1, false
			continue
		}
		if _, ok := negations[token]; ok || strings.HasSuffix(token, "n't") {
			negated = true
			continue
		}
		a, ok := l[token]
		if !ok {
			continue
		}
		if a.Polarity == 0 && a.Intensity != 1 && a.Intensity != 0 {
			intensity *= a.Intensity
			continue
		}
		p := clamp(a.Polarity*intensity, -1, 1)
		s := clamp(a.Subjectivity*intensity, 0, 1)
		if negated {
			p *= -0.5
		}
		scores = append(scores, assessed{polarity: p, subjectivity: s})
		intensity, negated = 1, false
	}

	if len(scores) == 0 {
		return 0, 0
	}
	for _, s := range scores {
		polarity += s.polarity
		subjectivity += s.subjectivity
	}
	n := float64(len(scores))
	return clamp(polarity/n, -1, 1), clamp(subjectivity/n, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
