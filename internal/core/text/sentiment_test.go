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
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDefaultLexiconSentiment(t *testing.T) {
	lex := text.DefaultLexicon()

	cases := []struct {
		text         string
		polarity     float64
		subjectivity float64
	}{
		// The exclamation mark doubles "good" and the result is clamped.
		{test.Scripts["alien.txt"], 1, 0.6},
		// "not good" flips and halves; "very sad" is intensified.
		{test.Scripts["heat.txt"], -0.5, 0.8},
		{"The cat sat.", 0, 0},
		{"", 0, 0},
	}
	for _, c := range cases {
		p, s := lex.Sentiment(c.text)
		assert.That(t, near(p, c.polarity))
		assert.That(t, near(s, c.subjectivity))
	}
}

func TestParseLexicon(t *testing.T) {
	lex, err := text.ParseLexicon(strings.NewReader("# comment\nGrim\t-0.4\t0.8\t1\nhardly\t0\t0\t0.5\n"))
	assert.NoError(t, err)
	assert.Equal(t, len(lex), 2)
	assert.Equal(t, lex["grim"], text.Assessment{Polarity: -0.4, Subjectivity: 0.8, Intensity: 1})

	p, s := lex.Sentiment("hardly grim")
	assert.That(t, near(p, -0.2))
	assert.That(t, near(s, 0.4))

	_, err = text.ParseLexicon(strings.NewReader("grim\tvery\t0.8\t1\n"))
	assert.That(t, errors.Is(err, model.ErrParse))

	_, err = text.LoadLexicon(filepath.Join(t.TempDir(), "lexicon.tsv"))
	assert.That(t, errors.Is(err, model.ErrFileNotFound))
}

func TestSentimentTypographicApostrophe(t *testing.T) {
	lex := text.DefaultLexicon()

	straight, _ := lex.Sentiment("I don't like it.")
	curly, subjectivity := lex.Sentiment("I don’t like it.")
	assert.That(t, near(straight, -0.1))
	assert.That(t, near(curly, -0.1))
	assert.That(t, near(subjectivity, 0.4))
}
