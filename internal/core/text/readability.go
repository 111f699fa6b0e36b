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
	"regexp"
	"strings"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

var (
	// Word characters follow Unicode, not the ASCII-only \w of RE2.
	wordPattern     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	lexiconPattern  = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)
	sentencePattern = regexp.MustCompile(`[^.!?]*[\p{L}\p{N}][^.!?]*[.!?]*`)
	vowelGroups     = regexp.MustCompile(`[aeiouy]+`)
)

// WordCount returns the number of word-character runs in text.
func WordCount(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// ReadabilityScores holds the counts and the two Flesch scores of a text.
type ReadabilityScores struct {
	Sentences     int
	Words         int
	Syllables     int
	FleschKincaid float64 // Grade level, one decimal.
	ReadingEase   float64 // Flesch Reading Ease, two decimals.
}

// Readability scores text. A text without a sentence or a word cannot be
// scored and returns ErrUnscoreable.
func Readability(text string) (ReadabilityScores, error) {
	var out ReadabilityScores
	words := lexiconPattern.FindAllString(text, -1)
	out.Words = len(words)
	out.Sentences = len(sentencePattern.FindAllStringIndex(text, -1))
	if out.Words == 0 || out.Sentences == 0 {
		return out, fmt.Errorf("%w: %d words in %d sentences", model.ErrUnscoreable, out.Words, out.Sentences)
	}
	for _, w := range words {
		out.Syllables += Syllables(w)
	}

	wordsPerSentence := float64(out.Words) / float64(out.Sentences)
	syllablesPerWord := float64(out.Syllables) / float64(out.Words)
	out.FleschKincaid = round(0.39*wordsPerSentence+11.8*syllablesPerWord-15.59, 1)
	out.ReadingEase = round(206.835-1.015*wordsPerSentence-84.6*syllablesPerWord, 2)
	return out, nil
}

// Syllables estimates the syllable count of an English word from its vowel
// groups. Every word has at least one syllable.
func Syllables(word string) int {
	w := strings.ToLower(strings.Trim(word, "'’"))
	w = strings.TrimSuffix(w, "'s")
	if w == "" {
		return 0
	}
	count := len(vowelGroups.FindAllStringIndex(w, -1))
	if len(w) > 2 && strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && !strings.HasSuffix(w, "ee") {
		count--
	}
	if strings.HasSuffix(w, "es") || strings.HasSuffix(w, "ed") {
		if len(w) > 3 && !strings.ContainsAny(w[len(w)-3:len(w)-2], "tdsxzcgh") {
			count--
		}
	}
	return max(count, 1)
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
