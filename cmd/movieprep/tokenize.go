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

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
)

// tokenizeE prints the fixed-length token ids of one document. Only the
// [text] section of the configuration is used.
func tokenizeE(cmd *cobra.Command, args []string) error {
	inPath := args[0]

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if config.Text.Vocabulary == "" {
		return fmt.Errorf("%w: %w: text.vocabulary is required", ErrMovieprep, model.ErrInvalidConfig)
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("%w: reading %q: %w", ErrMovieprep, inPath, err)
	}
	doc := services.ReadScript(inPath, inPath, data)
	if doc.Err != nil {
		return fmt.Errorf("%w: %w", ErrMovieprep, doc.Err)
	}

	tokenizer, err := text.NewTokenizer(config.Text.Tokenizer, config.Text.Vocabulary)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMovieprep, err)
	}
	ids, err := text.FixedLength(tokenizer, doc.Text, config.Text.MaxTokenLength)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMovieprep, err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(model.JoinTokens(ids)))
	return err
}
