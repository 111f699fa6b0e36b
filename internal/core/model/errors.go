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

package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every pipeline stage. Callers wrap them with
// fmt.Errorf("%w: ...") and test for them with errors.Is.
var (
	// ErrFileNotFound indicates an expected input file or directory is absent.
	ErrFileNotFound = errors.New("file not found")

	// ErrSchema indicates an expected column is absent from a table.
	ErrSchema = errors.New("schema error")

	// ErrParse indicates a malformed row or field in an input file.
	ErrParse = errors.New("parse error")

	// ErrEmptyColumn indicates a statistic was requested over a column
	// that holds no values.
	ErrEmptyColumn = errors.New("column has no values")

	// ErrUnscoreable indicates a document is too short or malformed to score.
	ErrUnscoreable = errors.New("document cannot be scored")

	// ErrInvalidConfig indicates the pipeline configuration was rejected.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ComputationWarning is a non-fatal condition raised by a stage. The pipeline
// records it and keeps going.
type ComputationWarning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// NewComputationWarning formats a warning for the named stage.
func NewComputationWarning(stage string, format string, args ...any) ComputationWarning {
	return ComputationWarning{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

func (w ComputationWarning) Error() string {
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
