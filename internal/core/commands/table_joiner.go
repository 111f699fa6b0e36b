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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that inner-joins two cleaned tables on a key column.
package commands

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// TableJoiner joins the table under its input key with the table under
// rightParamName.
type TableJoiner struct {
	cor.BaseCommand
	rightParamName string
	key            string
	outputName     string
}

// NewTableJoiner is the constructor for the TableJoiner command. outputName is
// the logical name of the merged table.
func NewTableJoiner(name, leftParamName, rightParamName, key, outputName string) *TableJoiner {
	out := &TableJoiner{
		BaseCommand:    *cor.NewBaseCommand(name),
		rightParamName: rightParamName,
		key:            key,
		outputName:     outputName,
	}
	out.InputParamName = leftParamName
	out.OutputParamName = TableParam(outputName)
	return out
}

// IsExecutable checks that both sides of the join are present.
func (j *TableJoiner) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(j.GetInputParam()) != nil &&
		context.Get(j.rightParamName) != nil
}

// Execute joins the tables. The number of shared keys is logged and an empty
// result is recorded as a warning.
func (j *TableJoiner) Execute(context cor.Context) {
	left, ok := tableInput(context, j.GetInputParam())
	if !ok {
		j.Fail(context, errNotATable(j.GetInputParam()))
		return
	}
	right, ok := tableInput(context, j.rightParamName)
	if !ok {
		j.Fail(context, errNotATable(j.rightParamName))
		return
	}

	merged, err := services.InnerJoin(left, right, j.key)
	if err != nil {
		j.Fail(context, err)
		return
	}
	merged.Name = j.outputName

	overlap := services.KeyOverlap(left, right, j.key)
	context.GetLogger().InfoContext(context.GetContext(), "tables joined",
		"left", left.Name,
		"right", right.Name,
		"key", j.key,
		"left_rows", left.Len(),
		"right_rows", right.Len(),
		"shared_keys", overlap,
		"rows", merged.Len())
	if merged.Len() == 0 {
		context.AddWarning(j.GetName(), model.NewComputationWarning(j.GetName(),
			"join of %s and %s on %q produced no rows", left.Name, right.Name, j.key))
	}

	j.Succeed(context)
	context.Add(j.GetOutputParam(), merged)
}
