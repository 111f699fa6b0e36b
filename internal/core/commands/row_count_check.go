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
// check that the feature table and the script feature table line up.
package commands

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// RowCountCheck compares the row counts of two tables. A mismatch is a
// warning: both tables are still written and the run continues.
type RowCountCheck struct {
	cor.BaseCommand
	otherParamName string
}

// NewRowCountCheck is the constructor for the RowCountCheck command.
func NewRowCountCheck(name, tableParamName, otherParamName string) *RowCountCheck {
	out := &RowCountCheck{BaseCommand: *cor.NewBaseCommand(name), otherParamName: otherParamName}
	out.InputParamName = tableParamName
	return out
}

// IsExecutable checks that both tables are present.
func (r *RowCountCheck) IsExecutable(context cor.Context) bool {
	return context != nil &&
		context.Get(r.GetInputParam()) != nil &&
		context.Get(r.otherParamName) != nil
}

// Execute compares the counts.
func (r *RowCountCheck) Execute(context cor.Context) {
	table, ok := tableInput(context, r.GetInputParam())
	if !ok {
		r.Fail(context, errNotATable(r.GetInputParam()))
		return
	}
	other, ok := tableInput(context, r.otherParamName)
	if !ok {
		r.Fail(context, errNotATable(r.otherParamName))
		return
	}
	if table.Len() != other.Len() {
		context.AddWarning(r.GetName(), model.NewComputationWarning(r.GetName(),
			"%s has %d rows but %s has %d", table.Name, table.Len(), other.Name, other.Len()))
	} else {
		context.GetLogger().InfoContext(context.GetContext(), "row counts match",
			"table", table.Name, "other", other.Name, "rows", table.Len())
	}
	r.Succeed(context)
}
