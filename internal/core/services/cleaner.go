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

package services

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// EmptyColumnPolicy decides how a mean-fill column with no present values is
// handled.
type EmptyColumnPolicy string

const (
	EmptyColumnFail  EmptyColumnPolicy = "fail"  // Return ErrEmptyColumn.
	EmptyColumnZero  EmptyColumnPolicy = "zero"  // Fill every cell with 0.
	EmptyColumnLeave EmptyColumnPolicy = "leave" // Leave the cells missing.
)

// CleanOptions configures one Cleaner pass.
type CleanOptions struct {
	RequiredFields    []string          // Rows missing any of these are dropped.
	MeanFill          []string          // Numeric columns whose missing cells get the column mean.
	Lowercase         []string          // Text columns to lowercase.
	DropAnyMissing    bool              // Drop rows missing any field at all.
	EmptyColumnPolicy EmptyColumnPolicy // Fallback for an all-missing mean-fill column.
}

// FillResult records how one mean-fill column was handled.
type FillResult struct {
	Column string
	Mean   float64 // Zero unless Policy is empty.
	Filled int     // Cells that were replaced.
	Policy string  // Set when the empty-column fallback was applied.
}

// CleanReport makes the data loss of a Cleaner pass observable.
type CleanReport struct {
	InputRows   int
	DroppedRows int
	Filled      []FillResult
}

// Clean returns a cleaned copy of table. The input is not modified.
//
// Inputs:
//   - table: The raw table.
//   - opts: Required fields, mean-fill and lowercase columns.
//
// Outputs:
//   - *model.Table: The cleaned table.
//   - *CleanReport: Dropped row count and per-column fill details.
//   - error: ErrSchema when a named column is absent, ErrParse for a
//     non-numeric mean-fill value, ErrEmptyColumn under the fail fallback.
func Clean(table *model.Table, opts CleanOptions) (*model.Table, *CleanReport, error) {
	named := make([]string, 0, len(opts.RequiredFields)+len(opts.MeanFill)+len(opts.Lowercase))
	named = append(named, opts.RequiredFields...)
	named = append(named, opts.MeanFill...)
	named = append(named, opts.Lowercase...)
	if err := table.RequireColumns("clean", named...); err != nil {
		return nil, nil, err
	}

	policy := opts.EmptyColumnPolicy
	if policy == "" {
		policy = EmptyColumnFail
	}

	required := make([]int, len(opts.RequiredFields))
	for i, c := range opts.RequiredFields {
		required[i] = table.ColumnIndex(c)
	}

	out := table.Filter(func(row []model.Value) bool {
		if opts.DropAnyMissing {
			for _, v := range row {
				if !v.Valid {
					return false
				}
			}
			return true
		}
		for _, i := range required {
			if !row[i].Valid {
				return false
			}
		}
		return true
	})
	report := &CleanReport{InputRows: table.Len(), DroppedRows: table.Len() - out.Len()}

	for _, column := range opts.MeanFill {
		result, err := fillMean(out, column, policy)
		if err != nil {
			return nil, nil, err
		}
		report.Filled = append(report.Filled, result)
	}

	for _, column := range opts.Lowercase {
		c := out.ColumnIndex(column)
		for i := 0; i < out.Len(); i++ {
			row := out.Row(i)
			if row[c].Valid {
				row[c].Text = strings.ToLower(row[c].Text)
			}
		}
	}

	return out, report, nil
}

func fillMean(table *model.Table, column string, policy EmptyColumnPolicy) (FillResult, error) {
	result := FillResult{Column: column}
	values, err := numericColumn(table, column)
	if err != nil {
		return result, err
	}

	present := presentValues(values)

	var fill model.Value
	if len(present) == 0 {
		result.Policy = string(policy)
		switch policy {
		case EmptyColumnZero:
			fill = model.FloatValue(0)
		case EmptyColumnLeave:
			return result, nil
		default:
			return result, fmt.Errorf("%w: clean: mean of %q over %d rows", model.ErrEmptyColumn, column, table.Len())
		}
	} else {
		result.Mean = stat.Mean(present, nil)
		fill = model.FloatValue(result.Mean)
	}

	for i, v := range values {
		if !v.ok {
			table.Set(i, column, fill)
			result.Filled++
		}
	}
	return result, nil
}

type numeric struct {
	f  float64
	ok bool
}

// numericColumn parses every present cell of column. Missing cells, and cells
// holding NaN or an infinity, come back with ok == false.
func numericColumn(table *model.Table, column string) ([]numeric, error) {
	out := make([]numeric, table.Len())
	for i := 0; i < table.Len(); i++ {
		f, ok, err := table.Value(i, column).Float()
		if err != nil {
			return nil, fmt.Errorf("%w: column %q row %d: %q is not numeric", model.ErrParse, column, i, table.Value(i, column).Text)
		}
		out[i] = numeric{f: f, ok: ok}
	}
	return out, nil
}

// presentValues gathers the parsed values of the present cells.
func presentValues(values []numeric) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v.ok {
			out = append(out, v.f)
		}
	}
	return out
}
