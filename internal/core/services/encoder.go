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

// This file contains the Encoder: numeric standardization, one-hot expansion
// of single and multi-valued categorical columns, and the small derived
// columns (decade, list length) computed alongside them.
//
// All statistics and category sets are computed from the table passed in.
// Nothing is persisted between runs, so two runs over different inputs are not
// comparable.
package services

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// StandardizeOptions configures Standardize.
type StandardizeOptions struct {
	// Suffix, when set, writes the standardized values to a new column named
	// column+Suffix and keeps the original. Otherwise the column is replaced.
	Suffix string
}

// Standardize rescales each named column to zero mean and unit population
// standard deviation over its present values. Missing cells stay missing.
//
// A column with zero variance becomes all zeros and a column with no present
// values is left untouched; both raise a warning.
func Standardize(table *model.Table, columns []string, opts StandardizeOptions) (*model.Table, []model.ComputationWarning, error) {
	if err := table.RequireColumns("standardize", columns...); err != nil {
		return nil, nil, err
	}
	out := table.Clone()
	var warnings []model.ComputationWarning

	for _, column := range columns {
		values, err := numericColumn(out, column)
		if err != nil {
			return nil, nil, err
		}
		mean, std, n := meanStd(values)

		target := column
		if opts.Suffix != "" {
			target = column + opts.Suffix
			if out.HasColumn(target) {
				return nil, nil, fmt.Errorf("%w: standardize: column %q already exists", model.ErrSchema, target)
			}
		}

		scaled := make([]model.Value, len(values))
		switch {
		case n == 0:
			warnings = append(warnings, model.NewComputationWarning("standardize", "column %q has no values; left unscaled", column))
			scaled = out.Column(column)
		case std == 0:
			warnings = append(warnings, model.NewComputationWarning("standardize", "column %q has zero variance; scaled to 0", column))
			for i, v := range values {
				if v.ok {
					scaled[i] = model.FloatValue(0)
				}
			}
		default:
			for i, v := range values {
				if v.ok {
					scaled[i] = model.FloatValue((v.f - mean) / std)
				}
			}
		}

		if target == column {
			for i, v := range scaled {
				out.Set(i, column, v)
			}
			continue
		}
		if err := out.AddColumn(target, scaled); err != nil {
			return nil, nil, err
		}
	}
	return out, warnings, nil
}

// meanStd returns the mean and population standard deviation of the present
// values, and how many there were.
func meanStd(values []numeric) (mean, std float64, n int) {
	present := presentValues(values)
	if len(present) == 0 {
		return 0, 0, 0
	}
	if floats.Min(present) == floats.Max(present) {
		return present[0], 0, len(present)
	}
	mean, variance := stat.PopMeanVariance(present, nil)
	return mean, math.Sqrt(variance), len(present)
}

// CategoricalSpec describes the one-hot expansion of one column.
type CategoricalSpec struct {
	Column    string // Source column, dropped after expansion.
	Separator string // Set for multi-valued cells such as "action,comedy".
	Prefix    string // Indicator names become prefix_value when set.
	// DropReference drops one indicator of a single-valued column. Reference
	// names it; the first sorted category is used when it is empty.
	DropReference bool
	Reference     string
}

// IndicatorName returns the column name used for category value.
func (s CategoricalSpec) IndicatorName(value string) string {
	if s.Prefix == "" {
		return value
	}
	return s.Prefix + "_" + value
}

// OneHot replaces each spec's column with one 0/1 indicator column per
// distinct observed value, sorted by value and appended after the remaining
// columns. Multi-valued cells may set several indicators; missing cells set
// none.
func OneHot(table *model.Table, specs []CategoricalSpec) (*model.Table, []model.ComputationWarning, error) {
	for _, spec := range specs {
		if err := table.RequireColumns("one-hot", spec.Column); err != nil {
			return nil, nil, err
		}
		if spec.DropReference && spec.Separator != "" {
			return nil, nil, fmt.Errorf("%w: one-hot: column %q is multi-valued and has no reference category", model.ErrInvalidConfig, spec.Column)
		}
	}

	out := table.Clone()
	var warnings []model.ComputationWarning

	for _, spec := range specs {
		cells := out.Column(spec.Column)
		parsed := make([][]string, len(cells))
		seen := make(map[string]struct{})
		for i, v := range cells {
			if !v.Valid {
				continue
			}
			parsed[i] = splitCategories(v.Text, spec.Separator)
			for _, c := range parsed[i] {
				seen[c] = struct{}{}
			}
		}
		categories := make([]string, 0, len(seen))
		for c := range seen {
			categories = append(categories, c)
		}
		slices.Sort(categories)

		if spec.DropReference && len(categories) > 0 {
			reference := spec.Reference
			if reference == "" {
				reference = categories[0]
			}
			if idx := slices.Index(categories, reference); idx >= 0 {
				categories = slices.Delete(categories, idx, idx+1)
			} else {
				warnings = append(warnings, model.NewComputationWarning("one-hot", "reference category %q not observed in column %q; nothing dropped", reference, spec.Column))
			}
		}

		out.DropColumn(spec.Column)
		for _, c := range categories {
			name := spec.IndicatorName(c)
			if out.HasColumn(name) {
				return nil, nil, fmt.Errorf("%w: one-hot: indicator %q for column %q collides with an existing column", model.ErrSchema, name, spec.Column)
			}
			indicator := make([]model.Value, len(parsed))
			for i, values := range parsed {
				if slices.Contains(values, c) {
					indicator[i] = model.IntValue(1)
				} else {
					indicator[i] = model.IntValue(0)
				}
			}
			if err := out.AddColumn(name, indicator); err != nil {
				return nil, nil, err
			}
		}
	}
	return out, warnings, nil
}

func splitCategories(text, separator string) []string {
	if separator == "" {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, part := range strings.Split(text, separator) {
		if s := strings.TrimSpace(part); s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// DeriveDecade adds outColumn holding floor(year/10)*10. Years that do not
// parse become missing.
func DeriveDecade(table *model.Table, yearColumn, outColumn string) (*model.Table, error) {
	if err := table.RequireColumns("decade", yearColumn); err != nil {
		return nil, err
	}
	out := table.Clone()
	decades := make([]model.Value, out.Len())
	for i, v := range out.Column(yearColumn) {
		year, ok, err := v.Float()
		if err != nil || !ok {
			continue
		}
		decades[i] = model.IntValue(int(math.Floor(year/10) * 10))
	}
	if err := out.AddColumn(outColumn, decades); err != nil {
		return nil, err
	}
	return out, nil
}

// CountSpec names a delimited column and the count column derived from it.
type CountSpec struct {
	Column    string
	Output    string
	Separator string // Defaults to a comma.
}

// CountDelimited adds outColumn holding the number of distinct entries in
// each separator-delimited cell of column. Missing cells stay missing.
func CountDelimited(table *model.Table, column, outColumn, separator string) (*model.Table, error) {
	if err := table.RequireColumns("count", column); err != nil {
		return nil, err
	}
	if separator == "" {
		separator = ","
	}
	out := table.Clone()
	counts := make([]model.Value, out.Len())
	for i, v := range out.Column(column) {
		if v.Valid {
			counts[i] = model.IntValue(len(splitCategories(v.Text, separator)))
		}
	}
	if err := out.AddColumn(outColumn, counts); err != nil {
		return nil, err
	}
	return out, nil
}
