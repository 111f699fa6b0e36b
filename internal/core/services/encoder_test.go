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

package services_test

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

func floats(t *testing.T, values []model.Value) []float64 {
	t.Helper()
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok, err := v.Float()
		require.NoError(t, err)
		if !ok {
			f = math.NaN()
		}
		out[i] = f
	}
	return out
}

func meanStd(values []float64) (float64, float64) {
	mean, variance := stat.PopMeanVariance(values, nil)
	return mean, math.Sqrt(variance)
}

// A column [10, 20, missing, 40] is mean filled with 23.33 and then
// standardized to mean 0 and standard deviation 1.
func TestMeanFillThenStandardize(t *testing.T) {
	table := test.NewTable(t, "numbers", []string{"x"}, []string{"10"}, []string{"20"}, []string{`\N`}, []string{"40"})

	filled, report, err := services.Clean(table, services.CleanOptions{MeanFill: []string{"x"}})
	require.NoError(t, err)
	assert.InDelta(t, 70.0/3, report.Filled[0].Mean, 1e-9)

	scaled, warnings, err := services.Standardize(filled, []string{"x"}, services.StandardizeOptions{})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	mean, std := meanStd(floats(t, scaled.Column("x")))
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-9)
}

func TestStandardizeTreatsNaNAsMissing(t *testing.T) {
	table := test.NewTable(t, "ratings", []string{"id", "rating"},
		[]string{"a", "10"},
		[]string{"b", "NaN"},
		[]string{"c", ""},
		[]string{"d", "40"},
		[]string{"e", "+Inf"},
	)

	scaled, warnings, err := services.Standardize(table, []string{"rating"}, services.StandardizeOptions{})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	column := scaled.Column("rating")
	assert.Equal(t, "-1", column[0].Text)
	assert.False(t, column[1].Valid)
	assert.False(t, column[2].Valid)
	assert.Equal(t, "1", column[3].Text)
	assert.False(t, column[4].Valid)
}

func TestStandardizeSuffixKeepsOriginal(t *testing.T) {
	table := test.NewTable(t, "numbers", []string{"x"}, []string{"1"}, []string{`\N`}, []string{"2"}, []string{"3"})

	scaled, _, err := services.Standardize(table, []string{"x"}, services.StandardizeOptions{Suffix: "_normalized"})
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "x_normalized"}, scaled.Columns())
	assert.Equal(t, "1", scaled.Value(0, "x").Text)
	assert.False(t, scaled.Value(1, "x_normalized").Valid)
	got := floats(t, scaled.Column("x_normalized"))
	assert.InDelta(t, -math.Sqrt(1.5), got[0], 1e-9)
	assert.InDelta(t, 0, got[2], 1e-9)
	assert.InDelta(t, math.Sqrt(1.5), got[3], 1e-9)

	_, _, err = services.Standardize(scaled, []string{"x"}, services.StandardizeOptions{Suffix: "_normalized"})
	assert.True(t, errors.Is(err, model.ErrSchema))
}

func TestStandardizeDegenerateColumns(t *testing.T) {
	table := test.NewTable(t, "numbers", []string{"flat", "empty"},
		[]string{"5", ""},
		[]string{"5", ""},
	)

	scaled, warnings, err := services.Standardize(table, []string{"flat", "empty"}, services.StandardizeOptions{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"0", `\N`}, {"0", `\N`}}, test.Cells(scaled))
	require.Len(t, warnings, 2)
	assert.Equal(t, "standardize", warnings[0].Stage)
	assert.Contains(t, warnings[0].Message, "zero variance")
	assert.Contains(t, warnings[1].Message, "no values")

	_, _, err = services.Standardize(table, []string{"missing"}, services.StandardizeOptions{})
	assert.True(t, errors.Is(err, model.ErrSchema))
}

// A genre column with "action,comedy" and "drama" expands to three indicators.
func TestOneHotMultiValued(t *testing.T) {
	table := test.NewTable(t, "movies", []string{"id", "genres"},
		[]string{"1", "action,comedy"},
		[]string{"2", "drama"},
	)

	expanded, warnings, err := services.OneHot(table, []services.CategoricalSpec{{Column: "genres", Separator: ","}})
	require.NoError(t, err)
	assert.Empty(t, warnings)

	want := [][]string{
		{"1", "1", "1", "0"},
		{"2", "0", "0", "1"},
	}
	assert.Equal(t, []string{"id", "action", "comedy", "drama"}, expanded.Columns())
	if diff := cmp.Diff(want, test.Cells(expanded)); diff != "" {
		t.Errorf("one-hot mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, table.HasColumn("genres"))
}

func TestOneHotSingleValuedWithReference(t *testing.T) {
	table := test.NewTable(t, "movies", []string{"titleType"},
		[]string{"tvMovie"},
		[]string{"movie"},
		[]string{""},
		[]string{"short"},
	)

	expanded, _, err := services.OneHot(table, []services.CategoricalSpec{{Column: "titleType", Prefix: "titleType", DropReference: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"titleType_short", "titleType_tvMovie"}, expanded.Columns())
	assert.Equal(t, [][]string{{"0", "1"}, {"0", "0"}, {"0", "0"}, {"1", "0"}}, test.Cells(expanded))

	_, warnings, err := services.OneHot(table, []services.CategoricalSpec{{Column: "titleType", DropReference: true, Reference: "episode"}})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "episode")
}

func TestOneHotErrors(t *testing.T) {
	table := test.NewTable(t, "movies", []string{"genres", "drama"}, []string{"drama", "1"})

	_, _, err := services.OneHot(table, []services.CategoricalSpec{{Column: "genres", Separator: ",", DropReference: true}})
	assert.True(t, errors.Is(err, model.ErrInvalidConfig))

	_, _, err = services.OneHot(table, []services.CategoricalSpec{{Column: "genres", Separator: ","}})
	assert.True(t, errors.Is(err, model.ErrSchema))

	_, _, err = services.OneHot(table, []services.CategoricalSpec{{Column: "kind"}})
	assert.True(t, errors.Is(err, model.ErrSchema))
}

func TestDeriveDecade(t *testing.T) {
	table := test.NewTable(t, "movies", []string{"startYear"}, []string{"1963"}, []string{"2000"}, []string{"soon"}, []string{""})

	derived, err := services.DeriveDecade(table, "startYear", "decade")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1963", "1960"}, {"2000", "2000"}, {"soon", `\N`}, {`\N`, `\N`}}, test.Cells(derived))

	_, err = services.DeriveDecade(table, "year", "decade")
	assert.True(t, errors.Is(err, model.ErrSchema))
}

func TestCountDelimited(t *testing.T) {
	table := test.NewTable(t, "movies", []string{"genres"}, []string{"Action,Crime,Drama"}, []string{"Drama, ,Drama"}, []string{""})

	counted, err := services.CountDelimited(table, "genres", "genre_count", "")
	require.NoError(t, err)
	assert.Equal(t, []model.Value{model.IntValue(3), model.IntValue(1), model.Null()}, counted.Column("genre_count"))
}
