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
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

func TestInnerJoinFixtures(t *testing.T) {
	basics, _, err := services.ReadTable(strings.NewReader(test.BasicsTSV), basicsOptions())
	require.NoError(t, err)
	basics, _, err = services.Clean(basics, services.CleanOptions{RequiredFields: []string{"primaryTitle"}})
	require.NoError(t, err)
	ratings, _, err := services.ReadTable(strings.NewReader(test.RatingsTSV), services.LoadOptions{Name: "ratings", Delimiter: '\t', NullMarker: `\N`})
	require.NoError(t, err)

	merged, err := services.InnerJoin(basics, ratings, "tconst")
	require.NoError(t, err)

	assert.Equal(t, []string{"tconst", "titleType", "primaryTitle", "startYear", "runtimeMinutes", "genres", "averageRating", "numVotes"}, merged.Columns())
	var keys []string
	for _, v := range merged.Column("tconst") {
		keys = append(keys, v.Text)
	}
	assert.Equal(t, []string{"tt0000001", "tt0000002", "tt0000004", "tt0000005"}, keys)
	assert.False(t, merged.Value(1, "averageRating").Valid)
	assert.Equal(t, "700000", merged.Value(2, "numVotes").Text)
	assert.Equal(t, 4, services.KeyOverlap(basics, ratings, "tconst"))
}

// Two tables of 100 and 80 rows sharing 60 keys merge to 60 rows.
func TestInnerJoinSharedKeys(t *testing.T) {
	left := model.NewTable("left", "id", "a")
	for i := 0; i < 100; i++ {
		require.NoError(t, left.AddRow([]model.Value{model.StringValue(fmt.Sprintf("k%03d", i)), model.IntValue(i)}))
	}
	right := model.NewTable("right", "id", "b")
	for i := 40; i < 120; i++ {
		require.NoError(t, right.AddRow([]model.Value{model.StringValue(fmt.Sprintf("k%03d", i)), model.IntValue(i * 2)}))
	}

	merged, err := services.InnerJoin(left, right, "id")
	require.NoError(t, err)
	assert.Equal(t, 60, merged.Len())
	assert.Equal(t, 60, services.KeyOverlap(left, right, "id"))
	assert.Equal(t, "k040", merged.Value(0, "id").Text)
	assert.Equal(t, "80", merged.Value(0, "b").Text)
}

func TestInnerJoinDuplicatesAndCollisions(t *testing.T) {
	left := test.NewTable(t, "left", []string{"id", "title"},
		[]string{"1", "Heat"},
		[]string{"2", "Alien"},
		[]string{"", "Unknown"},
	)
	right := test.NewTable(t, "right", []string{"title", "id", "source"},
		[]string{"heat", "1", "imdb"},
		[]string{"Heat (1995)", "1", "tmdb"},
		[]string{"nobody", "", "imdb"},
	)

	merged, err := services.InnerJoin(left, right, "id")
	require.NoError(t, err)

	assert.Equal(t, "left_right", merged.Name)
	want := [][]string{
		{"1", "Heat", "heat", "imdb"},
		{"1", "Heat", "Heat (1995)", "tmdb"},
	}
	if diff := cmp.Diff(want, test.Cells(merged)); diff != "" {
		t.Errorf("merged mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"id", "title_x", "title_y", "source"}, merged.Columns())
	assert.Equal(t, 1, services.KeyOverlap(left, right, "id"))
}

func TestInnerJoinMissingKey(t *testing.T) {
	left := test.NewTable(t, "left", []string{"id"}, []string{"1"})
	right := test.NewTable(t, "right", []string{"tconst"}, []string{"1"})

	_, err := services.InnerJoin(left, right, "id")
	assert.True(t, errors.Is(err, model.ErrSchema))
	assert.Equal(t, 0, services.KeyOverlap(left, right, "id"))
}

func TestInnerJoinSuffixClash(t *testing.T) {
	left := test.NewTable(t, "left", []string{"k", "a", "a_y"}, []string{"1", "L", "LY"})
	right := test.NewTable(t, "right", []string{"k", "a"}, []string{"1", "R"})

	_, err := services.InnerJoin(left, right, "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSchema))
	assert.Contains(t, err.Error(), `"a_y"`)

	joined, err := services.InnerJoin(right, left, "k")
	require.Error(t, err)
	assert.Nil(t, joined)
}
