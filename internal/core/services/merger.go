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
	"slices"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// Suffixes given to non-key columns that exist on both sides of a join.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// InnerJoin joins left and right on key. Output rows follow the order of the
// left table and, within one key, the order of the right table. Duplicate keys
// produce the cross-product of the matching rows. Rows with a missing key
// never match.
//
// The output holds every left column followed by every right column except
// the key. A suffixed name that clashes with another output column is an
// ErrSchema.
func InnerJoin(left, right *model.Table, key string) (*model.Table, error) {
	if err := left.RequireColumns("merge", key); err != nil {
		return nil, err
	}
	if err := right.RequireColumns("merge", key); err != nil {
		return nil, err
	}

	leftColumns := left.Columns()
	rightColumns := right.Columns()
	rightKey := right.ColumnIndex(key)

	columns := make([]string, 0, len(leftColumns)+len(rightColumns)-1)
	for _, c := range leftColumns {
		if c != key && slices.Contains(rightColumns, c) {
			c += LeftSuffix
		}
		columns = append(columns, c)
	}
	for _, c := range rightColumns {
		if c == key {
			continue
		}
		if slices.Contains(leftColumns, c) {
			c += RightSuffix
		}
		columns = append(columns, c)
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: merge: column %q appears twice in the join of %s and %s", model.ErrSchema, c, left.Name, right.Name)
		}
		seen[c] = struct{}{}
	}

	out := model.NewTable(left.Name+"_"+right.Name, columns...)

	matches := make(map[string][]int, right.Len())
	for i := 0; i < right.Len(); i++ {
		v := right.Row(i)[rightKey]
		if v.Valid {
			matches[v.Text] = append(matches[v.Text], i)
		}
	}

	leftKey := left.ColumnIndex(key)
	for i := 0; i < left.Len(); i++ {
		lrow := left.Row(i)
		if !lrow[leftKey].Valid {
			continue
		}
		for _, j := range matches[lrow[leftKey].Text] {
			rrow := right.Row(j)
			row := make([]model.Value, 0, len(columns))
			row = append(row, lrow...)
			row = append(row, rrow[:rightKey]...)
			row = append(row, rrow[rightKey+1:]...)
			if err := out.AddRow(row); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// KeyOverlap returns the number of distinct present key values found in both
// tables.
func KeyOverlap(left, right *model.Table, key string) int {
	if !left.HasColumn(key) || !right.HasColumn(key) {
		return 0
	}
	seen := make(map[string]struct{})
	for _, v := range left.Column(key) {
		if v.Valid {
			seen[v.Text] = struct{}{}
		}
	}
	shared := make(map[string]struct{})
	for _, v := range right.Column(key) {
		if _, ok := seen[v.Text]; ok && v.Valid {
			shared[v.Text] = struct{}{}
		}
	}
	return len(shared)
}
