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

// Package model defines the data structures that flow through the feature
// preparation workflows. This file defines the in-memory `Table` used by every
// tabular stage (load, clean, merge, encode, write).
//
// A Table is a named list of columns and a row-major grid of `Value` cells.
// Cells are kept as text exactly as they were read so that untouched columns
// round-trip to the output files unchanged; numeric stages parse on demand.
// A cell with `Valid == false` is the missing value.
package model

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Value is a single table cell.
type Value struct {
	Text  string // The textual content of the cell.
	Valid bool   // False when the cell is missing.
}

// Null returns the missing value.
func Null() Value {
	return Value{}
}

// StringValue returns a present cell holding s.
func StringValue(s string) Value {
	return Value{Text: s, Valid: true}
}

// FloatValue returns a present cell holding the shortest representation of f.
func FloatValue(f float64) Value {
	return Value{Text: strconv.FormatFloat(f, 'g', -1, 64), Valid: true}
}

// IntValue returns a present cell holding i.
func IntValue(i int) Value {
	return Value{Text: strconv.Itoa(i), Valid: true}
}

// Float parses the cell as a float64. ok is false for missing cells and for
// cells that parse as NaN or an infinity, which count as missing.
func (v Value) Float() (f float64, ok bool, err error) {
	if !v.Valid {
		return 0, false, nil
	}
	f, err = strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, nil
	}
	return f, true, nil
}

// Table is an ordered, named collection of rows.
type Table struct {
	Name    string
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable creates an empty table with the given column names.
func NewTable(name string, columns ...string) *Table {
	t := &Table{
		Name:    name,
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]Value, 0),
	}
	for i, c := range t.columns {
		t.index[c] = i
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// RequireColumns fails with ErrSchema naming every absent column.
func (t *Table) RequireColumns(stage string, columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s: table %q is missing column(s) %s", ErrSchema, stage, t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// AddRow appends a row. The row must have one cell per column.
func (t *Table) AddRow(row []Value) error {
	if len(row) != len(t.columns) {
		return fmt.Errorf("%w: table %q expects %d fields, got %d", ErrParse, t.Name, len(t.columns), len(row))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the cells of row i. The slice is shared with the table.
func (t *Table) Row(i int) []Value {
	return t.rows[i]
}

// Value returns the cell at row i in the named column. Unknown columns
// read as missing.
func (t *Table) Value(i int, column string) Value {
	c, ok := t.index[column]
	if !ok {
		return Null()
	}
	return t.rows[i][c]
}

// Set replaces the cell at row i in the named column.
func (t *Table) Set(i int, column string, v Value) {
	t.rows[i][t.index[column]] = v
}

// Column returns a copy of every cell in the named column.
func (t *Table) Column(name string) []Value {
	c, ok := t.index[name]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[c]
	}
	return out
}

// AddColumn appends a column. values must hold one cell per row.
func (t *Table) AddColumn(name string, values []Value) error {
	if t.HasColumn(name) {
		return fmt.Errorf("%w: table %q already has column %q", ErrSchema, t.Name, name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(t.rows))
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], values[i])
	}
	return nil
}

// DropColumn removes the named column. Unknown names are ignored.
func (t *Table) DropColumn(name string) {
	c, ok := t.index[name]
	if !ok {
		return
	}
	t.columns = slices.Delete(t.columns, c, c+1)
	for i := range t.rows {
		t.rows[i] = slices.Delete(t.rows[i], c, c+1)
	}
	t.index = make(map[string]int, len(t.columns))
	for i, col := range t.columns {
		t.index[col] = i
	}
}

// Filter returns a new table holding the rows for which keep returns true.
// Rows are copied.
func (t *Table) Filter(keep func(row []Value) bool) *Table {
	out := NewTable(t.Name, t.columns...)
	for _, row := range t.rows {
		if keep(row) {
			out.rows = append(out.rows, slices.Clone(row))
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return t.Filter(func([]Value) bool { return true })
}

// MissingCounts returns the number of missing cells per column.
func (t *Table) MissingCounts() map[string]int {
	out := make(map[string]int, len(t.columns))
	for _, c := range t.columns {
		out[c] = 0
	}
	for _, row := range t.rows {
		for i, v := range row {
			if !v.Valid {
				out[t.columns[i]]++
			}
		}
	}
	return out
}
