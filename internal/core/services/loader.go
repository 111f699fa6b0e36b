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

// Package services holds the table transforms the pipeline commands are built
// on. Every function here is a pure transform over its inputs plus, for the
// loader and writer, the file it reads or writes.
//
// This file contains the Loader, which reads a delimited file with a header
// row into a `model.Table`.
package services

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/willbeason/bondsmith"
)

// ParsePolicy selects what happens to a row whose field count differs from
// the header.
type ParsePolicy string

const (
	ParsePolicyFail ParsePolicy = "fail" // Abort the load with ErrParse.
	ParsePolicySkip ParsePolicy = "skip" // Drop the row and count it.
)

// DefaultNullMarker is the literal IMDb dumps use for a missing value.
const DefaultNullMarker = `\N`

// LoadOptions describes how a raw file is read.
type LoadOptions struct {
	Name        string      // Logical table name, used in errors and output names.
	Delimiter   rune        // Field separator.
	NullMarker  string      // Literal that reads as missing. Empty cells are always missing.
	ParsePolicy ParsePolicy // Ragged row handling; empty means fail.
}

// LoadReport summarizes a load.
type LoadReport struct {
	Rows        int            // Data rows kept.
	Columns     int            // Header width.
	SkippedRows int            // Ragged rows dropped under ParsePolicySkip.
	BytesRead   int64          // Bytes consumed from disk.
	Missing     map[string]int // Missing cells per column.
}

// DelimiterFromName maps a configured delimiter to its rune. Both names
// ("tab", "comma") and the literal characters are accepted.
func DelimiterFromName(name string) (rune, error) {
	switch strings.ToLower(name) {
	case "tab", `\t`, "\t", "tsv":
		return '\t', nil
	case "comma", ",", "csv", "":
		return ',', nil
	case "pipe", "|":
		return '|', nil
	case "semicolon", ";":
		return ';', nil
	}
	return 0, fmt.Errorf("%w: unknown delimiter %q", model.ErrInvalidConfig, name)
}

// LoadTable reads the file at path into a Table. Files ending in ".gz" are
// decompressed on the fly.
//
// Inputs:
//   - path: The file to read.
//   - opts: Delimiter, null marker and ragged-row policy.
//
// Outputs:
//   - *model.Table: The raw table, cells kept as text.
//   - *LoadReport: Row, column, byte and null statistics.
//   - error: ErrFileNotFound, ErrParse, or an I/O error.
func LoadTable(path string, opts LoadOptions) (*model.Table, *LoadReport, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %q", model.ErrFileNotFound, path)
		}
		return nil, nil, fmt.Errorf("opening %q: %w", path, err)
	}
	defer file.Close()

	countReader := bondsmith.NewCountReader(file)
	var reader io.Reader = countReader
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(countReader)
		if err != nil {
			return nil, nil, fmt.Errorf("starting gzip reader stream for %q: %w", path, err)
		}
		defer gz.Close()
		reader = gz
	}

	table, report, err := readTable(reader, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %q: %w", path, err)
	}
	report.BytesRead = int64(countReader.Count())
	return table, report, nil
}

// ReadTable parses delimited text from r. It is LoadTable without the file.
func ReadTable(r io.Reader, opts LoadOptions) (*model.Table, *LoadReport, error) {
	return readTable(r, opts)
}

func readTable(r io.Reader, opts LoadOptions) (*model.Table, *LoadReport, error) {
	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = ','
	}
	policy := opts.ParsePolicy
	if policy == "" {
		policy = ParsePolicyFail
	}

	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %s: no header row", model.ErrParse, opts.Name)
		}
		return nil, nil, fmt.Errorf("%w: %s: reading header: %w", model.ErrParse, opts.Name, err)
	}
	// A UTF-8 byte order mark sticks to the first column name.
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := model.NewTable(opts.Name, header...)
	report := &LoadReport{Columns: len(header)}

	for {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, fmt.Errorf("reading %s: %w", opts.Name, err)
			}
			if policy == ParsePolicySkip {
				report.SkippedRows++
				continue
			}
			return nil, nil, fmt.Errorf("%w: %s: %w", model.ErrParse, opts.Name, err)
		}
		if len(record) != len(header) {
			line, _ := csvReader.FieldPos(0)
			if policy == ParsePolicySkip {
				report.SkippedRows++
				continue
			}
			return nil, nil, fmt.Errorf("%w: %s: line %d has %d fields, header has %d", model.ErrParse, opts.Name, line, len(record), len(header))
		}

		row := make([]model.Value, len(record))
		for i, field := range record {
			if field == "" || (opts.NullMarker != "" && field == opts.NullMarker) {
				row[i] = model.Null()
			} else {
				row[i] = model.StringValue(field)
			}
		}
		if err := table.AddRow(row); err != nil {
			return nil, nil, err
		}
	}

	report.Rows = table.Len()
	report.Missing = table.MissingCounts()
	return table, report, nil
}
