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
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// Output formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// IndexColumn is the header of the row index column when one is requested.
const IndexColumn = "index"

// WriteOptions configures WriteCSV.
type WriteOptions struct {
	IncludeIndex bool // Prepend a zero-based row index column.
}

// ArtifactPath returns dir/name.format.
func ArtifactPath(dir, name, format string) string {
	return filepath.Join(dir, name+"."+format)
}

// WriteCSV writes table as comma-separated text with a header row, creating
// parent directories and overwriting any existing file. Missing cells are
// written empty.
func WriteCSV(table *model.Table, path string, opts WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("creating output directory for %q: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}

	w := csv.NewWriter(file)
	header := table.Columns()
	if opts.IncludeIndex {
		header = append([]string{IndexColumn}, header...)
	}
	if err := w.Write(header); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing header to %q: %w", path, err)
	}

	record := make([]string, len(header))
	for i := 0; i < table.Len(); i++ {
		offset := 0
		if opts.IncludeIndex {
			record[0] = strconv.Itoa(i)
			offset = 1
		}
		for j, v := range table.Row(i) {
			if v.Valid {
				record[j+offset] = v.Text
			} else {
				record[j+offset] = ""
			}
		}
		if err := w.Write(record); err != nil {
			_ = file.Close()
			return fmt.Errorf("writing row %d to %q: %w", i, path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flushing %q: %w", path, err)
	}
	return file.Close()
}

// ArrowSchema infers a nullable schema for table: a column whose present
// values all parse as numbers is float64, anything else is a string.
func ArrowSchema(table *model.Table) *arrow.Schema {
	columns := table.Columns()
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c, Type: arrow.BinaryTypes.String, Nullable: true}
		if isNumericColumn(table, c) {
			fields[i].Type = arrow.PrimitiveTypes.Float64
		}
	}
	md := arrow.NewMetadata([]string{"table"}, []string{table.Name})
	return arrow.NewSchema(fields, &md)
}

func isNumericColumn(table *model.Table, column string) bool {
	present := 0
	for _, v := range table.Column(column) {
		if !v.Valid {
			continue
		}
		if _, _, err := v.Float(); err != nil {
			return false
		}
		present++
	}
	return present > 0
}

// WriteParquet writes table as a gzip-compressed Parquet file, creating parent
// directories and overwriting any existing file.
func WriteParquet(table *model.Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("creating output directory for %q: %w", path, err)
	}

	schema := ArrowSchema(table)
	allocator := memory.NewGoAllocator()
	recordBuilder := array.NewRecordBuilder(allocator, schema)
	defer recordBuilder.Release()

	for j, field := range schema.Fields() {
		cells := table.Column(field.Name)
		switch builder := recordBuilder.Field(j).(type) {
		case *array.Float64Builder:
			for _, v := range cells {
				f, ok, _ := v.Float()
				if !ok {
					builder.AppendNull()
					continue
				}
				builder.Append(f)
			}
		case *array.StringBuilder:
			for _, v := range cells {
				if !v.Valid {
					builder.AppendNull()
					continue
				}
				builder.Append(v.Text)
			}
		}
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	// The parquet writer closes outFile.
	writer, err := pqarrow.NewFileWriter(
		schema,
		outFile,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip),
			parquet.WithCompressionLevel(gzip.BestCompression)),
		pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		_ = outFile.Close()
		return fmt.Errorf("creating parquet writer for %q: %w", path, err)
	}

	record := recordBuilder.NewRecord()
	defer record.Release()

	if err := writer.Write(record); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return writer.Close()
}
