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

package cloud

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/bigquery"
)

// BigQueryLoader replaces a BigQuery table with the content of an artifact.
type BigQueryLoader struct {
	Client *bigquery.Client
}

// Load runs a load job from r into dataset.table and waits for it. format is
// "csv" (header row skipped, schema auto-detected) or "parquet".
func (b *BigQueryLoader) Load(ctx context.Context, dataset, table, format string, r io.Reader) error {
	source := bigquery.NewReaderSource(r)
	switch format {
	case "parquet":
		source.SourceFormat = bigquery.Parquet
	default:
		source.SourceFormat = bigquery.CSV
		source.SkipLeadingRows = 1
		source.AutoDetect = true
	}

	loader := b.Client.Dataset(dataset).Table(table).LoaderFrom(source)
	loader.WriteDisposition = bigquery.WriteTruncate
	loader.CreateDisposition = bigquery.CreateIfNeeded

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("starting load of %s.%s: %w", dataset, table, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for load of %s.%s: %w", dataset, table, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("bigquery load of %s.%s failed: %w", dataset, table, err)
	}
	return nil
}
