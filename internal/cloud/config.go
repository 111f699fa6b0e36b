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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, and the Google Cloud clients the optional publish
// stage uses.
//
// This file centralizes all configuration-related structs.
//
// Structs:
//   - Paths: Input and output directories. None has a default.
//   - Dataset: How one raw file is loaded, cleaned and written.
//   - Merge: Which cleaned datasets are joined and on what key.
//   - Encoding: The derived, standardized and one-hot encoded columns.
//   - Text: The tokenizer, lexicon and sequence length for script features.
//   - Sink: Cloud Storage, BigQuery and Pub/Sub publication of a run.
//   - Telemetry: Exporter and log settings.
//   - Config: The top-level struct that aggregates all of the above.
package cloud

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

// Paths holds the directories the pipeline reads and writes. They must be
// supplied by configuration.
type Paths struct {
	RawDataDir   string `toml:"raw_data_dir"`   // Directory holding the raw dataset files.
	CleanDataDir string `toml:"clean_data_dir"` // Output directory for cleaned datasets.
	ProcessedDir string `toml:"processed_dir"`  // Output directory for the merged and encoded table.
	FeaturesDir  string `toml:"features_dir"`   // Output directory for script features.
	ScriptsDir   string `toml:"scripts_dir"`    // Directory of script documents.
}

// Dataset describes one raw input table.
type Dataset struct {
	File              string   `toml:"file"`                // File name relative to RawDataDir, or an absolute path.
	Delimiter         string   `toml:"delimiter"`           // "tab" or "comma".
	NullMarker        string   `toml:"null_marker"`         // Literal that reads as missing, e.g. \N.
	RequiredFields    []string `toml:"required_fields"`     // Rows missing any of these are dropped.
	MeanFill          []string `toml:"mean_fill"`           // Numeric columns filled with their mean.
	Lowercase         []string `toml:"lowercase"`           // Text columns to lowercase.
	DropAnyMissing    bool     `toml:"drop_any_missing"`    // Drop rows missing any field.
	EmptyColumnPolicy string   `toml:"empty_column_policy"` // fail, zero or leave.
	ParseErrors       string   `toml:"parse_errors"`        // fail or skip.
	Output            string   `toml:"output"`              // Base name of the cleaned artifact; defaults to the dataset key.
	// Encoding, when set, also encodes the cleaned table on its own, e.g. the
	// TMDb genre indicators. Its output names the feature artifact.
	Encoding *Encoding `toml:"encoding"`
}

// Merge names the two cleaned datasets that form the feature table.
type Merge struct {
	Left   string `toml:"left"`   // Dataset key of the left table.
	Right  string `toml:"right"`  // Dataset key of the right table.
	Key    string `toml:"key"`    // Join column, e.g. tconst.
	Output string `toml:"output"` // Base name of the merged artifact.
}

// CategoricalColumn configures the one-hot expansion of one column.
type CategoricalColumn struct {
	Column        string `toml:"column"`         // Source column.
	Separator     string `toml:"separator"`      // Set for multi-valued columns.
	Prefix        string `toml:"prefix"`         // Indicator name prefix.
	DropReference bool   `toml:"drop_reference"` // Drop one reference indicator.
	Reference     string `toml:"reference"`      // The reference category; first sorted when empty.
}

// CountColumn configures a derived list-length column.
type CountColumn struct {
	Column    string `toml:"column"`    // Delimited source column.
	Output    string `toml:"output"`    // Name of the derived column.
	Separator string `toml:"separator"` // Defaults to a comma.
}

// Encoding configures the encoding of a feature table: the merged table under
// [encoding], or one dataset under [datasets.<name>.encoding].
type Encoding struct {
	NumericColumns     []string            `toml:"numeric_columns"`     // Columns to standardize.
	StandardizedSuffix string              `toml:"standardized_suffix"` // When set, standardized values go to column+suffix.
	DecadeSource       string              `toml:"decade_source"`       // Year column the decade is derived from; empty disables it.
	DecadeColumn       string              `toml:"decade_column"`       // Name of the derived decade column.
	CountColumns       []CountColumn       `toml:"count_columns"`       // Derived list-length columns.
	Categorical        []CategoricalColumn `toml:"categorical"`         // One-hot expansions, applied in order.
	Output             string              `toml:"output"`              // Base name of the feature artifact.
}

// Text configures script feature extraction.
type Text struct {
	Tokenizer       string `toml:"tokenizer"`        // wordpiece or sentencepiece.
	Vocabulary      string `toml:"vocabulary"`       // Vocabulary file or SentencePiece model.
	MaxTokenLength  int    `toml:"max_token_length"` // Fixed token sequence length.
	Lexicon         string `toml:"lexicon"`          // Optional sentiment lexicon; the embedded one is used when empty.
	ScriptExtension string `toml:"script_extension"` // Only files with this extension are read; all when empty.
	Output          string `toml:"output"`           // Base name of the script feature artifact.
}

// Output configures artifact formats.
type Output struct {
	Formats      []string `toml:"formats"`       // Any of csv and parquet.
	IncludeIndex bool     `toml:"include_index"` // Write a row index column to CSV artifacts.
}

// Sink configures publication of a completed run to Google Cloud.
type Sink struct {
	Enabled                   bool     `toml:"enabled"`                      // Publish when true.
	Bucket                    string   `toml:"bucket"`                       // Cloud Storage bucket for artifacts.
	Prefix                    string   `toml:"prefix"`                       // Object name prefix; the run id is appended.
	Dataset                   string   `toml:"dataset"`                      // BigQuery dataset; empty skips the load.
	Tables                    []string `toml:"tables"`                       // Artifact tables loaded into BigQuery.
	Topic                     string   `toml:"topic"`                        // Pub/Sub topic for the run manifest; empty skips it.
	UploadsPerSecond          int      `toml:"uploads_per_second"`           // Upload rate limit.
	SignerServiceAccountEmail string   `toml:"signer_service_account_email"` // Service account used to sign artifact URLs.
	SignedURLTTLMinutes       int      `toml:"signed_url_ttl_minutes"`       // Signed URL lifetime.
}

// Telemetry configures logging and OpenTelemetry export.
type Telemetry struct {
	Exporter string `toml:"exporter"`  // gcp, stdout or none.
	LogLevel string `toml:"log_level"` // debug, info, warn or error.
	LogFile  string `toml:"log_file"`  // Optional file receiving a copy of the log.
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
		ThreadPoolSize  int    `toml:"thread_pool_size"`  // Workers used for script feature extraction.
		CredentialsFile string `toml:"credentials_file"`  // Optional service account key; ADC is used when empty.
	} `toml:"application"`
	Paths     Paths              `toml:"paths"`     // Directories.
	Datasets  map[string]Dataset `toml:"datasets"`  // Raw datasets keyed by a logical name, e.g. "basics".
	Merge     Merge              `toml:"merge"`     // Join configuration.
	Encoding  Encoding           `toml:"encoding"`  // Feature table configuration.
	Text      Text               `toml:"text"`      // Script feature configuration.
	Output    Output             `toml:"output"`    // Artifact formats.
	Sink      Sink               `toml:"sink"`      // Cloud publication.
	Telemetry Telemetry          `toml:"telemetry"` // Logging and telemetry.
}

// NewConfig creates a Config with its maps initialized and the defaults that
// do not depend on any environment.
//
// Outputs:
//   - *Config: A pointer to a new Config struct.
func NewConfig() *Config {
	c := &Config{Datasets: make(map[string]Dataset)}
	c.Application.Name = "movie-features"
	c.Application.ThreadPoolSize = 4
	c.Merge.Output = "merged"
	c.Encoding.Output = "features"
	c.Text.Tokenizer = "wordpiece"
	c.Text.MaxTokenLength = 512
	c.Text.Output = model.ScriptFeatureTableID
	c.Output.Formats = []string{"csv"}
	c.Sink.UploadsPerSecond = 5
	c.Sink.SignedURLTTLMinutes = 60
	c.Telemetry.Exporter = "none"
	c.Telemetry.LogLevel = "info"
	return c
}

// DatasetNames returns the configured dataset keys in sorted order.
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// problems lists the inconsistencies of an encoding section.
func (e Encoding) problems(section string) []string {
	var out []string
	for _, cat := range e.Categorical {
		if cat.Column == "" {
			out = append(out, section+".categorical entries need a column")
		}
		if cat.DropReference && cat.Separator != "" {
			out = append(out, fmt.Sprintf("%s.categorical %q is multi-valued and cannot drop a reference", section, cat.Column))
		}
	}
	if e.DecadeSource != "" && e.DecadeColumn == "" {
		out = append(out, section+".decade_column is required with decade_source")
	}
	return out
}

// Validate reports every missing or inconsistent option at once.
func (c *Config) Validate() error {
	var problems []string
	require := func(value, name string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	require(c.Paths.RawDataDir, "paths.raw_data_dir")
	require(c.Paths.CleanDataDir, "paths.clean_data_dir")
	require(c.Paths.ProcessedDir, "paths.processed_dir")
	require(c.Paths.FeaturesDir, "paths.features_dir")
	require(c.Paths.ScriptsDir, "paths.scripts_dir")

	if len(c.Datasets) == 0 {
		problems = append(problems, "at least one [datasets.<name>] section is required")
	}
	for _, name := range c.DatasetNames() {
		ds := c.Datasets[name]
		require(ds.File, "datasets."+name+".file")
		switch ds.EmptyColumnPolicy {
		case "", "fail", "zero", "leave":
		default:
			problems = append(problems, fmt.Sprintf("datasets.%s.empty_column_policy %q is not fail, zero or leave", name, ds.EmptyColumnPolicy))
		}
		switch ds.ParseErrors {
		case "", "fail", "skip":
		default:
			problems = append(problems, fmt.Sprintf("datasets.%s.parse_errors %q is not fail or skip", name, ds.ParseErrors))
		}
	}

	require(c.Merge.Key, "merge.key")
	for _, side := range []struct{ key, name string }{{c.Merge.Left, "merge.left"}, {c.Merge.Right, "merge.right"}} {
		if side.key == "" {
			problems = append(problems, side.name+" is required")
		} else if _, ok := c.Datasets[side.key]; !ok {
			problems = append(problems, fmt.Sprintf("%s names unknown dataset %q", side.name, side.key))
		}
	}

	problems = append(problems, c.Encoding.problems("encoding")...)
	for _, name := range c.DatasetNames() {
		if enc := c.Datasets[name].Encoding; enc != nil {
			section := "datasets." + name + ".encoding"
			problems = append(problems, enc.problems(section)...)
			if strings.TrimSpace(enc.Output) == "" {
				problems = append(problems, section+".output is required")
			} else if enc.Output == c.Encoding.Output {
				problems = append(problems, fmt.Sprintf("%s.output %q is already used by encoding.output", section, enc.Output))
			}
		}
	}

	require(c.Text.Vocabulary, "text.vocabulary")
	if c.Text.MaxTokenLength <= 0 {
		problems = append(problems, "text.max_token_length must be positive")
	}
	if c.Application.ThreadPoolSize <= 0 {
		problems = append(problems, "application.thread_pool_size must be positive")
	}
	for _, f := range c.Output.Formats {
		if f != "csv" && f != "parquet" {
			problems = append(problems, fmt.Sprintf("output.formats: unknown format %q", f))
		}
	}
	if len(c.Output.Formats) == 0 {
		problems = append(problems, "output.formats must name at least one format")
	}

	switch c.Telemetry.Exporter {
	case "", "none", "stdout", "gcp":
	default:
		problems = append(problems, fmt.Sprintf("telemetry.exporter %q is not gcp, stdout or none", c.Telemetry.Exporter))
	}

	if c.Sink.Enabled {
		require(c.Application.GoogleProjectId, "application.google_project_id")
		require(c.Sink.Bucket, "sink.bucket")
		if c.Sink.UploadsPerSecond <= 0 {
			problems = append(problems, "sink.uploads_per_second must be positive")
		}
	}
	if c.Telemetry.Exporter == "gcp" {
		require(c.Application.GoogleProjectId, "application.google_project_id")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", model.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
