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

// Package workflow defines the high-level orchestrations of the feature
// preparation run, combining commands into chains. This file converts the
// TOML configuration into the option structs of the services layer.
package workflow

import (
	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/services"
)

// RawTableParam returns the context key of a dataset before cleaning.
func RawTableParam(name string) string {
	return "raw." + name
}

// DatasetOutputName returns the artifact name of a cleaned dataset.
func DatasetOutputName(name string, ds cloud.Dataset) string {
	if ds.Output != "" {
		return ds.Output
	}
	return name
}

// LoadOptions builds the loader options of a dataset.
func LoadOptions(name string, ds cloud.Dataset) (services.LoadOptions, error) {
	delimiter, err := services.DelimiterFromName(ds.Delimiter)
	if err != nil {
		return services.LoadOptions{}, err
	}
	return services.LoadOptions{
		Name:        name,
		Delimiter:   delimiter,
		NullMarker:  ds.NullMarker,
		ParsePolicy: services.ParsePolicy(ds.ParseErrors),
	}, nil
}

// CleanOptions builds the cleaner options of a dataset.
func CleanOptions(ds cloud.Dataset) services.CleanOptions {
	return services.CleanOptions{
		RequiredFields:    ds.RequiredFields,
		MeanFill:          ds.MeanFill,
		Lowercase:         ds.Lowercase,
		DropAnyMissing:    ds.DropAnyMissing,
		EmptyColumnPolicy: services.EmptyColumnPolicy(ds.EmptyColumnPolicy),
	}
}

// CategoricalSpecs converts the [[encoding.categorical]] entries.
func CategoricalSpecs(enc cloud.Encoding) []services.CategoricalSpec {
	out := make([]services.CategoricalSpec, len(enc.Categorical))
	for i, c := range enc.Categorical {
		out[i] = services.CategoricalSpec{
			Column:        c.Column,
			Separator:     c.Separator,
			Prefix:        c.Prefix,
			DropReference: c.DropReference,
			Reference:     c.Reference,
		}
	}
	return out
}

// CountSpecs converts the encoding.count_columns entries.
func CountSpecs(enc cloud.Encoding) []services.CountSpec {
	out := make([]services.CountSpec, len(enc.CountColumns))
	for i, c := range enc.CountColumns {
		out[i] = services.CountSpec{Column: c.Column, Output: c.Output, Separator: c.Separator}
	}
	return out
}
