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

package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
)

func TestNewRunManifest(t *testing.T) {
	manifest := model.NewRunManifest()

	assert.NotEmpty(t, manifest.RunID)
	assert.NotEqual(t, manifest.RunID, model.NewRunManifest().RunID)
	assert.WithinDuration(t, time.Now(), manifest.StartedAt, time.Second)
	assert.Empty(t, manifest.Artifacts)
	assert.Empty(t, manifest.Warnings)
}

func TestRunManifestAddArtifact(t *testing.T) {
	manifest := model.NewRunManifest()
	manifest.AddArtifact(model.Artifact{Table: "imdb_features", Path: "features.csv", Format: "csv", Rows: 4})
	manifest.AddArtifact(model.Artifact{Table: "imdb_features", Path: "features.parquet", Format: "parquet", Rows: 4})
	manifest.AddArtifact(model.Artifact{Table: "script_features", Path: "scripts.csv", Format: "csv", Rows: 3})

	assert.Len(t, manifest.Artifacts, 3)
	assert.Equal(t, map[string]int{"imdb_features": 4, "script_features": 3}, manifest.RowCounts)
}

func TestRunManifestFinish(t *testing.T) {
	manifest := model.NewRunManifest()
	warning := model.NewComputationWarning("standardize", "column %q has zero variance", "runtimeMinutes")

	manifest.Finish([]error{
		warning,
		fmt.Errorf("wrapped: %w", warning),
		errors.New("disk almost full"),
	})

	assert.False(t, manifest.FinishedAt.Before(manifest.StartedAt))
	assert.Equal(t, []model.ComputationWarning{
		warning,
		warning,
		{Stage: "pipeline", Message: "disk almost full"},
	}, manifest.Warnings)
	assert.Equal(t, `standardize: column "runtimeMinutes" has zero variance`, warning.Error())
}
