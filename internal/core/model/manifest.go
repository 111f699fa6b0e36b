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

package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Artifact is a file written by the pipeline.
type Artifact struct {
	Table     string `json:"table"`                // The logical table name.
	Path      string `json:"path"`                 // Local path of the written file.
	Format    string `json:"format"`               // "csv" or "parquet".
	Rows      int    `json:"rows"`                 // Number of data rows written.
	GCSURI    string `json:"gcs_uri,omitempty"`    // Set once the artifact is uploaded.
	SignedURL string `json:"signed_url,omitempty"` // Optional time-limited download link.
}

// RunManifest describes one pipeline run. It is published when the run completes.
type RunManifest struct {
	RunID      string               `json:"run_id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Artifacts  []Artifact           `json:"artifacts"`
	Warnings   []ComputationWarning `json:"warnings"`
	RowCounts  map[string]int       `json:"row_counts"` // Rows per logical table.
}

// NewRunManifest starts a manifest with a fresh random run id.
func NewRunManifest() *RunManifest {
	return &RunManifest{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Artifacts: make([]Artifact, 0),
		Warnings:  make([]ComputationWarning, 0),
		RowCounts: make(map[string]int),
	}
}

// AddArtifact records a written file and its row count.
func (m *RunManifest) AddArtifact(a Artifact) {
	m.Artifacts = append(m.Artifacts, a)
	m.RowCounts[a.Table] = a.Rows
}

// Finish stamps the completion time and records the run's warnings. Warnings
// that are not a ComputationWarning are attributed to the "pipeline" stage.
func (m *RunManifest) Finish(warnings []error) {
	m.FinishedAt = time.Now().UTC()
	m.Warnings = m.Warnings[:0]
	for _, w := range warnings {
		var cw ComputationWarning
		if errors.As(w, &cw) {
			m.Warnings = append(m.Warnings, cw)
			continue
		}
		m.Warnings = append(m.Warnings, ComputationWarning{Stage: "pipeline", Message: w.Error()})
	}
}
