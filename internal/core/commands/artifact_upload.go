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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that copies the run's artifacts to Cloud Storage.
//
// Logic Flow:
//  1. The artifacts recorded on the run manifest are uploaded one at a time
//     to prefix/run_id/file through a rate-limited bucket.
//  2. The resulting gs:// URI is stored back on the artifact.
//  3. When a signer is configured, a time-limited download URL is added.
package commands

import (
	goctx "context"
	"time"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
)

// Uploader copies a local file to an object and returns its gs:// URI.
type Uploader interface {
	UploadFile(ctx goctx.Context, path, object string) (string, error)
}

// Signer creates a signed download URL for a gs:// URI.
type Signer interface {
	SignedURL(ctx goctx.Context, gcsURI string, expires time.Duration) (string, error)
}

// ArtifactUpload uploads every manifest artifact.
type ArtifactUpload struct {
	cor.BaseCommand
	uploader Uploader
	prefix   string
	signer   Signer
	ttl      time.Duration
}

// NewArtifactUpload is the constructor for the ArtifactUpload command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - uploader: The rate-limited bucket.
//   - prefix: The object name prefix; the run id is appended to it.
//
// Outputs:
//   - *ArtifactUpload: A pointer to the newly instantiated command.
func NewArtifactUpload(name string, uploader Uploader, prefix string) *ArtifactUpload {
	out := &ArtifactUpload{BaseCommand: *cor.NewBaseCommand(name), uploader: uploader, prefix: prefix}
	out.InputParamName = ManifestKey
	return out
}

// WithSigner adds signed URLs valid for ttl to the uploaded artifacts.
func (u *ArtifactUpload) WithSigner(signer Signer, ttl time.Duration) *ArtifactUpload {
	u.signer = signer
	u.ttl = ttl
	return u
}

// Execute uploads the artifacts.
func (u *ArtifactUpload) Execute(context cor.Context) {
	manifest := GetManifest(context)
	if manifest == nil {
		u.Fail(context, errNoManifest)
		return
	}

	for i := range manifest.Artifacts {
		artifact := &manifest.Artifacts[i]
		object := cloud.ObjectName(u.prefix, manifest.RunID, artifact.Path)
		uri, err := u.uploader.UploadFile(context.GetContext(), artifact.Path, object)
		if err != nil {
			u.Fail(context, err)
			return
		}
		artifact.GCSURI = uri

		if u.signer != nil {
			signed, err := u.signer.SignedURL(context.GetContext(), uri, u.ttl)
			if err != nil {
				u.Fail(context, err)
				return
			}
			artifact.SignedURL = signed
		}
		context.GetLogger().InfoContext(context.GetContext(), "artifact uploaded",
			"table", artifact.Table, "path", artifact.Path, "uri", uri)
	}

	u.Succeed(context)
}
