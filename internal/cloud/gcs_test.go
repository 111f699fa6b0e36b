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

package cloud_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	test "github.com/jaycherian/gcp-go-movie-features/internal/testutil"
)

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := cloud.ParseGCSURI("gs://features/movie-features/run/imdb_features.csv")
	assert.NoError(t, err)
	assert.Equal(t, bucket, "features")
	assert.Equal(t, object, "movie-features/run/imdb_features.csv")

	for _, uri := range []string{"https://features/a.csv", "gs://features", "gs:///a.csv", "gs://features/"} {
		_, _, err := cloud.ParseGCSURI(uri)
		assert.Error(t, err)
	}

	assert.Equal(t, cloud.GCSURI("features", "a/b.csv"), "gs://features/a/b.csv")
}

func TestObjectName(t *testing.T) {
	assert.Equal(t, cloud.ObjectName("movie-features", "run-1", filepath.Join("data", "processed", "imdb_features.csv")), "movie-features/run-1/imdb_features.csv")
	assert.Equal(t, cloud.ObjectName("", "run-1", "scripts.csv"), "run-1/scripts.csv")
}

// memoryObject collects an uploaded object.
type memoryObject struct {
	bytes.Buffer
	closed   bool
	closeErr error
}

func (o *memoryObject) Close() error {
	o.closed = true
	return o.closeErr
}

type memoryBucket struct {
	objects  map[string]*memoryObject
	closeErr error
}

func (b *memoryBucket) NewWriter(_ context.Context, object string) io.WriteCloser {
	if b.objects == nil {
		b.objects = make(map[string]*memoryObject)
	}
	o := &memoryObject{closeErr: b.closeErr}
	b.objects[object] = o
	return o
}

func TestQuotaAwareBucketUploadFile(t *testing.T) {
	path := test.WriteFile(t, t.TempDir(), "imdb_features.csv", []byte("tconst,decade\ntt0000001,1960\n"))
	store := &memoryBucket{}
	bucket := cloud.NewQuotaAwareBucket("features", store, 2)

	uri, err := bucket.UploadFile(context.Background(), path, "run/imdb_features.csv")
	assert.NoError(t, err)
	assert.Equal(t, uri, "gs://features/run/imdb_features.csv")
	assert.Equal(t, store.objects["run/imdb_features.csv"].String(), "tconst,decade\ntt0000001,1960\n")
	assert.That(t, store.objects["run/imdb_features.csv"].closed)

	_, err = bucket.UploadFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "run/missing.csv")
	assert.Error(t, err)
}

func TestQuotaAwareBucketFinalizeError(t *testing.T) {
	path := test.WriteFile(t, t.TempDir(), "a.csv", []byte("a\n"))
	finalize := errors.New("precondition failed")
	bucket := cloud.NewQuotaAwareBucket("features", &memoryBucket{closeErr: finalize}, 1)

	_, err := bucket.UploadFile(context.Background(), path, "a.csv")
	assert.That(t, errors.Is(err, finalize))
}

func TestQuotaAwareBucketHonoursCancellation(t *testing.T) {
	path := test.WriteFile(t, t.TempDir(), "a.csv", []byte("a\n"))
	bucket := cloud.NewQuotaAwareBucket("features", &memoryBucket{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bucket.UploadFile(ctx, path, "a.csv")
	assert.Error(t, err)
}
