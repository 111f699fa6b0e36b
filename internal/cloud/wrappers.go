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

// Package cloud provides wrappers for Google Cloud clients. This file holds
// QuotaAwareBucket, a decorator that paces object uploads with a token bucket
// so that a run with many artifacts stays under the bucket's write quota.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/time/rate"
)

// ObjectWriter opens a writer for a named object. *storage.BucketHandle
// satisfies it through BucketObjectWriter.
type ObjectWriter interface {
	NewWriter(ctx context.Context, object string) io.WriteCloser
}

// BucketObjectWriter adapts a storage bucket handle to ObjectWriter.
type BucketObjectWriter struct {
	Bucket *storage.BucketHandle
}

// NewWriter opens a resumable upload for object.
func (b BucketObjectWriter) NewWriter(ctx context.Context, object string) io.WriteCloser {
	return b.Bucket.Object(object).NewWriter(ctx)
}

// QuotaAwareBucket uploads files through an ObjectWriter at a bounded rate.
type QuotaAwareBucket struct {
	Name      string        // The bucket name, used to build gs:// URIs.
	writer    ObjectWriter  // The wrapped bucket.
	RateLimit *rate.Limiter // Allows a burst of uploadsPerSecond and refills one token per second.
}

// NewQuotaAwareBucket wraps writer with a limiter that allows a burst of
// uploadsPerSecond uploads and refills one token per second.
func NewQuotaAwareBucket(name string, writer ObjectWriter, uploadsPerSecond int) *QuotaAwareBucket {
	if uploadsPerSecond <= 0 {
		uploadsPerSecond = 1
	}
	return &QuotaAwareBucket{
		Name:      name,
		writer:    writer,
		RateLimit: rate.NewLimiter(rate.Every(time.Second/1), uploadsPerSecond),
	}
}

// UploadFile copies the local file at path to object, waiting for the limiter
// first. It returns the gs:// URI of the object.
func (q *QuotaAwareBucket) UploadFile(ctx context.Context, path, object string) (string, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for upload quota: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	writer := q.writer.NewWriter(ctx, object)
	if written, err := io.Copy(writer, file); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to copy %s to gs://%s/%s after %d bytes: %w", path, q.Name, object, written, err)
	}
	// Close finalizes the upload; the object does not exist until it succeeds.
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize gs://%s/%s: %w", q.Name, object, err)
	}
	return GCSURI(q.Name, object), nil
}
