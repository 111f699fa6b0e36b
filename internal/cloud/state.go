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

// Package cloud provides a centralized way to initialize and manage the Google
// Cloud clients used to publish a run. This file defines `ServiceClients` and
// its constructor. The clients are only created when the sink is enabled; a
// local run never touches the network.
package cloud

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ServiceClients holds the Google Cloud clients of a publishing run.
type ServiceClients struct {
	StorageClient  *storage.Client                   // Client for Google Cloud Storage (GCS).
	PubsubClient   *pubsub.Client                    // Client for Google Cloud Pub/Sub.
	BiqQueryClient *bigquery.Client                  // Client for Google Cloud BigQuery.
	IAMClient      *credentials.IamCredentialsClient // Client for IAM, used to sign artifact URLs.
}

// Close releases every client. Errors are logged; there is nothing left to do
// with a client that fails to close.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		if err := c.StorageClient.Close(); err != nil {
			slog.Warn("closing storage client", "error", err)
		}
	}
	if c.PubsubClient != nil {
		if err := c.PubsubClient.Close(); err != nil {
			slog.Warn("closing pubsub client", "error", err)
		}
	}
	if c.BiqQueryClient != nil {
		if err := c.BiqQueryClient.Close(); err != nil {
			slog.Warn("closing bigquery client", "error", err)
		}
	}
	if c.IAMClient != nil {
		if err := c.IAMClient.Close(); err != nil {
			slog.Warn("closing iam client", "error", err)
		}
	}
}

// ClientOptions returns the options shared by every client.
func ClientOptions(config *Config) []option.ClientOption {
	var opts []option.ClientOption
	if config.Application.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(config.Application.CredentialsFile))
	}
	return opts
}

// NewCloudServiceClients creates the clients the sink configuration needs.
// The BigQuery, Pub/Sub and IAM clients are skipped when their sink setting is
// empty.
//
// Inputs:
//   - ctx: The context for client creation.
//   - config: The loaded application configuration.
//
// Outputs:
//   - *ServiceClients: The initialized clients.
//   - error: The first client creation error; clients created before it are closed.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	opts := ClientOptions(config)
	cloud = &ServiceClients{}
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	cloud.StorageClient, err = storage.NewClient(ctx, opts...)
	if err != nil {
		return cloud, fmt.Errorf("creating storage client: %w", err)
	}

	if config.Sink.Dataset != "" {
		cloud.BiqQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId, opts...)
		if err != nil {
			return cloud, fmt.Errorf("creating bigquery client: %w", err)
		}
	}

	if config.Sink.Topic != "" {
		cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId, opts...)
		if err != nil {
			return cloud, fmt.Errorf("creating pubsub client: %w", err)
		}
	}

	if config.Sink.SignerServiceAccountEmail != "" {
		cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx, opts...)
		if err != nil {
			return cloud, fmt.Errorf("creating iam credentials client: %w", err)
		}
	}
	return cloud, nil
}

// Bucket returns the rate-limited artifact bucket.
func (c *ServiceClients) Bucket(config *Config) *QuotaAwareBucket {
	handle := c.StorageClient.Bucket(config.Sink.Bucket)
	return NewQuotaAwareBucket(config.Sink.Bucket, BucketObjectWriter{Bucket: handle}, config.Sink.UploadsPerSecond)
}

// Signer returns the artifact URL signer, or nil when no signer account is
// configured.
func (c *ServiceClients) Signer(config *Config) *URLSigner {
	if c.IAMClient == nil {
		return nil
	}
	return &URLSigner{
		StorageClient: c.StorageClient,
		SignerEmail:   config.Sink.SignerServiceAccountEmail,
		SignBlob: func(ctx context.Context, req *credentialspb.SignBlobRequest) (*credentialspb.SignBlobResponse, error) {
			return c.IAMClient.SignBlob(ctx, req)
		},
	}
}

// Loader returns the BigQuery artifact loader, or nil when no dataset is
// configured.
func (c *ServiceClients) Loader() *BigQueryLoader {
	if c.BiqQueryClient == nil {
		return nil
	}
	return &BigQueryLoader{Client: c.BiqQueryClient}
}

// Publisher returns the manifest publisher, or nil when no topic is
// configured.
func (c *ServiceClients) Publisher(config *Config) *TopicPublisher {
	if c.PubsubClient == nil {
		return nil
	}
	return NewTopicPublisher(c.PubsubClient, config.Sink.Topic)
}
