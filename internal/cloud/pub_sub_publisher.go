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

// Package cloud provides components for interacting with Google Cloud services.
// This file defines `TopicPublisher`, which announces a completed run on a
// Pub/Sub topic so that downstream consumers (the training step) can pick up
// the new artifacts.
package cloud

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TopicPublisher publishes messages to one Pub/Sub topic.
type TopicPublisher struct {
	client *pubsub.Client // The client for interacting with the Pub/Sub service.
	topic  *pubsub.Topic  // The topic messages are sent to.
}

// NewTopicPublisher creates a publisher for topicID.
func NewTopicPublisher(pubsubClient *pubsub.Client, topicID string) *TopicPublisher {
	return &TopicPublisher{
		client: pubsubClient,
		topic:  pubsubClient.Topic(topicID),
	}
}

// Publish sends data with attrs and blocks until the server acknowledges it.
// It returns the server-assigned message id.
func (p *TopicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	tracer := otel.Tracer("message-publisher")
	spanCtx, span := tracer.Start(ctx, "publish-message")
	defer span.End()
	span.SetAttributes(attribute.String("topic", p.topic.ID()), attribute.Int("bytes", len(data)))

	result := p.topic.Publish(spanCtx, &pubsub.Message{Data: data, Attributes: attrs})
	id, err := result.Get(spanCtx)
	if err != nil {
		span.SetStatus(codes.Error, "failed")
		return "", fmt.Errorf("publishing to topic %s: %w", p.topic.ID(), err)
	}
	span.SetStatus(codes.Ok, "success")
	return id, nil
}

// Stop flushes pending messages and stops the topic's background goroutines.
func (p *TopicPublisher) Stop() {
	p.topic.Stop()
}
