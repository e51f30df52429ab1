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
	"encoding/json"
	"log/slog"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// SearchEventPublisher sends search events to a Pub/Sub topic. The
// subscription side is a PubSubListener running the analytics workflow.
type SearchEventPublisher struct {
	topic *pubsub.Topic
}

func NewSearchEventPublisher(client *pubsub.Client, topicID string) *SearchEventPublisher {
	return &SearchEventPublisher{topic: client.Topic(topicID)}
}

// Publish encodes the event as JSON and hands it to the topic. It does not
// wait for the server; the returned result can be used for that.
func (p *SearchEventPublisher) Publish(ctx context.Context, event *model.SearchEvent) (*pubsub.PublishResult, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	_, span := otel.Tracer("search-events").Start(ctx, "publish-search-event")
	span.SetAttributes(attribute.String("search_term", event.SearchTerm))
	defer span.End()

	return p.topic.Publish(ctx, &pubsub.Message{Data: data}), nil
}

// PublishAndLog publishes the event and logs the server outcome in the
// background. Errors are never returned to the caller.
func (p *SearchEventPublisher) PublishAndLog(ctx context.Context, event *model.SearchEvent) {
	result, err := p.Publish(ctx, event)
	if err != nil {
		slog.Warn("failed to encode search event", "search_term", event.SearchTerm, "error", err)
		return
	}
	go func() {
		id, err := result.Get(context.WithoutCancel(ctx))
		if err != nil {
			slog.Warn("failed to publish search event", "search_term", event.SearchTerm, "error", err)
			return
		}
		slog.Debug("published search event", "search_term", event.SearchTerm, "message_id", id)
	}()
}

// Stop flushes pending messages.
func (p *SearchEventPublisher) Stop() {
	p.topic.Stop()
}
