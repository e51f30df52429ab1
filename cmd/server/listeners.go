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

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jaycherian/movie-mixer/internal/cloud"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
)

// SearchEventsListener is the topic_subscriptions key of the subscription
// that receives published search events.
const SearchEventsListener = "SearchEvents"

// SetupListeners attaches the analytics workflow to the search events
// subscription and starts listening. Listeners stop when ctx is cancelled.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, analytics cor.Command, ctx context.Context) {
	listener, ok := cloudClients.PubSubListeners[SearchEventsListener]
	if !ok {
		if len(config.Analytics.Topic) > 0 {
			slog.Warn("search events are published but no subscription is configured", "topic", config.Analytics.Topic)
		}
		return
	}
	listener.SetCommand(analytics)
	if sub, ok := config.TopicSubscriptions[SearchEventsListener]; ok && sub.TimeoutInSeconds > 0 {
		listener.SetTimeout(time.Duration(sub.TimeoutInSeconds) * time.Second)
	}
	listener.Listen(ctx)
}
