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

// Package cloud provides components for interacting with external services.
// This file builds and holds every client the application talks through,
// acting as the dependency container handed to workflows and handlers.
//
// Logic Flow:
//  1. `NewCloudServiceClients` is called once at startup with a validated Config.
//  2. The catalog client and the generative client are always created; both
//     credentials are required.
//  3. Pub/Sub and BigQuery clients are created only when a Google project id
//     is configured and the analytics settings ask for them.
//  4. Each configured agent model is wrapped in a QuotaAwareGenerativeAIModel
//     and each topic subscription gets a PubSubListener.
package cloud

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/movie-mixer/internal/catalog"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"google.golang.org/genai"
)

// ServiceClients is the central container for all external clients.
type ServiceClients struct {
	Catalog         *catalog.Client                         // Movie catalog client.
	GenAIClient     *genai.Client                           // Generative language client.
	PubsubClient    *pubsub.Client                          // Nil unless analytics uses Pub/Sub or subscriptions are configured.
	BiqQueryClient  *bigquery.Client                        // Nil unless analytics.backend is "bigquery".
	SearchEvents    *SearchEventPublisher                   // Nil unless analytics.topic is set.
	PubSubListeners map[string]*PubSubListener              // Keyed by the logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Keyed by the logical name from the config.
}

// Close releases the clients that hold connections.
func (c *ServiceClients) Close() {
	if c.SearchEvents != nil {
		c.SearchEvents.Stop()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
}

// RecommendationModel returns the agent model selected by generative.agent.
func (c *ServiceClients) RecommendationModel(config *Config) (*QuotaAwareGenerativeAIModel, error) {
	name := config.Generative.Agent
	if len(name) == 0 {
		name = DefaultAgentModel
	}
	m, ok := c.AgentModels[name]
	if !ok {
		return nil, model.NewConfigError("generative.agent", errors.New("agent model "+name+" is not configured"))
	}
	return m, nil
}

// NewCatalogClient builds the catalog client from config.
func NewCatalogClient(config *Config) (*catalog.Client, error) {
	return catalog.NewClient(catalog.Options{
		BaseURL:      config.Catalog.BaseURL,
		Credential:   config.Catalog.Credential,
		ImageBaseURL: config.Catalog.ImageBaseURL,
		Timeout:      config.Catalog.Timeout(),
	})
}

// NewGenAIClient builds the generative client using the Gemini API backend
// and an API key. A missing key is a *model.ConfigError.
func NewGenAIClient(ctx context.Context, config *Config) (*genai.Client, error) {
	if len(config.Generative.Credential) == 0 {
		return nil, model.NewConfigError("generative.credential", errors.New("API key not found"))
	}
	cc := &genai.ClientConfig{
		APIKey:  config.Generative.Credential,
		Backend: genai.BackendGeminiAPI,
	}
	if len(config.Generative.Endpoint) > 0 {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: config.Generative.Endpoint}
	}
	return genai.NewClient(ctx, cc)
}

// NewAgentModels wraps every configured model around handle.
func NewAgentModels(config *Config, handle ContentGenerator) map[string]*QuotaAwareGenerativeAIModel {
	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		agentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, handle, values.RateLimit)
	}
	return agentModels
}

// NewCloudServiceClients creates all clients the configuration asks for.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cc, err := NewCatalogClient(config)
	if err != nil {
		return nil, err
	}

	gc, err := NewGenAIClient(ctx, config)
	if err != nil {
		slog.Error("error creating genai client", "error", err)
		return nil, err
	}

	cloud = &ServiceClients{
		Catalog:         cc,
		GenAIClient:     gc,
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     NewAgentModels(config, gc.Models),
	}

	projectID := config.Application.GoogleProjectId
	needsPubSub := len(config.Analytics.Topic) > 0 || len(config.TopicSubscriptions) > 0
	if needsPubSub {
		if len(projectID) == 0 {
			return nil, model.NewConfigError("application.google_project_id", errors.New("required for Pub/Sub"))
		}
		pc, err := pubsub.NewClient(ctx, projectID)
		if err != nil {
			return nil, err
		}
		cloud.PubsubClient = pc

		if len(config.Analytics.Topic) > 0 {
			cloud.SearchEvents = NewSearchEventPublisher(pc, config.Analytics.Topic)
		}
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(pc, values.Name, nil)
			if err != nil {
				cloud.Close()
				return nil, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
	}

	if config.Analytics.Backend == AnalyticsBackendBigQuery {
		if len(projectID) == 0 {
			cloud.Close()
			return nil, model.NewConfigError("application.google_project_id", errors.New("required for BigQuery"))
		}
		bc, err := bigquery.NewClient(ctx, projectID)
		if err != nil {
			cloud.Close()
			return nil, err
		}
		cloud.BiqQueryClient = bc
	}

	return cloud, nil
}
