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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, together with the clients built from them.
//
// Structs:
//   - CatalogConfig: Movie catalog endpoint, credential and image host.
//   - GenerativeConfig: Generative API endpoint, credential and the agent model to use.
//   - VertexAiLLMModel: Generation parameters for a single named model.
//   - PromptTemplates: The text templates for prompts sent to the model.
//   - MixerConfig: Session limits and the hydration failure policy.
//   - AnalyticsConfig: Where the search counter is stored and how events reach it.
//   - TopicSubscription: A single Pub/Sub subscription.
//   - Config: The root container.
package cloud

import (
	"time"

	"google.golang.org/genai"
)

// Hydration policies accepted by MixerConfig.HydrationPolicy.
const (
	HydrationAllOrNothing = "all_or_nothing"
	HydrationBestEffort   = "best_effort"
)

// Analytics backends accepted by AnalyticsConfig.Backend.
const (
	AnalyticsBackendNone     = "none"
	AnalyticsBackendSQLite   = "sqlite"
	AnalyticsBackendBigQuery = "bigquery"
)

// DefaultAgentModel is the AgentModels key used when generative.agent is empty.
const DefaultAgentModel = "recommendation"

// DefaultSafetySettings keeps the provider's stock thresholds for every
// category. Adult content is excluded by the prompt itself.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
	},
}

// CatalogConfig configures the TMDB-compatible movie catalog.
type CatalogConfig struct {
	BaseURL          string `toml:"base_url" validate:"required,url"`       // API root, e.g. https://api.themoviedb.org/3.
	Credential       string `toml:"credential" validate:"required"`         // Bearer token sent on every request.
	ImageBaseURL     string `toml:"image_base_url" validate:"required,url"` // Image host used to build poster links.
	TimeoutInSeconds int    `toml:"timeout_in_seconds" validate:"gte=0"`    // Per-request timeout, 0 for none.
}

// Timeout returns the per-request timeout as a duration.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutInSeconds) * time.Second
}

// GenerativeConfig configures the generative language API.
type GenerativeConfig struct {
	Endpoint   string `toml:"endpoint" validate:"omitempty,url"` // Optional base URL override.
	Credential string `toml:"credential" validate:"required"`    // API key.
	Agent      string `toml:"agent"`                             // Key into Config.AgentModels.
}

// VertexAiLLMModel holds the generation parameters of a named model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model" validate:"required"` // The provider's model name.
	SystemInstructions string  `toml:"system_instructions"`       // Optional system instructions.
	Temperature        float32 `toml:"temperature"`               // Sampling temperature.
	TopP               float32 `toml:"top_p"`                     // Nucleus sampling parameter.
	TopK               float32 `toml:"top_k"`                     // Top-k sampling parameter.
	MaxTokens          int32   `toml:"max_tokens"`                // Maximum output tokens, 0 for the provider default.
	RateLimit          int     `toml:"rate_limit" validate:"gte=0"` // Requests per second, 0 disables the throttle.
}

// PromptTemplates holds the text/template sources used to build prompts.
type PromptTemplates struct {
	RecommendationPrompt string `toml:"recommendation"` // Empty means the built-in default.
}

// MixerConfig configures the movie mixer sessions.
type MixerConfig struct {
	MaxSeeds          int    `toml:"max_seeds" validate:"gte=1"`                                     // Upper bound of seeds per session.
	HydrationPolicy   string `toml:"hydration_policy" validate:"oneof=all_or_nothing best_effort"`   // See HydrationAllOrNothing and HydrationBestEffort.
	SessionTTLSeconds int    `toml:"session_ttl_seconds" validate:"gte=0"`                           // Idle sessions older than this are reaped, 0 disables.
	TrendingLimit     int    `toml:"trending_limit" validate:"gte=1"`                                // Number of trending titles returned.
}

// SessionTTL returns the idle timeout as a duration.
func (m MixerConfig) SessionTTL() time.Duration {
	return time.Duration(m.SessionTTLSeconds) * time.Second
}

// AnalyticsConfig configures the search counter.
type AnalyticsConfig struct {
	Backend                string `toml:"backend" validate:"oneof=none sqlite bigquery"`
	SQLitePath             string `toml:"sqlite_path" validate:"required_if=Backend sqlite"`
	DatasetName            string `toml:"dataset" validate:"required_if=Backend bigquery"`
	TableName              string `toml:"table" validate:"required_if=Backend bigquery"`
	Topic                  string `toml:"topic"` // When set, events are published here instead of recorded inline.
	RecordTimeoutInSeconds int    `toml:"record_timeout_in_seconds" validate:"gte=0"`
}

// RecordTimeout returns the timeout for a single inline counter update.
func (a AnalyticsConfig) RecordTimeout() time.Duration {
	return time.Duration(a.RecordTimeoutInSeconds) * time.Second
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name" validate:"required"` // The subscription id.
	DeadLetterTopic  string `toml:"dead_letter_topic"`        // The dead-letter topic, informational only.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`       // Processing timeout per message.
}

// Config is the root configuration for the application.
type Config struct {
	Application struct {
		Name            string `toml:"name"`                               // The name of the application.
		GoogleProjectId string `toml:"google_project_id"`                  // Enables GCP exporters, BigQuery and Pub/Sub when set.
		GoogleLocation  string `toml:"location"`                           // The Google Cloud location.
		ThreadPoolSize  int    `toml:"thread_pool_size" validate:"gte=1"`  // Worker pool size for hydration.
		Port            string `toml:"port"`                               // HTTP listen port.
		LogFile         string `toml:"log_file"`                           // Optional log file, in addition to stdout.
		LogLevel        string `toml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	} `toml:"application"`
	Catalog            CatalogConfig                `toml:"catalog"`
	Generative         GenerativeConfig             `toml:"generative"`
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models" validate:"dive"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	Mixer              MixerConfig                  `toml:"mixer"`
	Analytics          AnalyticsConfig              `toml:"analytics"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions" validate:"dive"` // Keyed by logical name, e.g. "SearchEvents".
}

// NewConfig returns a Config with initialized maps and the defaults that
// apply when a setting is absent from every file.
func NewConfig() *Config {
	c := &Config{
		AgentModels:        make(map[string]VertexAiLLMModel),
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
	c.Application.Name = "movie-mixer"
	c.Application.ThreadPoolSize = 5
	c.Application.Port = "8080"
	c.Application.LogLevel = "info"
	c.Catalog.BaseURL = "https://api.themoviedb.org/3"
	c.Catalog.ImageBaseURL = "https://image.tmdb.org/t/p"
	c.Catalog.TimeoutInSeconds = 10
	c.Generative.Agent = DefaultAgentModel
	c.Mixer.MaxSeeds = 5
	c.Mixer.HydrationPolicy = HydrationAllOrNothing
	c.Mixer.SessionTTLSeconds = 3600
	c.Mixer.TrendingLimit = 5
	c.Analytics.Backend = AnalyticsBackendNone
	c.Analytics.RecordTimeoutInSeconds = 10
	return c
}

// AgentModel returns the model configured for recommendations.
func (c *Config) AgentModel() (VertexAiLLMModel, bool) {
	name := c.Generative.Agent
	if len(name) == 0 {
		name = DefaultAgentModel
	}
	m, ok := c.AgentModels[name]
	return m, ok
}
