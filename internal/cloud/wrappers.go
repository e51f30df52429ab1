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
// This file implements a decorator around the generative model that paces
// outgoing requests with a token bucket.
//
// The wrapper only waits. A request that fails is returned to the caller as
// is; there is no retry and no backoff.
package cloud

import (
	"context"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ContentGenerator is the slice of the genai client the wrapper needs. It is
// satisfied by *genai.Models and by test fakes.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel binds a model name and its generation config to
// a content generator, with an optional rate limiter in front of it.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             ContentGenerator
	RateLimit               *rate.Limiter // nil when throttling is disabled.
}

// NewQuotaAwareModel wraps handle. requestsPerSecond of zero or less disables
// the limiter.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle ContentGenerator, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               limiter,
	}
}

// GenerateContent waits for a token, bounded by ctx, and then makes exactly
// one call to the underlying model.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if q.RateLimit != nil {
		if err := q.RateLimit.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}

// NewGenerateContentConfig converts a model's settings into the request
// config sent with every call.
func NewGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr[float32](values.Temperature),
		SafetySettings: DefaultSafetySettings,
	}
	if values.TopP > 0 {
		cfg.TopP = genai.Ptr[float32](values.TopP)
	}
	if values.TopK > 0 {
		cfg.TopK = genai.Ptr[float32](values.TopK)
	}
	if values.MaxTokens > 0 {
		cfg.MaxOutputTokens = values.MaxTokens
	}
	if len(values.SystemInstructions) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return cfg
}
