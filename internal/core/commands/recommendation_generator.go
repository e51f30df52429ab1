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
// command that asks the generative model for recommendations.
//
// Logic Flow:
//  1. It receives the validated seed titles from the context.
//  2. It fails with a *model.ConfigError if no generative credential is set.
//  3. It renders the prompt template with the seeds and the example lines.
//  4. It makes one `generateContent` call through the rate-aware model.
//  5. It places the text of the first candidate in the context for the
//     parser. Any failure is a *model.UpstreamError and is not retried.
package commands

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/movie-mixer/internal/cloud"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"google.golang.org/genai"
)

// DefaultRecommendationPrompt is used when prompt_templates.recommendation is
// not configured. It receives SEEDS (the joined titles), COUNT and EXAMPLES.
const DefaultRecommendationPrompt = `Based on these movies: {{ .SEEDS }}, suggest {{ .COUNT }} movies that:
Combine at least 3 genres from the input titles using IMDB's taxonomy
Match narrative elements from the input titles
Prioritize films with multi-genre DNA
Include at least 2 non-English language films
Exclude 18+ content and documentaries
Return exactly {{ .COUNT }} movies, one per line, in this format:
Title (Original Language Title) - Reason
No numbers, bullets, or extra punctuation. For example:
{{ range .EXAMPLES }}{{ . }}
{{ end }}`

// RecommendationGenerator turns seed titles into the raw recommendation text.
type RecommendationGenerator struct {
	cor.BaseCommand
	config                   *cloud.Config
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	template                 *template.Template
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
}

// NewRecommendationGenerator creates the generation stage. template is the
// parsed prompt, see ParseRecommendationTemplate.
func NewRecommendationGenerator(
	name string,
	config *cloud.Config,
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	template *template.Template) *RecommendationGenerator {

	out := &RecommendationGenerator{
		BaseCommand:       *cor.NewBaseCommand(name),
		config:            config,
		generativeAIModel: generativeAIModel,
		template:          template,
	}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))

	return out
}

// ParseRecommendationTemplate parses the configured prompt, falling back to
// DefaultRecommendationPrompt when none is configured.
func ParseRecommendationTemplate(source string) (*template.Template, error) {
	if len(strings.TrimSpace(source)) == 0 {
		source = DefaultRecommendationPrompt
	}
	return template.New("recommendation").Parse(source)
}

// GenerateParams builds the template data for the given seeds.
func (t *RecommendationGenerator) GenerateParams(seeds []string) map[string]interface{} {
	params := make(map[string]interface{})
	params["SEEDS"] = strings.Join(seeds, ", ")
	params["COUNT"] = model.MaxRecommendations
	params["EXAMPLES"] = model.ExampleRecommendationLines
	return params
}

// RenderPrompt returns the prompt text for seeds.
func (t *RecommendationGenerator) RenderPrompt(seeds []string) (string, error) {
	var buffer bytes.Buffer
	if err := t.template.Execute(&buffer, t.GenerateParams(seeds)); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buffer.String(), nil
}

// CheckGenerativeCredential fails with a *model.ConfigError when no generative
// credential or model is configured.
func CheckGenerativeCredential(config *cloud.Config, generativeAIModel *cloud.QuotaAwareGenerativeAIModel) error {
	if config == nil || len(config.Generative.Credential) == 0 || generativeAIModel == nil {
		return model.NewConfigError("generative.credential", errors.New("API key not found"))
	}
	return nil
}

// Execute asks the model for recommendations.
//
// Inputs:
//   - context: CtxIn holds the validated []string of seed titles.
//
// Outputs:
//   - CtxOut holds the raw text of the first candidate. A missing credential
//     is a *model.ConfigError, a failed call a *model.UpstreamError.
func (t *RecommendationGenerator) Execute(context cor.Context) {
	seeds, ok := context.Get(t.GetInputParam()).([]string)
	if !ok {
		t.Fail(context, fmt.Errorf("unexpected input type %T", context.Get(t.GetInputParam())))
		return
	}

	if err := CheckGenerativeCredential(t.config, t.generativeAIModel); err != nil {
		t.Fail(context, err)
		return
	}

	prompt, err := t.RenderPrompt(seeds)
	if err != nil {
		t.Fail(context, err)
		return
	}

	out, err := cloud.GenerateTextResponse(context.GetContext(), t.geminiInputTokenCounter, t.geminiOutputTokenCounter, t.generativeAIModel, cloud.NewTextPart(prompt))
	if err != nil {
		t.Fail(context, model.NewUpstreamError(model.ServiceGenerative, statusCodeOf(err), err))
		return
	}

	t.Succeed(context, out)
}

// statusCodeOf extracts the HTTP status from a generative API error, or zero
// for transport failures.
func statusCodeOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
