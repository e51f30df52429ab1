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

// Package workflow assembles commands into the application's pipelines.
// This file defines the recommendation pipeline:
//
//	validate-seeds -> generate-recommendations -> parse-recommendations -> hydrate-recommendations
//
// The commands are built once and shared. Every run gets its own chain so
// that run-specific observers never leak between concurrent runs.
package workflow

import (
	goctx "context"
	"fmt"
	"text/template"

	"github.com/jaycherian/movie-mixer/internal/catalog"
	"github.com/jaycherian/movie-mixer/internal/cloud"
	"github.com/jaycherian/movie-mixer/internal/core/commands"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// Command names of the recommendation pipeline, in execution order.
const (
	CommandValidateSeeds = "validate-seeds"
	CommandGenerate      = "generate-recommendations"
	CommandParse         = "parse-recommendations"
	CommandHydrate       = "hydrate-recommendations"
)

// Recommender runs the recommendation pipeline. It is what the session layer
// and the HTTP handlers depend on.
type Recommender interface {
	Recommend(ctx goctx.Context, seeds []string, observer cor.Observer) ([]*model.HydratedRecommendation, error)
}

// RecommendationWorkflow is the recommendation pipeline.
type RecommendationWorkflow struct {
	cor.BaseCommand
	config     *cloud.Config
	searcher   catalog.Searcher
	genaiModel *cloud.QuotaAwareGenerativeAIModel
	prompt     *template.Template
	commands   []cor.Command
}

// Execute runs the pipeline against a caller-provided context whose CtxIn
// holds the seed titles.
func (m *RecommendationWorkflow) Execute(context cor.Context) {
	m.newChain(nil).Execute(context)
}

// Recommend runs the pipeline for seeds. observer, when not nil, is told
// about every stage transition. Cancelling ctx stops the run before the next
// stage and aborts in-flight calls.
func (m *RecommendationWorkflow) Recommend(ctx goctx.Context, seeds []string, observer cor.Observer) ([]*model.HydratedRecommendation, error) {
	chainCtx := cor.NewBaseContextWith(ctx)
	chainCtx.Add(cor.CtxIn, seeds)

	m.newChain(observer).Execute(chainCtx)

	if err := chainCtx.Err(); err != nil {
		return nil, err
	}
	out, ok := chainCtx.Get(cor.CtxIn).([]*model.HydratedRecommendation)
	if !ok {
		return nil, fmt.Errorf("%s produced no recommendations", m.GetName())
	}
	return out, nil
}

func (m *RecommendationWorkflow) newChain(observer cor.Observer) cor.Chain {
	out := cor.NewBaseChain(m.GetName())
	for _, c := range m.commands {
		out.AddCommand(c)
	}
	out.AddObserver(observer)
	return out
}

func (m *RecommendationWorkflow) initializeCommands() {
	m.commands = []cor.Command{
		commands.NewSeedValidator(CommandValidateSeeds, m.config.Mixer.MaxSeeds).
			WithPreflight(func() error { return commands.CheckGenerativeCredential(m.config, m.genaiModel) }),
		commands.NewRecommendationGenerator(CommandGenerate, m.config, m.genaiModel, m.prompt),
		commands.NewRecommendationParser(CommandParse),
		commands.NewRecommendationHydrator(
			CommandHydrate,
			m.searcher,
			m.config.Application.ThreadPoolSize,
			commands.ParseHydrationPolicy(m.config.Mixer.HydrationPolicy)),
	}
}

// NewRecommendationWorkflow builds the pipeline. It fails when the configured
// prompt template does not parse.
func NewRecommendationWorkflow(
	config *cloud.Config,
	searcher catalog.Searcher,
	genaiModel *cloud.QuotaAwareGenerativeAIModel) (*RecommendationWorkflow, error) {

	prompt, err := commands.ParseRecommendationTemplate(config.PromptTemplates.RecommendationPrompt)
	if err != nil {
		return nil, model.NewConfigError("prompt_templates.recommendation", err)
	}

	out := &RecommendationWorkflow{
		BaseCommand: *cor.NewBaseCommand("recommendation-workflow"),
		config:      config,
		searcher:    searcher,
		genaiModel:  genaiModel,
		prompt:      prompt,
	}
	out.initializeCommands()
	return out, nil
}
