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

// Package workflow_test runs the pipelines end to end against in-memory
// fakes of the catalog and the generative model.
package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
	test "github.com/jaycherian/movie-mixer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const (
	tName       = "github.com/jaycherian/movie-mixer/tests/workflow"
	testTimeout = 2 * time.Second
	testTick    = 10 * time.Millisecond
)

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

type stageRecorder struct {
	mu      sync.Mutex
	started []string
	failed  map[string]error
}

func (s *stageRecorder) OnCommandStart(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = append(s.started, name)
}

func (s *stageRecorder) OnCommandComplete(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if s.failed == nil {
			s.failed = make(map[string]error)
		}
		s.failed[name] = err
	}
}

func fullCatalog() *test.FakeCatalog {
	return &test.FakeCatalog{Movies: map[string][]*model.MovieRecord{
		"Amélie":                   {{ID: 194, Title: "Amélie"}},
		"Parasite":                 {{ID: 496243, Title: "Parasite"}},
		"Spirited Away":            {{ID: 129, Title: "Spirited Away"}},
		"Pan's Labyrinth":          {{ID: 1417, Title: "Pan's Labyrinth"}},
		"The Grand Budapest Hotel": {{ID: 120467, Title: "The Grand Budapest Hotel"}},
	}}
}

func newWorkflow(t *testing.T, catalog *test.FakeCatalog, generator *test.FakeGenerator) *workflow.RecommendationWorkflow {
	t.Helper()
	config := test.NewTestConfig()
	wf, err := workflow.NewRecommendationWorkflow(config, catalog, test.NewTestModel(config, generator))
	require.NoError(t, err)
	return wf
}

func TestRecommendEndToEnd(t *testing.T) {
	ctx, span := tracer.Start(context.Background(), "recommendation-workflow-test")
	defer span.End()

	catalog := fullCatalog()
	generator := &test.FakeGenerator{Text: test.GetTestRecommendationText()}
	wf := newWorkflow(t, catalog, generator)
	stages := &stageRecorder{}

	out, err := wf.Recommend(ctx, []string{"Amélie", "Oldboy", "Heat"}, stages)
	require.NoError(t, err)
	require.Len(t, out, 5)

	wantIDs := []int{194, 496243, 129, 1417, 120467}
	for i, rec := range out {
		assert.Equal(t, wantIDs[i], rec.ID)
		assert.NotEmpty(t, rec.RecommendationReason)
	}
	assert.Equal(t, 1, generator.Calls())
	assert.Equal(t, 5, catalog.Calls())
	assert.Equal(t, []string{
		workflow.CommandValidateSeeds,
		workflow.CommandGenerate,
		workflow.CommandParse,
		workflow.CommandHydrate,
	}, stages.started)
	assert.Empty(t, stages.failed)

	logger.InfoContext(ctx, "recommendations", "count", len(out))
}

func TestRecommendBlankSeedMakesNoCalls(t *testing.T) {
	catalog := fullCatalog()
	generator := &test.FakeGenerator{Text: test.GetTestRecommendationText()}
	wf := newWorkflow(t, catalog, generator)
	stages := &stageRecorder{}

	out, err := wf.Recommend(context.Background(), []string{"Amélie", " ", "Heat"}, stages)
	assert.Nil(t, out)

	var validationErr *model.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, model.MsgFillAllFields, model.UserMessage(err))
	assert.Equal(t, 0, generator.Calls())
	assert.Equal(t, 0, catalog.Calls())
	assert.Equal(t, []string{workflow.CommandValidateSeeds}, stages.started)
	assert.Contains(t, stages.failed, workflow.CommandValidateSeeds)
}

func TestRecommendMissingCredentialFailsBeforeCall(t *testing.T) {
	catalog := fullCatalog()
	generator := &test.FakeGenerator{Text: test.GetTestRecommendationText()}
	config := test.NewTestConfig()
	config.Generative.Credential = ""
	wf, err := workflow.NewRecommendationWorkflow(config, catalog, test.NewTestModel(config, generator))
	require.NoError(t, err)

	_, err = wf.Recommend(context.Background(), []string{"Amélie"}, nil)

	var configErr *model.ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, 0, generator.Calls())
	assert.Equal(t, 0, catalog.Calls())
}

func TestRecommendMissingCredentialReportedBeforeBlankSeed(t *testing.T) {
	generator := &test.FakeGenerator{Text: test.GetTestRecommendationText()}
	config := test.NewTestConfig()
	config.Generative.Credential = ""
	wf, err := workflow.NewRecommendationWorkflow(config, fullCatalog(), test.NewTestModel(config, generator))
	require.NoError(t, err)
	stages := &stageRecorder{}

	_, err = wf.Recommend(context.Background(), []string{"Amélie", " "}, stages)

	var configErr *model.ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, model.MsgServiceMisconfigured, model.UserMessage(err))
	assert.Equal(t, []string{workflow.CommandValidateSeeds}, stages.started)
	assert.Equal(t, 0, generator.Calls())
}

func TestRecommendEmptyAnswerYieldsNoResults(t *testing.T) {
	catalog := fullCatalog()
	wf := newWorkflow(t, catalog, &test.FakeGenerator{Text: ""})

	out, err := wf.Recommend(context.Background(), []string{"Amélie"}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 0, catalog.Calls())
}

func TestRecommendFailedHydrationFailsBatch(t *testing.T) {
	catalog := fullCatalog()
	catalog.Failures = map[string]error{"Spirited Away": model.NewUpstreamError(model.ServiceCatalog, 500, errors.New("server error"))}
	wf := newWorkflow(t, catalog, &test.FakeGenerator{Text: test.GetTestRecommendationText()})

	out, err := wf.Recommend(context.Background(), []string{"Amélie"}, nil)
	assert.Nil(t, out)

	var upstream *model.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 500, upstream.StatusCode)
	assert.Equal(t, model.MsgRecommendationsFailed, model.UserMessage(err))
}

func TestRecommendCancelled(t *testing.T) {
	generator := &test.FakeGenerator{Text: test.GetTestRecommendationText(), Block: make(chan struct{})}
	catalog := fullCatalog()
	wf := newWorkflow(t, catalog, generator)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := wf.Recommend(ctx, []string{"Amélie"}, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return generator.Calls() == 1 }, testTimeout, testTick)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, catalog.Calls())
}

func TestRecommendationWorkflowAsCommand(t *testing.T) {
	wf := newWorkflow(t, fullCatalog(), &test.FakeGenerator{Text: test.GetTestRecommendationText()})

	chainCtx := cor.NewBaseContextWith(context.Background())
	chainCtx.Add(cor.CtxIn, []string{"Amélie", "Parasite"})
	wf.Execute(chainCtx)

	require.NoError(t, chainCtx.Err())
	out, ok := chainCtx.Get(cor.CtxIn).([]*model.HydratedRecommendation)
	require.True(t, ok)
	assert.Len(t, out, 5)
}

func TestInvalidPromptTemplateIsConfigError(t *testing.T) {
	config := test.NewTestConfig()
	config.PromptTemplates.RecommendationPrompt = "{{ .SEEDS "

	_, err := workflow.NewRecommendationWorkflow(config, fullCatalog(), nil)

	var configErr *model.ConfigError
	assert.True(t, errors.As(err, &configErr))
}
