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

// Package test provides fakes and fixtures shared by the application's test
// suite: an in-memory movie catalog, a scripted generative model, and a
// configuration that passes validation without any files or network.
package test

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/jaycherian/movie-mixer/internal/catalog"
	"github.com/jaycherian/movie-mixer/internal/cloud"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

const (
	TestCatalogCredential    = "test-catalog-credential"
	TestGenerativeCredential = "test-generative-credential"
	TestImageBaseURL         = "https://image.example.test/t/p"
	TestModelName            = "gemini-test"
)

// HandleErr fails the test immediately when err is not nil.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// GetTestRecommendationText returns a five line model answer in the expected
// format.
func GetTestRecommendationText() string {
	return strings.Join([]string{
		"Amélie (Le Fabuleux Destin d'Amélie Poulain) - A whimsical romantic comedy about finding joy in small things",
		"Parasite (기생충) - A dark social satire that blends thriller, comedy, and drama",
		"Spirited Away (千と千尋の神隠し) - A fantasy coming-of-age journey through a spirit world",
		"Pan's Labyrinth (El laberinto del fauno) - A war drama wrapped in a dark fairy tale",
		"The Grand Budapest Hotel - A caper told with symmetrical comic precision",
	}, "\n")
}

// NewTestConfig returns a valid configuration with fake credentials and a
// single "recommendation" agent model.
func NewTestConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Catalog.Credential = TestCatalogCredential
	config.Catalog.ImageBaseURL = TestImageBaseURL
	config.Generative.Credential = TestGenerativeCredential
	config.AgentModels[cloud.DefaultAgentModel] = cloud.VertexAiLLMModel{
		Model:       TestModelName,
		Temperature: 0.9,
	}
	return config
}

// NewTestModel wraps generator the same way the application wraps the genai
// client.
func NewTestModel(config *cloud.Config, generator cloud.ContentGenerator) *cloud.QuotaAwareGenerativeAIModel {
	values, _ := config.AgentModel()
	return cloud.NewQuotaAwareModel(cloud.NewGenerateContentConfig(values), values.Model, generator, values.RateLimit)
}

// FakeGenerator is a scripted cloud.ContentGenerator.
type FakeGenerator struct {
	Text  string
	Err   error
	Block chan struct{} // When set, calls wait for it to close or for ctx.

	calls      atomic.Int32
	mu         sync.Mutex
	lastPrompt string
}

func (f *FakeGenerator) GenerateContent(ctx context.Context, _ string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls.Add(1)

	var sb strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			sb.WriteString(p.Text)
		}
	}
	f.mu.Lock()
	f.lastPrompt = sb.String()
	f.mu.Unlock()

	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.Text}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 10, CandidatesTokenCount: 20},
	}, nil
}

// Calls returns how many requests were made.
func (f *FakeGenerator) Calls() int {
	return int(f.calls.Load())
}

// LastPrompt returns the text of the most recent request.
func (f *FakeGenerator) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}

// FakeCatalog is an in-memory catalog.Catalog. Search answers from Movies by
// exact title and records every query.
type FakeCatalog struct {
	Movies   map[string][]*model.MovieRecord
	Popular  []*model.MovieRecord
	Trend    []*model.MovieRecord
	Records  map[int]*model.MovieRecord
	Clips    map[int][]*model.Video
	Failures map[string]error // Search errors by title.
	Err      error            // Returned by every call when set.

	mu      sync.Mutex
	queries []string
	calls   atomic.Int32
}

var _ catalog.Catalog = (*FakeCatalog)(nil)

func (f *FakeCatalog) Search(_ context.Context, query string) ([]*model.MovieRecord, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if err, ok := f.Failures[query]; ok {
		return nil, err
	}
	return f.Movies[query], nil
}

func (f *FakeCatalog) Discover(_ context.Context, _ string, _ ...int) ([]*model.MovieRecord, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Popular, nil
}

func (f *FakeCatalog) Trending(_ context.Context, window string) ([]*model.MovieRecord, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	if window != catalog.WindowDay && window != catalog.WindowWeek {
		return nil, model.NewValidationError("unsupported trending window "+window, nil)
	}
	return f.Trend, nil
}

func (f *FakeCatalog) Details(_ context.Context, id int) (*model.MovieRecord, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	record, ok := f.Records[id]
	if !ok {
		return nil, model.NewUpstreamError(model.ServiceCatalog, 404, errors.New("movie not found"))
	}
	return record, nil
}

func (f *FakeCatalog) Videos(_ context.Context, id int) ([]*model.Video, error) {
	f.calls.Add(1)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Clips[id], nil
}

// Calls returns how many catalog requests were made.
func (f *FakeCatalog) Calls() int {
	return int(f.calls.Load())
}

// Queries returns the search queries in the order they were received.
func (f *FakeCatalog) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

// MemoryStore is an in-memory search counter with the same semantics as the
// SQL backed stores.
type MemoryStore struct {
	Err error // Returned by every call when set.

	mu   sync.Mutex
	rows map[string]*model.SearchCount
}

func (m *MemoryStore) Increment(_ context.Context, event *model.SearchEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[string]*model.SearchCount)
	}
	row, ok := m.rows[event.SearchTerm]
	if !ok {
		row = &model.SearchCount{
			SearchTerm: event.SearchTerm,
			MovieID:    int64(event.MovieID),
			PosterURL:  event.PosterURL,
		}
		m.rows[event.SearchTerm] = row
	}
	row.Count++
	row.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Top(_ context.Context, limit int) ([]*model.SearchCount, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.SearchCount, 0, len(m.rows))
	for _, row := range m.rows {
		c := *row
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *model.SearchCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.SearchTerm, b.SearchTerm)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the counter of term, or zero.
func (m *MemoryStore) Count(term string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[term]; ok {
		return row.Count
	}
	return 0
}
