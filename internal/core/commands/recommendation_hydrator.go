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
// Responsibility (COR) pattern's Command interface. This file resolves the
// parsed recommendation entries against the movie catalog.
//
// Logic Flow:
//  1. It receives the ordered entries from the parser.
//  2. It starts a bounded pool of workers (`numberOfWorkers`) reading from a
//     jobs channel, one job per entry.
//  3. Each worker issues one catalog search for the entry title, under its own
//     span, and sends back the first result tagged with the entry's index.
//  4. Results are written into a slice by index, so the output order is the
//     entry order no matter which search finished first.
//  5. A search with no results yields the title-only fallback record. A
//     failed search fails the whole batch under `all_or_nothing` or degrades
//     to the fallback under `best_effort`.
package commands

import (
	goctx "context"
	"errors"
	"fmt"
	"sync"

	"github.com/jaycherian/movie-mixer/internal/catalog"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HydrationPolicy decides what a failed catalog search does to the batch.
type HydrationPolicy string

const (
	// AllOrNothing fails the whole batch when any search fails.
	AllOrNothing HydrationPolicy = "all_or_nothing"
	// BestEffort replaces a failed search with the fallback record.
	BestEffort HydrationPolicy = "best_effort"
)

// ParseHydrationPolicy maps a config value to a policy. Unknown values map to
// AllOrNothing.
func ParseHydrationPolicy(value string) HydrationPolicy {
	if HydrationPolicy(value) == BestEffort {
		return BestEffort
	}
	return AllOrNothing
}

// RecommendationHydrator fans out one catalog search per entry.
type RecommendationHydrator struct {
	cor.BaseCommand
	searcher        catalog.Searcher
	numberOfWorkers int
	policy          HydrationPolicy
}

// NewRecommendationHydrator creates the hydration stage with at least one
// worker.
func NewRecommendationHydrator(
	name string,
	searcher catalog.Searcher,
	numberOfWorkers int,
	policy HydrationPolicy) *RecommendationHydrator {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	return &RecommendationHydrator{
		BaseCommand:     *cor.NewBaseCommand(name),
		searcher:        searcher,
		numberOfWorkers: numberOfWorkers,
		policy:          policy,
	}
}

// HydrationJob is one catalog search.
type HydrationJob struct {
	index int
	entry model.RecommendationEntry
	ctx   goctx.Context
	span  trace.Span
}

func (j *HydrationJob) Close(status codes.Code, description string) {
	j.span.SetStatus(status, description)
	j.span.End()
}

// HydrationResult is the outcome of one job.
type HydrationResult struct {
	index  int
	record *model.MovieRecord
	err    error
}

// Execute hydrates the parsed entries.
//
// Inputs:
//   - context: CtxIn holds the []model.RecommendationEntry from the parser.
//
// Outputs:
//   - CtxOut holds the []*model.HydratedRecommendation in entry order.
func (h *RecommendationHydrator) Execute(context cor.Context) {
	entries, ok := context.Get(h.GetInputParam()).([]model.RecommendationEntry)
	if !ok {
		h.Fail(context, fmt.Errorf("unexpected input type %T", context.Get(h.GetInputParam())))
		return
	}

	hydrated, err := h.Hydrate(context.GetContext(), entries)
	if err != nil {
		h.Fail(context, err)
		return
	}
	h.Succeed(context, hydrated)
}

// Hydrate resolves entries concurrently and returns them in entry order.
func (h *RecommendationHydrator) Hydrate(ctx goctx.Context, entries []model.RecommendationEntry) ([]*model.HydratedRecommendation, error) {
	var wg sync.WaitGroup
	jobs := make(chan *HydrationJob, len(entries))
	results := make(chan *HydrationResult, len(entries))

	workers := h.numberOfWorkers
	if workers > len(entries) {
		workers = len(entries)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go h.hydrationWorker(jobs, results, &wg)
	}

	for i, entry := range entries {
		jobCtx, span := h.Tracer.Start(ctx, fmt.Sprintf("%s_search_%d", h.GetName(), i))
		span.SetAttributes(
			attribute.Int("sequence", i),
			attribute.String("title", entry.Title),
		)
		jobs <- &HydrationJob{index: i, entry: entry, ctx: jobCtx, span: span}
	}
	close(jobs)

	wg.Wait()
	close(results)

	records := make([]*model.MovieRecord, len(entries))
	var errs []error
	for r := range results {
		if r.err != nil {
			if h.policy == BestEffort {
				continue
			}
			errs = append(errs, fmt.Errorf("search for %q failed: %w", entries[r.index].Title, r.err))
			continue
		}
		records[r.index] = r.record
	}
	if len(errs) > 0 {
		return nil, wrapUpstream(errors.Join(errs...))
	}

	hydrated := make([]*model.HydratedRecommendation, len(entries))
	for i, entry := range entries {
		hydrated[i] = model.NewHydratedRecommendation(entry, records[i])
	}
	return hydrated, nil
}

func (h *RecommendationHydrator) hydrationWorker(jobs <-chan *HydrationJob, results chan<- *HydrationResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for j := range jobs {
		found, err := h.searcher.Search(j.ctx, j.entry.Title)
		if err != nil {
			j.span.RecordError(err)
			j.Close(codes.Error, "catalog search failed")
			results <- &HydrationResult{index: j.index, err: err}
			continue
		}
		var record *model.MovieRecord
		if len(found) > 0 && found[0] != nil {
			record = found[0]
			j.Close(codes.Ok, "matched")
		} else {
			j.Close(codes.Ok, "no match")
		}
		results <- &HydrationResult{index: j.index, record: record}
	}
}

// wrapUpstream reports a failed batch as a failed recommendation run. The
// status code of the first upstream failure is kept.
func wrapUpstream(err error) error {
	var upstream *model.UpstreamError
	if errors.As(err, &upstream) {
		return model.NewUpstreamError(model.ServiceRecommendation, upstream.StatusCode, err)
	}
	return model.NewUpstreamError(model.ServiceRecommendation, 0, err)
}
