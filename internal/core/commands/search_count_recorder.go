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
// command that increments the search counter for an event.
//
// The counter itself lives behind SearchCountStore so the same workflow can
// write to BigQuery in the cloud and to a local SQLite file elsewhere.
package commands

import (
	goctx "context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// SearchCountStore persists the per-term search counter.
type SearchCountStore interface {
	// Increment adds one to the counter of the event's term, creating the row
	// if needed, and stores the event's movie id and poster URL.
	Increment(ctx goctx.Context, event *model.SearchEvent) error
	// Top returns the most searched terms, highest count first.
	Top(ctx goctx.Context, limit int) ([]*model.SearchCount, error)
}

// SearchCountRecorder writes one event to a SearchCountStore.
type SearchCountRecorder struct {
	cor.BaseCommand
	store SearchCountStore
}

func NewSearchCountRecorder(name string, store SearchCountStore) *SearchCountRecorder {
	return &SearchCountRecorder{BaseCommand: *cor.NewBaseCommand(name), store: store}
}

func (s *SearchCountRecorder) Execute(context cor.Context) {
	event, ok := context.Get(s.GetInputParam()).(*model.SearchEvent)
	if !ok {
		s.Fail(context, fmt.Errorf("unexpected input type %T", context.Get(s.GetInputParam())))
		return
	}

	if err := s.store.Increment(context.GetContext(), event); err != nil {
		slog.Warn("failed to update search count", "search_term", event.SearchTerm, "error", err)
		s.Fail(context, model.NewUpstreamError(model.ServiceAnalytics, 0, fmt.Errorf("increment %q: %w", event.SearchTerm, err)))
		return
	}

	slog.Debug("updated search count", "search_term", event.SearchTerm, "movie_id", event.MovieID)
	s.Succeed(context, event)
}
