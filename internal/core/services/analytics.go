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

// Package services contains the business logic that sits between the HTTP
// layer and the external clients. This file implements the search counter.
//
// Recording is fire-and-forget: a search never waits on, or fails because
// of, analytics. When a Pub/Sub topic is configured the event is published
// and counted by the subscriber; otherwise the analytics workflow runs in a
// goroutine on a context detached from the request.
package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jaycherian/movie-mixer/internal/core/commands"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// EventPublisher sends search events to a message broker.
type EventPublisher interface {
	PublishAndLog(ctx context.Context, event *model.SearchEvent)
}

// SearchAnalytics records searches and reads back the most searched terms.
type SearchAnalytics struct {
	Store        commands.SearchCountStore // Nil disables analytics.
	Workflow     cor.Command               // Runs SearchEventReader and SearchCountRecorder.
	Publisher    EventPublisher            // Optional; takes precedence over Workflow.
	ImageBaseURL string
	Timeout      time.Duration

	wg sync.WaitGroup
}

// Enabled reports whether a counter backend is configured.
func (s *SearchAnalytics) Enabled() bool {
	return s != nil && (s.Store != nil || s.Publisher != nil)
}

// Record counts a search for query whose first result is top. It returns
// immediately. Nothing is recorded for a blank query or a nil result.
func (s *SearchAnalytics) Record(ctx context.Context, query string, top *model.MovieRecord) {
	if !s.Enabled() || top == nil || len(model.NormalizeSearchTerm(query)) == 0 {
		return
	}
	event := model.NewSearchEvent(query, top, s.ImageBaseURL)

	if s.Publisher != nil {
		s.Publisher.PublishAndLog(ctx, event)
		return
	}
	if s.Workflow == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runCtx := detached
		if s.Timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(detached, s.Timeout)
			defer cancel()
		}
		chainCtx := cor.NewBaseContextWith(runCtx)
		chainCtx.Add(cor.CtxIn, event)
		s.Workflow.Execute(chainCtx)
		if err := chainCtx.Err(); err != nil {
			slog.Warn("failed to record search", "search_term", event.SearchTerm, "error", err)
		}
	}()
}

// Wait blocks until all inline recordings have finished.
func (s *SearchAnalytics) Wait() {
	if s != nil {
		s.wg.Wait()
	}
}

// TopSearches returns the most searched terms.
func (s *SearchAnalytics) TopSearches(ctx context.Context, limit int) ([]*model.SearchCount, error) {
	if s == nil || s.Store == nil {
		return nil, model.NewConfigError("analytics.backend", errors.New("search analytics are disabled"))
	}
	out, err := s.Store.Top(ctx, limit)
	if err != nil {
		return nil, model.NewUpstreamError(model.ServiceAnalytics, 0, err)
	}
	return out, nil
}
