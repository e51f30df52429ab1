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

// Package model defines the core data structures for the application.
// This file, `persistent.go`, contains the search analytics shapes. They are
// the only data the service persists: a counter per search term, plus the
// event message that increments it.
package model

import (
	"strings"
	"time"
)

// SearchEvent is emitted when a search returns at least one result. It is
// either published to Pub/Sub or recorded directly, depending on config.
type SearchEvent struct {
	SearchTerm string    `json:"search_term"`
	MovieID    int       `json:"movie_id"`
	PosterURL  string    `json:"poster_url"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewSearchEvent builds the event for a search and its top result.
func NewSearchEvent(query string, top *MovieRecord, imageBaseURL string) *SearchEvent {
	return &SearchEvent{
		SearchTerm: NormalizeSearchTerm(query),
		MovieID:    top.ID,
		PosterURL:  top.PosterURL(imageBaseURL),
		OccurredAt: time.Now().UTC(),
	}
}

// SearchCount is one row of the search counter, keyed by search term.
type SearchCount struct {
	SearchTerm string    `json:"search_term" bigquery:"search_term"`
	Count      int64     `json:"count" bigquery:"count"`
	MovieID    int64     `json:"movie_id" bigquery:"movie_id"`
	PosterURL  string    `json:"poster_url" bigquery:"poster_url"`
	UpdatedAt  time.Time `json:"updated_at" bigquery:"updated_at"`
}

// NormalizeSearchTerm trims the term so " Alien" and "Alien " share a row.
func NormalizeSearchTerm(term string) string {
	return strings.TrimSpace(term)
}
