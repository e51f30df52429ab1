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
// This file, `transient.go`, contains the structures that only live for the
// duration of a single recommendation run. They are handed from command to
// command through the chain context and are never persisted.
package model

const (
	// MaxRecommendations caps the number of entries taken from a model response.
	MaxRecommendations = 5
	// NoReasonProvided is the reason used when a model line has no reason segment.
	NoReasonProvided = "No reason provided"
)

// RecommendationEntry is a single recommendation parsed from one line of the
// model's free-text response, before it is resolved against the catalog.
type RecommendationEntry struct {
	Title         string `json:"title"`
	OriginalTitle string `json:"originalTitle,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// HydratedRecommendation is a catalog record merged with the reason the model
// gave for recommending it.
type HydratedRecommendation struct {
	*MovieRecord
	RecommendationReason string `json:"recommendationReason,omitempty"`
}

// NewHydratedRecommendation merges a resolved record with its entry's reason.
// A nil record is replaced by the title-only fallback.
func NewHydratedRecommendation(entry RecommendationEntry, record *MovieRecord) *HydratedRecommendation {
	if record == nil {
		record = NewFallbackMovieRecord(entry.Title)
	}
	return &HydratedRecommendation{MovieRecord: record, RecommendationReason: entry.Reason}
}
