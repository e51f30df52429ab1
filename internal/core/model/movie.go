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
// This file holds the catalog-facing shapes: movie records as the movie
// database returns them, their genres and videos, and the details view that
// pairs a record with its trailer.
//
// Records are decoded as-is from the catalog. There is no local normalization
// layer; the only derived values are the poster URL and the trailer link.
package model

import "strings"

const (
	// YouTubeSite is the `site` value the catalog uses for YouTube hosted videos.
	YouTubeSite = "YouTube"
	// TrailerType is the `type` value the catalog uses for trailers.
	TrailerType = "Trailer"
	// YouTubeEmbedURL is the prefix for an embeddable YouTube player URL.
	YouTubeEmbedURL = "https://www.youtube.com/embed/"
	// PosterSize is the image width variant used for poster links.
	PosterSize = "w500"
)

// Genre is a single catalog genre. Only the name is used for display.
type Genre struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// MovieRecord is the canonical movie shape returned by the catalog's search,
// discover, trending and details endpoints. Every field other than Title is
// optional; a record produced by the hydration fallback carries only the title.
type MovieRecord struct {
	ID               int     `json:"id,omitempty"`
	Title            string  `json:"title"`
	PosterPath       string  `json:"poster_path,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	VoteAverage      float64 `json:"vote_average,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	Runtime          int     `json:"runtime,omitempty"`
	Genres           []Genre `json:"genres,omitempty"`
}

// NewFallbackMovieRecord returns the record used when the catalog has no match
// for a recommended title.
func NewFallbackMovieRecord(title string) *MovieRecord {
	return &MovieRecord{Title: title}
}

// ReleaseYear returns the year portion of the release date, or an empty
// string when the catalog did not provide one.
func (m *MovieRecord) ReleaseYear() string {
	if m == nil || len(m.ReleaseDate) == 0 {
		return ""
	}
	year, _, _ := strings.Cut(m.ReleaseDate, "-")
	return year
}

// PosterURL joins the configured image base URL with the record's poster path.
// It returns an empty string when the record has no poster.
func (m *MovieRecord) PosterURL(imageBaseURL string) string {
	if m == nil || len(m.PosterPath) == 0 {
		return ""
	}
	return strings.TrimSuffix(imageBaseURL, "/") + "/" + PosterSize + "/" + strings.TrimPrefix(m.PosterPath, "/")
}

// Video is a single entry from the catalog's videos endpoint.
type Video struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// IsYouTubeTrailer reports whether the video is a trailer hosted on YouTube.
func (v *Video) IsYouTubeTrailer() bool {
	return v != nil && v.Type == TrailerType && v.Site == YouTubeSite
}

// EmbedURL returns the embeddable player URL for YouTube videos.
func (v *Video) EmbedURL() string {
	if v == nil || v.Site != YouTubeSite || len(v.Key) == 0 {
		return ""
	}
	return YouTubeEmbedURL + v.Key
}

// FindTrailer returns the first YouTube trailer in the list, or nil.
func FindTrailer(videos []*Video) *Video {
	for _, v := range videos {
		if v.IsYouTubeTrailer() {
			return v
		}
	}
	return nil
}

// MovieDetails is the details view of a single movie: the full record plus the
// trailer used by the "play trailer" action.
type MovieDetails struct {
	*MovieRecord
	PosterURL  string `json:"posterUrl,omitempty"`
	Trailer    *Video `json:"trailer,omitempty"`
	TrailerURL string `json:"trailerUrl,omitempty"`
}
