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

package services

import (
	"context"
	"strings"

	"github.com/jaycherian/movie-mixer/internal/catalog"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// MovieService is the browse side of the application: search, popular,
// trending and details.
type MovieService struct {
	Catalog       catalog.Catalog
	Analytics     *SearchAnalytics // Optional.
	ImageBaseURL  string
	TrendingLimit int
}

// Search returns the catalog's matches for query and records the search when
// there is a first result. A blank query lists popular movies instead,
// without documentaries.
func (s *MovieService) Search(ctx context.Context, query string) ([]*model.MovieRecord, error) {
	query = strings.TrimSpace(query)
	if len(query) == 0 {
		return s.Catalog.Discover(ctx, catalog.SortPopularityDesc, catalog.DocumentaryGenreID)
	}

	results, err := s.Catalog.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		s.Analytics.Record(ctx, query, results[0])
	}
	return results, nil
}

// Trending returns at most TrendingLimit movies trending over window.
func (s *MovieService) Trending(ctx context.Context, window string) ([]*model.MovieRecord, error) {
	if len(window) == 0 {
		window = catalog.WindowWeek
	}
	results, err := s.Catalog.Trending(ctx, window)
	if err != nil {
		return nil, err
	}
	if s.TrendingLimit > 0 && len(results) > s.TrendingLimit {
		results = results[:s.TrendingLimit]
	}
	return results, nil
}

// Details returns a movie with its poster link and YouTube trailer, if any.
func (s *MovieService) Details(ctx context.Context, id int) (*model.MovieDetails, error) {
	record, err := s.Catalog.Details(ctx, id)
	if err != nil {
		return nil, err
	}
	videos, err := s.Catalog.Videos(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &model.MovieDetails{MovieRecord: record, PosterURL: record.PosterURL(s.ImageBaseURL)}
	if trailer := model.FindTrailer(videos); trailer != nil {
		out.Trailer = trailer
		out.TrailerURL = trailer.EmbedURL()
	}
	return out, nil
}

// Videos returns the raw video list of a movie.
func (s *MovieService) Videos(ctx context.Context, id int) ([]*model.Video, error) {
	return s.Catalog.Videos(ctx, id)
}
