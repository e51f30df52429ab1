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

package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jaycherian/movie-mixer/internal/catalog"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"github.com/jaycherian/movie-mixer/internal/core/services"
	test "github.com/jaycherian/movie-mixer/internal/testutil"
	"github.com/zeebo/assert"
)

func TestSearchRecordsTopResult(t *testing.T) {
	store := &test.MemoryStore{}
	fake := &test.FakeCatalog{Movies: map[string][]*model.MovieRecord{
		"Alien": {{ID: 348, Title: "Alien"}, {ID: 8077, Title: "Alien 3"}},
	}}
	svc := &services.MovieService{Catalog: fake, Analytics: newAnalytics(store), ImageBaseURL: test.TestImageBaseURL}

	results, err := svc.Search(context.Background(), "  Alien ")
	assert.NoError(t, err)
	assert.Equal(t, len(results), 2)
	assert.DeepEqual(t, fake.Queries(), []string{"Alien"})

	_, err = svc.Search(context.Background(), "Nothing Matches")
	assert.NoError(t, err)

	svc.Analytics.Wait()
	assert.Equal(t, store.Count("Alien"), int64(1))
	assert.Equal(t, store.Count("Nothing Matches"), int64(0))
}

func TestBlankSearchListsPopular(t *testing.T) {
	fake := &test.FakeCatalog{Popular: []*model.MovieRecord{{ID: 1, Title: "Popular"}}}
	svc := &services.MovieService{Catalog: fake}

	results, err := svc.Search(context.Background(), " ")
	assert.NoError(t, err)
	assert.Equal(t, len(results), 1)
	assert.Equal(t, len(fake.Queries()), 0)
}

func TestSearchPropagatesCatalogErrors(t *testing.T) {
	fake := &test.FakeCatalog{Err: model.NewUpstreamError(model.ServiceCatalog, 401, errors.New("unauthorized"))}
	svc := &services.MovieService{Catalog: fake}

	_, err := svc.Search(context.Background(), "Alien")
	assert.Equal(t, model.UserMessage(err), model.MsgCatalogFailed)
}

func TestTrendingIsLimited(t *testing.T) {
	trend := make([]*model.MovieRecord, 0, 20)
	for i := 0; i < 20; i++ {
		trend = append(trend, &model.MovieRecord{ID: i + 1})
	}
	svc := &services.MovieService{Catalog: &test.FakeCatalog{Trend: trend}, TrendingLimit: 5}

	results, err := svc.Trending(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, len(results), 5)
	assert.Equal(t, results[4].ID, 5)

	_, err = svc.Trending(context.Background(), "month")
	var validationErr *model.ValidationError
	assert.True(t, errors.As(err, &validationErr))

	results, err = svc.Trending(context.Background(), catalog.WindowDay)
	assert.NoError(t, err)
	assert.Equal(t, len(results), 5)
}

func TestDetailsAddsPosterAndTrailer(t *testing.T) {
	fake := &test.FakeCatalog{
		Records: map[int]*model.MovieRecord{949: {ID: 949, Title: "Heat", PosterPath: "/heat.jpg"}},
		Clips: map[int][]*model.Video{949: {
			{Key: "teaser", Site: model.YouTubeSite, Type: "Teaser"},
			{Key: "abc123", Site: model.YouTubeSite, Type: model.TrailerType},
		}},
	}
	svc := &services.MovieService{Catalog: fake, ImageBaseURL: test.TestImageBaseURL}

	details, err := svc.Details(context.Background(), 949)
	assert.NoError(t, err)
	assert.Equal(t, details.Title, "Heat")
	assert.Equal(t, details.PosterURL, test.TestImageBaseURL+"/w500/heat.jpg")
	assert.Equal(t, details.TrailerURL, model.YouTubeEmbedURL+"abc123")

	_, err = svc.Details(context.Background(), 1)
	var upstream *model.UpstreamError
	assert.True(t, errors.As(err, &upstream))
	assert.Equal(t, upstream.StatusCode, 404)
}
