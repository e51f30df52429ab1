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
	"sync"
	"testing"

	"github.com/jaycherian/movie-mixer/internal/core/model"
	"github.com/jaycherian/movie-mixer/internal/core/services"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
	test "github.com/jaycherian/movie-mixer/internal/testutil"
	"github.com/zeebo/assert"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.SearchEvent
}

func (p *recordingPublisher) PublishAndLog(_ context.Context, event *model.SearchEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func newAnalytics(store *test.MemoryStore) *services.SearchAnalytics {
	return &services.SearchAnalytics{
		Store:        store,
		Workflow:     workflow.NewSearchAnalyticsWorkflow(store),
		ImageBaseURL: test.TestImageBaseURL,
	}
}

func TestRecordCountsInline(t *testing.T) {
	store := &test.MemoryStore{}
	analytics := newAnalytics(store)

	ctx, cancel := context.WithCancel(context.Background())
	top := &model.MovieRecord{ID: 348, Title: "Alien", PosterPath: "/alien.jpg"}
	analytics.Record(ctx, " Alien ", top)
	// Cancelling the request must not drop the recording.
	cancel()
	analytics.Record(context.Background(), "Alien", top)
	analytics.Wait()

	assert.Equal(t, store.Count("Alien"), int64(2))

	counts, err := analytics.TopSearches(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, len(counts), 1)
	assert.Equal(t, counts[0].PosterURL, test.TestImageBaseURL+"/w500/alien.jpg")
}

func TestRecordSkipsEmptySearches(t *testing.T) {
	store := &test.MemoryStore{}
	analytics := newAnalytics(store)

	analytics.Record(context.Background(), "   ", &model.MovieRecord{ID: 1, Title: "x"})
	analytics.Record(context.Background(), "Alien", nil)
	analytics.Wait()

	counts, err := analytics.TopSearches(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, len(counts), 0)
}

func TestRecordPrefersPublisher(t *testing.T) {
	store := &test.MemoryStore{}
	publisher := &recordingPublisher{}
	analytics := newAnalytics(store)
	analytics.Publisher = publisher

	analytics.Record(context.Background(), "Heat", &model.MovieRecord{ID: 949, Title: "Heat"})
	analytics.Wait()

	assert.Equal(t, len(publisher.events), 1)
	assert.Equal(t, publisher.events[0].SearchTerm, "Heat")
	assert.Equal(t, store.Count("Heat"), int64(0))
}

func TestDisabledAnalytics(t *testing.T) {
	var analytics *services.SearchAnalytics
	assert.False(t, analytics.Enabled())
	analytics.Record(context.Background(), "Heat", &model.MovieRecord{ID: 949})
	analytics.Wait()

	_, err := analytics.TopSearches(context.Background(), 5)
	var configErr *model.ConfigError
	assert.True(t, errors.As(err, &configErr))
}

func TestTopSearchesStoreFailure(t *testing.T) {
	analytics := newAnalytics(&test.MemoryStore{Err: errors.New("locked")})

	_, err := analytics.TopSearches(context.Background(), 5)
	assert.Equal(t, model.UserMessage(err), model.MsgAnalyticsFailed)
}
