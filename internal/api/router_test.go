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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/movie-mixer/internal/api"
	"github.com/jaycherian/movie-mixer/internal/core/mixer"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"github.com/jaycherian/movie-mixer/internal/core/services"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
	test "github.com/jaycherian/movie-mixer/internal/testutil"
)

type fixture struct {
	server    *httptest.Server
	catalog   *test.FakeCatalog
	generator *test.FakeGenerator
	store     *test.MemoryStore
	sessions  *mixer.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := test.NewTestConfig()
	f := &fixture{
		catalog: &test.FakeCatalog{
			Movies: map[string][]*model.MovieRecord{
				"Alien":    {{ID: 348, Title: "Alien", PosterPath: "/alien.jpg"}},
				"Parasite": {{ID: 496243, Title: "Parasite"}},
			},
			Records: map[int]*model.MovieRecord{348: {ID: 348, Title: "Alien"}},
			Clips:   map[int][]*model.Video{348: {{Key: "xyz", Site: model.YouTubeSite, Type: model.TrailerType}}},
		},
		generator: &test.FakeGenerator{Text: test.GetTestRecommendationText()},
		store:     &test.MemoryStore{},
	}

	analytics := &services.SearchAnalytics{
		Store:        f.store,
		Workflow:     workflow.NewSearchAnalyticsWorkflow(f.store),
		ImageBaseURL: test.TestImageBaseURL,
	}
	recommender, err := workflow.NewRecommendationWorkflow(config, f.catalog, test.NewTestModel(config, f.generator))
	require.NoError(t, err)
	f.sessions = mixer.NewManager(recommender, config.Mixer.MaxSeeds, config.Mixer.SessionTTL())

	router := api.NewRouter("movie-mixer-test", &api.Handlers{
		Movies: &services.MovieService{
			Catalog:       f.catalog,
			Analytics:     analytics,
			ImageBaseURL:  test.TestImageBaseURL,
			TrendingLimit: config.Mixer.TrendingLimit,
		},
		Recommender: recommender,
		Sessions:    f.sessions,
		Analytics:   analytics,
	})
	f.server = httptest.NewServer(router)
	t.Cleanup(func() {
		f.server.Close()
		analytics.Wait()
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestMovieRoutes(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodGet, "/api/v1/movies?query=Alien", nil)
	require.Equal(t, http.StatusOK, status)
	movies := decode[[]model.MovieRecord](t, body)
	require.Len(t, movies, 1)
	assert.Equal(t, 348, movies[0].ID)

	status, body = f.do(t, http.MethodGet, "/api/v1/movies/348", nil)
	require.Equal(t, http.StatusOK, status)
	details := decode[map[string]any](t, body)
	assert.Equal(t, model.YouTubeEmbedURL+"xyz", details["trailerUrl"])

	status, _ = f.do(t, http.MethodGet, "/api/v1/movies/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/api/v1/movies/7", nil)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.JSONEq(t, `{"error":"`+model.MsgCatalogFailed+`"}`, string(body))

	status, _ = f.do(t, http.MethodGet, "/api/v1/movies/trending?window=month", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.do(t, http.MethodGet, "/api/v1/movies/348/videos", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]model.Video](t, body), 1)
}

func TestStatsAfterSearch(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodGet, "/api/v1/movies?query=Alien", nil)
	f.do(t, http.MethodGet, "/api/v1/movies?query=Alien", nil)
	require.Eventually(t, func() bool { return f.store.Count("Alien") == 2 }, 2*time.Second, 10*time.Millisecond)

	status, body := f.do(t, http.MethodGet, "/api/v1/stats/searches?limit=1000", nil)
	require.Equal(t, http.StatusOK, status)
	counts := decode[[]model.SearchCount](t, body)
	require.Len(t, counts, 1)
	assert.EqualValues(t, 2, counts[0].Count)
	assert.Equal(t, test.TestImageBaseURL+"/w500/alien.jpg", counts[0].PosterURL)
}

func TestRecommendations(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodPost, "/api/v1/recommendations", "not an object")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := f.do(t, http.MethodPost, "/api/v1/recommendations", api.RecommendationRequest{Seeds: []string{"Alien", ""}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"`+model.MsgFillAllFields+`"}`, string(body))
	assert.Equal(t, 0, f.generator.Calls())

	status, body = f.do(t, http.MethodPost, "/api/v1/recommendations", api.RecommendationRequest{Seeds: []string{"Alien", "Heat"}})
	require.Equal(t, http.StatusOK, status)
	recs := decode[[]map[string]any](t, body)
	require.Len(t, recs, 5)
	assert.Equal(t, "Amélie", recs[0]["title"])
	assert.NotEmpty(t, recs[0]["recommendationReason"])
}

func TestRecommendationsUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.generator.Err = errors.New("connection refused")

	status, body := f.do(t, http.MethodPost, "/api/v1/recommendations", api.RecommendationRequest{Seeds: []string{"Alien"}})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.JSONEq(t, `{"error":"`+model.MsgRecommendationsFailed+`"}`, string(body))
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodPost, "/api/v1/mixer/sessions", api.CountRequest{Count: 9})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := f.do(t, http.MethodPost, "/api/v1/mixer/sessions", api.CountRequest{Count: 2})
	require.Equal(t, http.StatusCreated, status)
	snap := decode[model.SessionSnapshot](t, body)
	base := "/api/v1/mixer/sessions/" + snap.ID

	status, _ = f.do(t, http.MethodPut, base+"/seeds/x", api.SeedRequest{Title: "Alien"})
	assert.Equal(t, http.StatusBadRequest, status)

	for i, title := range []string{"Alien", "Parasite"} {
		status, _ = f.do(t, http.MethodPut, base+"/seeds/"+strconv.Itoa(i), api.SeedRequest{Title: title})
		require.Equal(t, http.StatusOK, status)
	}

	status, body = f.do(t, http.MethodPost, base+"/recommendations", nil)
	require.Equal(t, http.StatusOK, status)
	snap = decode[model.SessionSnapshot](t, body)
	assert.Equal(t, model.StateDone, snap.State)
	assert.Len(t, snap.Results, 5)

	status, body = f.do(t, http.MethodPut, base+"/count", api.CountRequest{Count: 3})
	require.Equal(t, http.StatusOK, status)
	snap = decode[model.SessionSnapshot](t, body)
	assert.Equal(t, model.StateIdle, snap.State)
	assert.Equal(t, []string{"", "", ""}, snap.Seeds)
	assert.Empty(t, snap.Results)

	status, body = f.do(t, http.MethodPost, base+"/recommendations", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.JSONEq(t, `{"error":"`+model.MsgFillAllFields+`"}`, string(body))

	status, _ = f.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":"`+mixer.ErrSessionNotFound.Error()+`"}`, string(body))
}

func TestSupersededRunReturnsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.generator.Block = make(chan struct{})

	status, body := f.do(t, http.MethodPost, "/api/v1/mixer/sessions", api.CountRequest{Count: 2})
	require.Equal(t, http.StatusCreated, status)
	base := "/api/v1/mixer/sessions/" + decode[model.SessionSnapshot](t, body).ID
	for i, title := range []string{"Alien", "Parasite"} {
		status, _ = f.do(t, http.MethodPut, base+"/seeds/"+strconv.Itoa(i), api.SeedRequest{Title: title})
		require.Equal(t, http.StatusOK, status)
	}

	type response struct {
		status int
		body   []byte
		err    error
	}
	done := make(chan response, 1)
	go func() {
		resp, err := f.server.Client().Post(f.server.URL+base+"/recommendations", "application/json", nil)
		if err != nil {
			done <- response{err: err}
			return
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		done <- response{status: resp.StatusCode, body: raw, err: err}
	}()

	require.Eventually(t, func() bool { return f.generator.Calls() == 1 }, 2*time.Second, 10*time.Millisecond)
	status, _ = f.do(t, http.MethodPut, base+"/count", api.CountRequest{Count: 3})
	require.Equal(t, http.StatusOK, status)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusConflict, res.status)

	out := decode[struct {
		Error   string                `json:"error"`
		Session model.SessionSnapshot `json:"session"`
	}](t, res.body)
	assert.Equal(t, mixer.ErrSuperseded.Error(), out.Error)
	assert.Equal(t, model.StateIdle, out.Session.State)
	assert.Equal(t, []string{"", "", ""}, out.Session.Seeds)
	assert.Empty(t, out.Session.Results)
}

func TestSessionEventsStream(t *testing.T) {
	f := newFixture(t)

	status, _ := f.do(t, http.MethodGet, "/api/v1/mixer/sessions/unknown/events", nil)
	assert.Equal(t, http.StatusNotFound, status)

	snap, err := f.sessions.Create(1)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/v1/mixer/sessions/" + snap.ID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var initial model.SessionSnapshot
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, snap.ID, initial.ID)
	assert.Equal(t, model.StateIdle, initial.State)

	_, err = f.sessions.SetSeed(snap.ID, 0, "Alien")
	require.NoError(t, err)
	var updated model.SessionSnapshot
	require.NoError(t, conn.ReadJSON(&updated))
	assert.Equal(t, []string{"Alien"}, updated.Seeds)

	_, err = f.sessions.Recommend(context.Background(), snap.ID)
	require.NoError(t, err)
	var last model.SessionSnapshot
	for last.State != model.StateDone {
		require.NoError(t, conn.ReadJSON(&last))
	}
	assert.Len(t, last.Results, 5)

	require.NoError(t, f.sessions.Delete(snap.ID))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
