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

// Package catalog is a thin client for a TMDB-compatible movie database.
//
// Every operation is exactly one GET with a bearer credential and
// `Accept: application/json`. Responses are decoded as-is. A transport
// failure or a non-2xx status becomes a *model.UpstreamError; nothing is
// cached and nothing is retried.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// DocumentaryGenreID is the catalog genre id for documentaries.
const DocumentaryGenreID = 99

// Sort orders understood by Discover.
const (
	SortPopularityDesc = "popularity.desc"
)

// Trending windows.
const (
	WindowDay  = "day"
	WindowWeek = "week"
)

const (
	pathSearch   = "/search/movie"
	pathDiscover = "/discover/movie"
	pathTrending = "/trending/movie/{window}"
	pathDetails  = "/movie/{id}"
	pathVideos   = "/movie/{id}/videos"
)

// Searcher is the part of the client the hydrator needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]*model.MovieRecord, error)
}

// Catalog is the full read surface of the movie database.
type Catalog interface {
	Searcher
	Discover(ctx context.Context, sortOrder string, excludedGenreIDs ...int) ([]*model.MovieRecord, error)
	Trending(ctx context.Context, window string) ([]*model.MovieRecord, error)
	Details(ctx context.Context, id int) (*model.MovieRecord, error)
	Videos(ctx context.Context, id int) ([]*model.Video, error)
}

// Client talks to the catalog over HTTP.
type Client struct {
	http         *resty.Client
	imageBaseURL string
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	Credential   string
	ImageBaseURL string
	Timeout      time.Duration
}

// resultPage is the envelope of the list endpoints.
type resultPage struct {
	Page    int                  `json:"page"`
	Results []*model.MovieRecord `json:"results"`
}

type videoPage struct {
	ID      int            `json:"id"`
	Results []*model.Video `json:"results"`
}

// NewClient returns a catalog client. A blank credential is a
// *model.ConfigError since every endpoint requires it.
func NewClient(opts Options) (*Client, error) {
	if len(strings.TrimSpace(opts.Credential)) == 0 {
		return nil, model.NewConfigError("catalog.credential", errors.New("credential is empty"))
	}
	if len(opts.BaseURL) == 0 {
		return nil, model.NewConfigError("catalog.base_url", errors.New("base url is empty"))
	}
	http := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetAuthToken(opts.Credential).
		SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		http.SetTimeout(opts.Timeout)
	}
	return &Client{http: http, imageBaseURL: opts.ImageBaseURL}, nil
}

// ImageBaseURL returns the image host used for poster links.
func (c *Client) ImageBaseURL() string {
	return c.imageBaseURL
}

// Search returns the catalog's matches for query in relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]*model.MovieRecord, error) {
	page := &resultPage{}
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetResult(page)
	if err := c.do(req, pathSearch); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Discover lists movies in the given sort order, skipping any movie tagged
// with one of excludedGenreIDs.
func (c *Client) Discover(ctx context.Context, sortOrder string, excludedGenreIDs ...int) ([]*model.MovieRecord, error) {
	page := &resultPage{}
	req := c.http.R().
		SetContext(ctx).
		SetResult(page)
	if len(sortOrder) > 0 {
		req.SetQueryParam("sort_by", sortOrder)
	}
	if len(excludedGenreIDs) > 0 {
		req.SetQueryParam("without_genres", joinIDs(excludedGenreIDs))
	}
	if err := c.do(req, pathDiscover); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Trending lists the movies trending over window, which must be "day" or
// "week".
func (c *Client) Trending(ctx context.Context, window string) ([]*model.MovieRecord, error) {
	if window != WindowDay && window != WindowWeek {
		return nil, model.NewValidationError(fmt.Sprintf("unsupported trending window %q", window), nil)
	}
	page := &resultPage{}
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("window", window).
		SetResult(page)
	if err := c.do(req, pathTrending); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Details returns the full record of a single movie.
func (c *Client) Details(ctx context.Context, id int) (*model.MovieRecord, error) {
	record := &model.MovieRecord{}
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		SetResult(record)
	if err := c.do(req, pathDetails); err != nil {
		return nil, err
	}
	return record, nil
}

// Videos returns the videos attached to a movie.
func (c *Client) Videos(ctx context.Context, id int) ([]*model.Video, error) {
	page := &videoPage{}
	req := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.Itoa(id)).
		SetResult(page)
	if err := c.do(req, pathVideos); err != nil {
		return nil, err
	}
	return page.Results, nil
}

func (c *Client) do(req *resty.Request, path string) error {
	resp, err := req.Get(path)
	if err != nil {
		return model.NewUpstreamError(model.ServiceCatalog, 0, fmt.Errorf("GET %s: %w", path, err))
	}
	if resp.IsError() {
		return model.NewUpstreamError(model.ServiceCatalog, resp.StatusCode(), fmt.Errorf("GET %s: %s", path, resp.Status()))
	}
	return nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
