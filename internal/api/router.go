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

// Package api contains the HTTP surface of the movie mixer. Routes are
// grouped under /api/v1:
//
//   - /health
//   - /movies: search, popular, trending, details and videos
//   - /recommendations: a one-shot recommendation run
//   - /mixer/sessions: mixer sessions and their websocket event stream
//   - /stats: the most searched terms
//
// Every error is returned as {"error": <message>}.
package api

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/movie-mixer/internal/core/mixer"
	"github.com/jaycherian/movie-mixer/internal/core/services"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
)

// Handlers holds the services the routes delegate to.
type Handlers struct {
	Movies      *services.MovieService
	Recommender workflow.Recommender
	Sessions    *mixer.Manager
	Analytics   *services.SearchAnalytics
}

// NewRouter builds the gin engine with tracing and CORS middleware and every
// route registered.
func NewRouter(serviceName string, h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
		h.MovieRouter(apiV1)
		h.RecommendationRouter(apiV1)
		h.MixerRouter(apiV1)
		h.Stats(apiV1)
	}
	return r
}
