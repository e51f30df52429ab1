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

package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/movie-mixer/internal/catalog"
)

// MovieRouter sets up the browse routes:
//   - GET /movies?query=<q>: search, or popular movies when q is blank.
//   - GET /movies/trending?window=day|week
//   - GET /movies/:id: details with poster and trailer.
//   - GET /movies/:id/videos
func (h *Handlers) MovieRouter(r *gin.RouterGroup) {
	movies := r.Group("/movies")
	{
		movies.GET("", func(c *gin.Context) {
			out, err := h.Movies.Search(c.Request.Context(), c.Query("query"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		movies.GET("/trending", func(c *gin.Context) {
			out, err := h.Movies.Trending(c.Request.Context(), c.DefaultQuery("window", catalog.WindowWeek))
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		movies.GET("/:id", func(c *gin.Context) {
			id, ok := movieID(c)
			if !ok {
				return
			}
			out, err := h.Movies.Details(c.Request.Context(), id)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		movies.GET("/:id/videos", func(c *gin.Context) {
			id, ok := movieID(c)
			if !ok {
				return
			}
			out, err := h.Movies.Videos(c.Request.Context(), id)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

func movieID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "movie id must be a positive integer")
		return 0, false
	}
	return id, true
}
