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
)

const (
	defaultStatsLimit = 5
	maxStatsLimit     = 100
)

// Stats sets up GET /stats/searches?limit=<n>, the most searched terms with
// their counts and top result.
func (h *Handlers) Stats(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("/searches", func(c *gin.Context) {
			limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultStatsLimit)))
			if err != nil || limit <= 0 {
				limit = defaultStatsLimit
			}
			limit = min(limit, maxStatsLimit)

			out, err := h.Analytics.TopSearches(c.Request.Context(), limit)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}
