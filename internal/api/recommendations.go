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

	"github.com/gin-gonic/gin"
)

// RecommendationRequest is the body of POST /recommendations.
type RecommendationRequest struct {
	Seeds []string `json:"seeds"`
}

// RecommendationRouter sets up POST /recommendations, which runs the whole
// pipeline for the posted seeds without a session.
func (h *Handlers) RecommendationRouter(r *gin.RouterGroup) {
	r.POST("/recommendations", func(c *gin.Context) {
		var req RecommendationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "request body must be {\"seeds\": [...]}")
			return
		}
		out, err := h.Recommender.Recommend(c.Request.Context(), req.Seeds, nil)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}
