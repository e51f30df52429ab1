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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/movie-mixer/internal/core/mixer"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	var validationErr *model.ValidationError
	var configErr *model.ConfigError
	var upstreamErr *model.UpstreamError
	switch {
	case errors.Is(err, mixer.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, mixer.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &configErr):
		return http.StatusInternalServerError
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func messageOf(err error) string {
	if errors.Is(err, mixer.ErrSessionNotFound) || errors.Is(err, mixer.ErrSuperseded) {
		return err.Error()
	}
	return model.UserMessage(err)
}

// abortWithError writes the error body and logs anything that is not the
// caller's fault.
func abortWithError(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": messageOf(err)})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}
