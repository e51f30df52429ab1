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
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jaycherian/movie-mixer/internal/core/mixer"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// CountRequest is the body of session create and resize.
type CountRequest struct {
	Count int `json:"count"`
}

// SeedRequest is the body of PUT /mixer/sessions/:id/seeds/:index.
type SeedRequest struct {
	Title string `json:"title"`
}

// MixerRouter sets up the session routes under /mixer/sessions.
func (h *Handlers) MixerRouter(r *gin.RouterGroup) {
	sessions := r.Group("/mixer/sessions")
	{
		sessions.POST("", func(c *gin.Context) {
			var req CountRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "request body must be {\"count\": n}")
				return
			}
			out, err := h.Sessions.Create(req.Count)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusCreated, out)
		})

		sessions.GET("/:id", func(c *gin.Context) {
			out, err := h.Sessions.Get(c.Param("id"))
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		sessions.DELETE("/:id", func(c *gin.Context) {
			if err := h.Sessions.Delete(c.Param("id")); err != nil {
				abortWithError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		})

		sessions.PUT("/:id/count", func(c *gin.Context) {
			var req CountRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "request body must be {\"count\": n}")
				return
			}
			out, err := h.Sessions.SetCount(c.Param("id"), req.Count)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		sessions.PUT("/:id/seeds/:index", func(c *gin.Context) {
			index, err := strconv.Atoi(c.Param("index"))
			if err != nil {
				badRequest(c, "seed index must be an integer")
				return
			}
			var req SeedRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "request body must be {\"title\": \"...\"}")
				return
			}
			out, err := h.Sessions.SetSeed(c.Param("id"), index, req.Title)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		sessions.POST("/:id/recommendations", func(c *gin.Context) {
			out, err := h.Sessions.Recommend(c.Request.Context(), c.Param("id"))
			if errors.Is(err, mixer.ErrSuperseded) && out != nil {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": messageOf(err), "session": out})
				return
			}
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		sessions.GET("/:id/events", h.sessionEvents)
	}
}

// sessionEvents streams session snapshots over a websocket until the client
// goes away or the session is deleted.
func (h *Handlers) sessionEvents(c *gin.Context) {
	id := c.Param("id")
	updates, unsubscribe, err := h.Sessions.Subscribe(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer unsubscribe()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "session", id, "error", err)
		return
	}
	defer conn.Close()

	// The client never sends data; reading only tracks pongs and the close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case snapshot, ok := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if err := conn.WriteJSON(snapshot); err != nil {
				slog.Debug("websocket write failed", "session", id, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
