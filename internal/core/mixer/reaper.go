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

package mixer

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Reap evicts sessions that have been idle longer than the TTL and have no
// run in flight. It returns the number of evicted sessions.
func (m *Manager) Reap(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	expired := make([]*Session, 0)
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := s.updatedAt.Before(cutoff) && !s.state.IsRunning()
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	return len(expired)
}

// StartReaper runs Reap on every tick of interval until ctx is cancelled.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 || interval <= 0 {
		return
	}
	tracer := otel.Tracer("session-reaper")
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_, span := tracer.Start(ctx, "reap-sessions")
				evicted := m.Reap(m.now())
				span.SetAttributes(attribute.Int("evicted", evicted))
				span.End()
				if evicted > 0 {
					slog.Info("reaped idle mixer sessions", "evicted", evicted, "remaining", m.Len())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
