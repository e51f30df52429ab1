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
	"sync"
	"time"

	"github.com/jaycherian/movie-mixer/internal/core/model"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
)

const subscriberBuffer = 16

// Session is one user's mixer: the seed titles, the last result set, and the
// state of the current recommendation run. All fields are guarded by mu.
type Session struct {
	mu          sync.Mutex
	id          string
	seeds       []string
	results     []*model.HydratedRecommendation
	state       model.SessionState
	errMsg      string
	generation  uint64
	cancel      context.CancelFunc
	updatedAt   time.Time
	subscribers map[uint64]chan *model.SessionSnapshot
	nextSubID   uint64
	closed      bool
}

func newSession(id string, count int, now time.Time) *Session {
	return &Session{
		id:          id,
		seeds:       make([]string, count),
		state:       model.StateIdle,
		updatedAt:   now,
		subscribers: make(map[uint64]chan *model.SessionSnapshot),
	}
}

// snapshotLocked copies the session. Callers hold mu.
func (s *Session) snapshotLocked() *model.SessionSnapshot {
	seeds := make([]string, len(s.seeds))
	copy(seeds, s.seeds)
	results := make([]*model.HydratedRecommendation, len(s.results))
	copy(results, s.results)
	return &model.SessionSnapshot{
		ID:         s.id,
		State:      s.state,
		Generation: s.generation,
		Seeds:      seeds,
		Results:    results,
		Error:      s.errMsg,
		UpdatedAt:  s.updatedAt,
	}
}

// Snapshot returns a copy of the session.
func (s *Session) Snapshot() *model.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// publishLocked sends the current snapshot to every subscriber. Slow
// subscribers miss intermediate snapshots rather than blocking the session.
func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for id, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			slog.Debug("dropping session snapshot for slow subscriber", "session", s.id, "subscriber", id)
		}
	}
}

// touchLocked records a change and notifies subscribers.
func (s *Session) touchLocked(now time.Time) {
	s.updatedAt = now
	s.publishLocked()
}

// invalidateLocked bumps the generation and cancels any in-flight run so its
// results can never be committed.
func (s *Session) invalidateLocked() uint64 {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return s.generation
}

func (s *Session) subscribe() (<-chan *model.SessionSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan *model.SessionSnapshot, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- s.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// close cancels any run and ends every subscription.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.closed = true
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// runObserver maps pipeline stages to session states for one generation.
type runObserver struct {
	session    *Session
	generation uint64
	now        func() time.Time
}

var commandStates = map[string]model.SessionState{
	workflow.CommandValidateSeeds: model.StateValidating,
	workflow.CommandGenerate:      model.StateGenerating,
	workflow.CommandParse:         model.StateParsing,
	workflow.CommandHydrate:       model.StateHydrating,
}

func (o *runObserver) OnCommandStart(name string) {
	state, ok := commandStates[name]
	if !ok {
		return
	}
	s := o.session
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != o.generation {
		return
	}
	s.state = state
	s.touchLocked(o.now())
}

func (o *runObserver) OnCommandComplete(name string, err error) {
	if err != nil {
		slog.Debug("mixer stage failed", "session", o.session.id, "generation", o.generation, "stage", name, "error", err)
	}
}
