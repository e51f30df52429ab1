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

// Package mixer holds the movie mixer sessions and drives their state
// machine:
//
//	idle -> validating -> generating -> parsing -> hydrating -> done
//
// with error reachable from validating, generating and hydrating. Changing
// the seed count resets a session to idle with blank seeds and no results.
//
// Every run is tagged with the session's generation number at the time it
// started and runs under its own cancellable context. Resetting, deleting or
// starting a newer run bumps the generation and cancels the older run; when
// the older run finishes its results are discarded and the caller gets
// ErrSuperseded.
package mixer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
)

var (
	// ErrSessionNotFound is returned for unknown or reaped session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSuperseded is returned by Recommend when the run was overtaken by a
	// reset, a deletion or a newer run before it could commit.
	ErrSuperseded = errors.New("recommendation run was superseded")
)

// Manager owns all sessions.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	recommender workflow.Recommender
	maxSeeds    int
	ttl         time.Duration
	now         func() time.Time
}

// NewManager creates a manager. maxSeeds bounds the seed count of a session
// and ttl is the idle time after which the reaper evicts a session.
func NewManager(recommender workflow.Recommender, maxSeeds int, ttl time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*Session),
		recommender: recommender,
		maxSeeds:    maxSeeds,
		ttl:         ttl,
		now:         time.Now,
	}
}

func (m *Manager) validateCount(count int) error {
	if count < 1 || (m.maxSeeds > 0 && count > m.maxSeeds) {
		return model.NewValidationError(fmt.Sprintf("seed count must be between 1 and %d", m.maxSeeds), nil)
	}
	return nil
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Create starts an idle session with count blank seeds.
func (m *Manager) Create(count int) (*model.SessionSnapshot, error) {
	if err := m.validateCount(count); err != nil {
		return nil, err
	}
	s := newSession(uuid.NewString(), count, m.now())

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return s.Snapshot(), nil
}

// Get returns a snapshot of a session.
func (m *Manager) Get(id string) (*model.SessionSnapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete removes a session, cancelling any in-flight run.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	return nil
}

// SetCount resizes the seed list. The session goes back to idle with blank
// seeds, no results and no error, and any in-flight run is cancelled.
func (m *Manager) SetCount(id string, count int) (*model.SessionSnapshot, error) {
	if err := m.validateCount(count); err != nil {
		return nil, err
	}
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	s.seeds = make([]string, count)
	s.results = nil
	s.errMsg = ""
	s.state = model.StateIdle
	s.touchLocked(m.now())
	return s.snapshotLocked(), nil
}

// SetSeed sets the seed at index. Results of a previous run are kept.
func (m *Manager) SetSeed(id string, index int, title string) (*model.SessionSnapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.seeds) {
		return nil, model.NewValidationError(fmt.Sprintf("seed index must be between 0 and %d", len(s.seeds)-1), nil)
	}
	s.seeds[index] = title
	s.touchLocked(m.now())
	return s.snapshotLocked(), nil
}

// Recommend runs the pipeline on the session's current seeds and blocks
// until it finishes. The run is owned by the session, not by ctx: it keeps
// ctx's values but is only cancelled by a reset, a deletion or a newer run.
func (m *Manager) Recommend(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	generation := s.invalidateLocked()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	seeds := make([]string, len(s.seeds))
	copy(seeds, s.seeds)
	s.results = nil
	s.errMsg = ""
	s.state = model.StateValidating
	s.touchLocked(m.now())
	s.mu.Unlock()

	observer := &runObserver{session: s, generation: generation, now: m.now}
	results, runErr := m.recommender.Recommend(runCtx, seeds, observer)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return s.snapshotLocked(), ErrSuperseded
	}
	s.cancel = nil
	if runErr != nil {
		s.results = nil
		s.errMsg = model.UserMessage(runErr)
		s.state = model.StateError
	} else {
		s.results = results
		s.state = model.StateDone
	}
	s.touchLocked(m.now())
	return s.snapshotLocked(), runErr
}

// Subscribe returns a channel that receives the current snapshot and then
// one snapshot per change. The channel is closed by the returned function or
// when the session is deleted.
func (m *Manager) Subscribe(id string) (<-chan *model.SessionSnapshot, func(), error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch, unsubscribe := s.subscribe()
	return ch, unsubscribe, nil
}
