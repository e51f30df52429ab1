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

package model

import "time"

// SessionState is the position of a mixer session in its recommendation run.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateValidating SessionState = "validating"
	StateGenerating SessionState = "generating"
	StateParsing    SessionState = "parsing"
	StateHydrating  SessionState = "hydrating"
	StateDone       SessionState = "done"
	StateError      SessionState = "error"
)

// IsRunning reports whether a recommendation run is in flight.
func (s SessionState) IsRunning() bool {
	switch s {
	case StateValidating, StateGenerating, StateParsing, StateHydrating:
		return true
	}
	return false
}

// SessionSnapshot is a point-in-time copy of a mixer session. It is what the
// HTTP API returns and what the events stream pushes.
type SessionSnapshot struct {
	ID         string                    `json:"id"`
	State      SessionState              `json:"state"`
	Generation uint64                    `json:"generation"`
	Seeds      []string                  `json:"seeds"`
	Results    []*HydratedRecommendation `json:"results"`
	Error      string                    `json:"error,omitempty"`
	UpdatedAt  time.Time                 `json:"updatedAt"`
}
