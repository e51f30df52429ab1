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

package workflow

import (
	"github.com/jaycherian/movie-mixer/internal/core/commands"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
)

// SearchAnalyticsWorkflow decodes a search event and increments its counter.
// It runs inline for local backends and behind a PubSubListener when events
// are published to a topic.
type SearchAnalyticsWorkflow struct {
	cor.BaseCommand
	store commands.SearchCountStore
	chain cor.Chain
}

func (m *SearchAnalyticsWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

func (m *SearchAnalyticsWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())
	out.AddCommand(commands.NewSearchEventReader("search-event-reader"))
	out.AddCommand(commands.NewSearchCountRecorder("search-count-recorder", m.store))
	m.chain = out
}

func NewSearchAnalyticsWorkflow(store commands.SearchCountStore) *SearchAnalyticsWorkflow {
	out := &SearchAnalyticsWorkflow{
		BaseCommand: *cor.NewBaseCommand("search-analytics-workflow"),
		store:       store,
	}
	out.initializeChain()
	return out
}
