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

package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// SearchEventReader is the first stage of the analytics workflow. It accepts
// either a JSON message body (from Pub/Sub) or an already built
// *model.SearchEvent (inline recording) and emits a normalized event.
type SearchEventReader struct {
	cor.BaseCommand
}

func NewSearchEventReader(name string) *SearchEventReader {
	return &SearchEventReader{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *SearchEventReader) Execute(context cor.Context) {
	var event *model.SearchEvent

	switch in := context.Get(c.GetInputParam()).(type) {
	case *model.SearchEvent:
		event = in
	case string:
		event = &model.SearchEvent{}
		if err := json.Unmarshal([]byte(in), event); err != nil {
			c.Fail(context, fmt.Errorf("failed to unmarshal search event: %w", err))
			return
		}
	default:
		c.Fail(context, fmt.Errorf("unexpected input type %T", in))
		return
	}

	event.SearchTerm = model.NormalizeSearchTerm(event.SearchTerm)
	if len(event.SearchTerm) == 0 {
		c.Fail(context, model.NewValidationError("search term is empty", errors.New("nothing to count")))
		return
	}

	c.Succeed(context, event)
}
