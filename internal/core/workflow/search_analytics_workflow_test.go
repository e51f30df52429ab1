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

package workflow_test

import (
	"context"
	"testing"

	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
	test "github.com/jaycherian/movie-mixer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAnalyticsWorkflowCountsMessages(t *testing.T) {
	store := &test.MemoryStore{}
	wf := workflow.NewSearchAnalyticsWorkflow(store)

	for _, msg := range []string{
		`{"search_term":"Heat","movie_id":949}`,
		`{"search_term":"Heat ","movie_id":949}`,
		`{"search_term":"Alien","movie_id":348}`,
	} {
		ctx := cor.NewBaseContextWith(context.Background())
		ctx.Add(cor.CtxIn, msg)
		wf.Execute(ctx)
		require.NoError(t, ctx.Err())
	}

	top, err := store.Top(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Heat", top[0].SearchTerm)
	assert.EqualValues(t, 2, top[0].Count)
	assert.EqualValues(t, 949, top[0].MovieID)
}

func TestSearchAnalyticsWorkflowStopsOnBadMessage(t *testing.T) {
	store := &test.MemoryStore{}
	wf := workflow.NewSearchAnalyticsWorkflow(store)

	ctx := cor.NewBaseContextWith(context.Background())
	ctx.Add(cor.CtxIn, `{"search_term":""}`)
	wf.Execute(ctx)

	assert.Error(t, ctx.Err())
	top, _ := store.Top(context.Background(), 10)
	assert.Empty(t, top)
}
