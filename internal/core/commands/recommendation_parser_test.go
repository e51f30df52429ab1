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

package commands_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jaycherian/movie-mixer/internal/core/commands"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	test "github.com/jaycherian/movie-mixer/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendations(t *testing.T) {
	text := strings.Join(model.ExampleRecommendationLines, "\n")

	entries := commands.ParseRecommendations(text)
	require.Len(t, entries, 2)
	assert.Equal(t, model.RecommendationEntry{
		Title:         "Amélie",
		OriginalTitle: "Le Fabuleux Destin d'Amélie Poulain",
		Reason:        "A whimsical tale of love and fate in Paris.",
	}, entries[0])
	assert.Equal(t, "Parasite", entries[1].Title)
	assert.Equal(t, "기생충", entries[1].OriginalTitle)
	assert.NotEmpty(t, entries[1].Reason)
}

func TestParseMixedLanguageLines(t *testing.T) {
	text := "Amélie (Amélie) - Shares whimsical romance tone\nParasite (기생충) - Genre-blending thriller"

	entries := commands.ParseRecommendations(text)
	assert.Equal(t, []model.RecommendationEntry{
		{Title: "Amélie", OriginalTitle: "Amélie", Reason: "Shares whimsical romance tone"},
		{Title: "Parasite", OriginalTitle: "기생충", Reason: "Genre-blending thriller"},
	}, entries)
}

func TestParseLineWithoutDash(t *testing.T) {
	entries := commands.ParseRecommendations("Oldboy (올드보이)")
	require.Len(t, entries, 1)
	assert.Equal(t, "Oldboy", entries[0].Title)
	assert.Equal(t, "올드보이", entries[0].OriginalTitle)
	assert.Equal(t, model.NoReasonProvided, entries[0].Reason)
}

func TestParseLineEdgeCases(t *testing.T) {
	tests := []struct {
		line string
		want model.RecommendationEntry
	}{
		{
			line: "Heat - A crime epic",
			want: model.RecommendationEntry{Title: "Heat", OriginalTitle: "Heat", Reason: "A crime epic"},
		},
		{
			line: "Amores Perros (Amores perros) (2000) - Three lives collide",
			want: model.RecommendationEntry{Title: "Amores Perros", OriginalTitle: "Amores perros", Reason: "Three lives collide"},
		},
		{
			line: "Spider-Man - Across the Spider-Verse - Multiverse animation",
			want: model.RecommendationEntry{Title: "Spider-Man", OriginalTitle: "Spider-Man", Reason: "Across the Spider-Verse - Multiverse animation"},
		},
		{
			line: "(Untitled) - Reason only",
			want: model.RecommendationEntry{Title: "(Untitled)", OriginalTitle: "(Untitled)", Reason: "Reason only"},
		},
		{
			line: "Oldboy (올드보이 - Unclosed parenthesis",
			want: model.RecommendationEntry{Title: "Oldboy", OriginalTitle: "올드보이", Reason: "Unclosed parenthesis"},
		},
		{
			line: "Heat () - Empty parentheses",
			want: model.RecommendationEntry{Title: "Heat", OriginalTitle: "Heat", Reason: "Empty parentheses"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			entries := commands.ParseRecommendations(tt.line)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0])
		})
	}
}

func TestParseCapsAtFiveAndSkipsBlankLines(t *testing.T) {
	lines := make([]string, 0, 8)
	for i := 1; i <= 8; i++ {
		lines = append(lines, fmt.Sprintf("Movie %d - Reason %d", i, i), "   ")
	}

	entries := commands.ParseRecommendations(strings.Join(lines, "\n"))
	require.Len(t, entries, model.MaxRecommendations)
	for i, e := range entries {
		assert.Equal(t, fmt.Sprintf("Movie %d", i+1), e.Title)
	}

	assert.Empty(t, commands.ParseRecommendations(""))
	assert.Empty(t, commands.ParseRecommendations("\n \n\t\n"))
}

func TestParseTitleOnlyLines(t *testing.T) {
	tests := []struct {
		line string
		want model.RecommendationEntry
	}{
		{
			line: "Heat",
			want: model.RecommendationEntry{Title: "Heat", OriginalTitle: "Heat", Reason: model.NoReasonProvided},
		},
		{
			line: "  The Host(괴물) - No space before the parenthesis  ",
			want: model.RecommendationEntry{Title: "The Host(괴물)", OriginalTitle: "The Host(괴물)", Reason: "No space before the parenthesis"},
		},
		{
			line: "Mad Max: Fury Road -",
			want: model.RecommendationEntry{Title: "Mad Max: Fury Road -", OriginalTitle: "Mad Max: Fury Road -", Reason: model.NoReasonProvided},
		},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			entries := commands.ParseRecommendations(tt.line)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.want, entries[0])
		})
	}
}

func TestParseIsIdempotent(t *testing.T) {
	text := test.GetTestRecommendationText() + "\nOldboy\n(Untitled) - Reason only"

	first := commands.ParseRecommendations(text)
	second := commands.ParseRecommendations(text)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestRecommendationParserCommand(t *testing.T) {
	parser := commands.NewRecommendationParser("parse")

	ctx := cor.NewBaseContextWith(context.Background())
	ctx.Add(cor.CtxIn, test.GetTestRecommendationText())
	parser.Execute(ctx)

	require.NoError(t, ctx.Err())
	entries, ok := ctx.Get(cor.CtxOut).([]model.RecommendationEntry)
	require.True(t, ok)
	assert.Len(t, entries, 5)

	bad := cor.NewBaseContextWith(context.Background())
	bad.Add(cor.CtxIn, 42)
	parser.Execute(bad)
	assert.Error(t, bad.Err())
}
