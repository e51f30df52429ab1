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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file converts the
// model's free-text answer into structured recommendation entries.
//
// Each non-blank line is expected to look like
//
//	Title (Original Language Title) - Reason
//
// A line without " (" is kept through fallbackEntry: the whole title segment
// becomes both titles. A line without " - " gets model.NoReasonProvided.
package commands

import (
	"fmt"
	"strings"

	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

const (
	reasonSeparator        = " - "
	originalTitleSeparator = " ("
)

// RecommendationParser is the pipeline stage wrapping ParseRecommendations.
type RecommendationParser struct {
	cor.BaseCommand
}

// NewRecommendationParser creates the parse stage.
func NewRecommendationParser(name string) *RecommendationParser {
	return &RecommendationParser{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the generated text.
//
// Inputs:
//   - context: CtxIn holds the raw text of the model's answer.
//
// Outputs:
//   - CtxOut holds the parsed []model.RecommendationEntry. An answer with no
//     usable lines yields an empty list, not an error.
func (p *RecommendationParser) Execute(context cor.Context) {
	text, ok := context.Get(p.GetInputParam()).(string)
	if !ok {
		p.Fail(context, fmt.Errorf("unexpected input type %T", context.Get(p.GetInputParam())))
		return
	}
	p.Succeed(context, ParseRecommendations(text))
}

// ParseRecommendations splits text into at most model.MaxRecommendations
// entries, in order. It never fails and is deterministic.
func ParseRecommendations(text string) []model.RecommendationEntry {
	entries := make([]model.RecommendationEntry, 0, model.MaxRecommendations)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		entries = append(entries, parseLine(line))
		if len(entries) == model.MaxRecommendations {
			break
		}
	}
	return entries
}

func parseLine(line string) model.RecommendationEntry {
	titleSegment, reason, hasReason := strings.Cut(line, reasonSeparator)
	reason = strings.TrimSpace(reason)
	if !hasReason || len(reason) == 0 {
		reason = model.NoReasonProvided
	}
	titleSegment = strings.TrimSpace(titleSegment)

	title, rest, hasOriginal := strings.Cut(titleSegment, originalTitleSeparator)
	if !hasOriginal {
		return fallbackEntry(titleSegment, reason)
	}
	title = strings.TrimSpace(title)

	// Anything after a second " (" is dropped. A missing ")" is tolerated.
	inner, _, _ := strings.Cut(rest, originalTitleSeparator)
	originalTitle := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(inner), ")"))
	if len(originalTitle) == 0 {
		originalTitle = title
	}

	return model.RecommendationEntry{Title: title, OriginalTitle: originalTitle, Reason: reason}
}

// fallbackEntry keeps a line that carries no parenthesized original title by
// using the whole title segment as both titles.
func fallbackEntry(titleSegment string, reason string) model.RecommendationEntry {
	return model.RecommendationEntry{Title: titleSegment, OriginalTitle: titleSegment, Reason: reason}
}
