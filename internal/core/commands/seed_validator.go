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
// Responsibility (COR) pattern's Command interface.
package commands

import (
	"fmt"
	"strings"

	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
)

// SeedValidator is the first stage of the recommendation pipeline. It runs
// its preflight checks, then rejects an empty seed list or any blank seed with
// a *model.ValidationError, so no network call is ever made for invalid input.
// Valid seeds are trimmed and passed on.
type SeedValidator struct {
	cor.BaseCommand
	maxSeeds   int // 0 means unbounded.
	preflights []func() error
}

// NewSeedValidator creates the validation stage. maxSeeds of zero accepts any
// number of seeds.
func NewSeedValidator(name string, maxSeeds int) *SeedValidator {
	return &SeedValidator{BaseCommand: *cor.NewBaseCommand(name), maxSeeds: maxSeeds}
}

// WithPreflight adds a check that runs before the seeds are looked at.
func (v *SeedValidator) WithPreflight(check func() error) *SeedValidator {
	v.preflights = append(v.preflights, check)
	return v
}

// IsExecutable only needs a bound Go context. A missing seed list is a
// validation failure, not a skipped stage.
func (v *SeedValidator) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute validates the seed titles.
//
// Inputs:
//   - context: CtxIn holds the []string of seed titles.
//
// Outputs:
//   - CtxOut holds the trimmed seeds. A failed preflight or invalid seed is
//     recorded on the context and nothing is written.
func (v *SeedValidator) Execute(context cor.Context) {
	for _, check := range v.preflights {
		if err := check(); err != nil {
			v.Fail(context, err)
			return
		}
	}
	seeds, _ := context.Get(v.GetInputParam()).([]string)
	if err := ValidateSeeds(seeds, v.maxSeeds); err != nil {
		v.Fail(context, err)
		return
	}
	trimmed := make([]string, len(seeds))
	for i, s := range seeds {
		trimmed[i] = strings.TrimSpace(s)
	}
	v.Succeed(context, trimmed)
}

// ValidateSeeds checks the seed list without touching the network.
func ValidateSeeds(seeds []string, maxSeeds int) error {
	if len(seeds) == 0 {
		return model.NewValidationError(model.MsgFillAllFields, fmt.Errorf("no seed titles given"))
	}
	if maxSeeds > 0 && len(seeds) > maxSeeds {
		return model.NewValidationError(fmt.Sprintf("at most %d movies can be mixed", maxSeeds), nil)
	}
	for i, s := range seeds {
		if len(strings.TrimSpace(s)) == 0 {
			return model.NewValidationError(model.MsgFillAllFields, fmt.Errorf("seed %d is blank", i+1))
		}
	}
	return nil
}
