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
	"errors"
	"testing"

	"github.com/jaycherian/movie-mixer/internal/core/commands"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSeeds(t *testing.T) {
	tests := []struct {
		name    string
		seeds   []string
		wantMsg string
	}{
		{"empty", nil, model.MsgFillAllFields},
		{"blank", []string{"Amélie", "  "}, model.MsgFillAllFields},
		{"too many", []string{"a", "b", "c", "d"}, "at most 3 movies can be mixed"},
		{"valid", []string{"Amélie", "Parasite"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := commands.ValidateSeeds(tt.seeds, 3)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *model.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.wantMsg, validationErr.Message)
		})
	}
}

func TestSeedValidatorTrimsSeeds(t *testing.T) {
	v := commands.NewSeedValidator("validate", 5)

	ctx := cor.NewBaseContextWith(context.Background())
	ctx.Add(cor.CtxIn, []string{" Amélie ", "Parasite\t"})
	v.Execute(ctx)

	require.NoError(t, ctx.Err())
	assert.Equal(t, []string{"Amélie", "Parasite"}, ctx.Get(cor.CtxOut))
}

func TestSeedValidatorRunsWithoutInput(t *testing.T) {
	v := commands.NewSeedValidator("validate", 5)
	ctx := cor.NewBaseContextWith(context.Background())

	require.True(t, v.IsExecutable(ctx))
	v.Execute(ctx)

	var validationErr *model.ValidationError
	assert.True(t, errors.As(ctx.Err(), &validationErr))
}

func TestSeedValidatorPreflightRunsFirst(t *testing.T) {
	missing := model.NewConfigError("generative.credential", errors.New("API key not found"))
	v := commands.NewSeedValidator("validate", 5).WithPreflight(func() error { return missing })

	ctx := cor.NewBaseContextWith(context.Background())
	ctx.Add(cor.CtxIn, []string{" "})
	v.Execute(ctx)

	assert.ErrorIs(t, ctx.Err(), missing)
	var validationErr *model.ValidationError
	assert.False(t, errors.As(ctx.Err(), &validationErr))
	assert.Nil(t, ctx.Get(cor.CtxOut))
}
