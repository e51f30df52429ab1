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

// Package main contains the setup and initialization logic for the application's state.
// StateManager holds every shared dependency: the configuration, the external
// clients, the search counter store, and the services the HTTP layer calls.
//
// Functions:
//   - SetupOS: Points the configuration loader at the configs directory and
//     the runtime, unless the environment already does.
//   - GetConfig: Loads, overrides and validates the configuration.
//   - InitState: Creates all clients and services and starts the background
//     listeners and the session reaper.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jaycherian/movie-mixer/internal/api"
	"github.com/jaycherian/movie-mixer/internal/cloud"
	"github.com/jaycherian/movie-mixer/internal/core/commands"
	"github.com/jaycherian/movie-mixer/internal/core/mixer"
	"github.com/jaycherian/movie-mixer/internal/core/services"
	"github.com/jaycherian/movie-mixer/internal/core/workflow"
)

const reaperInterval = time.Minute

// StateManager holds all the shared dependencies for the application.
type StateManager struct {
	config         *cloud.Config
	cloud          *cloud.ServiceClients
	store          commands.SearchCountStore
	analytics      *services.SearchAnalytics
	analyticsFlow  *workflow.SearchAnalyticsWorkflow
	movieService   *services.MovieService
	recommendation *workflow.RecommendationWorkflow
	sessions       *mixer.Manager
}

// SetupOS loads a local .env file, if any, and defaults the configuration
// directory and runtime.
func SetupOS() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigFilePrefix); !ok {
		if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if _, ok := os.LookupEnv(cloud.EnvConfigRuntime); !ok {
		if err := os.Setenv(cloud.EnvConfigRuntime, "local"); err != nil {
			return err
		}
	}
	return nil
}

// GetConfig returns the validated configuration. Missing credentials fail
// here, before any network call.
func GetConfig() (*cloud.Config, error) {
	if err := SetupOS(); err != nil {
		return nil, err
	}
	return cloud.LoadAndValidate()
}

// NewSearchCountStore opens the counter backend chosen by analytics.backend.
// A nil store means analytics are disabled.
func NewSearchCountStore(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) (commands.SearchCountStore, error) {
	switch config.Analytics.Backend {
	case cloud.AnalyticsBackendSQLite:
		store, err := services.NewSQLiteSearchCountStore(ctx, config.Analytics.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case cloud.AnalyticsBackendBigQuery:
		return &services.BigQuerySearchCountStore{
			BigqueryClient: clients.BiqQueryClient,
			DatasetName:    config.Analytics.DatasetName,
			TableName:      config.Analytics.TableName,
		}, nil
	}
	return nil, nil
}

// InitState creates every client and service.
func InitState(ctx context.Context, config *cloud.Config) (*StateManager, error) {
	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return nil, err
	}
	state := &StateManager{config: config, cloud: cloudClients}

	state.store, err = NewSearchCountStore(ctx, config, cloudClients)
	if err != nil {
		state.Close()
		return nil, err
	}

	state.analytics = &services.SearchAnalytics{
		Store:        state.store,
		ImageBaseURL: config.Catalog.ImageBaseURL,
		Timeout:      config.Analytics.RecordTimeout(),
	}
	if state.store != nil {
		state.analyticsFlow = workflow.NewSearchAnalyticsWorkflow(state.store)
		state.analytics.Workflow = state.analyticsFlow
		if cloudClients.SearchEvents != nil {
			state.analytics.Publisher = cloudClients.SearchEvents
		}
	}

	state.movieService = &services.MovieService{
		Catalog:       cloudClients.Catalog,
		Analytics:     state.analytics,
		ImageBaseURL:  config.Catalog.ImageBaseURL,
		TrendingLimit: config.Mixer.TrendingLimit,
	}

	genaiModel, err := cloudClients.RecommendationModel(config)
	if err != nil {
		state.Close()
		return nil, err
	}
	state.recommendation, err = workflow.NewRecommendationWorkflow(config, cloudClients.Catalog, genaiModel)
	if err != nil {
		state.Close()
		return nil, err
	}

	state.sessions = mixer.NewManager(state.recommendation, config.Mixer.MaxSeeds, config.Mixer.SessionTTL())
	return state, nil
}

// Start launches the background work tied to ctx.
func (s *StateManager) Start(ctx context.Context) {
	s.sessions.StartReaper(ctx, reaperInterval)
	if s.analyticsFlow != nil {
		SetupListeners(s.config, s.cloud, s.analyticsFlow, ctx)
	}
}

// Handlers returns the HTTP handler dependencies.
func (s *StateManager) Handlers() *api.Handlers {
	return &api.Handlers{
		Movies:      s.movieService,
		Recommender: s.recommendation,
		Sessions:    s.sessions,
		Analytics:   s.analytics,
	}
}

// Close waits for pending counter updates and releases every client.
func (s *StateManager) Close() {
	s.analytics.Wait()
	if s.cloud != nil {
		s.cloud.Close()
	}
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("failed to close search count store", "error", err)
		}
	}
}
