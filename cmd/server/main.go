// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the movie mixer backend server.
//
// The server exposes a REST API, built on Gin, for browsing the movie catalog,
// generating recommendations from a handful of seed titles, and driving mixer
// sessions whose progress can be followed over a websocket. It is instrumented
// with OpenTelemetry and, when a Google project is configured, exports traces
// and metrics to Google Cloud.
//
// Startup fails fast when a required credential is missing. On SIGINT or
// SIGTERM the server drains in-flight requests, waits for pending search
// counter updates and closes every client.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaycherian/movie-mixer/internal/api"
	"github.com/jaycherian/movie-mixer/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Println("Server exiting")
}

func run() error {
	config, err := GetConfig()
	if err != nil {
		return err
	}

	closeLog, err := telemetry.SetupLogging(config.Application.LogLevel, config.Application.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.Info("Logging initialized", "level", config.Application.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()
	slog.Info("Tracing initialized")

	state, err := InitState(ctx, config)
	if err != nil {
		return err
	}
	defer state.Close()
	state.Start(ctx)
	slog.Info("Initialized State", "analytics", config.Analytics.Backend)

	srv := &http.Server{
		Addr:        ":" + config.Application.Port,
		Handler:     api.NewRouter(config.Application.Name, state.Handlers()),
		ReadTimeout: 20 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	slog.Info("Server Ready", "port", config.Application.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return err
	}
	slog.Info("Shutdown Server ...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	return nil
}
