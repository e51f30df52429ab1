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

// Package cor (Chain of Responsibility) provides the building blocks for the
// recommendation and analytics pipelines. A pipeline is a `Chain` of
// `Command`s sharing a single `Context`. The context carries the stage data,
// the errors each stage recorded, and the Go `context.Context` whose
// cancellation stops the chain between stages.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe data between commands in a
// BaseChain.
const (
	// CtxIn holds the primary input of a command. The BaseChain fills it with
	// the previous command's output.
	CtxIn = "__IN__"
	// CtxOut is where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the shared state of one pipeline run.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all recorded errors keyed by command name.
	GetErrors() map[string]error

	// Err joins all recorded errors in the order they were added, or returns
	// nil when the run is clean.
	Err() error

	// Get returns the value stored under key.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a single pipeline stage.
type Command interface {
	Executable

	// GetName returns the command name used in spans, metrics and errors.
	GetName() string

	// GetInputParam returns the context key holding the command's input.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Observer is notified as a chain moves from one command to the next. The
// session layer uses it to publish state transitions.
type Observer interface {
	// OnCommandStart is called right before a command executes.
	OnCommandStart(name string)
	// OnCommandComplete is called after a command executes, with the error it
	// recorded, if any.
	OnCommandComplete(name string, err error)
}

// Chain is a Command that runs other commands in order.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps going after a command
	// records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain

	// AddObserver registers an observer for command transitions.
	AddObserver(observer Observer) Chain
}
