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

// Package cor (Chain of Responsibility) provides the building blocks for
// pipelines. This file defines `BaseChain`, the default `Chain`.
//
// Logic Flow:
//
//  1. A span is opened for the whole chain.
//  2. Before each command the chain stops if the Go context has been
//     cancelled (the cancellation is recorded as the chain's error) or if a
//     previous command failed and `continueOnFailure` is false.
//  3. Observers are told the command is starting, the command runs under its
//     own child span, and observers are told how it finished.
//  4. The value the command left in `CtxOut` is moved to `CtxIn` for the next
//     command.
package cor

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// BaseChain runs a list of commands in order against one shared Context.
type BaseChain struct {
	BaseCommand
	continueOnFailure bool       // Keep executing after a command records an error.
	commands          []Command  // Ordered commands.
	observers         []Observer // Notified around each command.
}

// NewBaseChain creates an empty chain with the given name.
func NewBaseChain(name string) *BaseChain {
	return &BaseChain{BaseCommand: *NewBaseCommand(name)}
}

func (c *BaseChain) ContinueOnFailure(continueOnFailure bool) Chain {
	c.continueOnFailure = continueOnFailure
	return c
}

func (c *BaseChain) AddCommand(command Command) Chain {
	c.commands = append(c.commands, command)
	return c
}

func (c *BaseChain) AddObserver(observer Observer) Chain {
	if observer != nil {
		c.observers = append(c.observers, observer)
	}
	return c
}

// IsExecutable only requires a bound Go context; the chain's first command
// checks its own input.
func (c *BaseChain) IsExecutable(context Context) bool {
	return context != nil && context.GetContext() != nil
}

func (c *BaseChain) Execute(chCtx Context) {
	parentCtx := chCtx.GetContext()

	outerCtx, chainSpan := c.Tracer.Start(parentCtx, fmt.Sprintf("%s_execute", c.GetName()))
	defer chainSpan.End()

	for _, command := range c.commands {
		if err := outerCtx.Err(); err != nil {
			chCtx.AddError(c.GetName(), fmt.Errorf("%s cancelled before %s: %w", c.GetName(), command.GetName(), err))
			break
		}
		if chCtx.HasErrors() && !c.continueOnFailure {
			break
		}

		commandContext, commandSpan := c.Tracer.Start(outerCtx, command.GetName())

		if command.IsExecutable(chCtx) {
			c.notifyStart(command.GetName())

			chCtx.SetContext(commandContext)
			command.Execute(chCtx)
			// Reset so the next command's span is a sibling, not a grandchild.
			chCtx.SetContext(outerCtx)

			c.notifyComplete(command.GetName(), chCtx.GetErrors()[command.GetName()])
		} else {
			commandSpan.SetStatus(codes.Error, fmt.Sprintf("command not executable: %s", command.GetName()))
		}

		if err, failed := chCtx.GetErrors()[command.GetName()]; failed {
			commandSpan.RecordError(err)
			commandSpan.SetStatus(codes.Error, "error during command execution")
		} else if chCtx.HasErrors() {
			commandSpan.SetStatus(codes.Error, "error recorded on chain")
		} else {
			commandSpan.SetStatus(codes.Ok, "command completed successfully")
		}
		commandSpan.End()

		outputValue := chCtx.Get(CtxOut)
		chCtx.Remove(CtxIn)
		if outputValue != nil {
			chCtx.Add(CtxIn, outputValue)
		}
		chCtx.Remove(CtxOut)
	}

	// Restore the caller's context so the chain can be nested.
	chCtx.SetContext(parentCtx)

	if !chCtx.HasErrors() {
		chainSpan.SetStatus(codes.Ok, "chain completed successfully")
	} else {
		chainSpan.SetStatus(codes.Error, "chain failed to execute")
	}
}

func (c *BaseChain) notifyStart(name string) {
	for _, o := range c.observers {
		o.OnCommandStart(name)
	}
}

func (c *BaseChain) notifyComplete(name string, err error) {
	for _, o := range c.observers {
		o.OnCommandComplete(name, err)
	}
}
