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

package cor

import (
	"context"
	"errors"
)

// BaseContext is the default map-backed Context. It is not safe for
// concurrent use; a context belongs to exactly one pipeline run.
type BaseContext struct {
	data       map[string]interface{} // Stage data, keyed by parameter name.
	errors     map[string]error       // Errors keyed by the command that produced them.
	errorOrder []string               // Insertion order of errors, used by Err.
	context    context.Context        // Cancellation and trace propagation.
}

// NewBaseContext returns an empty context. Callers must set the Go context
// with SetContext before running a chain.
func NewBaseContext() Context {
	return &BaseContext{
		data:   make(map[string]interface{}),
		errors: make(map[string]error),
	}
}

// NewBaseContextWith returns a context already bound to ctx.
func NewBaseContextWith(ctx context.Context) Context {
	c := NewBaseContext()
	c.SetContext(ctx)
	return c
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) AddError(key string, err error) {
	if err == nil {
		return
	}
	if _, exists := c.errors[key]; !exists {
		c.errorOrder = append(c.errorOrder, key)
	}
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

func (c *BaseContext) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	if len(c.errorOrder) == 1 {
		return c.errors[c.errorOrder[0]]
	}
	errs := make([]error, 0, len(c.errorOrder))
	for _, key := range c.errorOrder {
		errs = append(errs, c.errors[key])
	}
	return errors.Join(errs...)
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
