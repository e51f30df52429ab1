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

package model

import (
	"errors"
	"fmt"
)

// User-facing messages. The HTTP layer never exposes raw upstream errors.
const (
	MsgFillAllFields          = "please fill in all movie fields"
	MsgRecommendationsFailed  = "failed to get recommendations"
	MsgCatalogFailed          = "failed to fetch movies"
	MsgAnalyticsFailed        = "failed to fetch search statistics"
	MsgServiceMisconfigured   = "API key not found"
	MsgUnexpected             = "something went wrong"
	ServiceCatalog            = "catalog"
	ServiceGenerative         = "generative"
	ServiceAnalytics          = "analytics"
	ServiceRecommendation     = "recommendation"
	defaultUpstreamStatusText = "transport error"
)

// ConfigError is returned when a required setting, such as an API credential,
// is missing or invalid.
type ConfigError struct {
	Setting string
	Err     error
}

// NewConfigError names the offending setting. err may be nil.
func NewConfigError(setting string, err error) *ConfigError {
	return &ConfigError{Setting: setting, Err: err}
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("configuration error: %s", e.Setting)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ValidationError is returned when caller input is rejected before any
// network call is made.
type ValidationError struct {
	Message string
	Err     error
}

// NewValidationError wraps err with the message shown to the user.
func NewValidationError(message string, err error) *ValidationError {
	return &ValidationError{Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UpstreamError is returned when a third-party API call fails at the
// transport level or with a non-2xx status. StatusCode is zero for transport
// failures.
type UpstreamError struct {
	Service    string
	StatusCode int
	Err        error
}

// NewUpstreamError records a failed call to service. Pass a zero statusCode
// for transport failures.
func NewUpstreamError(service string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{Service: service, StatusCode: statusCode, Err: err}
}

func (e *UpstreamError) Error() string {
	status := defaultUpstreamStatusText
	if e.StatusCode != 0 {
		status = fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s request failed (%s): %v", e.Service, status, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// UserMessage maps an error to the string shown to end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return MsgServiceMisconfigured
	}
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		switch upstreamErr.Service {
		case ServiceCatalog:
			return MsgCatalogFailed
		case ServiceAnalytics:
			return MsgAnalyticsFailed
		}
		return MsgRecommendationsFailed
	}
	return MsgUnexpected
}
