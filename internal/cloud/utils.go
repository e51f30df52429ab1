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

// Package cloud provides components for interacting with external services.
// This file contains the hierarchical configuration loader, the environment
// overrides applied on top of it, and the helper that turns a generative
// model response into plain text.
//
// Functions:
//   - LoadConfig: Reads `.env.toml` and then `.env.<runtime>.toml` from the
//     directory named by MIXER_CONFIG_PREFIX. Values in the second file win.
//   - ApplyEnvironment: Overrides credentials and the port from the process
//     environment.
//   - GenerateTextResponse: Calls the model once, records token usage, and
//     concatenates the text parts of the first candidate.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jaycherian/movie-mixer/internal/core/model"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const (
	ConfigFileBaseName  = ".env"                // The base name for configuration files.
	ConfigFileExtension = ".toml"               // The file extension for configuration files.
	ConfigSeparator     = "."                   // Separator between base name and runtime.
	EnvConfigFilePrefix = "MIXER_CONFIG_PREFIX" // Directory holding the config files.
	EnvConfigRuntime    = "MIXER_RUNTIME"       // Runtime name, e.g. "local", "test", "prod".
	EnvCatalogKey       = "TMDB_API_KEY"        // Overrides catalog.credential.
	EnvGenerativeKey    = "GEMINI_API_KEY"      // Overrides generative.credential.
	EnvPort             = "PORT"                // Overrides application.port.
	DefaultRuntime      = "test"
)

func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// ConfigFileNames returns the base and runtime-specific config file paths.
func ConfigFileNames() (base string, runtime string) {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = DefaultRuntime
	}
	base = prefix + ConfigFileBaseName + ConfigFileExtension
	runtime = prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension
	return base, runtime
}

// LoadConfig decodes the base config file and then the runtime override file
// into baseConfig. Missing files are skipped; malformed files are an error.
func LoadConfig(baseConfig interface{}) error {
	baseConfigFileName, envConfigFileName := ConfigFileNames()
	slog.Debug("loading configuration", "base", describeConfigFile(baseConfigFileName), "runtime", describeConfigFile(envConfigFileName))

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			return model.NewConfigError(baseConfigFileName, err)
		}
	}
	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			return model.NewConfigError(envConfigFileName, err)
		}
	}
	return nil
}

// ApplyEnvironment overrides secrets and the port from the environment, so
// credentials never need to live in a config file.
func ApplyEnvironment(config *Config) {
	if v := os.Getenv(EnvCatalogKey); len(v) > 0 {
		config.Catalog.Credential = v
	}
	if v := os.Getenv(EnvGenerativeKey); len(v) > 0 {
		config.Generative.Credential = v
	}
	if v := os.Getenv(EnvPort); len(v) > 0 {
		config.Application.Port = v
	}
}

// LoadAndValidate is the startup sequence: defaults, files, environment,
// then validation.
func LoadAndValidate() (*Config, error) {
	config := NewConfig()
	if err := LoadConfig(config); err != nil {
		return nil, err
	}
	ApplyEnvironment(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// GenerateTextResponse makes a single request to the model and returns the
// concatenated text of the first candidate. It does not retry.
func GenerateTextResponse(
	ctx context.Context,
	inputTokenCounter metric.Int64Counter,
	outputTokenCounter metric.Int64Counter,
	agent *QuotaAwareGenerativeAIModel,
	content []*genai.Content) (string, error) {

	resp, err := agent.GenerateContent(ctx, content)
	if err != nil {
		return "", err
	}
	if resp != nil && resp.UsageMetadata != nil {
		if inputTokenCounter != nil {
			inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		}
		if outputTokenCounter != nil {
			outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
		}
	}
	return FirstCandidateText(resp)
}

// FirstCandidateText concatenates the answer parts of the first candidate,
// skipping thought parts. A response without candidates yields "".
func FirstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", nil
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// NewTextPart wraps a prompt as user content.
func NewTextPart(in string) []*genai.Content {
	return genai.Text(in)
}

func describeConfigFile(name string) string {
	if fileExists(name) {
		return fmt.Sprintf("%s (found)", name)
	}
	return fmt.Sprintf("%s (missing)", name)
}
