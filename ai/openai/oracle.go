// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/thematic/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxGenerateAttempts bounds retries when the model returns malformed JSON.
const maxGenerateAttempts = 3

// Oracle implements ai.Oracle using OpenAI-compatible chat APIs.
type Oracle struct {
	client  llms.Model
	timeout time.Duration
	logger  *slog.Logger
}

// newOracle is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newOracle(config *ai.Config) (*Oracle, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.OracleHost),
		openai.WithToken("none"),
		openai.WithModel(config.OracleModel),
	)
	if err != nil {
		return nil, err
	}

	return &Oracle{
		client:  client,
		timeout: config.OracleTimeout,
		logger:  slog.Default().With("component", "openai-oracle"),
	}, nil
}

// NewOracle creates a new structured-generation oracle using the provided
// configuration.
//
// Returns ai.Oracle interface to enforce abstraction.
func NewOracle(config *ai.Config) (ai.Oracle, error) {
	return newOracle(config)
}

// GenerateStructured sends the request and returns the model's response as a
// validated JSON document. Malformed responses are retried up to
// maxGenerateAttempts times, with a repair pass applied before giving up on
// each attempt.
func (o *Oracle) GenerateStructured(ctx context.Context, req ai.StructuredRequest) (json.RawMessage, error) {
	content := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})

	callOpts := []llms.CallOption{
		llms.WithTemperature(0.0),
		llms.WithJSONMode(),
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		response, err := o.client.GenerateContent(ctx, content, callOpts...)
		if err != nil {
			// Transport and timeout failures are not retried here; the
			// caller decides how to degrade.
			o.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			o.logger.Debug("no choices returned from model")
			return nil, fmt.Errorf("oracle returned no choices")
		}

		raw := extractJSON(response.Choices[0].Content)
		if json.Valid([]byte(raw)) {
			return json.RawMessage(raw), nil
		}

		repaired := repairJSON(raw)
		if json.Valid([]byte(repaired)) {
			o.logger.Debug("repaired malformed JSON response", "attempt", attempt)
			return json.RawMessage(repaired), nil
		}

		lastErr = fmt.Errorf("malformed JSON response (attempt %d)", attempt)
		o.logger.Warn("malformed JSON from model, retrying", "attempt", attempt)
	}

	return nil, lastErr
}
