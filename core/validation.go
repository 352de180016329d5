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


package core

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a TextChunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty or whitespace only
//
// NOT validated (populated by the pipeline):
//   - Embedding (empty until the embedding stage runs)
//   - ClusterID (NoiseLabel until clustering runs)
//   - Relevance (0 until scoring runs)
func ValidateChunk(chunk *TextChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	return nil
}

// ValidateTheme validates a Theme according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Confidence, when set, must be high, medium or low
func ValidateTheme(theme *Theme) error {
	if theme == nil {
		return fmt.Errorf("%w: theme is nil", ErrInvalidTheme)
	}

	if theme.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTheme, ErrEmptyThemeName)
	}

	switch theme.Confidence {
	case "", ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		return fmt.Errorf("%w: unknown confidence %q", ErrInvalidTheme, theme.Confidence)
	}

	return nil
}

// ValidateQuestions validates a research question list for coverage work.
// Question identity is positional, so blank entries are rejected rather
// than dropped: dropping one would renumber everything after it.
func ValidateQuestions(questions []string) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrNoQuestions)
	}
	for i, q := range questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("%w: %w (index %d)", ErrConfiguration, ErrEmptyQuestion, i)
		}
	}
	return nil
}

// NormalizeConfidence maps arbitrary confidence strings from upstream
// synthesis output to the closed Confidence set. Unknown or empty values
// default to medium.
func NormalizeConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceLow:
		return ConfidenceLow
	default:
		return ConfidenceMedium
	}
}
