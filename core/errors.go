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

import "errors"

// Failure taxonomy for the analysis engine. Stages wrap these sentinels with
// fmt.Errorf("...: %w", ...) so callers can classify with errors.Is.
var (
	// ErrEmptyInput indicates there were no valid embeddings to cluster.
	// Fatal to the run.
	ErrEmptyInput = errors.New("no valid embeddings to cluster")

	// ErrScoring indicates an embedding failure during relevance scoring.
	// Recoverable by skipping the offending chunk.
	ErrScoring = errors.New("relevance scoring failed")

	// ErrOracle indicates an LLM call failure or timeout. Recoverable:
	// the affected theme/document pair yields empty results.
	ErrOracle = errors.New("oracle call failed")

	// ErrConfiguration indicates invalid weights or a malformed question
	// list. Fatal to the run.
	ErrConfiguration = errors.New("invalid configuration")
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a TextChunk failed validation.
	ErrInvalidChunk = errors.New("invalid text chunk")

	// ErrEmptyText indicates a chunk's Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidTheme indicates a Theme failed validation.
	ErrInvalidTheme = errors.New("invalid theme")

	// ErrEmptyThemeName indicates a theme's Name field is empty.
	ErrEmptyThemeName = errors.New("theme name cannot be empty")

	// ErrNoQuestions indicates an empty research question list where
	// coverage analysis requires at least one.
	ErrNoQuestions = errors.New("at least one research question required")

	// ErrEmptyQuestion indicates a blank entry in the question list.
	ErrEmptyQuestion = errors.New("research question cannot be blank")
)
